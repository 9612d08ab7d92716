// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package preview renders what a run would change in a file.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

type Options struct {
	// Color wraps removed lines in red and added lines in green.
	Color bool
	// Context is the number of unchanged lines kept around each change.
	// Negative keeps every line.
	Context int
}

// Stats counts changed lines.
type Stats struct {
	Added   int
	Removed int
}

// Render writes a line diff of before and after to w.
func Render(w io.Writer, path, before, after string, opts Options) (Stats, error) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	p := &printer{w: w, opts: opts}
	p.header(path)
	if before == after {
		p.line(colorCyan, "", "no changes")
		return Stats{}, p.err
	}

	for i, d := range diffs {
		ls := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			p.stats.Removed += len(ls)
			for _, l := range ls {
				p.line(colorRed, "-", l)
			}
		case diffmatchpatch.DiffInsert:
			p.stats.Added += len(ls)
			for _, l := range ls {
				p.line(colorGreen, "+", l)
			}
		case diffmatchpatch.DiffEqual:
			p.equal(ls, i == 0, i == len(diffs)-1)
		}
	}
	return p.stats, p.err
}

type printer struct {
	w     io.Writer
	opts  Options
	stats Stats
	err   error
}

func (p *printer) header(path string) {
	p.line(colorCyan, "", fmt.Sprintf("--- %s", path))
	p.line(colorCyan, "", fmt.Sprintf("+++ %s (filtered)", path))
}

// equal prints unchanged lines, keeping Context lines next to changes.
func (p *printer) equal(ls []string, first, last bool) {
	keep := p.opts.Context
	if keep < 0 || len(ls) <= 2*keep {
		for _, l := range ls {
			p.line("", " ", l)
		}
		return
	}

	head, tail := keep, keep
	if first {
		head = 0
	}
	if last {
		tail = 0
	}
	for _, l := range ls[:head] {
		p.line("", " ", l)
	}
	if skipped := len(ls) - head - tail; skipped > 0 {
		p.line(colorCyan, "", fmt.Sprintf("@@ %d unchanged lines @@", skipped))
	}
	for _, l := range ls[len(ls)-tail:] {
		p.line("", " ", l)
	}
}

func (p *printer) line(color, prefix, text string) {
	if p.err != nil {
		return
	}
	if p.opts.Color && color != "" {
		_, p.err = fmt.Fprintf(p.w, "%s%s%s%s\n", color, prefix, text, colorReset)
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", prefix, text)
}

// splitLines splits s into lines without their line feeds.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, strings.TrimSuffix(part, "\n"))
	}
	return out
}
