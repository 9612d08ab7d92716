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

package filter

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/matcher"
	"github.com/eminwux/regionfilter/internal/window"
)

// State is the two-valued toggle of a region. There is no nesting depth.
type State int

const (
	Outside State = iota
	Inside
)

func (s State) String() string {
	if s == Inside {
		return "inside"
	}
	return "outside"
}

const (
	tokenStart = 0
	tokenEnd   = 1
)

// RegionConfig configures a Region.
type RegionConfig struct {
	// ID names the region in logs and reports. It has no effect on output.
	ID string

	Start string
	End   string

	// Include keeps the content between markers; only the markers go.
	// Otherwise the content between a start and the next end goes too.
	Include bool

	// WholeLine widens every marker to the full line holding it, terminator
	// included.
	WholeLine bool

	// TrimWhitespace widens every marker over the spaces and tabs touching
	// it on both sides, and drops the line terminator of a line left empty.
	// It has no effect together with WholeLine.
	TrimWhitespace bool
}

// Region filters marker-delimited regions.
//
// Policy:
//   - A marker occurrence is never written, whatever the state.
//   - A start marker sets Inside, an end marker sets Outside, even out of
//     order. When Start == End every occurrence flips the state.
//   - Content survives if Include is set or the state is Outside.
type Region struct {
	cfg     RegionConfig
	matcher *matcher.Matcher
	toggle  bool
}

// NewRegion validates cfg and builds a Region. Empty markers are rejected.
func NewRegion(cfg RegionConfig) (*Region, error) {
	if cfg.Start == "" {
		return nil, fmt.Errorf("%w: region %q start marker", errdefs.ErrEmptyToken, cfg.ID)
	}
	if cfg.End == "" {
		return nil, fmt.Errorf("%w: region %q end marker", errdefs.ErrEmptyToken, cfg.ID)
	}

	toggle := cfg.Start == cfg.End
	tokens := [][]byte{[]byte(cfg.Start)}
	if !toggle {
		tokens = append(tokens, []byte(cfg.End))
	}
	m, err := matcher.New(tokens...)
	if err != nil {
		return nil, err
	}

	return &Region{cfg: cfg, matcher: m, toggle: toggle}, nil
}

// Config returns the configuration the region was built from.
func (r *Region) Config() RegionConfig { return r.cfg }

// Open returns a region operation in the Outside state.
func (r *Region) Open() Operation {
	return &regionOp{region: r, state: Outside, clearTo: -1}
}

// span is a marker occurrence widened per the region options. Offsets are
// relative to the cursor.
type span struct {
	found      bool
	token      int
	start, end int
	// safe is set when found is false: no span starts before it.
	safe int
}

type regionOp struct {
	region *Region
	state  State
	budget int
	// clearTo is the stream offset up to which the current line holds only
	// suppressed bytes, or -1.
	clearTo int64
}

func (op *regionOp) excluding() bool {
	return op.state == Inside && !op.region.cfg.Include
}

func (op *regionOp) Probe(w *window.Window, budget int) (Probe, error) {
	op.budget = budget
	if op.excluding() {
		return Probe{At: 0, Ready: true}, nil
	}

	sp, err := op.locate(w, budget)
	if err != nil {
		return Probe{}, err
	}
	if sp.found {
		return Probe{At: sp.start, Ready: true}, nil
	}
	return Probe{At: sp.safe}, nil
}

func (op *regionOp) Apply(w *window.Window) (Action, error) {
	origin := w.Mark()
	sp, err := op.locate(w, op.budget)
	if err != nil {
		return Action{}, err
	}
	if errS := w.Seek(origin); errS != nil {
		return Action{}, errS
	}

	if sp.found && sp.start == 0 {
		act, errT := op.take(w, sp.end)
		if errT != nil {
			return Action{}, errT
		}
		op.transition(sp.token)
		return act, nil
	}

	if !op.excluding() {
		return Action{}, fmt.Errorf("%w: region %q at offset %d", errdefs.ErrStaleProbe, op.region.cfg.ID, w.Offset())
	}
	if sp.found {
		return op.take(w, sp.start)
	}
	return op.take(w, sp.safe)
}

func (op *regionOp) transition(token int) {
	switch {
	case op.region.toggle:
		if op.state == Inside {
			op.state = Outside
		} else {
			op.state = Inside
		}
	case token == tokenStart:
		op.state = Inside
	default:
		op.state = Outside
	}
}

// take suppresses n bytes at the cursor and tracks whether the line they
// end on is still free of surviving content.
func (op *regionOp) take(w *window.Window, n int) (Action, error) {
	clear, err := op.lineClearAt(w, 0)
	if err != nil {
		return Action{}, err
	}
	if !clear {
		view, errP := w.Peek(0, n)
		if errP != nil && !errors.Is(errP, io.EOF) {
			return Action{}, errP
		}
		clear = bytes.IndexByte(view, '\n') >= 0
	}

	if errA := w.Advance(n); errA != nil {
		return Action{}, errA
	}
	if clear {
		op.clearTo = w.Offset()
	} else {
		op.clearTo = -1
	}
	return Action{Consumed: n}, nil
}

// locate finds the next widened marker. When the budget yields no safe
// prefix at all, it is doubled until one shows up or the stream ends.
func (op *regionOp) locate(w *window.Window, budget int) (span, error) {
	if budget < 1 {
		budget = 1
	}
	for {
		hit, err := op.region.matcher.Next(w, budget)
		if err != nil {
			return span{}, err
		}

		switch hit.Kind {
		case matcher.Found:
			return op.widen(w, hit)
		case matcher.None:
			return span{safe: hit.Offset}, nil
		case matcher.More:
		}

		safe, err := op.safeBefore(w, hit.Offset)
		if err != nil {
			return span{}, err
		}
		if safe > 0 {
			return span{safe: safe}, nil
		}
		budget *= 2
	}
}

// safeBefore returns how much of [0, limit) no span can reach back into,
// given that no marker starts before limit.
func (op *regionOp) safeBefore(w *window.Window, limit int) (int, error) {
	cfg := op.region.cfg
	switch {
	case cfg.WholeLine:
		for i := limit - 1; i >= 0; i-- {
			c, err := w.At(i)
			if err != nil {
				return 0, err
			}
			if c == '\n' {
				return i + 1, nil
			}
		}
		return 0, nil
	case cfg.TrimWhitespace:
		return spaceRunStart(w, limit)
	default:
		return limit, nil
	}
}

func (op *regionOp) widen(w *window.Window, hit matcher.Hit) (span, error) {
	cfg := op.region.cfg
	sp := span{found: true, token: hit.Token, start: hit.Offset, end: hit.Offset + hit.Length}

	var err error
	switch {
	case cfg.WholeLine:
		if sp.start, err = lineStart(w, sp.start); err != nil {
			return span{}, err
		}
		if sp.end, err = lineEnd(w, sp.end); err != nil {
			return span{}, err
		}
	case cfg.TrimWhitespace:
		if sp.start, err = spaceRunStart(w, sp.start); err != nil {
			return span{}, err
		}
		if sp.end, err = spaceRunEnd(w, sp.end); err != nil {
			return span{}, err
		}
		clear, errC := op.lineClearAt(w, sp.start)
		if errC != nil {
			return span{}, errC
		}
		if clear {
			n, errT := terminatorLen(w, sp.end)
			if errT != nil {
				return span{}, errT
			}
			sp.end += n
		}
	}
	return sp, nil
}

// lineClearAt reports whether nothing on the line holding offset s survives
// before s.
func (op *regionOp) lineClearAt(w *window.Window, s int) (bool, error) {
	if s > 0 {
		c, err := w.At(s - 1)
		if err != nil {
			return false, err
		}
		return c == '\n', nil
	}
	if op.clearTo == w.Offset() {
		return true, nil
	}
	prev, ok := w.Prev()
	return !ok || prev == '\n', nil
}

func isInlineSpace(c byte) bool { return c == ' ' || c == '\t' }

// spaceRunStart walks back from i over spaces and tabs, never past the
// cursor.
func spaceRunStart(w *window.Window, i int) (int, error) {
	for i > 0 {
		c, err := w.At(i - 1)
		if err != nil {
			return 0, err
		}
		if !isInlineSpace(c) {
			break
		}
		i--
	}
	return i, nil
}

func spaceRunEnd(w *window.Window, i int) (int, error) {
	for {
		c, err := w.At(i)
		if errors.Is(err, io.EOF) {
			return i, nil
		}
		if err != nil {
			return 0, err
		}
		if !isInlineSpace(c) {
			return i, nil
		}
		i++
	}
}

// lineStart returns the offset right after the last line feed before i, or
// the cursor if there is none.
func lineStart(w *window.Window, i int) (int, error) {
	for j := i - 1; j >= 0; j-- {
		c, err := w.At(j)
		if err != nil {
			return 0, err
		}
		if c == '\n' {
			return j + 1, nil
		}
	}
	return 0, nil
}

// lineEnd returns the offset right after the first line feed at or after
// i, or the end of the stream.
func lineEnd(w *window.Window, i int) (int, error) {
	for {
		c, err := w.At(i)
		if errors.Is(err, io.EOF) {
			return i, nil
		}
		if err != nil {
			return 0, err
		}
		i++
		if c == '\n' {
			return i, nil
		}
	}
}

// terminatorLen returns the length of the line terminator at i: 1 for LF,
// 2 for CRLF, 0 otherwise.
func terminatorLen(w *window.Window, i int) (int, error) {
	c, err := w.At(i)
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	switch c {
	case '\n':
		return 1, nil
	case '\r':
		next, errN := w.At(i + 1)
		if errors.Is(errN, io.EOF) {
			return 0, nil
		}
		if errN != nil {
			return 0, errN
		}
		if next == '\n' {
			return 2, nil
		}
	}
	return 0, nil
}
