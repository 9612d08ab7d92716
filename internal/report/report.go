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

// Package report renders run reports and API documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/naming"
	"github.com/eminwux/regionfilter/pkg/api"
	"go.yaml.in/yaml/v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// New builds a report over results and counts them by status.
func New(profile string, pageSize int, started time.Time, results []api.FileResult) *api.RunReport {
	rep := &api.RunReport{
		ID:        naming.RandomID(),
		StartedAt: started.UTC(),
		Duration:  time.Since(started).Round(time.Millisecond).String(),
		Profile:   profile,
		PageSize:  pageSize,
		Files:     results,
	}
	if rep.Files == nil {
		rep.Files = []api.FileResult{}
	}

	rep.Summary.Total = len(results)
	for _, r := range results {
		switch r.Status {
		case api.FileChanged.String():
			rep.Summary.Changed++
		case api.FileUnchanged.String():
			rep.Summary.Unchanged++
		case api.FileFailed.String():
			rep.Summary.Failed++
		case api.FileSkipped.String():
			rep.Summary.Skipped++
		}
	}
	return rep
}

// Print writes rep as a table, JSON or YAML. An empty format means table.
func Print(w io.Writer, rep *api.RunReport, format string) error {
	switch format {
	case "", FormatTable:
		return printTable(w, rep)
	default:
		return Encode(w, rep, format)
	}
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("%w: %q (use json|yaml)", errdefs.ErrInvalidOutputFormat, format)
	}
}

func printTable(w io.Writer, rep *api.RunReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(rep.Files) == 0 {
		fmt.Fprintln(tw, "no files processed")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "PATH\tSTATUS\tREAD\tWRITTEN\tOUTPUT\tERROR")
	for _, f := range rep.Files {
		fmt.Fprintf(
			tw,
			"%s\t%s\t%d\t%d\t%s\t%s\n",
			f.Path,
			f.Status,
			f.BytesRead,
			f.BytesWritten,
			dashIfEmpty(f.Output),
			dashIfEmpty(f.Error),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(
		w,
		"\n%d files: %d changed, %d unchanged, %d skipped, %d failed (run %s, %s)\n",
		rep.Summary.Total,
		rep.Summary.Changed,
		rep.Summary.Unchanged,
		rep.Summary.Skipped,
		rep.Summary.Failed,
		rep.ID,
		rep.Duration,
	)
	return err
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
