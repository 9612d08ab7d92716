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

package batch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/filter"
	"github.com/eminwux/regionfilter/internal/processor"
	"github.com/eminwux/regionfilter/pkg/api"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newProcessor(t *testing.T) *processor.Processor {
	t.Helper()
	region, err := filter.NewRegion(filter.RegionConfig{ID: "dbg", Start: "#if DEBUG", End: "#endif", WholeLine: true})
	if err != nil {
		t.Fatalf("NewRegion() error = %v", err)
	}
	p, err := processor.New(newTestLogger(), []filter.Provider{region}, processor.WithPageSize(3))
	if err != nil {
		t.Fatalf("processor.New() error = %v", err)
	}
	return p
}

func writeInputs(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		paths = append(paths, path)
	}
	return dir, paths
}

const debugSource = "a\n#if DEBUG\nlog()\n#endif\nb\n"

func Test_Run_InPlace(t *testing.T) {
	_, paths := writeInputs(t, map[string]string{
		"one.cs":   debugSource,
		"two.cs":   "plain\n",
		"three.cs": debugSource,
	})
	p := newProcessor(t)

	inputs := make([]Input, 0, len(paths))
	for _, path := range paths {
		inputs = append(inputs, Input{Path: path, Processor: p})
	}

	var finished atomic.Int32
	r := New(newTestLogger(), 2, WithOnFinished(func(api.FileResult) { finished.Add(1) }))
	results, err := r.Run(context.Background(), inputs, InPlace{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if int(finished.Load()) != len(paths) {
		t.Fatalf("expected %d callbacks; got %d", len(paths), finished.Load())
	}

	for i, res := range results {
		if res.Path != paths[i] {
			t.Fatalf("expected results in input order; got %s at %d", res.Path, i)
		}
		data, _ := os.ReadFile(res.Path)
		switch filepath.Base(res.Path) {
		case "two.cs":
			if res.Status != api.FileUnchanged.String() || res.Output != "" {
				t.Fatalf("expected unchanged two.cs; got %+v", res)
			}
		default:
			if res.Status != api.FileChanged.String() {
				t.Fatalf("expected changed; got %+v", res)
			}
			if string(data) != "a\nb\n" {
				t.Fatalf("expected filtered content; got %q", data)
			}
			if res.BytesRead != int64(len(debugSource)) || res.BytesWritten != 4 {
				t.Fatalf("unexpected byte counts: %+v", res)
			}
		}
	}
}

func Test_Run_OutDirAndSkipped(t *testing.T) {
	_, paths := writeInputs(t, map[string]string{"keep.cs": debugSource})
	outDir := filepath.Join(t.TempDir(), "out")

	inputs := []Input{
		{Path: paths[0], Processor: newProcessor(t)},
		{Path: "ignored.txt"},
	}
	results, err := New(newTestLogger(), 4).Run(context.Background(), inputs, OutDir{Dir: outDir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[1].Status != api.FileSkipped.String() {
		t.Fatalf("expected skipped; got %+v", results[1])
	}

	data, err := os.ReadFile(filepath.Join(outDir, "keep.cs"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "a\nb\n" {
		t.Fatalf("expected filtered copy; got %q", data)
	}
	orig, _ := os.ReadFile(paths[0])
	if string(orig) != debugSource {
		t.Fatal("expected the input to stay untouched")
	}
}

func Test_Run_OutDirRejectsSharedBaseNames(t *testing.T) {
	root := t.TempDir()
	paths := make([]string, 0, 2)
	for _, sub := range []string{"a", "b"} {
		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		path := filepath.Join(dir, "x.cs")
		if err := os.WriteFile(path, []byte(debugSource), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		paths = append(paths, path)
	}
	outDir := filepath.Join(root, "out")

	inputs := []Input{
		{Path: paths[0], Processor: newProcessor(t)},
		{Path: paths[1], Processor: newProcessor(t)},
	}
	_, err := New(newTestLogger(), 2).Run(context.Background(), inputs, OutDir{Dir: outDir})
	if !errors.Is(err, errdefs.ErrOutputClash) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrOutputClash, err)
	}
	if _, errS := os.Stat(outDir); !os.IsNotExist(errS) {
		t.Fatalf("expected nothing written; got %v", errS)
	}

	// A skipped input does not claim its output name.
	inputs[1].Processor = nil
	if _, err := New(newTestLogger(), 2).Run(context.Background(), inputs, OutDir{Dir: outDir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func Test_Run_Stream(t *testing.T) {
	_, paths := writeInputs(t, map[string]string{"s.cs": debugSource})
	var buf bytes.Buffer

	_, err := New(newTestLogger(), 1).Run(context.Background(),
		[]Input{{Path: paths[0], Processor: newProcessor(t)}}, &Stream{W: &buf})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if buf.String() != "a\nb\n" {
		t.Fatalf("expected a\\nb\\n; got %q", buf.String())
	}
}

func Test_Run_FailureCancels(t *testing.T) {
	_, paths := writeInputs(t, map[string]string{"ok.cs": debugSource})
	inputs := []Input{
		{Path: filepath.Join(t.TempDir(), "missing.cs"), Processor: newProcessor(t)},
		{Path: paths[0], Processor: newProcessor(t)},
	}

	results, err := New(newTestLogger(), 1).Run(context.Background(), inputs, Discard{})
	if !errors.Is(err, errdefs.ErrFilesFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrFilesFailed, err)
	}
	if results[0].Status != api.FileFailed.String() || !strings.Contains(results[0].Error, "missing.cs") {
		t.Fatalf("expected the missing file to fail; got %+v", results[0])
	}
	if results[1].Status != api.FileFailed.String() {
		t.Fatalf("expected the next file to be canceled; got %+v", results[1])
	}
}

func Test_Run_KeepGoing(t *testing.T) {
	_, paths := writeInputs(t, map[string]string{"ok.cs": debugSource})
	inputs := []Input{
		{Path: filepath.Join(t.TempDir(), "missing.cs"), Processor: newProcessor(t)},
		{Path: paths[0], Processor: newProcessor(t)},
	}

	results, err := New(newTestLogger(), 1, WithKeepGoing(true)).Run(context.Background(), inputs, Discard{})
	if !errors.Is(err, errdefs.ErrFilesFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrFilesFailed, err)
	}
	if results[1].Status != api.FileChanged.String() {
		t.Fatalf("expected the second file to run; got %+v", results[1])
	}
}
