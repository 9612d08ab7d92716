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

package run

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const debugSource = "a\n#if DEBUG\nlog()\n#endif\nb\n"

var debugFlags = []string{"--start", "#if DEBUG", "--end", "#endif", "--whole-line"}

func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.Set(env.PAGE_SIZE.ViperKey, 8)
	viper.Set(env.JOBS.ViperKey, 2)
	viper.Set(env.PROFILES_FILE.ViperKey, filepath.Join(t.TempDir(), "profiles.yaml"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cmd := NewRunCmd()
	cmd.SetContext(context.WithValue(context.Background(), logging.CtxLogger, logger))

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func Test_ErrLoggerNotFound_Run_RunE(t *testing.T) {
	cmd := NewRunCmd()
	// Don't set CtxLogger, so it will be nil
	cmd.SetContext(context.Background())

	err := cmd.RunE(cmd, []string{})
	if !errors.Is(err, errdefs.ErrLoggerNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrLoggerNotFound, err)
	}
}

func Test_Run_FlagErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.cs", debugSource)

	tests := []struct {
		name     string
		args     []string
		expected error
	}{
		{"output without report", []string{"--start", "x", "--output", "json", file}, errdefs.ErrInvalidFlag},
		{"invalid output format", []string{"--start", "x", "--report", "-o", "xml", file}, errdefs.ErrInvalidOutputFormat},
		{"in-place and out-dir", []string{"--start", "x", "-i", "--out-dir", dir, file}, errdefs.ErrInvalidFlag},
		{"in-place on stdin", []string{"--start", "x", "--in-place", "-"}, errdefs.ErrInvalidFlag},
		{"stdin mixed with files", []string{"--start", "x", "-", file}, errdefs.ErrTooManyArguments},
		{"no operations", []string{file}, errdefs.ErrNoOperations},
		{"bad replacement", []string{"--replace", "=x", file}, errdefs.ErrInvalidReplace},
		{"unknown profile", []string{"--profile", "nope", file}, errdefs.ErrOpenProfiles},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, _, _ := newTestCmd(t)
			cmd.SetArgs(tc.args)
			err := cmd.Execute()
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected '%v'; got: '%v'", tc.expected, err)
			}
		})
	}
}

func Test_Run_Stdin(t *testing.T) {
	cmd, stdout, _ := newTestCmd(t)
	cmd.SetIn(strings.NewReader(debugSource))
	cmd.SetArgs(debugFlags)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stdout.String() != "a\nb\n" {
		t.Fatalf("expected %q; got %q", "a\nb\n", stdout.String())
	}
}

func Test_Run_StdinTerminal(t *testing.T) {
	orig := isTerminal
	isTerminal = func(int) bool { return true }
	t.Cleanup(func() { isTerminal = orig })

	cmd, _, _ := newTestCmd(t)
	cmd.SetIn(os.Stdin)
	cmd.SetArgs(append([]string{"-"}, debugFlags...))

	err := cmd.Execute()
	if !errors.Is(err, errdefs.ErrStdinTerminal) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrStdinTerminal, err)
	}
}

func Test_Run_ReportGoesToStderrWhenFilteringToStdout(t *testing.T) {
	cmd, stdout, stderr := newTestCmd(t)
	cmd.SetIn(strings.NewReader("x=cat"))
	cmd.SetArgs([]string{"--replace", "cat=dog", "--report", "-o", "json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stdout.String() != "x=dog" {
		t.Fatalf("expected x=dog; got %q", stdout.String())
	}

	var rep api.RunReport
	if err := json.Unmarshal(stderr.Bytes(), &rep); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, stderr.String())
	}
	if rep.Summary.Changed != 1 || rep.Files[0].Path != "-" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func Test_Run_FilesToStdout(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.cs", "one #if DEBUG\n")
	b := writeFile(t, dir, "b.cs", "two\n")

	cmd, stdout, _ := newTestCmd(t)
	cmd.SetArgs([]string{"--start", " #if DEBUG", "--end", "never", a, b})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stdout.String() != "onetwo\n" {
		t.Fatalf("expected %q; got %q", "onetwo\n", stdout.String())
	}
}

func Test_Run_InPlace(t *testing.T) {
	dir := t.TempDir()
	changed := writeFile(t, dir, "a.cs", debugSource)
	untouched := writeFile(t, dir, "b.cs", "nothing to do\n")

	cmd, stdout, _ := newTestCmd(t)
	cmd.SetArgs(append(debugFlags, "--in-place", "--report", changed, untouched))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got, err := os.ReadFile(changed)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "a\nb\n" {
		t.Fatalf("expected %q; got %q", "a\nb\n", string(got))
	}
	if !strings.Contains(stdout.String(), "2 files: 1 changed, 1 unchanged") {
		t.Fatalf("expected a table report; got:\n%s", stdout.String())
	}
}

func Test_Run_OutDirWithProfile(t *testing.T) {
	dir := t.TempDir()
	profiles := writeFile(t, dir, "profiles.yaml", `apiVersion: regionfilter/v1beta1
kind: FilterProfile
metadata:
  name: csharp-debug
spec:
  globs: ["*.cs"]
  regions:
    - id: debug
      start: "#if DEBUG"
      end: "#endif"
      wholeLine: true
`)
	cs := writeFile(t, dir, "a.cs", debugSource)
	txt := writeFile(t, dir, "notes.txt", debugSource)
	out := filepath.Join(dir, "out")

	cmd, _, _ := newTestCmd(t)
	viper.Set(env.PROFILES_FILE.ViperKey, profiles)
	cmd.SetArgs([]string{"--profile", "csharp-debug", "--out-dir", out, cs, txt})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "a.cs"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "a\nb\n" {
		t.Fatalf("expected %q; got %q", "a\nb\n", string(got))
	}
	if _, err := os.Stat(filepath.Join(out, "notes.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected notes.txt to be skipped; got %v", err)
	}
}

func Test_Run_OutDirSharedBaseName(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}
	first := writeFile(t, filepath.Join(dir, "a"), "x.cs", debugSource)
	second := writeFile(t, filepath.Join(dir, "b"), "x.cs", debugSource)

	cmd, _, _ := newTestCmd(t)
	cmd.SetArgs(append(debugFlags, "--out-dir", filepath.Join(dir, "out"), first, second))

	if err := cmd.Execute(); !errors.Is(err, errdefs.ErrOutputClash) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrOutputClash, err)
	}
}

func Test_Run_MissingFileFails(t *testing.T) {
	cmd, _, _ := newTestCmd(t)
	cmd.SetArgs(append(debugFlags, filepath.Join(t.TempDir(), "missing.cs")))

	err := cmd.Execute()
	if !errors.Is(err, errdefs.ErrFilesFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrFilesFailed, err)
	}
}
