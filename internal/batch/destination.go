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

// Package batch runs one processor per input file with bounded
// concurrency.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/fileio"
)

// Destination decides where the output of an input goes.
type Destination interface {
	// Write runs fn over the input at path and stores its output. It
	// returns the output location, empty when nothing was stored.
	Write(ctx context.Context, path string, fn fileio.Transform) (output string, changed bool, err error)
}

// InPlace rewrites every changed input atomically under a file lock.
type InPlace struct{}

func (InPlace) Write(ctx context.Context, path string, fn fileio.Transform) (string, bool, error) {
	changed, err := fileio.Replace(ctx, path, fn)
	if err != nil || !changed {
		return "", changed, err
	}
	return path, true, nil
}

// Planner is implemented by destinations that must see every input path
// before the first one is written.
type Planner interface {
	Plan(paths []string) error
}

// OutDir writes every input, changed or not, to Dir under its base name.
type OutDir struct {
	Dir string
}

func (d OutDir) target(path string) string {
	return filepath.Join(d.Dir, filepath.Base(path))
}

// Plan rejects inputs that would land on the same file in Dir.
func (d OutDir) Plan(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		dst := d.target(path)
		if prev, ok := seen[dst]; ok {
			return fmt.Errorf("%w: %q and %q both write %q", errdefs.ErrOutputClash, prev, path, dst)
		}
		seen[dst] = path
	}
	return nil
}

func (d OutDir) Write(ctx context.Context, path string, fn fileio.Transform) (string, bool, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	if errM := os.MkdirAll(d.Dir, 0o755); errM != nil {
		return "", false, fmt.Errorf("%w %q: %w", errdefs.ErrReplaceFile, d.Dir, errM)
	}

	dst := d.target(path)
	changed := false
	err = fileio.WriteAtomic(dst, info.Mode().Perm(), func(out io.Writer) (bool, error) {
		c, errT := fn(ctx, in, out)
		changed = c
		return true, errT
	})
	if err != nil {
		return "", changed, err
	}
	return dst, changed, nil
}

// Stream writes every output to W, one input at a time.
type Stream struct {
	W io.Writer

	mu sync.Mutex
}

func (s *Stream) Write(ctx context.Context, path string, fn fileio.Transform) (string, bool, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	defer in.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := fn(ctx, in, s.W)
	return "", changed, err
}

// Discard runs the inputs without storing anything.
type Discard struct{}

func (Discard) Write(ctx context.Context, path string, fn fileio.Transform) (string, bool, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	defer in.Close()

	changed, err := fn(ctx, in, io.Discard)
	return "", changed, err
}
