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

// Package fileio writes filter output to disk atomically.
package fileio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"golang.org/x/sys/unix"
)

// Transform copies in to out and reports whether out differs from in.
type Transform func(ctx context.Context, in io.Reader, out io.Writer) (changed bool, err error)

// Replace rewrites the file at path through fn while holding an exclusive
// advisory lock on it. The new content replaces the file only if fn
// reports a change; the file mode is kept. A file locked by another
// process fails with ErrLocked.
//
// The lock sits on the inode opened here, which the rename replaces: it only
// serializes regionfilter runs that open path before that rename.
func Replace(ctx context.Context, path string, fn Transform) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	defer f.Close()

	if errL := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); errL != nil {
		if errors.Is(errL, unix.EWOULDBLOCK) {
			return false, fmt.Errorf("%w: %s", errdefs.ErrLocked, path)
		}
		return false, fmt.Errorf("%w %q: flock: %w", errdefs.ErrReplaceFile, path, errL)
	}
	defer func() { _ = unix.Flock(int(f.Fd()), unix.LOCK_UN) }()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}

	changed := false
	err = WriteAtomic(path, info.Mode().Perm(), func(out io.Writer) (bool, error) {
		c, errT := fn(ctx, f, out)
		changed = c
		return c, errT
	})
	return changed, err
}

// WriteAtomic writes to a temp file in the directory of dst, fsyncs, then
// renames it over dst. Nothing is renamed when fn fails or returns false.
func WriteAtomic(dst string, mode os.FileMode, fn func(out io.Writer) (bool, error)) error {
	dir := filepath.Dir(dst)

	f, err := os.CreateTemp(dir, ".regionfilter-*.tmp")
	if err != nil {
		return fmt.Errorf("%w %q: %w", errdefs.ErrReplaceFile, dst, err)
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp) // safe if already renamed
	}()

	if errC := f.Chmod(mode); errC != nil {
		return fmt.Errorf("%w %q: chmod: %w", errdefs.ErrReplaceFile, dst, errC)
	}

	keep, err := fn(f)
	if err != nil {
		return err
	}
	if !keep {
		return nil
	}

	if errS := f.Sync(); errS != nil {
		return fmt.Errorf("%w %q: fsync: %w", errdefs.ErrReplaceFile, dst, errS)
	}
	if errC := f.Close(); errC != nil {
		return fmt.Errorf("%w %q: close: %w", errdefs.ErrReplaceFile, dst, errC)
	}
	if errR := os.Rename(tmp, dst); errR != nil {
		return fmt.Errorf("%w %q: rename: %w", errdefs.ErrReplaceFile, dst, errR)
	}
	if d, errO := os.Open(dir); errO == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
