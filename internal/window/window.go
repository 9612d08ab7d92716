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

// Package window provides a bounded, refillable view over a forward-only
// byte stream. The window keeps every byte from the last commit point
// onward, so a reader may walk ahead of the commit point, record marks and
// seek back to them without touching the source again.
//
// Bytes before the commit point are released on the next refill, except
// for the single byte right before it, which stays readable through Prev.
package window

import (
	"errors"
	"fmt"
	"io"

	"github.com/eminwux/regionfilter/internal/errdefs"
)

// DefaultPageSize is the read size used when the caller does not pick one.
const DefaultPageSize = 4096

// maxEmptyReads bounds consecutive (0, nil) reads from the source.
const maxEmptyReads = 100

// Mark is an absolute stream offset recorded by Mark and restored by Seek.
type Mark int64

// Window buffers a source in page-sized reads.
//
// Offsets passed to At, Peek, Advance and Fill are relative to the cursor.
// Marks are absolute stream offsets.
type Window struct {
	src  io.Reader
	page int

	buf   []byte
	base  int64 // stream offset of buf[0]
	pos   int   // cursor
	floor int   // first uncommitted byte
	eof   bool
}

// New returns a window reading src pageSize bytes at a time. A pageSize
// below 1 selects DefaultPageSize.
func New(src io.Reader, pageSize int) *Window {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Window{
		src:  src,
		page: pageSize,
		buf:  make([]byte, 0, pageSize),
	}
}

// PageSize returns the number of bytes requested from the source per read.
func (w *Window) PageSize() int { return w.page }

// Offset returns the absolute stream offset of the cursor.
func (w *Window) Offset() int64 { return w.base + int64(w.pos) }

// Available returns the number of buffered bytes ahead of the cursor.
func (w *Window) Available() int { return len(w.buf) - w.pos }

// Buffered returns the number of bytes currently held, committed history
// included. It only grows past one page while a caller looks further ahead.
func (w *Window) Buffered() int { return len(w.buf) }

// Done reports whether the cursor sits at the end of the stream. It reads
// from the source if nothing is buffered yet.
func (w *Window) Done() (bool, error) {
	n, err := w.Fill(1)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Fill ensures at least min bytes are buffered ahead of the cursor and
// returns how many are. The result is smaller than min only at the end of
// the stream.
func (w *Window) Fill(min int) (int, error) {
	for w.Available() < min && !w.eof {
		if err := w.readPage(); err != nil {
			return w.Available(), err
		}
	}
	return w.Available(), nil
}

func (w *Window) readPage() error {
	if cap(w.buf)-len(w.buf) < w.page {
		w.compact()
	}
	if cap(w.buf)-len(w.buf) < w.page {
		size := 2 * cap(w.buf)
		if size < len(w.buf)+w.page {
			size = len(w.buf) + w.page
		}
		grown := make([]byte, len(w.buf), size)
		copy(grown, w.buf)
		w.buf = grown
	}

	for range maxEmptyReads {
		n, err := w.src.Read(w.buf[len(w.buf) : len(w.buf)+w.page])
		w.buf = w.buf[:len(w.buf)+n]
		if errors.Is(err, io.EOF) {
			w.eof = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", errdefs.ErrSourceRead, err)
		}
		if n > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", errdefs.ErrSourceRead, io.ErrNoProgress)
}

// compact slides committed bytes out of the buffer, keeping one byte of
// history before the commit point.
func (w *Window) compact() {
	drop := w.floor - 1
	if drop <= 0 {
		return
	}
	n := copy(w.buf, w.buf[drop:])
	w.buf = w.buf[:n]
	w.base += int64(drop)
	w.pos -= drop
	w.floor -= drop
}

// At returns the byte i positions ahead of the cursor, reading from the
// source as needed. It returns io.EOF when the stream ends first.
func (w *Window) At(i int) (byte, error) {
	n, err := w.Fill(i + 1)
	if err != nil {
		return 0, err
	}
	if n <= i {
		return 0, io.EOF
	}
	return w.buf[w.pos+i], nil
}

// Peek returns a view of up to n bytes starting off bytes ahead of the
// cursor. A short view comes with io.EOF. The view is only valid until the
// next call that may refill the window.
func (w *Window) Peek(off, n int) ([]byte, error) {
	avail, err := w.Fill(off + n)
	if err != nil {
		return nil, err
	}
	if avail <= off {
		return nil, io.EOF
	}
	end := off + n
	if end > avail {
		return w.buf[w.pos+off : w.pos+avail], io.EOF
	}
	return w.buf[w.pos+off : w.pos+end], nil
}

// ReadByte returns the byte at the cursor and moves past it.
func (w *Window) ReadByte() (byte, error) {
	c, err := w.At(0)
	if err != nil {
		return 0, err
	}
	w.pos++
	return c, nil
}

// Advance moves the cursor n bytes forward.
func (w *Window) Advance(n int) error {
	avail, err := w.Fill(n)
	if err != nil {
		return err
	}
	if avail < n {
		return io.ErrUnexpectedEOF
	}
	w.pos += n
	return nil
}

// Commit declares every byte before the cursor classified. Committed bytes
// can no longer be reached by Seek.
func (w *Window) Commit() { w.floor = w.pos }

// Mark records the cursor position.
func (w *Window) Mark() Mark { return Mark(w.Offset()) }

// Seek moves the cursor back (or forward) to m. The target must lie between
// the commit point and the end of the buffered data; the bytes in between
// are replayed from the buffer, never re-read from the source.
func (w *Window) Seek(m Mark) error {
	idx := int64(m) - w.base
	if idx < int64(w.floor) || idx > int64(len(w.buf)) {
		return fmt.Errorf("%w: offset %d", errdefs.ErrSeekOutOfRange, int64(m))
	}
	w.pos = int(idx)
	return nil
}

// Prev returns the byte right before the cursor. It reports false at the
// start of the stream.
func (w *Window) Prev() (byte, bool) {
	if w.pos == 0 {
		return 0, false
	}
	return w.buf[w.pos-1], true
}

// Lookback returns the n bytes right before the cursor if they are still
// buffered.
func (w *Window) Lookback(n int) ([]byte, bool) {
	if n < 0 || n > w.pos {
		return nil, false
	}
	return w.buf[w.pos-n : w.pos], true
}
