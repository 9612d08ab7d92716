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

package processor

import (
	"bufio"
	"fmt"
	"io"

	"github.com/eminwux/regionfilter/internal/errdefs"
)

//nolint:mnd // 4 KiB minimum buffer
const minSinkBuffer = 4 * 1024

// sink buffers writes to the output and counts what actually reached it.
type sink struct {
	*bufio.Writer
	dst     io.Writer
	written int64
}

func newSink(dst io.Writer, pageSize int) *sink {
	s := &sink{dst: dst}
	s.Writer = bufio.NewWriterSize(writerFunc(s.writeThrough), max(pageSize, minSinkBuffer))
	return s
}

// writeThrough handles short writes; a write that makes no progress is an
// error.
func (s *sink) writeThrough(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		m, err := s.dst.Write(p[total:])
		total += m
		s.written += int64(m)
		if err != nil {
			return total, fmt.Errorf("%w: %w", errdefs.ErrSinkWrite, err)
		}
		if m == 0 {
			return total, fmt.Errorf("%w: %w", errdefs.ErrSinkWrite, io.ErrShortWrite)
		}
	}
	return total, nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
