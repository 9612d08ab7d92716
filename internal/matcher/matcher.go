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

// Package matcher finds the earliest occurrence of any of a set of literal
// tokens ahead of a window cursor.
//
// A candidate that agrees with a token prefix pulls in exactly the bytes it
// still needs, so a token torn across several reads is completed before it
// is accepted or rejected. A rejected candidate is replayed from the window
// and scanning resumes one byte after its start.
package matcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/window"
)

// Kind classifies the outcome of a scan.
type Kind int

const (
	// None means no token can start anywhere in the rest of the stream.
	None Kind = iota
	// Found means a token starts at Hit.Offset.
	Found
	// More means no token starts before Hit.Offset, and the scan budget ran
	// out before the stream did.
	More
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Found:
		return "found"
	case More:
		return "more"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Hit is the result of Next. Offsets are relative to the window cursor.
//
//   - None:  Offset is the number of bytes left in the stream.
//   - Found: Offset and Length locate the match; Token indexes the tokens
//     given to New.
//   - More:  positions [0, Offset) were ruled out.
type Hit struct {
	Kind   Kind
	Token  int
	Offset int
	Length int
}

// Matcher scans for a fixed set of tokens. It holds no per-scan state and
// may be shared by operations that scan different windows.
type Matcher struct {
	tokens [][]byte
	first  [256]bool
}

// New builds a matcher for tokens. Empty tokens are rejected.
func New(tokens ...[]byte) (*Matcher, error) {
	if len(tokens) == 0 {
		return nil, errdefs.ErrEmptyToken
	}
	m := &Matcher{tokens: make([][]byte, 0, len(tokens))}
	for i, tok := range tokens {
		if len(tok) == 0 {
			return nil, fmt.Errorf("%w: token %d", errdefs.ErrEmptyToken, i)
		}
		m.tokens = append(m.tokens, bytes.Clone(tok))
		m.first[tok[0]] = true
	}
	return m, nil
}

// Token returns the i-th token.
func (m *Matcher) Token(i int) []byte { return m.tokens[i] }

// Next scans at most budget start positions ahead of the cursor. When two
// tokens match at the same position the longer one wins; on equal length
// the one given first to New wins. The window cursor is left where it was.
func (m *Matcher) Next(w *window.Window, budget int) (Hit, error) {
	if budget < 1 {
		budget = 1
	}
	origin := w.Mark()
	defer func() { _ = w.Seek(origin) }()

	for i := range budget {
		c, err := w.ReadByte()
		if errors.Is(err, io.EOF) {
			return Hit{Kind: None, Offset: i}, nil
		}
		if err != nil {
			return Hit{}, err
		}
		if !m.first[c] {
			continue
		}

		resume := w.Mark()
		best, bestLen := -1, 0
		for ti, tok := range m.tokens {
			if tok[0] != c || len(tok) <= bestLen {
				continue
			}
			ok, errC := complete(w, tok[1:])
			if errC != nil {
				return Hit{}, errC
			}
			if ok {
				best, bestLen = ti, len(tok)
			}
			if errS := w.Seek(resume); errS != nil {
				return Hit{}, errS
			}
		}
		if best >= 0 {
			return Hit{Kind: Found, Token: best, Offset: i, Length: bestLen}, nil
		}
	}
	return Hit{Kind: More, Offset: budget}, nil
}

// complete reads the rest of a candidate. A stream that ends mid-candidate
// rejects it.
func complete(w *window.Window, rest []byte) (bool, error) {
	for _, want := range rest {
		c, err := w.ReadByte()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if c != want {
			return false, nil
		}
	}
	return true, nil
}
