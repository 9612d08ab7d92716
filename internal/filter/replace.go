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
	"fmt"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/matcher"
	"github.com/eminwux/regionfilter/internal/window"
)

// Replace substitutes every occurrence of a literal with another.
type Replace struct {
	from    []byte
	to      []byte
	matcher *matcher.Matcher
}

// NewReplace builds a Replace. An empty from is rejected; an empty to
// deletes every occurrence.
func NewReplace(from, to string) (*Replace, error) {
	if from == "" {
		return nil, fmt.Errorf("%w: replacement source", errdefs.ErrEmptyToken)
	}
	m, err := matcher.New([]byte(from))
	if err != nil {
		return nil, err
	}
	return &Replace{from: []byte(from), to: []byte(to), matcher: m}, nil
}

// From returns the literal being replaced.
func (r *Replace) From() string { return string(r.from) }

// To returns the replacement.
func (r *Replace) To() string { return string(r.to) }

// Open returns a replace operation. It carries no state across actions.
func (r *Replace) Open() Operation { return replaceOp{r} }

type replaceOp struct {
	r *Replace
}

func (op replaceOp) Probe(w *window.Window, budget int) (Probe, error) {
	hit, err := op.r.matcher.Next(w, budget)
	if err != nil {
		return Probe{}, err
	}
	if hit.Kind == matcher.Found {
		return Probe{At: hit.Offset, Ready: true}, nil
	}
	return Probe{At: hit.Offset}, nil
}

func (op replaceOp) Apply(w *window.Window) (Action, error) {
	view, err := w.Peek(0, len(op.r.from))
	if err != nil || !bytes.Equal(view, op.r.from) {
		return Action{}, fmt.Errorf("%w: replacement %q at offset %d", errdefs.ErrStaleProbe, op.r.from, w.Offset())
	}
	if errA := w.Advance(len(op.r.from)); errA != nil {
		return Action{}, errA
	}
	out := op.r.to
	if out == nil {
		out = []byte{}
	}
	return Action{Consumed: len(op.r.from), Output: out}, nil
}
