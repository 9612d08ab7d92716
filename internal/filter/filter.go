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

// Package filter defines the operations a processor runs over a window:
// marker-delimited region filtering and literal replacement.
package filter

import "github.com/eminwux/regionfilter/internal/window"

// Provider is the immutable, validated configuration of an operation. A
// processor opens a fresh Operation per run, so one Provider can serve many
// concurrent runs.
type Provider interface {
	Open() Operation
}

// Operation transforms the stream at the points it chooses. Everything else
// passes through unchanged.
type Operation interface {
	// Probe looks at most budget start positions ahead of the cursor.
	//  - Ready: the operation acts at At.
	//  - otherwise: it will not act before At, so bytes [0, At) may be
	//    passed through before probing again.
	// At must be positive unless Ready is set or the stream is exhausted.
	// Probe must leave the window cursor where it found it.
	Probe(w *window.Window, budget int) (Probe, error)

	// Apply acts at the cursor, which the caller has moved to the probed
	// offset. It advances the cursor over the bytes it takes and returns
	// what to write in their place. Apply never commits; the consumed bytes
	// stay readable through Window.Lookback until the caller commits.
	Apply(w *window.Window) (Action, error)
}

// Probe is the answer to Operation.Probe. At is relative to the cursor.
type Probe struct {
	At    int
	Ready bool
}

// Action describes what Apply did.
//   - Output == nil: the Consumed bytes are suppressed.
//   - otherwise: Output is written in their place.
type Action struct {
	Consumed int
	Output   []byte
}
