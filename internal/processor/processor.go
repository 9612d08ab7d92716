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

// Package processor drives a single forward pass of operations over a
// stream: verbatim bytes are copied through, operations act where they ask
// to, and the caller learns whether the output differs from the input.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/filter"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/window"
)

// Processor is immutable once built. Every run opens fresh operations and
// its own window, so one Processor may serve concurrent runs.
type Processor struct {
	logger    *slog.Logger
	providers []filter.Provider
	pageSize  int
}

type Option func(*Processor)

// WithPageSize sets the default page size of the runs. It never changes
// the output.
func WithPageSize(n int) Option {
	return func(p *Processor) { p.pageSize = n }
}

// New builds a processor running providers in order. Earlier providers win
// ties between operations acting at the same offset. A nil logger discards
// everything.
func New(logger *slog.Logger, providers []filter.Provider, opts ...Option) (*Processor, error) {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	for i, pr := range providers {
		if pr == nil {
			return nil, fmt.Errorf("%w: index %d", errdefs.ErrNilProvider, i)
		}
	}

	p := &Processor{
		logger:    logger,
		providers: append([]filter.Provider(nil), providers...),
		pageSize:  window.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pageSize < 1 {
		return nil, fmt.Errorf("%w: %d", errdefs.ErrInvalidPageSize, p.pageSize)
	}
	return p, nil
}

// PageSize returns the page size used by Run.
func (p *Processor) PageSize() int { return p.pageSize }

// Result summarizes a run.
type Result struct {
	// Read is the number of input bytes classified.
	Read int64
	// Written is the number of bytes that reached the output.
	Written int64
	// Changed is true iff the output differs from the input.
	Changed bool
}

// Run filters in into out with the processor's page size.
func (p *Processor) Run(ctx context.Context, in io.Reader, out io.Writer) (Result, error) {
	return p.RunWithPageSize(ctx, in, out, p.pageSize)
}

// RunWithPageSize filters in into out reading pageSize bytes at a time.
//
// On error the output is truncated at an unspecified point and the Result
// only reports what happened up to the failure.
func (p *Processor) RunWithPageSize(ctx context.Context, in io.Reader, out io.Writer, pageSize int) (Result, error) {
	if pageSize < 1 {
		return Result{}, fmt.Errorf("%w: %d", errdefs.ErrInvalidPageSize, pageSize)
	}

	ops := make([]filter.Operation, 0, len(p.providers))
	for _, pr := range p.providers {
		ops = append(ops, pr.Open())
	}

	sk := newSink(out, pageSize)
	r := &run{
		ctx:    ctx,
		logger: p.logger,
		ops:    ops,
		w:      window.New(in, pageSize),
		out:    sk,
	}

	p.logger.DebugContext(ctx, "run started",
		"operations", len(ops),
		"pageSize", pageSize,
		"reader", fmt.Sprintf("%T", in),
		"writer", fmt.Sprintf("%T", out),
	)

	err := r.loop()
	if errF := sk.Flush(); err == nil {
		err = errF
	}

	res := Result{Read: r.w.Offset(), Written: sk.written, Changed: r.changed}
	if err != nil {
		p.logger.DebugContext(ctx, "run failed", "read", res.Read, "written", res.Written, "error", err)
		return res, err
	}
	p.logger.DebugContext(ctx, "run finished", "read", res.Read, "written", res.Written, "changed", res.Changed)
	return res, nil
}

type run struct {
	ctx     context.Context
	logger  *slog.Logger
	ops     []filter.Operation
	w       *window.Window
	out     *sink
	changed bool
}

func (r *run) loop() error {
	for {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		done, err := r.w.Done()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		winner, probe, err := r.probe()
		if err != nil {
			return err
		}
		if winner < 0 && probe.At == 0 {
			return fmt.Errorf("%w: at offset %d", errdefs.ErrNoProgress, r.w.Offset())
		}

		if err := r.copyThrough(probe.At); err != nil {
			return err
		}
		if winner < 0 {
			continue
		}
		if err := r.apply(winner); err != nil {
			return err
		}
	}
}

// probe asks every operation where it acts next and returns the index of
// the operation to apply, or -1 when the nearest offset is only a bound.
// A bound wins over an action at the same offset: the bounding operation
// may still act there, so it gets to probe again from that offset first.
func (r *run) probe() (int, filter.Probe, error) {
	if len(r.ops) == 0 {
		return -1, filter.Probe{At: r.w.Available()}, nil
	}

	budget := r.w.PageSize()
	winner := -1
	var best filter.Probe
	for i, op := range r.ops {
		origin := r.w.Mark()
		pr, err := op.Probe(r.w, budget)
		if err != nil {
			return -1, filter.Probe{}, err
		}
		if err := r.w.Seek(origin); err != nil {
			return -1, filter.Probe{}, err
		}

		switch {
		case i == 0,
			pr.At < best.At,
			pr.At == best.At && !pr.Ready && best.Ready:
			best = pr
			if pr.Ready {
				winner = i
			} else {
				winner = -1
			}
		}
	}
	return winner, best, nil
}

// copyThrough writes n bytes at the cursor unchanged.
func (r *run) copyThrough(n int) error {
	for n > 0 {
		chunk := n
		if avail := r.w.Available(); avail > 0 && avail < chunk {
			chunk = avail
		}
		view, err := r.w.Peek(0, chunk)
		if len(view) == 0 {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if _, errW := r.out.Write(view); errW != nil {
			return errW
		}
		if errA := r.w.Advance(len(view)); errA != nil {
			return errA
		}
		n -= len(view)
	}
	r.w.Commit()
	return nil
}

func (r *run) apply(i int) error {
	offset := r.w.Offset()
	act, err := r.ops[i].Apply(r.w)
	if err != nil {
		return err
	}
	if act.Consumed < 1 {
		return fmt.Errorf("%w: operation %d consumed nothing at offset %d", errdefs.ErrNoProgress, i, offset)
	}

	switch {
	case act.Output == nil:
		r.changed = true
	case !r.changed:
		orig, ok := r.w.Lookback(act.Consumed)
		r.changed = !ok || !bytes.Equal(orig, act.Output)
	}

	r.logger.DebugContext(r.ctx, "action",
		"op", fmt.Sprintf("%T", r.ops[i]),
		"offset", offset,
		"consumed", act.Consumed,
		"suppressed", act.Output == nil,
	)

	if len(act.Output) > 0 {
		if _, errW := r.out.Write(act.Output); errW != nil {
			return errW
		}
	}
	r.w.Commit()
	return nil
}
