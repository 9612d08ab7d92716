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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/processor"
	"github.com/eminwux/regionfilter/pkg/api"
	"golang.org/x/sync/errgroup"
)

// Input is one file to process. A nil Processor marks the file as skipped.
type Input struct {
	Path      string
	Processor *processor.Processor
}

type Runner struct {
	logger     *slog.Logger
	jobs       int
	keepGoing  bool
	onFinished func(api.FileResult)
}

type Option func(*Runner)

// WithKeepGoing lets the remaining files run after a failure.
func WithKeepGoing(keep bool) Option {
	return func(r *Runner) { r.keepGoing = keep }
}

// WithOnFinished registers a callback invoked after each file. Calls may
// come from several goroutines at once.
func WithOnFinished(fn func(api.FileResult)) Option {
	return func(r *Runner) { r.onFinished = fn }
}

// New returns a runner processing at most jobs files at a time. jobs < 1
// means one.
func New(logger *slog.Logger, jobs int, opts ...Option) *Runner {
	if jobs < 1 {
		jobs = 1
	}
	r := &Runner{logger: logger, jobs: jobs}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes inputs into dst. Results come back in input order. Unless
// the runner keeps going, the first failure cancels the files still
// running or waiting; the returned error wraps ErrFilesFailed and the
// first failure. A Destination that is also a Planner sees the paths to
// process first; its error aborts the batch before any file is touched.
func (r *Runner) Run(ctx context.Context, inputs []Input, dst Destination) ([]api.FileResult, error) {
	if planner, ok := dst.(Planner); ok {
		paths := make([]string, 0, len(inputs))
		for _, in := range inputs {
			if in.Processor != nil {
				paths = append(paths, in.Path)
			}
		}
		if err := planner.Plan(paths); err != nil {
			return nil, err
		}
	}

	results := make([]api.FileResult, len(inputs))

	errGroup, gctx := errgroup.WithContext(ctx)
	errGroup.SetLimit(r.jobs)

	r.logger.DebugContext(ctx, "batch started",
		"files", len(inputs),
		"jobs", r.jobs,
		"destination", fmt.Sprintf("%T", dst),
	)

	for i, in := range inputs {
		runCtx := gctx
		if r.keepGoing {
			runCtx = ctx
		}
		errGroup.Go(func() error {
			results[i] = r.runOne(runCtx, in, dst)
			if r.onFinished != nil {
				r.onFinished(results[i])
			}
			if results[i].Status == api.FileFailed.String() && !r.keepGoing {
				return fmt.Errorf("%s: %s", in.Path, results[i].Error)
			}
			return nil
		})
	}

	err := errGroup.Wait()
	failed := 0
	for _, res := range results {
		if res.Status == api.FileFailed.String() {
			failed++
		}
	}
	r.logger.DebugContext(ctx, "batch finished", "files", len(inputs), "failed", failed)

	if err != nil {
		return results, fmt.Errorf("%w: %w", errdefs.ErrFilesFailed, err)
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d", errdefs.ErrFilesFailed, failed, len(inputs))
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, in Input, dst Destination) api.FileResult {
	res := api.FileResult{Path: in.Path}
	if in.Processor == nil {
		res.Status = api.FileSkipped.String()
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Status = api.FileFailed.String()
		res.Error = err.Error()
		return res
	}

	output, changed, err := dst.Write(ctx, in.Path, func(ctx context.Context, src io.Reader, out io.Writer) (bool, error) {
		pr, errR := in.Processor.Run(ctx, src, out)
		res.BytesRead = pr.Read
		res.BytesWritten = pr.Written
		return pr.Changed, errR
	})
	res.Output = output

	switch {
	case err != nil:
		res.Status = api.FileFailed.String()
		res.Error = err.Error()
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		r.logger.Log(ctx, level, "file failed", "path", in.Path, "error", err)
	case changed:
		res.Status = api.FileChanged.String()
	default:
		res.Status = api.FileUnchanged.String()
	}

	r.logger.DebugContext(ctx, "file done",
		"path", in.Path,
		"status", res.Status,
		"read", res.BytesRead,
		"written", res.BytesWritten,
	)
	return res
}
