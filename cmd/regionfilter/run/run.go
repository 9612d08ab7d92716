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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/eminwux/regionfilter/cmd/config"
	"github.com/eminwux/regionfilter/internal/batch"
	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/processor"
	"github.com/eminwux/regionfilter/internal/profile"
	"github.com/eminwux/regionfilter/internal/report"
	"github.com/eminwux/regionfilter/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	Command      string = "run"
	CommandAlias string = "r"

	viperPrefix  = "regionfilter.run"
	keyInPlace   = viperPrefix + ".inPlace"
	keyOutDir    = viperPrefix + ".outDir"
	keyKeepGoing = viperPrefix + ".keepGoing"
	keyReport    = viperPrefix + ".report"
	keyOutput    = viperPrefix + ".output"

	stdinArg = "-"
)

//nolint:gochecknoglobals // replaced in tests
var isTerminal = term.IsTerminal

func NewRunCmd() *cobra.Command {
	// runCmd represents the run command.
	runCmd := &cobra.Command{
		Use:     Command + " [FILE...]",
		Aliases: []string{CommandAlias},
		Short:   "Filter files or stdin",
		Long: `Filter files or stdin in a single streaming pass.

The operations come from a profile, from the region flags, from --replace,
or from all of them together: profile operations run first.

With no files, or with '-', stdin is filtered to stdout. A single file is
written to stdout, several files are concatenated to stdout unless
--in-place or --out-dir is given.

Examples:
  regionfilter run --start '#if DEBUG' --end '#endif' --whole-line < in.cs
  regionfilter run --start '<!--' --end '-->' --trim page.html
  regionfilter run --profile csharp-debug --in-place --report src/*.cs
  regionfilter run --replace MyCompany=Contoso --out-dir out/ a.txt b.txt
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			opts, err := readOptions(cmd, args)
			if err != nil {
				return err
			}

			if logger.Enabled(cmd.Context(), slog.LevelDebug) {
				cmd.Flags().Visit(func(f *pflag.Flag) {
					logger.DebugContext(cmd.Context(), "flag set", "name", f.Name, "value", f.Value.String())
				})
			}

			doc, err := profile.BuildFromParams(cmd.Context(), logger, config.OperationParams(viperPrefix))
			if err != nil {
				return err
			}
			providers, err := profile.Build(doc)
			if err != nil {
				return err
			}

			pageSize := viper.GetInt(env.PAGE_SIZE.ViperKey)
			proc, err := processor.New(logger, providers, processor.WithPageSize(pageSize))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runFilter(ctx, cmd, logger, doc, proc, opts)
		},
	}

	setupRunCmdFlags(runCmd)
	return runCmd
}

func setupRunCmdFlags(runCmd *cobra.Command) {
	config.AddOperationFlags(runCmd, viperPrefix)

	runCmd.Flags().BoolP("in-place", "i", false, "Rewrite changed files in place")
	_ = viper.BindPFlag(keyInPlace, runCmd.Flags().Lookup("in-place"))

	runCmd.Flags().String("out-dir", "", "Write every output to this directory")
	_ = viper.BindPFlag(keyOutDir, runCmd.Flags().Lookup("out-dir"))

	runCmd.Flags().BoolP("keep-going", "k", false, "Keep processing files after a failure")
	_ = viper.BindPFlag(keyKeepGoing, runCmd.Flags().Lookup("keep-going"))

	runCmd.Flags().Bool("report", false, "Print the result of every file")
	_ = viper.BindPFlag(keyReport, runCmd.Flags().Lookup("report"))

	runCmd.Flags().StringP("output", "o", "", "Report format: table|json|yaml (default: table)")
	_ = viper.BindPFlag(keyOutput, runCmd.Flags().Lookup("output"))
	_ = runCmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{report.FormatTable, report.FormatJSON, report.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
		},
	)
}

type options struct {
	files     []string
	inPlace   bool
	outDir    string
	keepGoing bool
	report    bool
	format    string
}

func (o *options) stdin() bool { return len(o.files) == 0 }

// toStdout is true when filtered bytes go to stdout, so the report must not.
func (o *options) toStdout() bool { return !o.inPlace && o.outDir == "" }

func readOptions(cmd *cobra.Command, args []string) (*options, error) {
	opts := &options{
		inPlace:   viper.GetBool(keyInPlace),
		outDir:    viper.GetString(keyOutDir),
		keepGoing: viper.GetBool(keyKeepGoing),
		report:    viper.GetBool(keyReport),
		format:    viper.GetString(keyOutput),
	}

	if slices.Contains(args, stdinArg) {
		if len(args) > 1 {
			return nil, fmt.Errorf("%w: '%s' must be the only input", errdefs.ErrTooManyArguments, stdinArg)
		}
	} else {
		opts.files = args
	}

	if cmd.Flags().Changed("output") && !opts.report {
		return nil, fmt.Errorf("%w: the -o/--output flag is only valid with --report", errdefs.ErrInvalidFlag)
	}
	switch opts.format {
	case "", report.FormatTable, report.FormatJSON, report.FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, opts.format)
	}
	if opts.inPlace && opts.outDir != "" {
		return nil, fmt.Errorf("%w: --in-place and --out-dir are mutually exclusive", errdefs.ErrInvalidFlag)
	}
	if opts.stdin() && !opts.toStdout() {
		return nil, fmt.Errorf("%w: --in-place and --out-dir need files", errdefs.ErrInvalidFlag)
	}
	return opts, nil
}

func runFilter(
	ctx context.Context,
	cmd *cobra.Command,
	logger *slog.Logger,
	doc *api.FilterProfileDoc,
	proc *processor.Processor,
	opts *options,
) error {
	started := time.Now()

	var (
		results []api.FileResult
		runErr  error
	)
	if opts.stdin() {
		var res api.FileResult
		res, runErr = runStdin(ctx, cmd, proc)
		results = []api.FileResult{res}
	} else {
		results, runErr = runFiles(ctx, cmd, logger, doc, proc, opts)
	}

	if opts.report {
		w := cmd.OutOrStdout()
		if opts.toStdout() {
			w = cmd.ErrOrStderr()
		}
		rep := report.New(doc.Metadata.Name, proc.PageSize(), started, results)
		if err := report.Print(w, rep, opts.format); err != nil {
			logger.ErrorContext(ctx, "could not print report", "error", err)
		}
	}
	return runErr
}

func runStdin(ctx context.Context, cmd *cobra.Command, proc *processor.Processor) (api.FileResult, error) {
	res := api.FileResult{Path: stdinArg, Output: stdinArg}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		res.Status = api.FileFailed.String()
		res.Error = errdefs.ErrStdinTerminal.Error()
		return res, errdefs.ErrStdinTerminal
	}

	pr, err := proc.Run(ctx, in, cmd.OutOrStdout())
	res.BytesRead = pr.Read
	res.BytesWritten = pr.Written
	switch {
	case err != nil:
		res.Status = api.FileFailed.String()
		res.Error = err.Error()
	case pr.Changed:
		res.Status = api.FileChanged.String()
	default:
		res.Status = api.FileUnchanged.String()
	}
	return res, err
}

func runFiles(
	ctx context.Context,
	cmd *cobra.Command,
	logger *slog.Logger,
	doc *api.FilterProfileDoc,
	proc *processor.Processor,
	opts *options,
) ([]api.FileResult, error) {
	inputs := make([]batch.Input, 0, len(opts.files))
	for _, path := range opts.files {
		ok, err := profile.AppliesToFile(doc, path)
		if err != nil {
			return nil, err
		}
		in := batch.Input{Path: path}
		if ok {
			in.Processor = proc
		} else {
			logger.DebugContext(ctx, "profile does not apply", "path", path, "profile", doc.Metadata.Name)
		}
		inputs = append(inputs, in)
	}

	jobs := viper.GetInt(env.JOBS.ViperKey)
	var dst batch.Destination
	switch {
	case opts.inPlace:
		dst = batch.InPlace{}
	case opts.outDir != "":
		dst = batch.OutDir{Dir: opts.outDir}
	default:
		// outputs are concatenated in argument order
		dst = &batch.Stream{W: cmd.OutOrStdout()}
		jobs = 1
	}

	runner := batch.New(logger, jobs, batch.WithKeepGoing(opts.keepGoing))
	return runner.Run(ctx, inputs, dst)
}
