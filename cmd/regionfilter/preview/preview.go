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

package preview

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/eminwux/regionfilter/cmd/config"
	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/preview"
	"github.com/eminwux/regionfilter/internal/processor"
	"github.com/eminwux/regionfilter/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	Command string = "preview"

	viperPrefix = "regionfilter.preview"
	keyContext  = viperPrefix + ".context"
	keyColor    = viperPrefix + ".color"

	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"

	defaultContext = 3
)

func NewPreviewCmd() *cobra.Command {
	// previewCmd represents the preview command.
	previewCmd := &cobra.Command{
		Use:   Command + " FILE",
		Short: "Show what a run would change in a file",
		Long: `Show what a run would change in a file without writing it.

Removed lines are printed with '-', added lines with '+'. Runs of unchanged
lines are collapsed to --context lines around each change.

Examples:
  regionfilter preview --profile csharp-debug src/Program.cs
  regionfilter preview --start '<!--' --end '-->' --context -1 page.html
`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			path := args[0]

			color, err := useColor(cmd.OutOrStdout(), viper.GetString(keyColor))
			if err != nil {
				return err
			}

			doc, err := profile.BuildFromParams(cmd.Context(), logger, config.OperationParams(viperPrefix))
			if err != nil {
				return err
			}
			providers, err := profile.Build(doc)
			if err != nil {
				return err
			}
			proc, err := processor.New(logger, providers, processor.WithPageSize(viper.GetInt(env.PAGE_SIZE.ViperKey)))
			if err != nil {
				return err
			}

			before, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
			}

			var after bytes.Buffer
			res, err := proc.Run(cmd.Context(), bytes.NewReader(before), &after)
			if err != nil {
				return err
			}
			logger.DebugContext(cmd.Context(), "preview computed", "path", path, "changed", res.Changed)

			stats, err := preview.Render(cmd.OutOrStdout(), path, string(before), after.String(), preview.Options{
				Color:   color,
				Context: viper.GetInt(keyContext),
			})
			if err != nil {
				return err
			}
			if res.Changed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d lines removed, %d lines added\n", stats.Removed, stats.Added)
			}
			return err
		},
	}

	setupPreviewCmdFlags(previewCmd)
	return previewCmd
}

func setupPreviewCmdFlags(previewCmd *cobra.Command) {
	config.AddOperationFlags(previewCmd, viperPrefix)

	previewCmd.Flags().IntP("context", "C", defaultContext, "Unchanged lines shown around changes (-1: all)")
	_ = viper.BindPFlag(keyContext, previewCmd.Flags().Lookup("context"))

	previewCmd.Flags().String("color", colorAuto, "Colorize the output: auto|always|never")
	_ = viper.BindPFlag(keyColor, previewCmd.Flags().Lookup("color"))
	_ = previewCmd.RegisterFlagCompletionFunc(
		"color",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{colorAuto, colorAlways, colorNever}, cobra.ShellCompDirectiveNoFileComp
		},
	)
}

// useColor resolves the --color mode. auto colors a terminal unless
// REGIONFILTER_NO_COLOR is set.
func useColor(w io.Writer, mode string) (bool, error) {
	switch mode {
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	case colorAuto, "":
		if _, set := os.LookupEnv(env.NO_COLOR.EnvKey()); set {
			return false, nil
		}
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("%w: --color %q (use auto|always|never)", errdefs.ErrInvalidFlag, mode)
	}
}
