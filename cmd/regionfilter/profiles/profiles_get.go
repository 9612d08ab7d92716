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

package profiles

import (
	"fmt"

	"github.com/eminwux/regionfilter/cmd/config"
	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/profile"
	"github.com/eminwux/regionfilter/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const outputFormatProfilesInput = "regionfilter.profiles.get.output"

func NewProfilesGetCmd() *cobra.Command {
	// profilesGetCmd represents the profiles get command.
	cmd := &cobra.Command{
		Use:          "get NAME",
		Short:        "Print one profile",
		Long:         "Print one profile of the profiles file as YAML or JSON.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: a profile name is required", errdefs.ErrInvalidFlag)
			} else if len(args) > 1 {
				return errdefs.ErrTooManyArguments
			}
			return getProfile(cmd, args[0])
		},
		// POSitional completion for NAME
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return config.CompleteProfiles(cmd, args, toComplete)
		},
	}

	cmd.Flags().StringP("output", "o", report.FormatYAML, "Output format: json|yaml")
	_ = viper.BindPFlag(outputFormatProfilesInput, cmd.Flags().Lookup("output"))
	_ = cmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{report.FormatJSON, report.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
		},
	)
	return cmd
}

func getProfile(cmd *cobra.Command, name string) error {
	logger, err := logging.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	format := viper.GetString(outputFormatProfilesInput)
	if format != report.FormatJSON && format != report.FormatYAML {
		return fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
	}
	logger.DebugContext(cmd.Context(), "get profile command invoked",
		"profiles_file", viper.GetString(env.PROFILES_FILE.ViperKey),
		"profile_name", name,
		"output_format", format,
	)

	doc, err := profile.FindByName(cmd.Context(), logger, viper.GetString(env.PROFILES_FILE.ViperKey), name)
	if err != nil {
		return err
	}
	return report.Encode(cmd.OutOrStdout(), doc, format)
}
