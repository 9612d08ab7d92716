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

	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewProfilesListCmd() *cobra.Command {
	// profilesListCmd represents the profiles list command.
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List available profiles",
		Long: `List available profiles.
This command scans and lists all the profiles in the profiles file.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			profilesFile := viper.GetString(env.PROFILES_FILE.ViperKey)
			logger.DebugContext(cmd.Context(), "profiles list command invoked", "profiles_file", profilesFile)

			if errP := profile.ScanAndPrint(cmd.Context(), logger, profilesFile, cmd.OutOrStdout()); errP != nil {
				logger.DebugContext(cmd.Context(), "error scanning and printing profiles", "error", errP)
				fmt.Fprintln(cmd.ErrOrStderr(), "Could not scan profiles")
				return errP
			}
			return nil
		},
	}
}
