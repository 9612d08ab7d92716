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

package config

import (
	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Operation flag keys, relative to the command prefix.
const (
	keyProfile  = "profile"
	keyRegionID = "regionId"
	keyStart    = "start"
	keyEnd      = "end"
	keyInclude  = "include"
	keyWhole    = "wholeLine"
	keyTrim     = "trimWhitespace"
	keyReplace  = "replace"
)

// AddOperationFlags registers the flags describing what to filter on cmd and
// binds them to viper keys under prefix, e.g. "regionfilter.run".
func AddOperationFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringP("profile", "p", "", "Profile from the profiles file")
	_ = viper.BindPFlag(prefix+"."+keyProfile, cmd.Flags().Lookup("profile"))
	_ = viper.BindEnv(prefix+"."+keyProfile, env.RUN_PROFILE.EnvKey())
	_ = cmd.RegisterFlagCompletionFunc("profile", CompleteProfiles)

	cmd.Flags().String("start", "", "Start marker of an ad-hoc region")
	_ = viper.BindPFlag(prefix+"."+keyStart, cmd.Flags().Lookup("start"))

	cmd.Flags().String("end", "", "End marker of an ad-hoc region (default: same as --start)")
	_ = viper.BindPFlag(prefix+"."+keyEnd, cmd.Flags().Lookup("end"))

	cmd.Flags().String("region-id", "", "Identifier of the ad-hoc region in logs")
	_ = viper.BindPFlag(prefix+"."+keyRegionID, cmd.Flags().Lookup("region-id"))

	cmd.Flags().Bool("include", false, "Keep the region content and drop only the markers")
	_ = viper.BindPFlag(prefix+"."+keyInclude, cmd.Flags().Lookup("include"))

	cmd.Flags().Bool("whole-line", false, "Drop the whole lines holding a marker")
	_ = viper.BindPFlag(prefix+"."+keyWhole, cmd.Flags().Lookup("whole-line"))

	cmd.Flags().Bool("trim", false, "Drop whitespace left around removed markers")
	_ = viper.BindPFlag(prefix+"."+keyTrim, cmd.Flags().Lookup("trim"))

	cmd.Flags().StringArray("replace", nil, "Literal replacement FROM=TO (repeatable)")
	_ = viper.BindPFlag(prefix+"."+keyReplace, cmd.Flags().Lookup("replace"))
}

// OperationParams reads the values bound by AddOperationFlags.
func OperationParams(prefix string) *profile.BuildParams {
	return &profile.BuildParams{
		ProfilesFile:   viper.GetString(env.PROFILES_FILE.ViperKey),
		ProfileName:    viper.GetString(prefix + "." + keyProfile),
		RegionID:       viper.GetString(prefix + "." + keyRegionID),
		Start:          viper.GetString(prefix + "." + keyStart),
		End:            viper.GetString(prefix + "." + keyEnd),
		Include:        viper.GetBool(prefix + "." + keyInclude),
		WholeLine:      viper.GetBool(prefix + "." + keyWhole),
		TrimWhitespace: viper.GetBool(prefix + "." + keyTrim),
		Replacements:   viper.GetStringSlice(prefix + "." + keyReplace),
	}
}

// CompleteProfiles completes profile names from the configured profiles file.
func CompleteProfiles(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	logger, _ := logging.FromContext(cmd.Context())
	names, err := AutoCompleteListProfileNames(
		cmd.Context(),
		logger,
		viper.GetString(env.PROFILES_FILE.ViperKey),
		toComplete,
	)
	if err != nil {
		return []string{"__error: cannot list profiles"}, cobra.ShellCompDirectiveNoFileComp
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
