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

package regionfilter

import (
	"errors"
	"fmt"
	"os"

	"github.com/eminwux/regionfilter/cmd/config"
	"github.com/eminwux/regionfilter/cmd/regionfilter/preview"
	"github.com/eminwux/regionfilter/cmd/regionfilter/profiles"
	"github.com/eminwux/regionfilter/cmd/regionfilter/run"
	"github.com/eminwux/regionfilter/internal/env"
	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/window"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultJobs = 4

func NewRootCmd() (*cobra.Command, error) {
	// rootCmd represents the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "regionfilter",
		Short: "regionfilter removes marked regions from text streams",
		Long: `regionfilter filters text in a single streaming pass, removing marked
regions or only their markers, and applying literal replacements.

You can see available options and commands with:
  regionfilter help

For example:
  regionfilter run --start '#if DEBUG' --end '#endif' --whole-line < in.cs > out.cs
  regionfilter run --profile csharp-debug --in-place src/*.cs
  regionfilter preview --profile csharp-debug src/Program.cs
  regionfilter profiles list
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := LoadConfig(); err != nil {
				return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
			}

			logLevel := viper.GetString(env.LOG_LEVEL.ViperKey)
			if logFile := viper.GetString(env.LOG_FILE.ViperKey); logFile != "" {
				return logging.SetupFileLogger(cmd, logFile, logLevel)
			}
			logging.AttachLogger(cmd, cmd.ErrOrStderr(), logLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return logging.CloseFromContext(cmd.Context())
		},
	}

	setupRootCmd(rootCmd)

	return rootCmd, nil
}

func setupRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(run.NewRunCmd())
	rootCmd.AddCommand(preview.NewPreviewCmd())
	rootCmd.AddCommand(profiles.NewProfilesCmd())

	// Persistent flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.regionfilter/config.yaml)")
	_ = viper.BindPFlag(env.CONFIG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().String("profiles", "", "profiles manifests file (default is $HOME/.regionfilter/profiles.yaml)")
	_ = viper.BindPFlag(env.PROFILES_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("profiles"))

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")
	_ = viper.BindPFlag(env.LOG_LEVEL.ViperKey, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = rootCmd.RegisterFlagCompletionFunc(
		"log-level",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
		},
	)

	rootCmd.PersistentFlags().String("log-file", "", "Optional file receiving the logs instead of stderr")
	_ = viper.BindPFlag(env.LOG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.PersistentFlags().Int("page-size", window.DefaultPageSize, "Bytes read from an input at a time")
	_ = viper.BindPFlag(env.PAGE_SIZE.ViperKey, rootCmd.PersistentFlags().Lookup("page-size"))

	rootCmd.PersistentFlags().IntP("jobs", "j", defaultJobs, "Files processed at the same time")
	_ = viper.BindPFlag(env.JOBS.ViperKey, rootCmd.PersistentFlags().Lookup("jobs"))
}

// LoadConfig loads config.yaml from the given path or HOME/.regionfilter.
func LoadConfig() error {
	for _, v := range env.Globals() {
		_ = v.BindEnv()
	}

	if configFile := viper.GetString(env.CONFIG_FILE.ViperKey); configFile != "" {
		// an explicit config file must exist
		if _, err := os.Stat(configFile); err != nil {
			return err
		}
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.DefaultConfigDir())
	}

	env.PROFILES_FILE.SetDefault(config.DefaultProfilesFile())
	env.LOG_LEVEL.SetDefault("info")
	env.PAGE_SIZE.SetDefault(fmt.Sprint(window.DefaultPageSize))
	env.JOBS.SetDefault(fmt.Sprint(defaultJobs))

	if err := viper.ReadInConfig(); err != nil {
		// File not found is OK if ENV is set
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return err // Config file was found but another error was produced
		}
	}

	return nil
}
