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

package env

import (
	"os"

	"github.com/spf13/viper"
)

// Prefix starts every variable name read by regionfilter.
const Prefix = "REGIONFILTER"

// Var is one REGIONFILTER_* variable. Variables with a ViperKey take part
// in the config file and flag layering; the others are only read from the
// process environment.
type Var struct {
	Key        string // e.g. "REGIONFILTER_PAGE_SIZE"
	ViperKey   string // optional, e.g. "regionfilter.global.pageSize"
	CobraKey   string // optional, e.g. "page-size"
	Default    string // optional
	HasDefault bool
}

// DefineKV declares REGIONFILTER_<envName> backed by viperKey, so a value
// from the config file or a flag wins over the environment. PAGE_SIZE and
// JOBS are declared this way.
func DefineKV(envName, viperKey string, defaultVal ...string) Var {
	v := Var{Key: Prefix + "_" + envName, ViperKey: viperKey}
	if len(defaultVal) > 0 {
		v.Default = defaultVal[0]
		v.HasDefault = true
	}
	return v
}

// Define declares an environment-only variable such as NO_COLOR.
func Define(envName string, defaultVal ...string) Var {
	return DefineKV(envName, "", defaultVal...)
}

func (v Var) EnvKey() string               { return v.Key }
func (v Var) DefaultValue() (string, bool) { return v.Default, v.HasDefault }

// Precedence: viper (if ViperKey set and value present) → OS env → default → "".
func (v Var) ValueOrDefault() string {
	if v.ViperKey != "" && viper.IsSet(v.ViperKey) {
		return viper.GetString(v.ViperKey)
	}
	if val, ok := os.LookupEnv(v.Key); ok {
		return val
	}
	if v.HasDefault {
		return v.Default
	}
	return ""
}

// Safe if ViperKey is empty: does nothing.
func (v Var) BindEnv() error {
	if v.ViperKey == "" {
		return nil
	}
	return viper.BindEnv(v.ViperKey, v.Key)
}

func (v Var) Set(value string) error { return os.Setenv(v.Key, value) }

func (v *Var) SetDefault(val string) {
	v.Default = val
	v.HasDefault = true
	if v.ViperKey != "" {
		viper.SetDefault(v.ViperKey, val)
	}
}

// KV formats v as a NAME=value entry for a child process environment.
func KV(v Var, value string) string { return v.Key + "=" + value }

var (
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CONFIG_FILE = DefineKV("CONFIG_FILE", "regionfilter.global.configFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PROFILES_FILE = DefineKV("PROFILES_FILE", "regionfilter.global.profilesFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_LEVEL = DefineKV("LOG_LEVEL", "regionfilter.global.logLevel", "info")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_FILE = DefineKV("LOG_FILE", "regionfilter.global.logFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PAGE_SIZE = DefineKV("PAGE_SIZE", "regionfilter.global.pageSize", "4096")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	JOBS = DefineKV("JOBS", "regionfilter.global.jobs", "4")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	RUN_PROFILE = DefineKV("PROFILE", "regionfilter.run.profile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	NO_COLOR = Define("NO_COLOR")
)

// Globals returns the variables bound at the root command.
func Globals() []Var {
	return []Var{CONFIG_FILE, PROFILES_FILE, LOG_LEVEL, LOG_FILE, PAGE_SIZE, JOBS}
}
