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
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eminwux/regionfilter/internal/logging"
	"github.com/eminwux/regionfilter/internal/profile"
)

// AutoCompleteListProfileNames returns the profile names in profilesFile
// starting with toComplete.
func AutoCompleteListProfileNames(
	ctx context.Context,
	logger *slog.Logger,
	profilesFile string,
	toComplete string,
) ([]string, error) {
	// logger is not set on autocomplete calls
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	profiles, err := profile.LoadFromPath(ctx, logger, profilesFile)
	if err != nil {
		logger.ErrorContext(ctx, "ListProfiles: failed to load profiles", "path", profilesFile, "error", err)
		return nil, err
	}
	if profiles == nil {
		return nil, errors.New("no profiles found")
	}

	var names []string
	for _, n := range profile.Names(profiles) {
		if toComplete == "" || strings.HasPrefix(n, toComplete) {
			names = append(names, n)
		}
	}
	return names, nil
}
