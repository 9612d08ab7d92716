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

// Package profile loads FilterProfile documents and builds the operations
// they describe.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/pkg/api"
	"gopkg.in/yaml.v3"
)

// ScanAndPrint loads all profiles from a YAML file (supports multiple '---'
// documents) and prints them in a table to w.
func ScanAndPrint(ctx context.Context, logger *slog.Logger, path string, w io.Writer) error {
	profiles, err := LoadFromPath(ctx, logger, path)
	if err != nil {
		return err
	}
	return PrintTable(w, profiles)
}

// LoadFromPath reads a multi-document YAML file.
func LoadFromPath(ctx context.Context, logger *slog.Logger, path string) ([]api.FilterProfileDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", errdefs.ErrOpenProfiles, path, err)
	}
	defer f.Close()

	logger.DebugContext(ctx, "loading profiles", "path", path)
	return LoadFromReader(ctx, logger, f)
}

// LoadFromReader decodes one or more YAML documents from r. Documents
// without apiVersion, kind or name are skipped.
func LoadFromReader(ctx context.Context, logger *slog.Logger, r io.Reader) ([]api.FilterProfileDoc, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []api.FilterProfileDoc
	for {
		var p api.FilterProfileDoc
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", errdefs.ErrDecodeProfile, err)
		}

		if p.Metadata.Name == "" || string(p.APIVersion) == "" || string(p.Kind) == "" {
			logger.DebugContext(ctx, "skipping empty/invalid profile document", "name", p.Metadata.Name)
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

// PrintTable renders a compact table of profiles.
func PrintTable(w io.Writer, profiles []api.FilterProfileDoc) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(profiles) == 0 {
		fmt.Fprintln(tw, "no profiles found")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "NAME\tREGIONS\tREPLACEMENTS\tGLOBS\tLANGUAGES")
	for _, p := range profiles {
		fmt.Fprintf(
			tw,
			"%s\t%d\t%d\t%s\t%s\n",
			p.Metadata.Name,
			len(p.Spec.Regions),
			len(p.Spec.Replacements),
			orAny(p.Spec.Globs),
			orAny(p.Spec.Languages),
		)
	}

	return tw.Flush()
}

func orAny(list []string) string {
	if len(list) == 0 {
		return "*"
	}
	return strings.Join(list, ",")
}

// FindByName scans the YAML file at path and returns the profile whose
// metadata.name matches. The match is case-sensitive.
func FindByName(ctx context.Context, logger *slog.Logger, path, name string) (*api.FilterProfileDoc, error) {
	profiles, err := LoadFromPath(ctx, logger, path)
	if err != nil {
		return nil, err
	}

	for _, p := range profiles {
		if p.Metadata.Name == name {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("%w: %q in %s", errdefs.ErrProfileNotFound, name, path)
}

// Names returns the profile names in file order.
func Names(profiles []api.FilterProfileDoc) []string {
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Metadata.Name)
	}
	return names
}
