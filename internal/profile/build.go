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

package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/filter"
	"github.com/eminwux/regionfilter/pkg/api"
)

// Validate checks a profile document before it is built.
func Validate(doc *api.FilterProfileDoc) error {
	if doc == nil {
		return fmt.Errorf("%w: profile is nil", errdefs.ErrInvalidProfile)
	}
	if doc.APIVersion == "" || doc.Kind == "" {
		return fmt.Errorf("%w: missing apiVersion/kind", errdefs.ErrInvalidProfile)
	}
	if doc.APIVersion != api.APIVersionV1Beta1 {
		return fmt.Errorf("%w: apiVersion %q (expected %q)", errdefs.ErrInvalidProfile, doc.APIVersion, api.APIVersionV1Beta1)
	}
	if doc.Kind != api.KindFilterProfile {
		return fmt.Errorf("%w: kind %q (expected %q)", errdefs.ErrInvalidProfile, doc.Kind, api.KindFilterProfile)
	}
	if doc.Metadata.Name == "" {
		return fmt.Errorf("%w: metadata.name is required", errdefs.ErrInvalidProfile)
	}
	return nil
}

// Build turns a profile into providers: regions first, in document order,
// then replacements.
func Build(doc *api.FilterProfileDoc) ([]filter.Provider, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	providers := make([]filter.Provider, 0, len(doc.Spec.Regions)+len(doc.Spec.Replacements))
	for i, rs := range doc.Spec.Regions {
		id := rs.ID
		if id == "" {
			id = fmt.Sprintf("%s/%d", doc.Metadata.Name, i)
		}
		r, err := filter.NewRegion(filter.RegionConfig{
			ID:             id,
			Start:          rs.Start,
			End:            rs.End,
			Include:        rs.Include,
			WholeLine:      rs.WholeLine,
			TrimWhitespace: rs.TrimWhitespace,
		})
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", errdefs.ErrInvalidProfile, doc.Metadata.Name, err)
		}
		providers = append(providers, r)
	}
	for _, rp := range doc.Spec.Replacements {
		r, err := filter.NewReplace(rp.From, rp.To)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", errdefs.ErrInvalidProfile, doc.Metadata.Name, err)
		}
		providers = append(providers, r)
	}
	return providers, nil
}

// ParseReplacement splits a FROM=TO flag value at the first '='.
func ParseReplacement(s string) (api.ReplacementSpec, error) {
	from, to, ok := strings.Cut(s, "=")
	if !ok || from == "" {
		return api.ReplacementSpec{}, fmt.Errorf("%w: %q", errdefs.ErrInvalidReplace, s)
	}
	return api.ReplacementSpec{From: from, To: to}, nil
}

type BuildParams struct {
	ProfilesFile string
	ProfileName  string

	RegionID       string
	Start          string
	End            string
	Include        bool
	WholeLine      bool
	TrimWhitespace bool

	Replacements []string
}

// BuildFromParams builds the document a run uses from command-line inputs
// and/or a named profile. Ad-hoc regions and replacements are appended
// after the profile's own.
func BuildFromParams(ctx context.Context, logger *slog.Logger, input *BuildParams) (*api.FilterProfileDoc, error) {
	doc := &api.FilterProfileDoc{
		APIVersion: api.APIVersionV1Beta1,
		Kind:       api.KindFilterProfile,
		Metadata:   api.FilterProfileMetadata{Name: "ad-hoc"},
	}

	if input.ProfileName != "" {
		found, err := FindByName(ctx, logger, input.ProfilesFile, input.ProfileName)
		if err != nil {
			return nil, err
		}
		if errV := Validate(found); errV != nil {
			return nil, errV
		}
		doc = found
	}

	if input.Start != "" || input.End != "" {
		end := input.End
		if end == "" {
			end = input.Start
		}
		id := input.RegionID
		if id == "" {
			id = "cli"
		}
		doc.Spec.Regions = append(doc.Spec.Regions, api.RegionSpec{
			ID:             id,
			Start:          input.Start,
			End:            end,
			Include:        input.Include,
			WholeLine:      input.WholeLine,
			TrimWhitespace: input.TrimWhitespace,
		})
	}

	for _, s := range input.Replacements {
		rp, err := ParseReplacement(s)
		if err != nil {
			return nil, err
		}
		doc.Spec.Replacements = append(doc.Spec.Replacements, rp)
	}

	if len(doc.Spec.Regions) == 0 && len(doc.Spec.Replacements) == 0 {
		return nil, errdefs.ErrNoOperations
	}

	logger.DebugContext(
		ctx,
		"BuildFromParams: built profile",
		"name", doc.Metadata.Name,
		"regions", len(doc.Spec.Regions),
		"replacements", len(doc.Spec.Replacements),
	)
	return doc, nil
}
