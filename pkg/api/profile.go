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

package api

// apiVersion: regionfilter/v1beta1
// kind: FilterProfile

type (
	Version string
	Kind    string
)

const (
	APIVersionV1Beta1 Version = "regionfilter/v1beta1"
	KindFilterProfile Kind    = "FilterProfile"
)

// FilterProfileDoc models one YAML document containing a FilterProfile.
type FilterProfileDoc struct {
	APIVersion Version               `json:"apiVersion" yaml:"apiVersion"`
	Kind       Kind                  `json:"kind"       yaml:"kind"`
	Metadata   FilterProfileMetadata `json:"metadata"   yaml:"metadata"`
	Spec       FilterProfileSpec     `json:"spec"       yaml:"spec"`
}

type FilterProfileMetadata struct {
	Name        string            `json:"name"                  yaml:"name"`
	Labels      map[string]string `json:"labels,omitempty"      yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// FilterProfileSpec lists the operations of a profile and the files it
// applies to. Regions run before replacements.
type FilterProfileSpec struct {
	// Globs match the base name of a file. Empty matches every file.
	Globs []string `json:"globs,omitempty" yaml:"globs,omitempty"`
	// Languages match the language detected from the file name. Empty
	// matches every file.
	Languages    []string          `json:"languages,omitempty"    yaml:"languages,omitempty"`
	Regions      []RegionSpec      `json:"regions,omitempty"      yaml:"regions,omitempty"`
	Replacements []ReplacementSpec `json:"replacements,omitempty" yaml:"replacements,omitempty"`
}

// RegionSpec configures one marker-delimited region.
type RegionSpec struct {
	ID             string `json:"id,omitempty"             yaml:"id,omitempty"`
	Start          string `json:"start"                    yaml:"start"`
	End            string `json:"end"                      yaml:"end"`
	Include        bool   `json:"include,omitempty"        yaml:"include,omitempty"`
	WholeLine      bool   `json:"wholeLine,omitempty"      yaml:"wholeLine,omitempty"`
	TrimWhitespace bool   `json:"trimWhitespace,omitempty" yaml:"trimWhitespace,omitempty"`
}

// ReplacementSpec substitutes every occurrence of From with To.
type ReplacementSpec struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}
