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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/internal/filter"
	"github.com/eminwux/regionfilter/pkg/api"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const profilesYAML = `apiVersion: regionfilter/v1beta1
kind: FilterProfile
metadata:
  name: csharp-debug
  labels:
    team: tools
spec:
  globs: ["*.cs"]
  languages: ["C#"]
  regions:
    - id: debug
      start: "#if DEBUG"
      end: "#endif"
      wholeLine: true
      trimWhitespace: true
  replacements:
    - from: MyCompany
      to: Contoso
---
apiVersion: regionfilter/v1beta1
kind: FilterProfile
metadata:
  name: markers
spec:
  regions:
    - start: "<<"
      end: ">>"
      include: true
`

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func Test_LoadFromReader_MultiDocument(t *testing.T) {
	profiles, err := LoadFromReader(context.Background(), newTestLogger(), strings.NewReader(profilesYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	got := strings.Join(Names(profiles), ",")
	if got != "csharp-debug,markers" {
		t.Fatalf("expected csharp-debug,markers; got %s", got)
	}
	if profiles[0].Metadata.Labels["team"] != "tools" {
		t.Fatalf("expected label team=tools; got %v", profiles[0].Metadata.Labels)
	}
	if !profiles[0].Spec.Regions[0].WholeLine || profiles[0].Spec.Regions[0].Include {
		t.Fatalf("unexpected region flags: %+v", profiles[0].Spec.Regions[0])
	}
}

func Test_LoadFromReader_DecodeErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":     "apiVersion: [unclosed",
		"unknown field": "apiVersion: regionfilter/v1beta1\nkind: FilterProfile\nmetadata: {name: x}\nspec: {bogus: 1}\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromReader(context.Background(), newTestLogger(), strings.NewReader(in))
			if !errors.Is(err, errdefs.ErrDecodeProfile) {
				t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrDecodeProfile, err)
			}
		})
	}
}

func Test_LoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(context.Background(), newTestLogger(), filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, errdefs.ErrOpenProfiles) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped open error; got %v", err)
	}
}

func Test_FindByName(t *testing.T) {
	path := writeProfiles(t, profilesYAML)

	p, err := FindByName(context.Background(), newTestLogger(), path, "markers")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if p.Spec.Regions[0].Start != "<<" {
		t.Fatalf("expected start <<; got %q", p.Spec.Regions[0].Start)
	}

	_, err = FindByName(context.Background(), newTestLogger(), path, "Markers")
	if !errors.Is(err, errdefs.ErrProfileNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrProfileNotFound, err)
	}
}

func Test_PrintTable(t *testing.T) {
	profiles, err := LoadFromReader(context.Background(), newTestLogger(), strings.NewReader(profilesYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}

	var buf bytes.Buffer
	if err := PrintTable(&buf, profiles); err != nil {
		t.Fatalf("PrintTable() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "REGIONS", "csharp-debug", "*.cs", "C#", "markers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table; got:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := PrintTable(&buf, nil); err != nil {
		t.Fatalf("PrintTable() error = %v", err)
	}
	if !strings.Contains(buf.String(), "no profiles found") {
		t.Fatalf("expected empty message; got %q", buf.String())
	}
}

func Test_Build(t *testing.T) {
	profiles, err := LoadFromReader(context.Background(), newTestLogger(), strings.NewReader(profilesYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}

	providers, err := Build(&profiles[0])
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers; got %d", len(providers))
	}
	region, ok := providers[0].(*filter.Region)
	if !ok {
		t.Fatalf("expected region first; got %T", providers[0])
	}
	if region.Config().ID != "debug" {
		t.Fatalf("expected region id debug; got %q", region.Config().ID)
	}
	if _, ok := providers[1].(*filter.Replace); !ok {
		t.Fatalf("expected replacement second; got %T", providers[1])
	}

	providers, err = Build(&profiles[1])
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if id := providers[0].(*filter.Region).Config().ID; id != "markers/0" {
		t.Fatalf("expected generated id markers/0; got %q", id)
	}
}

func Test_Build_Invalid(t *testing.T) {
	valid := func() *api.FilterProfileDoc {
		return &api.FilterProfileDoc{
			APIVersion: api.APIVersionV1Beta1,
			Kind:       api.KindFilterProfile,
			Metadata:   api.FilterProfileMetadata{Name: "x"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *api.FilterProfileDoc)
		wantErr error
	}{
		{"wrong kind", func(d *api.FilterProfileDoc) { d.Kind = "TerminalProfile" }, errdefs.ErrInvalidProfile},
		{"wrong version", func(d *api.FilterProfileDoc) { d.APIVersion = "regionfilter/v2" }, errdefs.ErrInvalidProfile},
		{"no name", func(d *api.FilterProfileDoc) { d.Metadata.Name = "" }, errdefs.ErrInvalidProfile},
		{
			"empty start",
			func(d *api.FilterProfileDoc) { d.Spec.Regions = []api.RegionSpec{{End: "x"}} },
			errdefs.ErrEmptyToken,
		},
		{
			"empty from",
			func(d *api.FilterProfileDoc) { d.Spec.Replacements = []api.ReplacementSpec{{To: "x"}} },
			errdefs.ErrEmptyToken,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(d)
			if _, err := Build(d); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected '%v'; got: '%v'", tc.wantErr, err)
			}
		})
	}

	if _, err := Build(nil); !errors.Is(err, errdefs.ErrInvalidProfile) {
		t.Fatalf("expected '%v' for nil; got: '%v'", errdefs.ErrInvalidProfile, err)
	}
}

func Test_ParseReplacement(t *testing.T) {
	rp, err := ParseReplacement("a=b=c")
	if err != nil {
		t.Fatalf("ParseReplacement() error = %v", err)
	}
	if rp.From != "a" || rp.To != "b=c" {
		t.Fatalf("expected a -> b=c; got %+v", rp)
	}
	if rp, err = ParseReplacement("gone="); err != nil || rp.To != "" {
		t.Fatalf("expected empty replacement; got %+v err=%v", rp, err)
	}
	for _, bad := range []string{"noequals", "=x"} {
		if _, err := ParseReplacement(bad); !errors.Is(err, errdefs.ErrInvalidReplace) {
			t.Fatalf("%q: expected '%v'; got: '%v'", bad, errdefs.ErrInvalidReplace, err)
		}
	}
}

func Test_BuildFromParams(t *testing.T) {
	path := writeProfiles(t, profilesYAML)

	doc, err := BuildFromParams(context.Background(), newTestLogger(), &BuildParams{
		ProfilesFile: path,
		ProfileName:  "markers",
		Start:        "@@",
		Replacements: []string{"x=y"},
	})
	if err != nil {
		t.Fatalf("BuildFromParams() error = %v", err)
	}
	if len(doc.Spec.Regions) != 2 {
		t.Fatalf("expected 2 regions; got %d", len(doc.Spec.Regions))
	}
	adhoc := doc.Spec.Regions[1]
	if adhoc.ID != "cli" || adhoc.Start != "@@" || adhoc.End != "@@" {
		t.Fatalf("expected toggle region from flags; got %+v", adhoc)
	}
	if len(doc.Spec.Replacements) != 1 || doc.Spec.Replacements[0].From != "x" {
		t.Fatalf("unexpected replacements: %+v", doc.Spec.Replacements)
	}

	_, err = BuildFromParams(context.Background(), newTestLogger(), &BuildParams{})
	if !errors.Is(err, errdefs.ErrNoOperations) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrNoOperations, err)
	}

	_, err = BuildFromParams(context.Background(), newTestLogger(), &BuildParams{ProfilesFile: path, ProfileName: "nope"})
	if !errors.Is(err, errdefs.ErrProfileNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrProfileNotFound, err)
	}
}

func Test_Applies(t *testing.T) {
	doc := func(globs, langs []string) *api.FilterProfileDoc {
		return &api.FilterProfileDoc{Spec: api.FilterProfileSpec{Globs: globs, Languages: langs}}
	}

	tests := []struct {
		name string
		doc  *api.FilterProfileDoc
		path string
		head string
		want bool
	}{
		{"no constraints", doc(nil, nil), "any/file.txt", "", true},
		{"glob match", doc([]string{"*.go"}, nil), "src/main.go", "", true},
		{"glob miss", doc([]string{"*.go"}, nil), "src/main.rs", "", false},
		{"language by extension", doc(nil, []string{"go"}), "src/main.go", "", true},
		{"language by shebang", doc(nil, []string{"Python"}), "bin/tool", "#!/usr/bin/env python\nprint(1)\n", true},
		{"language miss", doc(nil, []string{"Go"}), "data.zzz", "", false},
		{"glob and language", doc([]string{"*.go"}, []string{"Go"}), "x_test.go", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Applies(tc.doc, tc.path, []byte(tc.head)); got != tc.want {
				t.Fatalf("expected %v; got %v", tc.want, got)
			}
		})
	}
}

func Test_AppliesToFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tool")
	if err := os.WriteFile(script, []byte("#!/usr/bin/env python\nprint(1)\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	py := &api.FilterProfileDoc{Spec: api.FilterProfileSpec{Languages: []string{"Python"}}}
	ok, err := AppliesToFile(py, script)
	if err != nil {
		t.Fatalf("AppliesToFile() error = %v", err)
	}
	if !ok {
		t.Fatal("expected the shebang to select Python")
	}

	_, err = AppliesToFile(py, filepath.Join(dir, "missing"))
	if !errors.Is(err, errdefs.ErrOpenInput) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrOpenInput, err)
	}

	// Without languages the file is never opened.
	all := &api.FilterProfileDoc{}
	ok, err = AppliesToFile(all, filepath.Join(dir, "missing"))
	if err != nil || !ok {
		t.Fatalf("expected true, nil; got %v, %v", ok, err)
	}
}
