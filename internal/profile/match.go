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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eminwux/regionfilter/internal/errdefs"
	"github.com/eminwux/regionfilter/pkg/api"
	enry "github.com/go-enry/go-enry/v2"
)

// DetectLanguage names the language of a file: filename, extension,
// shebang, modeline, and finally the first candidate of an ambiguous
// extension. It returns "" when nothing matches.
func DetectLanguage(path string, head []byte) string {
	name := filepath.Base(path)
	if lang, safe := enry.GetLanguageByFilename(name); safe {
		return lang
	}
	byExt, safe := enry.GetLanguageByExtension(name)
	if safe {
		return byExt
	}
	if len(head) > 0 {
		if lang, ok := enry.GetLanguageByShebang(head); ok {
			return lang
		}
		if lang, ok := enry.GetLanguageByModeline(head); ok {
			return lang
		}
	}
	return byExt
}

// Applies reports whether doc targets the file at path. A profile with no
// globs and no languages targets every file. Globs match the base name;
// languages compare case-insensitively with DetectLanguage.
func Applies(doc *api.FilterProfileDoc, path string, head []byte) bool {
	if len(doc.Spec.Globs) > 0 && !matchesGlob(doc.Spec.Globs, filepath.Base(path)) {
		return false
	}
	if len(doc.Spec.Languages) == 0 {
		return true
	}
	lang := DetectLanguage(path, head)
	if lang == "" {
		return false
	}
	for _, want := range doc.Spec.Languages {
		if strings.EqualFold(want, lang) {
			return true
		}
	}
	return false
}

// headLen bytes are enough for shebangs and modelines.
const headLen = 512

// AppliesToFile is Applies reading the head of path only when doc filters
// on languages.
func AppliesToFile(doc *api.FilterProfileDoc, path string) (bool, error) {
	if len(doc.Spec.Languages) == 0 {
		return Applies(doc, path, nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	defer f.Close()

	head := make([]byte, headLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("%w %q: %w", errdefs.ErrOpenInput, path, err)
	}
	return Applies(doc, path, head[:n]), nil
}

func matchesGlob(globs []string, name string) bool {
	for _, g := range globs {
		if ok, err := filepath.Match(g, name); err == nil && ok {
			return true
		}
	}
	return false
}
