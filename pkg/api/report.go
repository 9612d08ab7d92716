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

import "time"

type FileStatus int

const (
	FileUnchanged FileStatus = iota
	FileChanged
	FileFailed
	FileSkipped
)

func (s FileStatus) String() string {
	switch s {
	case FileUnchanged:
		return "Unchanged"
	case FileChanged:
		return "Changed"
	case FileFailed:
		return "Failed"
	case FileSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// RunReport is printed by `regionfilter run --report`.
type RunReport struct {
	ID        string       `json:"id"                yaml:"id"`
	StartedAt time.Time    `json:"startedAt"         yaml:"startedAt"`
	Duration  string       `json:"duration"          yaml:"duration"`
	Profile   string       `json:"profile,omitempty" yaml:"profile,omitempty"`
	PageSize  int          `json:"pageSize"          yaml:"pageSize"`
	Files     []FileResult `json:"files"             yaml:"files"`
	Summary   RunSummary   `json:"summary"           yaml:"summary"`
}

// FileResult is the outcome of one input.
type FileResult struct {
	Path         string `json:"path"             yaml:"path"`
	Output       string `json:"output,omitempty" yaml:"output,omitempty"`
	Status       string `json:"status"           yaml:"status"`
	BytesRead    int64  `json:"bytesRead"        yaml:"bytesRead"`
	BytesWritten int64  `json:"bytesWritten"     yaml:"bytesWritten"`
	Error        string `json:"error,omitempty"  yaml:"error,omitempty"`
}

type RunSummary struct {
	Total     int `json:"total"     yaml:"total"`
	Changed   int `json:"changed"   yaml:"changed"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Failed    int `json:"failed"    yaml:"failed"`
	Skipped   int `json:"skipped"   yaml:"skipped"`
}
