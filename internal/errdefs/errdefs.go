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

package errdefs

import "errors"

var (
	// Construction.
	ErrEmptyToken      = errors.New("token must not be empty")
	ErrNilProvider     = errors.New("operation provider is nil")
	ErrInvalidPageSize = errors.New("page size must be at least 1")
	ErrNoOperations    = errors.New("no operations configured")
	ErrInvalidReplace  = errors.New("invalid replacement, expected FROM=TO")

	// Scanning.
	ErrSourceRead     = errors.New("could not read source")
	ErrSinkWrite      = errors.New("could not write sink")
	ErrSeekOutOfRange = errors.New("seek target is not buffered")
	ErrStaleProbe     = errors.New("operation applied away from its probed offset")
	ErrNoProgress     = errors.New("operations made no progress")

	// Profiles.
	ErrOpenProfiles        = errors.New("failed to open profiles file")
	ErrDecodeProfile       = errors.New("failed to decode profile")
	ErrInvalidProfile      = errors.New("invalid profile")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// Files.
	ErrLocked      = errors.New("file is locked by another process")
	ErrReplaceFile = errors.New("could not replace file")
	ErrOpenInput   = errors.New("could not open input")
	ErrOutputClash = errors.New("inputs share an output file")

	// Command line.
	ErrConfig           = errors.New("config error")
	ErrLoggerNotFound   = errors.New("logger not found in context")
	ErrInvalidFlag      = errors.New("invalid flag usage")
	ErrTooManyArguments = errors.New("too many arguments")
	ErrStdinTerminal    = errors.New("stdin is a terminal: use a pipe or redirect when using '-'")
	ErrFilesFailed      = errors.New("one or more files failed")
)
