// Copyright 2024 Red Hat, Inc.
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

// Package env replaces package-global mutable state with a single
// Environment value, built once at command entry and passed explicitly
// into the assembler and disassembler. The only things it carries are
// the settings that would otherwise be process-wide globals: where
// scratch files go, how strict device-code acceptance is, and where the
// metadata dump goes.
package env

import (
	"fmt"
	"os"

	"github.com/coreos/kobotool/devid"
)

// Environment is read-only once constructed; nothing in kobotool
// mutates it after startup.
type Environment struct {
	// TempDir is the directory under which scratch files for one
	// invocation are created.
	TempDir string

	// DevicePolicy governs whether devid.Decode accepts well-formed
	// but unrecognized device codes.
	DevicePolicy devid.Policy

	// MetadataDumpPath, if non-empty, names a sidecar file that
	// receives a human-readable description of a converted package.
	MetadataDumpPath string
}

const (
	acceptUnknownDevcodesVar = "KT_WITH_UNKNOWN_DEVCODES"
	metadataDumpVar          = "KT_PKG_METADATA_DUMP"
)

// New builds an Environment from the process environment and a base
// directory under which a private temp directory is created.
func New(baseTempDir string) (*Environment, error) {
	tempDir, err := os.MkdirTemp(baseTempDir, "kobotool-")
	if err != nil {
		return nil, fmt.Errorf("env: creating temp dir: %w", err)
	}

	return &Environment{
		TempDir:          tempDir,
		DevicePolicy:     devid.Policy{AcceptUnknown: os.Getenv(acceptUnknownDevcodesVar) == "1"},
		MetadataDumpPath: os.Getenv(metadataDumpVar),
	}, nil
}

// Close removes the temp directory and everything under it.
func (e *Environment) Close() error {
	return os.RemoveAll(e.TempDir)
}
