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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/coreos/kobotool/internal/pkg/env"
	"github.com/coreos/kobotool/internal/pkg/kerr"
)

// newEnvironment builds the process-wide Environment, reading
// KT_WITH_UNKNOWN_DEVCODES and KT_PKG_METADATA_DUMP, or exits with the
// I/O exit code if a temp directory can't be created.
func newEnvironment() *env.Environment {
	e, err := env.New(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "kobotool: %v\n", err)
		os.Exit(kerr.Io.ExitCode())
	}
	return e
}

// fail prints err and exits with the exit code its kerr.Kind maps to,
// or the usage exit code if err isn't a *kerr.Error.
func fail(err error) int {
	var kerror *kerr.Error
	if errors.As(err, &kerror) {
		fmt.Fprintf(os.Stderr, "kobotool: %v\n", kerror)
		return kerror.Kind.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "kobotool: %v\n", err)
	return kerr.Usage.ExitCode()
}
