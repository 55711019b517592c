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

package env

import (
	"os"
	"testing"
)

func TestNewCreatesTempDirAndReadsPolicy(t *testing.T) {
	os.Setenv(acceptUnknownDevcodesVar, "1")
	defer os.Unsetenv(acceptUnknownDevcodesVar)

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if !e.DevicePolicy.AcceptUnknown {
		t.Error("expected AcceptUnknown true when env var set to 1")
	}
	if info, err := os.Stat(e.TempDir); err != nil || !info.IsDir() {
		t.Errorf("TempDir %s does not exist as a directory: %v", e.TempDir, err)
	}
}

func TestNewDefaultsToStrictPolicy(t *testing.T) {
	os.Unsetenv(acceptUnknownDevcodesVar)

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.DevicePolicy.AcceptUnknown {
		t.Error("expected AcceptUnknown false by default")
	}
}

func TestCloseRemovesTempDir(t *testing.T) {
	e, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := e.TempDir
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", path)
	}
}

func TestMetadataDumpPathFromEnv(t *testing.T) {
	os.Setenv(metadataDumpVar, "/tmp/dump.txt")
	defer os.Unsetenv(metadataDumpVar)

	e, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.MetadataDumpPath != "/tmp/dump.txt" {
		t.Errorf("MetadataDumpPath = %q", e.MetadataDumpPath)
	}
}
