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

package destructor

import (
	"os"
	"path/filepath"
	"testing"
)

type recordingDestructor struct {
	name string
	log  *[]string
}

func (r recordingDestructor) Destroy() {
	*r.log = append(*r.log, r.name)
}

func TestMultiDestructorRunsInReverseOrder(t *testing.T) {
	var log []string
	var m MultiDestructor
	m.AddDestructor(recordingDestructor{"first", &log})
	m.AddDestructor(recordingDestructor{"second", &log})
	m.AddDestructor(recordingDestructor{"third", &log})

	m.Destroy()

	want := []string{"third", "second", "first"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestFileRemoverDeletesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scratch")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	var m MultiDestructor
	m.AddFile(path)
	m.Destroy()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err = %v", path, err)
	}
}

func TestFileRemoverToleratesMissingFile(t *testing.T) {
	var m MultiDestructor
	m.AddFile(filepath.Join(t.TempDir(), "never-created"))
	m.Destroy() // must not panic
}

func TestCloserDestructorClosesWrappedCloser(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "f"))
	if err != nil {
		t.Fatal(err)
	}

	var m MultiDestructor
	m.AddCloser(f)
	m.Destroy()

	if err := f.Close(); err == nil {
		t.Fatal("expected second Close to fail, file should already be closed")
	}
}
