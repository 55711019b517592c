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

// Package destructor gives assemble a single place to register cleanup
// for the staged temp payload file it creates mid-pipeline (closing and
// removing it), so a failure partway through a bundle still releases
// everything opened before it.
package destructor

import (
	"io"
	"os"

	"github.com/coreos/pkg/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/kobotool", "destructor")

// Destructor is a common interface for objects that need to be cleaned up.
type Destructor interface {
	Destroy()
}

// CloserDestructor wraps any Closer to provide the Destructor interface.
type CloserDestructor struct {
	io.Closer
}

func (c CloserDestructor) Destroy() {
	if err := c.Close(); err != nil {
		plog.Errorf("Close() returned error: %v", err)
	}
}

// FileRemover deletes a file from disk, used for temp files created
// mid-pipeline that must not outlive a failed run.
type FileRemover string

func (f FileRemover) Destroy() {
	if err := os.Remove(string(f)); err != nil && !os.IsNotExist(err) {
		plog.Errorf("removing %s: %v", string(f), err)
	}
}

// MultiDestructor wraps multiple Destructors for easy cleanup, run in
// the reverse of registration order so resources are torn down the
// same way they were built up.
type MultiDestructor []Destructor

func (m MultiDestructor) Destroy() {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].Destroy()
	}
}

func (m *MultiDestructor) AddCloser(closer io.Closer) {
	m.AddDestructor(CloserDestructor{closer})
}

func (m *MultiDestructor) AddFile(path string) {
	m.AddDestructor(FileRemover(path))
}

func (m *MultiDestructor) AddDestructor(d Destructor) {
	*m = append(*m, d)
}
