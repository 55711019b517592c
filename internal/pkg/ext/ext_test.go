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

package ext

import "testing"

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"update.bin":     Bin,
		"UPDATE.BIN":     Bin,
		"out.tar.gz":     TarGz,
		"out.TGZ":        TarGz,
		"readme.txt":     Unknown,
		"noextension":    Unknown,
		"weird.bin.gz":   Unknown,
		"archive.tar.gz": TarGz,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Errorf("Classify(%q) = %s, want %s", name, got, want)
		}
	}
}
