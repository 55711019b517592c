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

package digest

import (
	"bytes"
	"strings"
	"testing"
)

func TestMD5HexVector(t *testing.T) {
	got, err := MD5Hex(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if want := "d41d8cd98f00b204e9800998ecf8427e"; got != want {
		t.Errorf("MD5Hex(\"\") = %s, want %s", got, want)
	}

	got, err = MD5Hex(strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "900150983cd24fb0d6963f7d28e17f72"; got != want {
		t.Errorf("MD5Hex(\"abc\") = %s, want %s", got, want)
	}
}

func TestSHA256HexVector(t *testing.T) {
	got, err := SHA256Hex(strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"[:64]
	if got != want {
		t.Errorf("SHA256Hex(\"abc\") = %s, want %s", got, want)
	}
}

func TestTeeMatchesDirect(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	var out bytes.Buffer
	tee := NewTee(&out)
	if _, err := tee.Write(data); err != nil {
		t.Fatal(err)
	}

	wantMD5, err := MD5Hex(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	wantSHA, err := SHA256Hex(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if got := tee.MD5Hex(); got != wantMD5 {
		t.Errorf("Tee MD5 = %s, want %s", got, wantMD5)
	}
	if got := tee.SHA256Hex(); got != wantSHA {
		t.Errorf("Tee SHA256 = %s, want %s", got, wantSHA)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Error("Tee did not forward bytes to the wrapped writer")
	}
}
