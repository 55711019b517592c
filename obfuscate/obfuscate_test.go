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

package obfuscate

import (
	"bytes"
	"testing"
)

func sequentialBlock() []byte {
	b := make([]byte, BlockSize)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestRoundTripFullBlock(t *testing.T) {
	in := sequentialBlock()
	out := Obscure(in)
	if bytes.Equal(out, in) {
		t.Fatal("Obscure did not change the input block")
	}
	if got := Reveal(out); !bytes.Equal(got, in) {
		t.Fatalf("Reveal(Obscure(x)) = % x, want % x", got, in)
	}
	if got := Obscure(Reveal(in)); !bytes.Equal(got, in) {
		t.Fatalf("Obscure(Reveal(x)) = % x, want % x", got, in)
	}
}

func TestRoundTripPartialBlock(t *testing.T) {
	for _, n := range []int{1, 7, 31, 63, 65, 127, 129} {
		in := make([]byte, n)
		for i := range in {
			in[i] = byte(i * 3)
		}
		out := Obscure(in)
		if got := Reveal(out); !bytes.Equal(got, in) {
			t.Fatalf("len %d: Reveal(Obscure(x)) != x", n)
		}
	}
}

func TestObscureRevealDistinct(t *testing.T) {
	in := sequentialBlock()
	if bytes.Equal(Obscure(in), Reveal(in)) {
		t.Fatal("Obscure and Reveal must not coincide on a non-trivial block")
	}
}

func TestStreamingMatchesBulk(t *testing.T) {
	in := make([]byte, 200)
	for i := range in {
		in[i] = byte(i * 7 % 251)
	}
	want := Obscure(in)

	var buf bytes.Buffer
	w := NewObscureWriter(&buf)
	for _, chunk := range [][]byte{in[:13], in[13:100], in[100:]} {
		if _, err := w.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatal("chunked Writer output diverged from bulk Obscure")
	}

	r := NewRevealReader(bytes.NewReader(buf.Bytes()))
	got := make([]byte, len(in))
	if _, err := r.Read(got[:50]); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(got[50:]); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, in) {
		t.Fatal("chunked Reader did not recover original bytes")
	}
}
