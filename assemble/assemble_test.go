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

package assemble

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"io"
	"testing"
	"time"

	"github.com/coreos/kobotool/archive"
	"github.com/coreos/kobotool/bundle"
	"github.com/coreos/kobotool/internal/pkg/env"
	"github.com/coreos/kobotool/obfuscate"
	"github.com/coreos/kobotool/sign"
)

func testEnv(t *testing.T) *env.Environment {
	t.Helper()
	e, err := env.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// readBackEntries deobfuscates the body at the outer (whole-archive)
// layer and the inner (per-file) layer, returning every real content
// entry's plaintext.
func readBackEntries(t *testing.T, body io.Reader, bodyObfuscated bool) map[string][]byte {
	t.Helper()
	if bodyObfuscated {
		body = obfuscate.NewRevealReader(body)
	}

	r, err := archive.NewReader(body)
	if err != nil {
		t.Fatal(err)
	}

	out := make(map[string][]byte)
	for {
		entry, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if _, isSig := entry.IsSignature(); isSig {
			io.Copy(io.Discard, entry.Content)
			continue
		}
		plain, err := io.ReadAll(obfuscate.NewRevealReader(entry.Content))
		if err != nil {
			t.Fatal(err)
		}
		out[entry.Name] = plain
	}
	return out
}

func TestAssembleOTAUpdateRoundTrip(t *testing.T) {
	e := testEnv(t)
	key := testKey(t)

	inputs := []FileInput{
		{Path: "update.img", Mode: 0o644, ModTime: time.Unix(0, 0), Size: 5, Content: bytes.NewReader([]byte("aaaaa"))},
	}
	opts := Options{
		Kind:           bundle.KindOTAUpdate,
		SourceRevision: 1,
		TargetRevision: 2,
		Devices:        []uint32{0x20C},
		Optional:       true,
		PrivateKey:     key,
	}

	var out bytes.Buffer
	if err := Assemble(e, "FC02", opts, inputs, &out); err != nil {
		t.Fatal(err)
	}

	if magic := out.Next(4); string(magic) != "FC02" {
		t.Fatalf("magic = %q", magic)
	}

	header, err := bundle.ReadHeader(&out, bundle.KindOTAUpdate)
	if err != nil {
		t.Fatal(err)
	}
	ota := header.OTA()
	if ota.SourceRevision != 1 || ota.TargetRevision != 2 || ota.Device != 0x20C || !ota.Optional {
		t.Errorf("header mismatch: %+v", ota)
	}

	entries := readBackEntries(t, &out, bundle.KindOTAUpdate.BodyObfuscated())
	if string(entries["update.img"]) != "aaaaa" {
		t.Errorf("entries[update.img] = %q", entries["update.img"])
	}
}

func TestAssembleOTAUpdateV2WithFilelist(t *testing.T) {
	e := testEnv(t)
	key := testKey(t)

	inputs := []FileInput{
		{Path: "a.img", Mode: 0o644, ModTime: time.Unix(0, 0), Size: 3, Content: bytes.NewReader([]byte("AAA"))},
		{Path: "b.img", Mode: 0o644, ModTime: time.Unix(0, 0), Size: 3, Content: bytes.NewReader([]byte("BBB"))},
	}
	opts := Options{
		Kind:           bundle.KindOTAUpdateV2,
		SourceRevision: 10,
		TargetRevision: 20,
		Devices:        []uint32{0x20C, 0x20D},
		Metadata:       map[string]string{"channel": "stable"},
		PrivateKey:     key,
	}

	var out bytes.Buffer
	if err := Assemble(e, "FC04", opts, inputs, &out); err != nil {
		t.Fatal(err)
	}
	out.Next(4)

	header, err := bundle.ReadHeader(&out, bundle.KindOTAUpdateV2)
	if err != nil {
		t.Fatal(err)
	}
	v2 := header.OTAV2()
	if len(v2.Devices) != 2 {
		t.Fatalf("Devices = %v", v2.Devices)
	}
	if v2.Metadata["channel"] != "stable" {
		t.Errorf("Metadata[channel] = %q", v2.Metadata["channel"])
	}

	entries := readBackEntries(t, &out, bundle.KindOTAUpdateV2.BodyObfuscated())
	if string(entries["a.img"]) != "AAA" || string(entries["b.img"]) != "BBB" {
		t.Errorf("entries mismatch: %v", entries)
	}
	flist, ok := entries[archive.FilelistName]
	if !ok {
		t.Fatal("expected update-filelist.dat entry")
	}
	records, err := archive.ParseFilelist(flist)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("filelist records = %v", records)
	}
}

func TestAssembleSignsEachEntryVerifiably(t *testing.T) {
	e := testEnv(t)
	key := testKey(t)

	inputs := []FileInput{
		{Path: "update.img", Mode: 0o644, ModTime: time.Unix(0, 0), Size: 4, Content: bytes.NewReader([]byte("data"))},
	}
	opts := Options{Kind: bundle.KindOTAUpdate, Devices: []uint32{1}, PrivateKey: key}

	var out bytes.Buffer
	if err := Assemble(e, "FC02", opts, inputs, &out); err != nil {
		t.Fatal(err)
	}
	out.Next(4)
	if _, err := bundle.ReadHeader(&out, bundle.KindOTAUpdate); err != nil {
		t.Fatal(err)
	}

	body := obfuscate.NewRevealReader(&out)
	r, err := archive.NewReader(body)
	if err != nil {
		t.Fatal(err)
	}

	content, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	plainObf, err := io.ReadAll(content.Content)
	if err != nil {
		t.Fatal(err)
	}
	sigEntry, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	sig, err := io.ReadAll(sigEntry.Content)
	if err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(plainObf)
	if err := sign.Verify(&key.PublicKey, sum[:], sig); err != nil {
		t.Fatalf("signature did not verify: %v", err)
	}
}
