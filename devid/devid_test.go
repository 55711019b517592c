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

package devid

import "testing"

func TestDecodeKnownTokens(t *testing.T) {
	cases := []struct {
		token string
		want  uint32
	}{
		{"0GC", 0x20C},
		{"01", 0x01},
		{"3HA", 0xE2A},
	}

	for _, c := range cases {
		got, err := Decode(c.token, Policy{})
		if err != nil {
			t.Errorf("Decode(%q) error: %v", c.token, err)
			continue
		}
		if got != c.want {
			t.Errorf("Decode(%q) = %#x, want %#x", c.token, got, c.want)
		}
	}
}

func TestDecodeUnknownRejectedByDefault(t *testing.T) {
	if _, err := Decode("ZZZ", Policy{}); err != ErrUnknownDevice {
		t.Fatalf("Decode(\"ZZZ\") with policy off = %v, want ErrUnknownDevice", err)
	}
}

func TestDecodeUnknownAcceptedWithPolicy(t *testing.T) {
	// A syntactically valid but unlisted base-32 token must decode
	// once the accept-unknown-devcodes policy is set.
	if _, err := Decode("9ZZ", Policy{AcceptUnknown: true}); err == nil {
		t.Fatal("expected error: '9ZZ' contains 'Z', which is outside the alphabet and can never decode")
	}

	got, err := Decode("9XW", Policy{AcceptUnknown: true})
	if err != nil {
		t.Fatalf("Decode(\"9XW\", accept-unknown) error: %v", err)
	}
	if _, err := Decode("9XW", Policy{}); err != ErrUnknownDevice {
		t.Fatalf("Decode(\"9XW\") with policy off = %v, want ErrUnknownDevice", err)
	}
	if got == 0 {
		t.Fatal("expected a non-zero decoded value")
	}
}

func TestEncodeDecodeRoundTripLegacy(t *testing.T) {
	for code := range legacyByCode {
		tok := Encode(uint32(code))
		got, err := Decode(tok, Policy{})
		if err != nil {
			t.Errorf("round trip for legacy code %#x via token %q: %v", code, tok, err)
			continue
		}
		if got != uint32(code) {
			t.Errorf("round trip for legacy code %#x: got %#x via token %q", code, got, tok)
		}
	}
}

func TestEncodeDecodeRoundTripKnown(t *testing.T) {
	for code := range knownByCode {
		tok := Encode(code)
		got, err := Decode(tok, Policy{})
		if err != nil {
			t.Errorf("round trip for code %#x via token %q: %v", code, tok, err)
			continue
		}
		if got != code {
			t.Errorf("round trip for code %#x: got %#x via token %q", code, got, tok)
		}
	}
}

func TestEncodeInjective(t *testing.T) {
	seen := make(map[string]uint32)
	codes := []uint32{0x01, 0x0E, 0x20C, 0xE2A, 0x1000, 0xFFFF}
	for _, c := range codes {
		tok := Encode(c)
		if prev, ok := seen[tok]; ok && prev != c {
			t.Errorf("Encode collision: %#x and %#x both produce %q", prev, c, tok)
		}
		seen[tok] = c
	}
}
