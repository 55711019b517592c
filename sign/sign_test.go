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

package sign

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"testing"
)

func testKey(t *testing.T, bits int) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	return key
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := testKey(t, 2048)
	sum := sha256.Sum256([]byte("payload bytes"))

	sig, err := Sign(key, sum[:])
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(&key.PublicKey, sum[:], sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	key := testKey(t, 2048)
	other := testKey(t, 2048)
	sum := sha256.Sum256([]byte("payload bytes"))

	sig, err := Sign(key, sum[:])
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(&other.PublicKey, sum[:], sig); err == nil {
		t.Fatal("expected verification failure against a different key")
	}
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	key := testKey(t, 2048)
	sum := sha256.Sum256([]byte("payload bytes"))

	sig, err := Sign(key, sum[:])
	if err != nil {
		t.Fatal(err)
	}
	tampered := sha256.Sum256([]byte("different bytes"))
	if err := Verify(&key.PublicKey, tampered[:], sig); err == nil {
		t.Fatal("expected verification failure against a tampered digest")
	}
}

func TestSizeMatchesKeyBits(t *testing.T) {
	key1K := testKey(t, 1024)
	if got := Size(&key1K.PublicKey); got != 128 {
		t.Errorf("Size(1024-bit key) = %d, want 128", got)
	}

	key2K := testKey(t, 2048)
	if got := Size(&key2K.PublicKey); got != 256 {
		t.Errorf("Size(2048-bit key) = %d, want 256", got)
	}
}

func TestParsePrivateKeyPEMRoundTrip(t *testing.T) {
	key := testKey(t, 2048)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	pemText := pem.EncodeToMemory(block)

	parsed, err := ParsePrivateKeyPEM(pemText)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("parsed modulus does not match original")
	}
}

func TestParsePublicKeyPEMRoundTrip(t *testing.T) {
	key := testKey(t, 2048)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	pemText := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	parsed, err := ParsePublicKeyPEM(pemText)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("parsed modulus does not match original")
	}
}

func TestParsePrivateKeyPEMRejectsGarbage(t *testing.T) {
	if _, err := ParsePrivateKeyPEM([]byte("not pem data")); err == nil {
		t.Fatal("expected error for non-PEM input")
	}
}
