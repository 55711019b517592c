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

// Package sign implements RSA-PKCS#1-v1.5-SHA256 signing and
// verification of bundle payload digests. Unlike a fixed-key signer,
// it takes an already-parsed key object from its caller: the bundle
// format allows more than one certificate (CertDeveloper, Cert1K,
// Cert2K), and which key backs a given bundle is a deployment detail,
// not something this package should hardcode.
package sign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/coreos/pkg/capnslog"
)

const hashAlgorithm = crypto.SHA256

var plog = capnslog.NewPackageLogger("github.com/coreos/kobotool", "sign")

// ParsePrivateKeyPEM parses a PKCS#1 RSA private key from PEM text, the
// format kobotool's -k flag expects on disk.
func ParsePrivateKeyPEM(pemText []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemText)
	if block == nil {
		return nil, fmt.Errorf("sign: no PEM block found in private key")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("sign: parsing private key: %w", err)
	}
	return key, nil
}

// ParsePublicKeyPEM parses an X.509 SubjectPublicKeyInfo RSA public key
// from PEM text.
func ParsePublicKeyPEM(pemText []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemText)
	if block == nil {
		return nil, fmt.Errorf("sign: no PEM block found in public key")
	}
	somePub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("sign: parsing public key: %w", err)
	}
	rsaPub, ok := somePub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("sign: unexpected key type %T", somePub)
	}
	return rsaPub, nil
}

// Size returns the signature length in bytes that key produces, the
// same way the key's modulus size is computed by crypto/rsa.
func Size(pub *rsa.PublicKey) int {
	return (pub.N.BitLen() + 7) / 8
}

// Sign produces a PKCS#1 v1.5 signature over a SHA-256 digest using
// key. sum must already be the 32-byte SHA-256 digest of the signed
// payload.
func Sign(key *rsa.PrivateKey, sum []byte) ([]byte, error) {
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, hashAlgorithm, sum)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// Verify checks a PKCS#1 v1.5 signature over a SHA-256 digest against
// pub, returning nil if sig is valid.
func Verify(pub *rsa.PublicKey, sum, sig []byte) error {
	if err := rsa.VerifyPKCS1v15(pub, hashAlgorithm, sum, sig); err != nil {
		plog.Debugf("signature verification failed: %v", err)
		return fmt.Errorf("sign: signature verification failed: %w", err)
	}
	plog.Debugf("signature verified")
	return nil
}
