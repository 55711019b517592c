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

// Package digest provides streaming MD5 and SHA-256 digesters that
// produce lowercase hexadecimal digests, bounded to a small read
// buffer regardless of stream size.
package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

const bufSize = 4096

// MD5Hex returns the lowercase hex MD5 digest of r.
func MD5Hex(r io.Reader) (string, error) {
	return sumHex(r, md5.New())
}

// SHA256Hex returns the lowercase hex SHA-256 digest of r.
func SHA256Hex(r io.Reader) (string, error) {
	return sumHex(r, sha256.New())
}

func sumHex(r io.Reader, h hash.Hash) (string, error) {
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Tee fans writes to both an MD5 and a SHA-256 accumulator as well as
// the wrapped writer, avoiding a second buffering pass over the data
// once it has already been written once.
type Tee struct {
	w    io.Writer
	md5  hash.Hash
	sha  hash.Hash
	mw   io.Writer
}

// NewTee wraps w so that every Write is also folded into an MD5 and a
// SHA-256 digest, retrievable via MD5Hex/SHA256Hex once writing is
// complete.
func NewTee(w io.Writer) *Tee {
	t := &Tee{w: w, md5: md5.New(), sha: sha256.New()}
	t.mw = io.MultiWriter(t.w, t.md5, t.sha)
	return t
}

func (t *Tee) Write(p []byte) (int, error) {
	return t.mw.Write(p)
}

// MD5Hex returns the lowercase hex MD5 digest of everything written so far.
func (t *Tee) MD5Hex() string {
	return hex.EncodeToString(t.md5.Sum(nil))
}

// SHA256Hex returns the lowercase hex SHA-256 digest of everything written so far.
func (t *Tee) SHA256Hex() string {
	return hex.EncodeToString(t.sha.Sum(nil))
}
