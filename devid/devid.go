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

// Package devid encodes and decodes device identifiers: a short ASCII
// token naming target hardware, mapped to the numeric device field
// carried in bundle headers. Two encodings coexist: a one-byte legacy
// table (addressed by a 2-character hex token) and a variable-width
// base-32 representation for everything else.
package devid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Alphabet is the custom base-32 character set: the digits followed by
// the letters A-Z with I, O, Y and Z removed to avoid confusion with
// 1, 0, V and 2 on device labels.
const Alphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWX"

// ErrUnknownDevice is returned when a token is syntactically malformed,
// or decodes to a code absent from the known-device table while the
// accept-unknown-devcodes policy is off.
var ErrUnknownDevice = errors.New("devid: unknown device code")

// Policy controls whether unrecognized-but-well-formed device codes
// are accepted.
type Policy struct {
	AcceptUnknown bool
}

var charValue [256]int8

func init() {
	for i := range charValue {
		charValue[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		charValue[Alphabet[i]] = int8(i)
	}
}

// Decode resolves an ASCII device token to its numeric device code.
func Decode(token string, policy Policy) (uint32, error) {
	if len(token) == 2 {
		if v, err := strconv.ParseUint(token, 16, 8); err == nil {
			code := uint32(v)
			if policy.AcceptUnknown {
				return code, nil
			}
			if _, ok := legacyByCode[byte(code)]; ok {
				return code, nil
			}
			return 0, ErrUnknownDevice
		}
	}

	value, ok := decodeBase32(token)
	if !ok {
		return 0, ErrUnknownDevice
	}

	if policy.AcceptUnknown {
		return value, nil
	}
	if IsKnown(value) {
		return value, nil
	}
	return 0, ErrUnknownDevice
}

// IsKnown reports whether value appears in either device table,
// regardless of which ASCII encoding a caller used to reach it. It is
// exported for callers that already have a numeric device code on
// hand, such as the disassembler validating a bundle's Device field
// against policy without round-tripping through a token.
func IsKnown(value uint32) bool {
	if _, ok := knownByCode[value]; ok {
		return true
	}
	if value <= 0xff {
		if _, ok := legacyByCode[byte(value)]; ok {
			return true
		}
	}
	return false
}

func decodeBase32(token string) (uint32, bool) {
	token = strings.ToUpper(token)
	if len(token) == 0 {
		return 0, false
	}

	var value uint32
	for i := 0; i < len(token); i++ {
		v := charValue[token[i]]
		if v < 0 {
			return 0, false
		}
		value = value*32 + uint32(v)
	}
	return value, true
}

func encodeBase32(value uint32) string {
	if value == 0 {
		return string(Alphabet[0]) + string(Alphabet[0]) + string(Alphabet[0])
	}

	var digits []byte
	v := value
	for v > 0 {
		digits = append(digits, Alphabet[v%32])
		v /= 32
	}
	// Reverse into most-significant-digit-first order.
	out := make([]byte, len(digits))
	for i, d := range digits {
		out[len(digits)-1-i] = d
	}

	// Minimum width is 3 characters.
	for len(out) < 3 {
		out = append([]byte{Alphabet[0]}, out...)
	}
	return string(out)
}

// Encode renders a numeric device code as its canonical ASCII token:
// the legacy 2-character hex form when the code has an unambiguous
// legacy entry, the base-32 form otherwise.
func Encode(code uint32) string {
	if code <= 0xff {
		if entry, ok := legacyByCode[byte(code)]; ok && entry.unambiguous {
			return fmt.Sprintf("%02x", code)
		}
	}
	return encodeBase32(code)
}
