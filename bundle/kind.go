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

// Package bundle implements the fixed-size header variants that front
// a firmware bundle's payload archive: magic-based kind detection,
// per-kind header structs, and their obfuscated on-wire encoding.
package bundle

import (
	"bytes"
	"fmt"

	"github.com/coreos/pkg/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/kobotool", "bundle")

// Kind identifies which header variant a bundle carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindOTAUpdate
	KindOTAUpdateV2
	KindRecoveryUpdate
	KindRecoveryUpdateV2
	KindUpdateSignature
	KindComponentUpdate
	KindUserDataPackage
	KindAndroidUpdate
)

func (k Kind) String() string {
	switch k {
	case KindOTAUpdate:
		return "OTAUpdate"
	case KindOTAUpdateV2:
		return "OTAUpdateV2"
	case KindRecoveryUpdate:
		return "RecoveryUpdate"
	case KindRecoveryUpdateV2:
		return "RecoveryUpdateV2"
	case KindUpdateSignature:
		return "UpdateSignature"
	case KindComponentUpdate:
		return "ComponentUpdate"
	case KindUserDataPackage:
		return "UserDataPackage"
	case KindAndroidUpdate:
		return "AndroidUpdate"
	default:
		return "Unknown"
	}
}

// HeaderSize returns the number of bytes that follow the 4-byte magic
// for the given kind. Wrapper-less kinds (UserDataPackage,
// AndroidUpdate) return 0: they have no fixed header region at all.
func (k Kind) HeaderSize() int {
	switch k {
	case KindUpdateSignature, KindOTAUpdateV2, KindOTAUpdate, KindComponentUpdate:
		return 60
	case KindRecoveryUpdate, KindRecoveryUpdateV2:
		return RecoveryHeaderSize
	default:
		return 0
	}
}

// HeaderObfuscated reports whether the fixed header region for this
// kind is obfuscated on the wire. Recovery v1 is the one exception:
// its header is plaintext even though its payload body is obfuscated.
func (k Kind) HeaderObfuscated() bool {
	switch k {
	case KindOTAUpdate, KindOTAUpdateV2, KindUpdateSignature, KindComponentUpdate, KindRecoveryUpdateV2:
		return true
	default:
		return false
	}
}

// BodyObfuscated reports whether the payload body that follows the
// header is obfuscated for this kind.
func (k Kind) BodyObfuscated() bool {
	switch k {
	case KindOTAUpdate, KindOTAUpdateV2, KindUpdateSignature, KindComponentUpdate, KindRecoveryUpdate, KindRecoveryUpdateV2:
		return true
	default:
		return false
	}
}

var magicKind = map[string]Kind{
	"SP01": KindUpdateSignature,
	"FC04": KindOTAUpdateV2,
	"FD04": KindOTAUpdateV2,
	"FC02": KindOTAUpdate,
	"FD03": KindOTAUpdate,
	"FB01": KindRecoveryUpdate,
	// FB02 is ambiguous between RecoveryUpdate (legacy) and
	// RecoveryUpdateV2; DetectFB02 resolves it once the header bytes
	// are available.
	"FB02": KindRecoveryUpdate,
	"FB03": KindComponentUpdate,
}

var gzipMagic = []byte{0x1f, 0x8b}
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Detect maps a 4-byte magic prefix to a Kind. For bare payloads
// (UserDataPackage, AndroidUpdate) it falls back to sniffing the
// gzip/zip container magic, since those kinds carry no 4-byte
// wrapper prefix of their own.
func Detect(prefix []byte) (Kind, error) {
	if len(prefix) < 4 {
		return KindUnknown, fmt.Errorf("bundle: need at least 4 bytes to detect kind, got %d", len(prefix))
	}

	if k, ok := magicKind[string(prefix[:4])]; ok {
		plog.Debugf("magic %q detected as %s", prefix[:4], k)
		return k, nil
	}

	if len(prefix) >= 2 && bytes.Equal(prefix[:2], gzipMagic) {
		plog.Debugf("no magic prefix, sniffed gzip container as %s", KindUserDataPackage)
		return KindUserDataPackage, nil
	}
	if len(prefix) >= 4 && bytes.Equal(prefix[:4], zipMagic) {
		plog.Debugf("no magic prefix, sniffed zip container as %s", KindAndroidUpdate)
		return KindAndroidUpdate, nil
	}

	return KindUnknown, fmt.Errorf("bundle: unrecognized magic %q", prefix[:4])
}

// IsFB02 reports whether magic names the ambiguous FB02 prefix shared
// by RecoveryUpdate and RecoveryUpdateV2.
func IsFB02(magic []byte) bool {
	return len(magic) >= 4 && string(magic[:4]) == "FB02"
}
