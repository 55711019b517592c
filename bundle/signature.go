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

package bundle

import "fmt"

// Certificate selects which signing key's public counterpart a device
// will use to verify a SignatureHeader's payload.
type Certificate byte

const (
	CertDeveloper Certificate = 0
	Cert1K        Certificate = 1
	Cert2K        Certificate = 2
)

// Size returns the expected RSA signature length in bytes for this
// certificate selector.
func (c Certificate) Size() (int, error) {
	switch c {
	case CertDeveloper, Cert1K:
		return 128, nil
	case Cert2K:
		return 256, nil
	default:
		return 0, fmt.Errorf("bundle: unknown certificate number %d", c)
	}
}

// SignatureHeader is the UpdateSignature (SP01) header.
type SignatureHeader struct {
	CertificateNumber Certificate
}

func unmarshalSignatureHeader(buf []byte) (*SignatureHeader, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("bundle: signature header too short")
	}
	return &SignatureHeader{CertificateNumber: Certificate(buf[0])}, nil
}

func (h *SignatureHeader) marshal() []byte {
	w := newPackedWriter(KindUpdateSignature.HeaderSize())
	w.putU8(byte(h.CertificateNumber))
	return w.bytes()
}

// ComponentHeader is the ComponentUpdate (FB03) header: only the magic
// and the 60-byte obfuscated size are fixed for this kind, so it
// mirrors the OTAUpdate v1 layout, the closest shape in the same size
// class (see DESIGN.md).
type ComponentHeader struct {
	SourceRevision uint32
	TargetRevision uint32
	Device         uint16
	Optional       bool
	MD5            string
}

func unmarshalComponentHeader(buf []byte) (*ComponentHeader, error) {
	h, err := unmarshalOTAHeader(buf)
	if err != nil {
		return nil, err
	}
	return (*ComponentHeader)(h), nil
}

func (h *ComponentHeader) marshal() []byte {
	return (*OTAHeader)(h).marshal()
}
