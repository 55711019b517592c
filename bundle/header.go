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

import (
	"fmt"
	"io"

	"github.com/coreos/kobotool/obfuscate"
)

// Variant is implemented by every concrete header body type
// (OTAHeader, OTAHeaderV2, RecoveryHeader, RecoveryHeaderV2,
// SignatureHeader, ComponentHeader). The 4-byte magic picked the
// discriminant; Header carries the chosen arm.
type Variant interface {
	marshal() []byte
}

// Header is the tagged union over every header variant this codec
// understands. Exactly one of the typed accessor methods is valid for
// a given Kind; callers switch on Kind the same way the wire format
// does.
type Header struct {
	Kind Kind
	Body Variant
}

// OTA returns the OTAUpdate v1 body, or nil if Kind is not KindOTAUpdate.
func (h *Header) OTA() *OTAHeader {
	v, _ := h.Body.(*OTAHeader)
	return v
}

// OTAV2 returns the OTAUpdateV2 body, or nil if Kind is not KindOTAUpdateV2.
func (h *Header) OTAV2() *OTAHeaderV2 {
	v, _ := h.Body.(*OTAHeaderV2)
	return v
}

// Recovery returns the RecoveryUpdate v1 body, or nil otherwise.
func (h *Header) Recovery() *RecoveryHeader {
	v, _ := h.Body.(*RecoveryHeader)
	return v
}

// RecoveryV2 returns the RecoveryUpdateV2 body, or nil otherwise.
func (h *Header) RecoveryV2() *RecoveryHeaderV2 {
	v, _ := h.Body.(*RecoveryHeaderV2)
	return v
}

// Signature returns the UpdateSignature body, or nil otherwise.
func (h *Header) Signature() *SignatureHeader {
	v, _ := h.Body.(*SignatureHeader)
	return v
}

// Component returns the ComponentUpdate body, or nil otherwise.
func (h *Header) Component() *ComponentHeader {
	v, _ := h.Body.(*ComponentHeader)
	return v
}

// ReadHeader reads the header region for kind from r and parses it;
// the caller has already consumed the 4-byte magic. UserDataPackage and
// AndroidUpdate have no header region and are rejected here; their
// bare payload starts with the very bytes Detect sniffed.
func ReadHeader(r io.Reader, kind Kind) (*Header, error) {
	// OTAUpdateV2 is variable length: its device list and metadata
	// records carry their own counts, so it must be parsed straight off
	// a deobfuscating stream instead of a buffer sized by HeaderSize,
	// which only reports the 60-byte minimum.
	if kind == KindOTAUpdateV2 {
		body, err := readOTAHeaderV2(obfuscate.NewRevealReader(r))
		if err != nil {
			return nil, err
		}
		return &Header{Kind: kind, Body: body}, nil
	}

	size := kind.HeaderSize()
	if size == 0 {
		return nil, fmt.Errorf("bundle: kind %s has no fixed header to read", kind)
	}

	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("bundle: reading %s header: %w", kind, err)
	}

	plain := raw
	if kind.HeaderObfuscated() {
		plain = obfuscate.Reveal(raw)
	}

	return parseHeaderBody(kind, plain)
}

// ReadBundleHeader is the entry point used by the disassembler: it
// resolves the FB02 ambiguity up front (recovery v1 headers are never
// obfuscated, so the raw bytes must be tried both ways) before
// delegating to ReadHeader's per-kind parser.
func ReadBundleHeader(r io.Reader, kind Kind) (*Header, error) {
	if kind != KindRecoveryUpdate {
		return ReadHeader(r, kind)
	}

	raw := make([]byte, RecoveryHeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("bundle: reading recovery header: %w", err)
	}

	deobfuscated := obfuscate.Reveal(raw)
	if DetectFB02(deobfuscated) == KindRecoveryUpdateV2 {
		return parseHeaderBody(KindRecoveryUpdateV2, deobfuscated)
	}
	return parseHeaderBody(KindRecoveryUpdate, raw)
}

func parseHeaderBody(kind Kind, plain []byte) (*Header, error) {
	switch kind {
	case KindOTAUpdate:
		body, err := unmarshalOTAHeader(plain)
		if err != nil {
			return nil, err
		}
		return &Header{Kind: kind, Body: body}, nil
	case KindRecoveryUpdate:
		body, err := unmarshalRecoveryHeader(plain)
		if err != nil {
			return nil, err
		}
		return &Header{Kind: kind, Body: body}, nil
	case KindRecoveryUpdateV2:
		body, err := unmarshalRecoveryHeaderV2(plain)
		if err != nil {
			return nil, err
		}
		return &Header{Kind: kind, Body: body}, nil
	case KindUpdateSignature:
		body, err := unmarshalSignatureHeader(plain)
		if err != nil {
			return nil, err
		}
		return &Header{Kind: kind, Body: body}, nil
	case KindComponentUpdate:
		body, err := unmarshalComponentHeader(plain)
		if err != nil {
			return nil, err
		}
		return &Header{Kind: kind, Body: body}, nil
	default:
		return nil, fmt.Errorf("bundle: unsupported kind %s", kind)
	}
}

// WriteHeader serializes h and writes the magic-prefixed header region
// to w, obfuscating it first when the kind requires it.
func WriteHeader(w io.Writer, magic string, h *Header) error {
	plain := h.Body.marshal()

	out := plain
	if h.Kind.HeaderObfuscated() {
		out = obfuscate.Obscure(plain)
	}

	if _, err := w.Write([]byte(magic)); err != nil {
		return fmt.Errorf("bundle: writing magic: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("bundle: writing %s header: %w", h.Kind, err)
	}
	return nil
}
