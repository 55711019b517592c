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

// RecoveryHeaderSize is the fixed, mostly-zero header region shared by
// RecoveryUpdate and RecoveryUpdateV2.
const RecoveryHeaderSize = 131072

// RecoveryMagic1 and RecoveryMagic2 are the fixed constants every
// recovery header (v1 and H2) must carry. Like the obfuscation round
// key, these are this port's own fixed values (see DESIGN.md) in the
// absence of the vendor's originals.
const (
	RecoveryMagic1 uint32 = 0x5245434f // "RECO"
	RecoveryMagic2 uint32 = 0x56455259 // "VERY"
)

// RecoveryHeaderRevV2 is the only header_rev value RecoveryUpdateV2
// currently accepts.
const RecoveryHeaderRevV2 uint32 = 2

// recoveryHeaderRevOffset is the offset of the header_rev field within
// the deobfuscated H2 layout; it doubles as the offset FB02 detection
// inspects to distinguish H2 from legacy v1, since the two headers
// start with the same magic and the same total size.
const recoveryHeaderRevOffset = 4 + 8 + 32 + 4 + 4 + 4 + 4 // = 60

// RecoveryHeader is the RecoveryUpdate (v1) header.
type RecoveryHeader struct {
	MD5    string
	Magic1 uint32
	Magic2 uint32
	Minor  uint32
	Device uint32
}

const recoveryV1Used = 12 + 32 + 4 + 4 + 4 + 4 // = 60

func unmarshalRecoveryHeader(buf []byte) (*RecoveryHeader, error) {
	if len(buf) < recoveryV1Used {
		return nil, fmt.Errorf("bundle: recovery v1 header too short: %d bytes", len(buf))
	}
	r := newPackedReader(buf)
	r.skip(12) // unused
	h := &RecoveryHeader{MD5: string(r.bytes(32))}
	h.Magic1 = r.u32()
	h.Magic2 = r.u32()
	h.Minor = r.u32()
	h.Device = r.u32()
	return h, nil
}

func (h *RecoveryHeader) marshal() []byte {
	w := newPackedWriter(RecoveryHeaderSize)
	w.skip(12)
	w.putBytes([]byte(padMD5(h.MD5)))
	w.putU32(h.Magic1)
	w.putU32(h.Magic2)
	w.putU32(h.Minor)
	w.putU32(h.Device)
	return w.bytes()
}

// RecoveryHeaderV2 is the RecoveryUpdateV2 ("H2") header: same
// physical size as v1, but with a packed layout disambiguated by
// HeaderRev.
type RecoveryHeaderV2 struct {
	TargetRevision uint64
	MD5            string
	Magic1         uint32
	Magic2         uint32
	Minor          uint32
	Platform       uint32
	HeaderRev      uint32
	Board          uint32
}

const recoveryV2Used = 4 + 8 + 32 + 4 + 4 + 4 + 4 + 4 + 4 // = 68

func unmarshalRecoveryHeaderV2(buf []byte) (*RecoveryHeaderV2, error) {
	if len(buf) < recoveryV2Used {
		return nil, fmt.Errorf("bundle: recovery H2 header too short: %d bytes", len(buf))
	}
	r := newPackedReader(buf)
	r.skip(4) // unused
	h := &RecoveryHeaderV2{TargetRevision: r.u64()}
	h.MD5 = string(r.bytes(32))
	h.Magic1 = r.u32()
	h.Magic2 = r.u32()
	h.Minor = r.u32()
	h.Platform = r.u32()
	h.HeaderRev = r.u32()
	h.Board = r.u32()
	return h, nil
}

func (h *RecoveryHeaderV2) marshal() []byte {
	w := newPackedWriter(RecoveryHeaderSize)
	w.skip(4)
	w.putU64(h.TargetRevision)
	w.putBytes([]byte(padMD5(h.MD5)))
	w.putU32(h.Magic1)
	w.putU32(h.Magic2)
	w.putU32(h.Minor)
	w.putU32(h.Platform)
	w.putU32(h.HeaderRev)
	w.putU32(h.Board)
	return w.bytes()
}

// DetectFB02 resolves the ambiguity between RecoveryUpdate (legacy)
// and RecoveryUpdateV2 sharing the FB02 magic: given the already
// deobfuscated header bytes, it reads the header-rev field and checks
// it against the known H2 revision set.
func DetectFB02(deobfuscated []byte) Kind {
	if len(deobfuscated) < recoveryHeaderRevOffset+4 {
		return KindRecoveryUpdate
	}
	rev := uint32FromBuf(deobfuscated, recoveryHeaderRevOffset)
	if rev == RecoveryHeaderRevV2 {
		return KindRecoveryUpdateV2
	}
	return KindRecoveryUpdate
}

func uint32FromBuf(buf []byte, off int) uint32 {
	r := &packedReader{buf: buf, off: off}
	return r.u32()
}
