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
	"encoding/binary"
	"fmt"
	"io"
)

// OTAHeader is the 60-byte OTAUpdate (v1) header body, obfuscated on
// the wire.
type OTAHeader struct {
	SourceRevision uint32
	TargetRevision uint32
	Device         uint16
	Optional       bool
	MD5            string // 32 lowercase hex characters
}

const otaHeaderUsed = 4 + 4 + 2 + 1 + 1 + 32 // = 44, padded to 60

func unmarshalOTAHeader(buf []byte) (*OTAHeader, error) {
	if len(buf) < otaHeaderUsed {
		return nil, fmt.Errorf("bundle: OTA header too short: %d bytes", len(buf))
	}
	r := newPackedReader(buf)
	h := &OTAHeader{
		SourceRevision: r.u32(),
		TargetRevision: r.u32(),
		Device:         r.u16(),
	}
	h.Optional = r.u8() != 0
	r.skip(1) // unused
	h.MD5 = string(r.bytes(32))
	return h, nil
}

func (h *OTAHeader) marshal() []byte {
	w := newPackedWriter(KindOTAUpdate.HeaderSize())
	w.putU32(h.SourceRevision)
	w.putU32(h.TargetRevision)
	w.putU16(h.Device)
	if h.Optional {
		w.putU8(1)
	} else {
		w.putU8(0)
	}
	w.putU8(0) // unused
	w.putBytes([]byte(padMD5(h.MD5)))
	return w.bytes()
}

// OTAHeaderV2 is the variable-length OTAUpdateV2 header, logically
// sized by its device list and metadata records but padded to a
// 60-byte minimum on the wire.
type OTAHeaderV2 struct {
	SourceRevision uint64
	TargetRevision uint64
	MD5            string
	Devices        []uint16
	Metadata       map[string]string
}

const otaV2FixedPrefix = 8 + 8 + 2 + 32 // = 50, then num_metadata/num_devices u16 each

// readOTAHeaderV2 parses an OTAUpdateV2 body from a live byte stream
// rather than a fixed-size buffer: the record is variable length
// (device list and metadata entries both carry their own counts), so
// the reader must be driven field by field instead of being sized
// upfront from Kind.HeaderSize, which only reports the 60-byte
// minimum. A record shorter than that minimum is followed by padding,
// which is consumed here too.
func readOTAHeaderV2(r io.Reader) (*OTAHeaderV2, error) {
	h := &OTAHeaderV2{}

	var u64buf [8]byte
	if _, err := io.ReadFull(r, u64buf[:]); err != nil {
		return nil, fmt.Errorf("bundle: reading OTA v2 source revision: %w", err)
	}
	h.SourceRevision = binary.LittleEndian.Uint64(u64buf[:])

	if _, err := io.ReadFull(r, u64buf[:]); err != nil {
		return nil, fmt.Errorf("bundle: reading OTA v2 target revision: %w", err)
	}
	h.TargetRevision = binary.LittleEndian.Uint64(u64buf[:])

	var pad [2]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		return nil, fmt.Errorf("bundle: reading OTA v2 header: %w", err)
	}

	md5buf := make([]byte, 32)
	if _, err := io.ReadFull(r, md5buf); err != nil {
		return nil, fmt.Errorf("bundle: reading OTA v2 md5: %w", err)
	}
	h.MD5 = string(md5buf)

	var u16buf [2]byte
	if _, err := io.ReadFull(r, u16buf[:]); err != nil {
		return nil, fmt.Errorf("bundle: reading OTA v2 metadata count: %w", err)
	}
	numMetadata := binary.LittleEndian.Uint16(u16buf[:])

	if _, err := io.ReadFull(r, u16buf[:]); err != nil {
		return nil, fmt.Errorf("bundle: reading OTA v2 device count: %w", err)
	}
	numDevices := binary.LittleEndian.Uint16(u16buf[:])

	h.Devices = make([]uint16, numDevices)
	for i := range h.Devices {
		if _, err := io.ReadFull(r, u16buf[:]); err != nil {
			return nil, fmt.Errorf("bundle: reading OTA v2 device list: %w", err)
		}
		h.Devices[i] = binary.LittleEndian.Uint16(u16buf[:])
	}

	consumed := otaV2FixedPrefix + 4 + 2*len(h.Devices)
	h.Metadata = make(map[string]string, numMetadata)
	for i := 0; i < int(numMetadata); i++ {
		if _, err := io.ReadFull(r, u16buf[:]); err != nil {
			return nil, fmt.Errorf("bundle: reading OTA v2 metadata length: %w", err)
		}
		recLen := binary.LittleEndian.Uint16(u16buf[:])
		rec := make([]byte, recLen)
		if _, err := io.ReadFull(r, rec); err != nil {
			return nil, fmt.Errorf("bundle: reading OTA v2 metadata record: %w", err)
		}
		key, value := splitMetadataRecord(string(rec))
		h.Metadata[key] = value
		consumed += 2 + int(recLen)
	}

	if padLen := KindOTAUpdateV2.HeaderSize() - consumed; padLen > 0 {
		if _, err := io.ReadFull(r, make([]byte, padLen)); err != nil {
			return nil, fmt.Errorf("bundle: reading OTA v2 header padding: %w", err)
		}
	}

	return h, nil
}

func (h *OTAHeaderV2) marshal() []byte {
	size := otaV2FixedPrefix + 4 + 2*len(h.Devices)
	for k, v := range h.Metadata {
		size += 2 + len(joinMetadataRecord(k, v))
	}
	if size < KindOTAUpdateV2.HeaderSize() {
		size = KindOTAUpdateV2.HeaderSize()
	}

	w := newPackedWriter(size)
	w.putU64(h.SourceRevision)
	w.putU64(h.TargetRevision)
	w.skip(2) // unused
	w.putBytes([]byte(padMD5(h.MD5)))
	w.putU16(uint16(len(h.Metadata)))
	w.putU16(uint16(len(h.Devices)))
	for _, d := range h.Devices {
		w.putU16(d)
	}
	for k, v := range h.Metadata {
		rec := joinMetadataRecord(k, v)
		w.putU16(uint16(len(rec)))
		w.putBytes([]byte(rec))
	}
	return w.bytes()
}

// joinMetadataRecord and splitMetadataRecord implement the OTA v2
// metadata record format as a length-prefixed "key=value" byte string.
// Because the length is explicit there is no delimiter to escape.
func joinMetadataRecord(key, value string) string {
	return key + "=" + value
}

func splitMetadataRecord(rec string) (key, value string) {
	for i := 0; i < len(rec); i++ {
		if rec[i] == '=' {
			return rec[:i], rec[i+1:]
		}
	}
	return rec, ""
}

func padMD5(md5 string) string {
	if len(md5) >= 32 {
		return md5[:32]
	}
	out := make([]byte, 32)
	copy(out, md5)
	for i := len(md5); i < 32; i++ {
		out[i] = '0'
	}
	return string(out)
}
