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

import "encoding/binary"

// packedReader reads little-endian fields from a fixed byte slice at
// explicit offsets. Header layouts are read this way rather than via
// binary.Read onto a Go struct so that field offsets never depend on
// platform alignment rules.
type packedReader struct {
	buf []byte
	off int
}

func newPackedReader(buf []byte) *packedReader {
	return &packedReader{buf: buf}
}

func (r *packedReader) u8() byte {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *packedReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *packedReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *packedReader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *packedReader) bytes(n int) []byte {
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *packedReader) skip(n int) {
	r.off += n
}

// packedWriter is the symmetric counterpart of packedReader.
type packedWriter struct {
	buf []byte
	off int
}

func newPackedWriter(size int) *packedWriter {
	return &packedWriter{buf: make([]byte, size)}
}

func (w *packedWriter) putU8(v byte) {
	w.buf[w.off] = v
	w.off++
}

func (w *packedWriter) putU16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *packedWriter) putU32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *packedWriter) putU64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *packedWriter) putBytes(b []byte) {
	copy(w.buf[w.off:], b)
	w.off += len(b)
}

func (w *packedWriter) skip(n int) {
	w.off += n
}

func (w *packedWriter) bytes() []byte {
	return w.buf
}
