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

// Package archive streams a gzip-compressed tar payload: on write, a
// sequence of (path, metadata, content) entries; on read, a lazy
// sequence of the same. When a Signer is attached, every content entry
// is immediately followed by a "<name>.sig" entry carrying the
// signature of that entry's bytes, matching how payload.go's Generator
// writes a hashed stream followed by its trailing signature record.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/coreos/pkg/capnslog"

	"github.com/coreos/kobotool/digest"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/kobotool", "archive")

const sigSuffix = ".sig"

// Signer signs a SHA-256 digest, returning raw signature bytes. The
// assemble package satisfies it with a small type wrapping sign.Sign
// and a caller-held private key; the archive package itself never
// touches key material.
type Signer interface {
	Sign(sum []byte) ([]byte, error)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Writer builds a gzip-compressed tar archive entry by entry.
type Writer struct {
	signer Signer
	count  *countingWriter
	tee    *digest.Tee
	gz     *gzip.Writer
	tw     *tar.Writer
}

// NewWriter wraps w, compressing and archiving entries written through
// WriteEntry. signer may be nil to disable per-entry signature entries.
func NewWriter(w io.Writer, signer Signer) *Writer {
	count := &countingWriter{w: w}
	tee := digest.NewTee(count)
	gz := gzip.NewWriter(tee)
	return &Writer{
		signer: signer,
		count:  count,
		tee:    tee,
		gz:     gz,
		tw:     tar.NewWriter(gz),
	}
}

// WriteEntry writes one file's content into the archive under name,
// with the given mode and modification time. If a Signer is attached,
// a "<name>.sig" entry immediately follows, signing the SHA-256 digest
// of the content just written.
func (aw *Writer) WriteEntry(name string, mode int64, modTime time.Time, size int64, content io.Reader) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    mode,
		Size:    size,
		ModTime: modTime,
	}
	if err := aw.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive: writing header for %s: %w", name, err)
	}

	h := sha256.New()
	if _, err := io.Copy(aw.tw, io.TeeReader(content, h)); err != nil {
		return fmt.Errorf("archive: writing content for %s: %w", name, err)
	}

	if aw.signer == nil {
		plog.Debugf("wrote %s (%d bytes), unsigned", name, size)
		return nil
	}

	sig, err := aw.signer.Sign(h.Sum(nil))
	if err != nil {
		return fmt.Errorf("archive: signing %s: %w", name, err)
	}
	plog.Debugf("wrote %s (%d bytes) and its signature", name, size)

	sigHdr := &tar.Header{
		Name:    name + sigSuffix,
		Mode:    mode,
		Size:    int64(len(sig)),
		ModTime: modTime,
	}
	if err := aw.tw.WriteHeader(sigHdr); err != nil {
		return fmt.Errorf("archive: writing signature header for %s: %w", name, err)
	}
	if _, err := aw.tw.Write(sig); err != nil {
		return fmt.Errorf("archive: writing signature for %s: %w", name, err)
	}
	return nil
}

// Result reports the output byte count and digests of a closed Writer.
type Result struct {
	Bytes  int64
	MD5    string
	SHA256 string
}

// Close finalizes the tar and gzip streams and reports the digests and
// byte count of the compressed output.
func (aw *Writer) Close() (Result, error) {
	if err := aw.tw.Close(); err != nil {
		return Result{}, fmt.Errorf("archive: closing tar writer: %w", err)
	}
	if err := aw.gz.Close(); err != nil {
		return Result{}, fmt.Errorf("archive: closing gzip writer: %w", err)
	}
	return Result{
		Bytes:  aw.count.n,
		MD5:    aw.tee.MD5Hex(),
		SHA256: aw.tee.SHA256Hex(),
	}, nil
}

// Entry is one lazily-read archive member. Content must be fully read
// or discarded before the next call to Reader.Next.
type Entry struct {
	Name    string
	Mode    int64
	Size    int64
	ModTime time.Time
	Content io.Reader
}

// IsSignature reports whether the entry is a "<name>.sig" sidecar, and
// if so, the name of the content entry it signs.
func (e *Entry) IsSignature() (target string, ok bool) {
	if len(e.Name) > len(sigSuffix) && e.Name[len(e.Name)-len(sigSuffix):] == sigSuffix {
		return e.Name[:len(e.Name)-len(sigSuffix)], true
	}
	return "", false
}

// Reader reads entries lazily from a gzip-compressed tar stream.
type Reader struct {
	gz *gzip.Reader
	tr *tar.Reader
}

// NewReader opens the gzip and tar layers on r. The caller is
// responsible for closing the underlying stream.
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("archive: opening gzip stream: %w", err)
	}
	return &Reader{gz: gz, tr: tar.NewReader(gz)}, nil
}

// Next returns the next entry, or io.EOF when the archive is exhausted.
func (ar *Reader) Next() (*Entry, error) {
	hdr, err := ar.tr.Next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("archive: reading entry header: %w", err)
	}
	return &Entry{
		Name:    hdr.Name,
		Mode:    hdr.Mode,
		Size:    hdr.Size,
		ModTime: hdr.ModTime,
		Content: ar.tr,
	}, nil
}

// Close releases the gzip layer. It does not close the underlying
// stream the Reader was constructed from.
func (ar *Reader) Close() error {
	return ar.gz.Close()
}
