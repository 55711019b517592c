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

// Package disassemble reads a complete bundle back apart: magic
// detection, header parsing, streaming MD5 verification of the body,
// and archive extraction with per-entry signature checks. It advances
// through the same state machine a careful reimplementation of the
// original tool would use, so a failure can always be attributed to
// the step that caused it.
package disassemble

import (
	"bytes"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/coreos/pkg/capnslog"

	"github.com/coreos/kobotool/archive"
	"github.com/coreos/kobotool/bundle"
	"github.com/coreos/kobotool/devid"
	"github.com/coreos/kobotool/digest"
	"github.com/coreos/kobotool/internal/pkg/env"
	"github.com/coreos/kobotool/internal/pkg/kerr"
	"github.com/coreos/kobotool/obfuscate"
	"github.com/coreos/kobotool/sign"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/kobotool", "disassemble")

// State names a step in disassembling one bundle.
type State int

const (
	Start State = iota
	MagicRead
	HeaderRead
	BodyStreaming
	DigestChecked
	ArchiveConsumed
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Start:
		return "Start"
	case MagicRead:
		return "MagicRead"
	case HeaderRead:
		return "HeaderRead"
	case BodyStreaming:
		return "BodyStreaming"
	case DigestChecked:
		return "DigestChecked"
	case ArchiveConsumed:
		return "ArchiveConsumed"
	case Done:
		return "Done"
	default:
		return "Failed"
	}
}

// Sink receives each real content entry extracted from a bundle.
type Sink interface {
	WriteFile(entry *archive.Entry) error
	Close() error
}

// Options controls a single disassemble run.
type Options struct {
	// PublicKey verifies each entry's signature. Nil (or SkipVerify)
	// disables verification, matching the convert -w flag.
	PublicKey  *rsa.PublicKey
	SkipVerify bool
}

// FileStatus describes one extracted entry and how its signature was
// handled.
type FileStatus struct {
	Name string
	// Status is one of "verified" (a .sig entry was checked against
	// PublicKey), "unsigned" (no PublicKey was supplied, so signatures
	// were never inspected), or "skipped" (SkipVerify suppressed the
	// check regardless of whether a .sig entry was present).
	Status string
}

// Report summarizes a completed disassembly.
type Report struct {
	Kind       bundle.Kind
	Magic      string
	Header     *bundle.Header
	FinalState State
	Files      []FileStatus
}

// Disassemble reads one bundle from r, verifying its digest and
// signatures, and writes each real content entry to sink.
func Disassemble(e *env.Environment, r io.Reader, opts Options, sink Sink) (*Report, error) {
	report := &Report{FinalState: Start}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return report, kerr.New(kerr.Format, "magic", err)
	}
	report.Magic = string(magic)
	report.FinalState = MagicRead

	kind, err := bundle.Detect(magic)
	if err != nil {
		return report, kerr.New(kerr.Format, "magic", err)
	}
	plog.Debugf("detected magic %s as kind %s", report.Magic, kind)

	if kind.HeaderSize() == 0 {
		return disassembleBare(kind, r, sink, report)
	}

	// ReadBundleHeader resolves the FB02 ambiguity itself for
	// KindRecoveryUpdate, consuming RecoveryHeaderSize bytes regardless
	// of which variant it turns out to be.
	header, err := bundle.ReadBundleHeader(r, kind)
	if err != nil {
		return report, kerr.New(kerr.Format, "header", err)
	}
	report.Kind = header.Kind
	report.Header = header
	report.FinalState = HeaderRead

	if err := checkDevice(e, header); err != nil {
		return report, err
	}

	headerMD5, ok := bodyMD5(header)
	if !ok {
		return report, kerr.New(kerr.Format, "header", fmt.Errorf("kind %s has no MD5 field", header.Kind))
	}

	bodyTee := digest.NewTee(io.Discard)
	teedBody := io.TeeReader(r, bodyTee)

	var plain io.Reader = teedBody
	if header.Kind.BodyObfuscated() {
		plain = obfuscate.NewRevealReader(teedBody)
	}
	report.FinalState = BodyStreaming

	ar, err := archive.NewReader(plain)
	if err != nil {
		return report, kerr.New(kerr.Format, "payload", err)
	}

	files, err := consumeArchive(ar, opts, sink)
	if err != nil {
		return report, err
	}
	report.Files = files
	report.FinalState = ArchiveConsumed

	// The archive reader stops at the tar end marker; hash whatever
	// body bytes it left unread so the MD5 covers the whole body.
	if _, err := io.Copy(io.Discard, teedBody); err != nil {
		return report, kerr.New(kerr.Io, "payload", err)
	}
	if got := bodyTee.MD5Hex(); got != headerMD5 {
		return report, kerr.New(kerr.Integrity, "payload", fmt.Errorf("md5 mismatch: header says %s, computed %s", headerMD5, got))
	}
	report.FinalState = DigestChecked

	if err := sink.Close(); err != nil {
		return report, kerr.New(kerr.Io, "output", err)
	}
	report.FinalState = Done
	plog.Infof("disassembled %s bundle, %d files extracted", report.Kind, len(report.Files))

	return report, nil
}

func disassembleBare(kind bundle.Kind, r io.Reader, sink Sink, report *Report) (*Report, error) {
	report.Kind = kind
	// The sniffed magic bytes belong to the bare container itself.
	entry := &archive.Entry{Name: "payload", Content: io.MultiReader(bytes.NewReader([]byte(report.Magic)), r)}
	if err := sink.WriteFile(entry); err != nil {
		return report, kerr.New(kerr.Io, "payload", err)
	}
	if err := sink.Close(); err != nil {
		return report, kerr.New(kerr.Io, "output", err)
	}
	report.Files = []FileStatus{{Name: "payload", Status: "unsigned"}}
	report.FinalState = Done
	return report, nil
}

func checkDevice(e *env.Environment, header *bundle.Header) error {
	var code uint32
	switch {
	case header.OTA() != nil:
		code = uint32(header.OTA().Device)
	case header.Recovery() != nil:
		code = header.Recovery().Device
	case header.Component() != nil:
		code = uint32(header.Component().Device)
	default:
		return nil
	}

	if e.DevicePolicy.AcceptUnknown {
		return nil
	}
	if !devid.IsKnown(code) {
		return kerr.New(kerr.UnknownDevice, devid.Encode(code), devid.ErrUnknownDevice)
	}
	return nil
}

func bodyMD5(header *bundle.Header) (string, bool) {
	switch {
	case header.OTA() != nil:
		return header.OTA().MD5, true
	case header.OTAV2() != nil:
		return header.OTAV2().MD5, true
	case header.Recovery() != nil:
		return header.Recovery().MD5, true
	case header.RecoveryV2() != nil:
		return header.RecoveryV2().MD5, true
	case header.Component() != nil:
		return header.Component().MD5, true
	default:
		return "", false
	}
}

// consumeArchive pairs each content entry with its following .sig
// entry (if any) and verifies it, deobfuscating content with the
// per-file layer before handing it to sink.
func consumeArchive(ar *archive.Reader, opts Options, sink Sink) ([]FileStatus, error) {
	verifying := !opts.SkipVerify && opts.PublicKey != nil
	status := "unsigned"
	switch {
	case opts.SkipVerify:
		status = "skipped"
	case verifying:
		status = "verified"
	}

	var files []FileStatus
	var pending *archive.Entry
	var pendingSum []byte
	var pendingBytes []byte

	flush := func() error {
		if pending == nil {
			return nil
		}
		if verifying {
			return kerr.New(kerr.Signature, pending.Name, fmt.Errorf("missing .sig entry"))
		}
		pending = nil
		return nil
	}

	for {
		entry, err := ar.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, kerr.New(kerr.Format, "archive", err)
		}

		if target, isSig := entry.IsSignature(); isSig {
			sig, err := io.ReadAll(entry.Content)
			if err != nil {
				return files, kerr.New(kerr.Io, entry.Name, err)
			}
			if pending == nil || pending.Name != target {
				return files, kerr.New(kerr.Format, entry.Name, fmt.Errorf("signature with no matching content entry"))
			}
			if verifying {
				if err := sign.Verify(opts.PublicKey, pendingSum, sig); err != nil {
					return files, kerr.New(kerr.Signature, pending.Name, err)
				}
				plog.Debugf("verified signature for %s", pending.Name)
			}
			pending = nil
			pendingBytes = nil
			pendingSum = nil
			continue
		}

		if err := flush(); err != nil {
			return files, err
		}

		buf, err := io.ReadAll(entry.Content)
		if err != nil {
			return files, kerr.New(kerr.Io, entry.Name, err)
		}
		pendingBytes = buf
		pendingSum = sha256Sum(pendingBytes)
		pending = entry

		plainEntry := *entry
		plainEntry.Content = obfuscate.NewRevealReader(bytes.NewReader(pendingBytes))
		if err := sink.WriteFile(&plainEntry); err != nil {
			return files, kerr.New(kerr.Io, entry.Name, err)
		}
		files = append(files, FileStatus{Name: entry.Name, Status: status})
	}

	if err := flush(); err != nil {
		return files, err
	}

	return files, nil
}

func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
