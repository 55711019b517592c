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

// Package assemble builds a complete bundle: magic, header, and
// obfuscated payload archive, in the strict order the wire format
// requires. For every kind with a header, the payload is staged to a
// temp file first, since the header's MD5 field is the digest of the
// payload bytes and so cannot be known until the payload is fully
// written. Headerless kinds are copied straight to the output.
package assemble

import (
	"bytes"
	"crypto/md5"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coreos/pkg/capnslog"

	"github.com/coreos/kobotool/archive"
	"github.com/coreos/kobotool/bundle"
	"github.com/coreos/kobotool/digest"
	"github.com/coreos/kobotool/internal/pkg/destructor"
	"github.com/coreos/kobotool/internal/pkg/env"
	"github.com/coreos/kobotool/obfuscate"
	"github.com/coreos/kobotool/sign"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/kobotool", "assemble")

// FileInput is one source file to place in the payload archive.
type FileInput struct {
	Path    string // path as it should appear in the archive
	Mode    int64
	ModTime time.Time
	Size    int64
	Content io.Reader
}

// Options carries every targeting parameter a header variant might
// need. Fields that don't apply to the requested Kind are ignored.
type Options struct {
	Kind Kind

	SourceRevision uint64
	TargetRevision uint64
	Devices        []uint32
	Minor          uint8
	Platform       uint32
	Board          uint32
	Certificate    bundle.Certificate
	Optional       bool
	Metadata       map[string]string

	// PrivateKey signs each archive entry and, for UpdateSignature
	// bundles, is the entire purpose of the bundle. Nil disables
	// signing.
	PrivateKey *rsa.PrivateKey
}

// Kind is a local alias kept for readability in this package's public
// surface; it is exactly bundle.Kind.
type Kind = bundle.Kind

type keySigner struct{ key *rsa.PrivateKey }

func (s keySigner) Sign(sum []byte) ([]byte, error) { return sign.Sign(s.key, sum) }

// Assemble writes magic, a header built from opts, and the obfuscated
// payload archive built from inputs, to out.
func Assemble(e *env.Environment, magic string, opts Options, inputs []FileInput, out io.Writer) error {
	if opts.Kind.HeaderSize() == 0 {
		return assembleBare(inputs, out)
	}

	var destroy destructor.MultiDestructor
	defer destroy.Destroy()

	tempFile, err := os.CreateTemp(e.TempDir, "payload-")
	if err != nil {
		return fmt.Errorf("assemble: creating temp payload file: %w", err)
	}
	destroy.AddCloser(tempFile)
	destroy.AddFile(tempFile.Name())

	outerTee := digest.NewTee(tempFile)
	var sink io.Writer = outerTee
	if opts.Kind.BodyObfuscated() {
		sink = obfuscate.NewObscureWriter(outerTee)
	}

	var signer archive.Signer
	if opts.PrivateKey != nil {
		signer = keySigner{opts.PrivateKey}
	}

	aw := archive.NewWriter(sink, signer)

	filelist, err := writeEntries(aw, inputs)
	if err != nil {
		return err
	}

	if opts.Kind == bundle.KindOTAUpdateV2 {
		if err := writeFilelist(aw, filelist); err != nil {
			return err
		}
	}

	if _, err := aw.Close(); err != nil {
		return fmt.Errorf("assemble: closing payload archive: %w", err)
	}

	headerMD5 := outerTee.MD5Hex()
	plog.Infof("payload digest md5=%s", headerMD5)

	body, err := buildHeaderBody(opts, headerMD5)
	if err != nil {
		return err
	}
	header := &bundle.Header{Kind: opts.Kind, Body: body}

	if err := bundle.WriteHeader(out, magic, header); err != nil {
		return fmt.Errorf("assemble: writing header: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("assemble: rewinding payload: %w", err)
	}
	if _, err := io.Copy(out, tempFile); err != nil {
		return fmt.Errorf("assemble: copying payload: %w", err)
	}

	return nil
}

// assembleBare handles UserDataPackage and AndroidUpdate, which have
// no header region: the single input's bytes are the whole bundle.
func assembleBare(inputs []FileInput, out io.Writer) error {
	if len(inputs) != 1 {
		return fmt.Errorf("assemble: exactly one input file is required for a headerless bundle")
	}
	if _, err := io.Copy(out, inputs[0].Content); err != nil {
		return fmt.Errorf("assemble: copying bare payload: %w", err)
	}
	return nil
}

func writeEntries(aw *archive.Writer, inputs []FileInput) ([]archive.FilelistEntry, error) {
	var filelist []archive.FilelistEntry
	for _, in := range inputs {
		md5h := md5.New()
		sha256h := sha256.New()
		obfContent := obfuscate.NewObscureReader(in.Content)
		teed := io.TeeReader(obfContent, io.MultiWriter(md5h, sha256h))

		if err := aw.WriteEntry(in.Path, in.Mode, in.ModTime, in.Size, teed); err != nil {
			return nil, fmt.Errorf("assemble: writing %s: %w", in.Path, err)
		}

		filelist = append(filelist, archive.FilelistEntry{
			Path:   in.Path,
			Mode:   in.Mode,
			MD5:    hex.EncodeToString(md5h.Sum(nil)),
			SHA256: hex.EncodeToString(sha256h.Sum(nil)),
		})
	}
	return filelist, nil
}

func writeFilelist(aw *archive.Writer, entries []archive.FilelistEntry) error {
	data := archive.BuildFilelist(entries)
	err := aw.WriteEntry(archive.FilelistName, 0o644, time.Unix(0, 0), int64(len(data)), obfuscate.NewObscureReader(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("assemble: writing %s: %w", archive.FilelistName, err)
	}
	return nil
}

func buildHeaderBody(opts Options, headerMD5 string) (bundle.Variant, error) {
	var device uint16
	if len(opts.Devices) > 0 {
		device = uint16(opts.Devices[0])
	}

	switch opts.Kind {
	case bundle.KindOTAUpdate:
		return &bundle.OTAHeader{
			SourceRevision: uint32(opts.SourceRevision),
			TargetRevision: uint32(opts.TargetRevision),
			Device:         device,
			Optional:       opts.Optional,
			MD5:            headerMD5,
		}, nil
	case bundle.KindOTAUpdateV2:
		devices := make([]uint16, len(opts.Devices))
		for i, d := range opts.Devices {
			devices[i] = uint16(d)
		}
		return &bundle.OTAHeaderV2{
			SourceRevision: opts.SourceRevision,
			TargetRevision: opts.TargetRevision,
			MD5:            headerMD5,
			Devices:        devices,
			Metadata:       opts.Metadata,
		}, nil
	case bundle.KindRecoveryUpdate:
		return &bundle.RecoveryHeader{
			MD5:    headerMD5,
			Magic1: bundle.RecoveryMagic1,
			Magic2: bundle.RecoveryMagic2,
			Minor:  uint32(opts.Minor),
			Device: uint32(device),
		}, nil
	case bundle.KindRecoveryUpdateV2:
		return &bundle.RecoveryHeaderV2{
			TargetRevision: opts.TargetRevision,
			MD5:            headerMD5,
			Magic1:         bundle.RecoveryMagic1,
			Magic2:         bundle.RecoveryMagic2,
			Minor:          uint32(opts.Minor),
			Platform:       opts.Platform,
			HeaderRev:      bundle.RecoveryHeaderRevV2,
			Board:          opts.Board,
		}, nil
	case bundle.KindUpdateSignature:
		return &bundle.SignatureHeader{CertificateNumber: opts.Certificate}, nil
	case bundle.KindComponentUpdate:
		return &bundle.ComponentHeader{
			SourceRevision: uint32(opts.SourceRevision),
			TargetRevision: uint32(opts.TargetRevision),
			Device:         device,
			Optional:       opts.Optional,
			MD5:            headerMD5,
		}, nil
	default:
		return nil, fmt.Errorf("assemble: unsupported kind %s", opts.Kind)
	}
}
