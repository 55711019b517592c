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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/kobotool/assemble"
	"github.com/coreos/kobotool/bundle"
	"github.com/coreos/kobotool/cli"
	"github.com/coreos/kobotool/devid"
	"github.com/coreos/kobotool/internal/pkg/env"
	"github.com/coreos/kobotool/internal/pkg/kerr"
	"github.com/coreos/kobotool/sign"
)

func init() {
	cmd := &cli.Command{
		Name:        "create",
		Summary:     "Assemble a firmware bundle from a set of input files",
		Usage:       "<kind> [flags] <inputs...> <output.bin>",
		Description: "Assemble a firmware bundle of the named kind, signing each entry when -k is given.",
		Run:         runCreate,
	}
	cmd.Flags.Var(&createDevices, "d", "target device code (repeatable)")
	cmd.Flags.StringVar(&createKeyfile, "k", "", "PEM private key used to sign each entry")
	cmd.Flags.Uint64Var(&createSource, "s", 0, "source revision")
	cmd.Flags.Uint64Var(&createTarget, "t", 0, "target revision")
	cmd.Flags.Uint64Var(&createMinor, "m", 0, "minor version")
	cmd.Flags.Uint64Var(&createPlatform, "p", 0, "platform code")
	cmd.Flags.Uint64Var(&createBoard, "b", 0, "board code")
	cmd.Flags.Uint64Var(&createCert, "c", 0, "certificate number (0=dev, 1=1K, 2=2K)")
	cmd.Flags.BoolVar(&createOptional, "O", false, "mark the update as optional")
	cmd.Flags.Var(&createMetadata, "x", "metadata record key=value (repeatable, OTA v2 only)")
	cli.Register(cmd)
}

var (
	createDevices  repeatedFlag
	createKeyfile  string
	createSource   uint64
	createTarget   uint64
	createMinor    uint64
	createPlatform uint64
	createBoard    uint64
	createCert     uint64
	createOptional bool
	createMetadata repeatedFlag
)

func runCreate(args []string) int {
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: kobotool create <kind> [flags] <inputs...> <output.bin>")
		return kerr.Usage.ExitCode()
	}

	kind, magic, err := kindToken(args[0])
	if err != nil {
		return fail(kerr.New(kerr.Unsupported, args[0], err))
	}

	inputPaths := args[1 : len(args)-1]
	outputPath := args[len(args)-1]

	e := newEnvironment()
	defer e.Close()

	opts := assemble.Options{
		Kind:           kind,
		SourceRevision: createSource,
		TargetRevision: createTarget,
		Minor:          uint8(createMinor),
		Platform:       uint32(createPlatform),
		Board:          uint32(createBoard),
		Certificate:    bundle.Certificate(createCert),
		Optional:       createOptional,
	}
	if len(createDevices) > 0 {
		opts.Devices, err = decodeDevices(e, createDevices)
		if err != nil {
			return fail(kerr.New(kerr.UnknownDevice, "-d", err))
		}
	}
	if len(createMetadata) > 0 {
		opts.Metadata, err = parseMetadata(createMetadata)
		if err != nil {
			return fail(kerr.New(kerr.Usage, "-x", err))
		}
	}
	if createKeyfile != "" {
		keyPEM, err := os.ReadFile(createKeyfile)
		if err != nil {
			return fail(kerr.New(kerr.Io, createKeyfile, err))
		}
		opts.PrivateKey, err = sign.ParsePrivateKeyPEM(keyPEM)
		if err != nil {
			return fail(kerr.New(kerr.Crypto, createKeyfile, err))
		}
	}

	inputs, closeInputs, err := openInputs(inputPaths)
	if err != nil {
		return fail(err)
	}
	defer closeInputs()

	out, err := os.Create(outputPath)
	if err != nil {
		return fail(kerr.New(kerr.Io, outputPath, err))
	}
	defer out.Close()

	if err := assemble.Assemble(e, magic, opts, inputs, out); err != nil {
		os.Remove(outputPath)
		return fail(kerr.New(kerr.Format, outputPath, err))
	}

	return 0
}

func decodeDevices(e *env.Environment, tokens []string) ([]uint32, error) {
	out := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		code, err := devid.Decode(tok, e.DevicePolicy)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", tok, err)
		}
		out = append(out, code)
	}
	return out, nil
}

func parseMetadata(records []string) (map[string]string, error) {
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("malformed metadata record %q, want key=value", r)
		}
		out[k] = v
	}
	return out, nil
}

func openInputs(paths []string) ([]assemble.FileInput, func(), error) {
	var inputs []assemble.FileInput
	var files []*os.File

	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			closeAll()
			return nil, nil, kerr.New(kerr.Io, p, err)
		}
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, kerr.New(kerr.Io, p, err)
		}
		files = append(files, f)
		inputs = append(inputs, assemble.FileInput{
			Path:    filepath.Base(p),
			Mode:    int64(info.Mode().Perm()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
			Content: f,
		})
	}
	return inputs, closeAll, nil
}
