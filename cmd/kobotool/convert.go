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
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/coreos/kobotool/cli"
	"github.com/coreos/kobotool/disassemble"
	"github.com/coreos/kobotool/internal/pkg/kerr"
	"github.com/coreos/kobotool/sign"
)

func init() {
	cmd := &cli.Command{
		Name:        "convert",
		Summary:     "Disassemble a bundle into a tar.gz or an output directory",
		Usage:       "<input.bin> [-k <key>] [-o <out.tar.gz>] [-c] [-w]",
		Description: "Strip and verify a bundle's header, then re-package its payload as a tar.gz (-c) or extract it into a directory.",
		Run:         runConvert,
	}
	cmd.Flags.StringVar(&convertKeyfile, "k", "", "public or private key verifying each entry's signature")
	cmd.Flags.StringVar(&convertOutput, "o", "", "output path (tar.gz with -c, directory otherwise)")
	cmd.Flags.BoolVar(&convertTarGz, "c", false, "write a plain tar.gz instead of an output directory")
	cmd.Flags.BoolVar(&convertSkipVerify, "w", false, "suppress signature verification")
	cli.Register(cmd)
}

var (
	convertKeyfile    string
	convertOutput     string
	convertTarGz      bool
	convertSkipVerify bool
)

func runConvert(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: kobotool convert <input.bin> [-k <key>] [-o <out.tar.gz>] [-c] [-w]")
		return kerr.Usage.ExitCode()
	}
	inputPath := args[0]

	pub, err := loadVerifyKey(convertKeyfile)
	if err != nil {
		return fail(err)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fail(kerr.New(kerr.Io, inputPath, err))
	}
	defer in.Close()

	e := newEnvironment()
	defer e.Close()

	outputPath := convertOutput
	if outputPath == "" {
		outputPath = defaultConvertOutput(inputPath, convertTarGz)
	}

	var sink disassemble.Sink
	if convertTarGz {
		out, err := os.Create(outputPath)
		if err != nil {
			return fail(kerr.New(kerr.Io, outputPath, err))
		}
		defer out.Close()
		sink = disassemble.NewTarGzSink(out)
	} else {
		dirSink, err := disassemble.NewDirSink(outputPath)
		if err != nil {
			return fail(kerr.New(kerr.Io, outputPath, err))
		}
		sink = dirSink
	}

	report, err := disassemble.Disassemble(e, in, disassemble.Options{
		PublicKey:  pub,
		SkipVerify: convertSkipVerify,
	}, sink)
	if err != nil {
		return fail(err)
	}

	if e.MetadataDumpPath != "" {
		if err := disassemble.WriteMetadataDump(e.MetadataDumpPath, report); err != nil {
			return fail(kerr.New(kerr.Io, e.MetadataDumpPath, err))
		}
	}

	return 0
}

// loadVerifyKey accepts either a private or public PEM key for -k, so
// callers can supply whichever they have on hand for signature
// checking.
func loadVerifyKey(path string) (*rsa.PublicKey, error) {
	if path == "" {
		return nil, nil
	}
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, kerr.New(kerr.Io, path, err)
	}
	if pub, err := sign.ParsePublicKeyPEM(pemBytes); err == nil {
		return pub, nil
	}
	priv, err := sign.ParsePrivateKeyPEM(pemBytes)
	if err != nil {
		return nil, kerr.New(kerr.Crypto, path, err)
	}
	return &priv.PublicKey, nil
}

func defaultConvertOutput(inputPath string, tarGz bool) string {
	base := strings.TrimSuffix(inputPath, ".bin")
	if tarGz {
		return base + ".tar.gz"
	}
	return base
}
