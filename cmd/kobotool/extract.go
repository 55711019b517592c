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

	"github.com/coreos/kobotool/cli"
	"github.com/coreos/kobotool/disassemble"
	"github.com/coreos/kobotool/internal/pkg/kerr"
)

func init() {
	cmd := &cli.Command{
		Name:        "extract",
		Summary:     "Explode a bundle's payload into a directory",
		Usage:       "<input.bin> <outdir>",
		Description: "Strip and verify a bundle's header and write every payload file under outdir.",
		Run:         runExtract,
	}
	cmd.Flags.StringVar(&extractKeyfile, "k", "", "public or private key verifying each entry's signature")
	cmd.Flags.BoolVar(&extractSkipVerify, "w", false, "suppress signature verification")
	cli.Register(cmd)
}

var (
	extractKeyfile    string
	extractSkipVerify bool
)

func runExtract(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: kobotool extract <input.bin> <outdir>")
		return kerr.Usage.ExitCode()
	}
	inputPath, outDir := args[0], args[1]

	pub, err := loadVerifyKey(extractKeyfile)
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

	sink, err := disassemble.NewDirSink(outDir)
	if err != nil {
		return fail(kerr.New(kerr.Io, outDir, err))
	}

	report, err := disassemble.Disassemble(e, in, disassemble.Options{
		PublicKey:  pub,
		SkipVerify: extractSkipVerify,
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
