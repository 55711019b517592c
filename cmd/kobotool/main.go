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

// Command kobotool packages, signs, inspects, and unpacks firmware
// update bundles for e-reader devices: create builds a bundle from a
// set of input files, convert and extract take one apart.
package main

import (
	"github.com/coreos/kobotool/cli"
)

func main() {
	cli.Run("kobotool", "Package, sign, inspect and unpack e-reader firmware bundles")
}
