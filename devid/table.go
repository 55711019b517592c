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

package devid

// legacyEntry describes one one-byte legacy device shortcut. Keeping
// "unknown" entries with an empty name still lets decode succeed on a
// known-but-unnamed legacy code; only unambiguous entries are used
// when choosing an encoding for a code that also has a base-32 form.
type legacyEntry struct {
	name        string
	unambiguous bool
}

// legacyByCode enumerates the legacy single-byte device shortcuts.
// Values beyond the initial production run are kept as unnamed but
// still-decodable placeholders, per the "keep unknown entries in the
// table" design note.
var legacyByCode = map[byte]legacyEntry{
	0x01: {"K1", true},
	0x02: {"K2", true},
	0x03: {"K3 Wifi", true},
	0x04: {"K3 Wifi Graphite", true},
	0x05: {"K3 Wifi N24", true},
	0x06: {"K3 Wifi N24 Graphite", true},
	0x07: {"K4", true},
	0x08: {"K4 Graphite", true},
	0x09: {"K3 3G US", true},
	0x0A: {"K3 3G Europe", true},
	0x0B: {"K3 3G Graphite US", true},
	0x0C: {"K3 3G Graphite Europe", true},
	0x0D: {"K4 Black", true},
	0x0E: {"K4 silver", true},
	0x0F: {"KT Mini", true},
	0x10: {"KT Touch", true},
	0x11: {"", false},
	0x12: {"", false},
}

// knownEntry describes one known base-32 device code.
type knownEntry struct {
	token    string
	name     string
	platform string
}

// knownByCode enumerates device codes reachable only through the
// base-32 encoding (codes too wide for the legacy byte table). The
// decode policy flag governs whether codes outside this table are
// still accepted.
var knownByCode = map[uint32]knownEntry{
	0x20B: {"0GB", "Aura", "freescale-imx507"},
	0x20C: {"0GC", "Aura HD", "freescale-imx507"},
	0x20D: {"0GD", "Aura H2O", "freescale-imx507"},
	0x20E: {"0GE", "Aura ONE", "freescale-imx6sll"},
	0x20F: {"0GF", "Aura Edition 2", "freescale-imx6sll"},
	0x210: {"0GG", "Glo", "freescale-imx507"},
	0x211: {"0GH", "Glo HD", "freescale-imx6sll"},
	0x212: {"0GJ", "Clara HD", "freescale-imx6sll"},
	0x213: {"0GK", "Clara 2E", "freescale-imx6ull"},
	0x214: {"0GL", "Libra H2O", "freescale-imx6sll"},
	0x215: {"0GM", "Libra 2", "freescale-imx6ull"},
	0xE28: {"3H8", "Forma", "freescale-imx7"},
	0xE29: {"3H9", "Forma 32GB", "freescale-imx7"},
	0xE2A: {"3HA", "Sage", "freescale-imx7"},
	0xE2B: {"3HB", "Elipsa", "freescale-imx7"},
	0xE2C: {"3HC", "Elipsa 2E", "freescale-imx8"},
}
