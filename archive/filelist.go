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

package archive

import (
	"fmt"
	"strings"
)

// FilelistEntry is one row of update-filelist.dat, the OTA v2 index
// recording every real entry's digests so a device can verify its
// local extraction without re-reading the whole archive.
type FilelistEntry struct {
	Path   string
	Mode   int64
	MD5    string
	SHA256 string
}

// FilelistName is the fixed name under which the index is stored,
// always the last real entry in an OTA v2 archive.
const FilelistName = "update-filelist.dat"

// BuildFilelist renders entries as the newline-delimited
// "path\tmode\tmd5\tsha256" text format.
func BuildFilelist(entries []FilelistEntry) []byte {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%o\t%s\t%s\n", e.Path, e.Mode, e.MD5, e.SHA256)
	}
	return []byte(b.String())
}

// ParseFilelist parses the text format BuildFilelist produces.
func ParseFilelist(data []byte) ([]FilelistEntry, error) {
	var entries []FilelistEntry
	for i, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("archive: malformed filelist record at line %d: %q", i+1, line)
		}
		var mode int64
		if _, err := fmt.Sscanf(fields[1], "%o", &mode); err != nil {
			return nil, fmt.Errorf("archive: malformed filelist mode at line %d: %q", i+1, fields[1])
		}
		entries = append(entries, FilelistEntry{
			Path:   fields[0],
			Mode:   mode,
			MD5:    fields[2],
			SHA256: fields[3],
		})
	}
	return entries, nil
}
