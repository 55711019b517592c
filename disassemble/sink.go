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

package disassemble

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/coreos/kobotool/archive"
)

// DirSink extracts every entry to files under a directory, the
// backing implementation for the extract command and convert without
// -c.
type DirSink struct {
	Dir string
}

// NewDirSink prepares outDir for extraction, creating it if necessary.
func NewDirSink(outDir string) (*DirSink, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("disassemble: creating output directory: %w", err)
	}
	return &DirSink{Dir: outDir}, nil
}

func (d *DirSink) WriteFile(entry *archive.Entry) error {
	path := filepath.Join(d.Dir, filepath.Clean(entry.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("disassemble: creating directory for %s: %w", entry.Name, err)
	}

	mode := os.FileMode(entry.Mode)
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("disassemble: creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, entry.Content); err != nil {
		return fmt.Errorf("disassemble: writing %s: %w", path, err)
	}
	return nil
}

func (d *DirSink) Close() error { return nil }

// TarGzSink re-packages every entry into a fresh, unobfuscated,
// unsigned tar.gz: the backing implementation for "convert -c".
type TarGzSink struct {
	w  io.Writer
	aw *archive.Writer
}

// NewTarGzSink wraps w, writing a plain gzip-compressed tar as entries
// arrive.
func NewTarGzSink(w io.Writer) *TarGzSink {
	return &TarGzSink{w: w, aw: archive.NewWriter(w, nil)}
}

func (t *TarGzSink) WriteFile(entry *archive.Entry) error {
	data, err := io.ReadAll(entry.Content)
	if err != nil {
		return fmt.Errorf("disassemble: reading %s: %w", entry.Name, err)
	}
	modTime := entry.ModTime
	if modTime.IsZero() {
		modTime = time.Unix(0, 0)
	}
	if err := t.aw.WriteEntry(entry.Name, entry.Mode, modTime, int64(len(data)), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("disassemble: re-archiving %s: %w", entry.Name, err)
	}
	return nil
}

func (t *TarGzSink) Close() error {
	_, err := t.aw.Close()
	return err
}
