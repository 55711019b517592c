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
	"fmt"
	"os"
	"strings"

	"github.com/coreos/kobotool/devid"
)

// WriteMetadataDump renders a human-readable key: value description of
// a converted package to path, the sidecar KT_PKG_METADATA_DUMP names.
func WriteMetadataDump(path string, report *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "kind: %s\n", report.Kind)
	fmt.Fprintf(&b, "magic: %s\n", report.Magic)

	switch {
	case report.Header == nil:
		// Bare payloads (UserDataPackage, AndroidUpdate) carry no
		// header fields to describe.
	case report.Header.OTA() != nil:
		h := report.Header.OTA()
		fmt.Fprintf(&b, "source_revision: %d\n", h.SourceRevision)
		fmt.Fprintf(&b, "target_revision: %d\n", h.TargetRevision)
		fmt.Fprintf(&b, "device: %s\n", devid.Encode(uint32(h.Device)))
		fmt.Fprintf(&b, "optional: %t\n", h.Optional)
		fmt.Fprintf(&b, "md5: %s\n", h.MD5)
	case report.Header.OTAV2() != nil:
		h := report.Header.OTAV2()
		fmt.Fprintf(&b, "source_revision: %d\n", h.SourceRevision)
		fmt.Fprintf(&b, "target_revision: %d\n", h.TargetRevision)
		fmt.Fprintf(&b, "md5: %s\n", h.MD5)
		devices := make([]string, len(h.Devices))
		for i, d := range h.Devices {
			devices[i] = devid.Encode(uint32(d))
		}
		fmt.Fprintf(&b, "devices: %s\n", strings.Join(devices, ","))
		for k, v := range h.Metadata {
			fmt.Fprintf(&b, "metadata.%s: %s\n", k, v)
		}
	case report.Header.Recovery() != nil:
		h := report.Header.Recovery()
		fmt.Fprintf(&b, "minor: %d\n", h.Minor)
		fmt.Fprintf(&b, "device: %s\n", devid.Encode(h.Device))
		fmt.Fprintf(&b, "md5: %s\n", h.MD5)
	case report.Header.RecoveryV2() != nil:
		h := report.Header.RecoveryV2()
		fmt.Fprintf(&b, "target_revision: %d\n", h.TargetRevision)
		fmt.Fprintf(&b, "minor: %d\n", h.Minor)
		fmt.Fprintf(&b, "platform: %d\n", h.Platform)
		fmt.Fprintf(&b, "board: %d\n", h.Board)
		fmt.Fprintf(&b, "md5: %s\n", h.MD5)
	case report.Header.Signature() != nil:
		fmt.Fprintf(&b, "certificate: %d\n", report.Header.Signature().CertificateNumber)
	case report.Header.Component() != nil:
		h := report.Header.Component()
		fmt.Fprintf(&b, "source_revision: %d\n", h.SourceRevision)
		fmt.Fprintf(&b, "target_revision: %d\n", h.TargetRevision)
		fmt.Fprintf(&b, "device: %s\n", devid.Encode(uint32(h.Device)))
		fmt.Fprintf(&b, "md5: %s\n", h.MD5)
	}

	for _, f := range report.Files {
		fmt.Fprintf(&b, "file: %s (%s)\n", f.Name, f.Status)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("disassemble: writing metadata dump: %w", err)
	}
	return nil
}
