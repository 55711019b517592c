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

	"github.com/coreos/kobotool/bundle"
)

// kindToken maps a create command's <kind> argument to the bundle Kind
// it produces and the canonical magic written ahead of its header.
// ota_update_data has no header variant of its own named elsewhere, so
// it is resolved to ComponentUpdate/FB03, the one remaining header
// kind with no other token (see DESIGN.md).
func kindToken(token string) (bundle.Kind, string, error) {
	switch token {
	case "ota":
		return bundle.KindOTAUpdate, "FC02", nil
	case "ota2":
		return bundle.KindOTAUpdateV2, "FC04", nil
	case "recovery":
		return bundle.KindRecoveryUpdate, "FB01", nil
	case "recovery2":
		return bundle.KindRecoveryUpdateV2, "FB02", nil
	case "sig":
		return bundle.KindUpdateSignature, "SP01", nil
	case "ota_update_data":
		return bundle.KindComponentUpdate, "FB03", nil
	case "userdata":
		return bundle.KindUserDataPackage, "", nil
	case "android":
		return bundle.KindAndroidUpdate, "", nil
	default:
		return bundle.KindUnknown, "", fmt.Errorf("unrecognized kind %q", token)
	}
}
