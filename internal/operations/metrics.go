/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import "github.com/lla-dane/FHE-AES128/common/metrics"

var versionGaugeOpts = metrics.GaugeOpts{
	Name:       "fheaes_version",
	Help:       "The active version of fheaes.",
	LabelNames: []string{"version"},
}
