/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"encoding/hex"
	"strings"

	"github.com/lla-dane/FHE-AES128/fheaes"
	"github.com/pkg/errors"
)

// ParseBlockHex parses a 16 byte value written as 32 hex digits, with an
// optional 0x prefix.
func ParseBlockHex(s string) ([fheaes.BlockSize]byte, error) {
	var b [fheaes.BlockSize]byte

	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return b, errors.Wrapf(err, "invalid hex value '%s'", s)
	}
	if len(raw) != fheaes.BlockSize {
		return b, errors.Wrapf(fheaes.ErrInvalidSize, "value must be %d bytes, got %d", fheaes.BlockSize, len(raw))
	}
	copy(b[:], raw)
	return b, nil
}

// FormatBlockHex returns the lower case hex form of b.
func FormatBlockHex(b [fheaes.BlockSize]byte) string {
	return hex.EncodeToString(b[:])
}
