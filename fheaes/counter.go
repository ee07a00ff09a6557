/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

// IncrementCounter returns iv+1, treating iv as a big-endian 128-bit
// integer. The counter wraps to zero after all ones.
func IncrementCounter(iv [BlockSize]byte) [BlockSize]byte {
	for i := BlockSize - 1; i >= 0; i-- {
		iv[i]++
		if iv[i] != 0 {
			break
		}
	}
	return iv
}

// CounterBlocks returns the n counter blocks iv, iv+1, ..., iv+n-1.
func CounterBlocks(iv [BlockSize]byte, n int) [][BlockSize]byte {
	if n <= 0 {
		return nil
	}
	blocks := make([][BlockSize]byte, n)
	blocks[0] = iv
	for i := 1; i < n; i++ {
		blocks[i] = IncrementCounter(blocks[i-1])
	}
	return blocks
}
