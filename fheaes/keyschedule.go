/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import (
	"context"

	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
)

// ExpandKey expands an encrypted key into the eleven round keys. Words
// are derived one after the other; the four bytes of a word are one batch.
func (c *Cipher) ExpandKey(ctx context.Context, key Key) (*ExpandedKey, error) {
	if err := checkCiphertexts(key[:]); err != nil {
		return nil, err
	}

	xk := &ExpandedKey{}
	copy(xk[:KeySize], key[:])

	for i := KeySize; i < ExpandedKeySize; i += 4 {
		i := i
		newRound := i%BlockSize == 0

		tasks := make([]scheduler.Task, 4)
		for j := range tasks {
			j := j
			tasks[j] = func(ev fhe.Evaluator) error {
				var temp fhe.Ciphertext
				if newRound {
					// RotWord, SubWord and the round constant on the first byte
					sub, err := c.sbox.Eval(ev, xk[i-4+(j+1)%4])
					if err != nil {
						return err
					}
					if j == 0 {
						if sub, err = ev.XorConst(sub, rcon[i/BlockSize]); err != nil {
							return err
						}
					}
					temp = sub
				} else {
					temp = xk[i-4+j]
				}

				w, err := ev.Xor(xk[i-KeySize+j], temp)
				if err != nil {
					return err
				}
				xk[i+j] = w
				return nil
			}
		}

		if err := c.exec.Execute(ctx, tasks...); err != nil {
			return nil, err
		}
		if newRound {
			logger.Debugf("expanded round key %d", i/BlockSize)
		}
	}

	return xk, nil
}

// ExpandKeyPlain expands a key in the clear.
func ExpandKeyPlain(key [KeySize]byte) [ExpandedKeySize]byte {
	var xk [ExpandedKeySize]byte
	copy(xk[:], key[:])

	for i := KeySize; i < ExpandedKeySize; i += 4 {
		var temp [4]byte
		copy(temp[:], xk[i-4:i])
		if i%BlockSize == 0 {
			temp = [4]byte{sbox[temp[1]], sbox[temp[2]], sbox[temp[3]], sbox[temp[0]]}
			temp[0] ^= rcon[i/BlockSize]
		}
		for j := 0; j < 4; j++ {
			xk[i+j] = xk[i-KeySize+j] ^ temp[j]
		}
	}
	return xk
}
