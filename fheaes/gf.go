/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import "github.com/lla-dane/FHE-AES128/fhe"

// reduction is the low byte of the AES field polynomial x^8+x^4+x^3+x+1.
const reduction = 0x1b

// xtime doubles a in GF(2^8). The reduction is applied with an oblivious
// select on the encrypted high bit of a.
func xtime(ev fhe.Evaluator, a fhe.Ciphertext) (fhe.Ciphertext, error) {
	hb, err := ev.AndConst(a, 0x80)
	if err != nil {
		return nil, err
	}
	carry, err := ev.NeConst(hb, 0)
	if err != nil {
		return nil, err
	}
	shifted, err := ev.ShiftLeft(a, 1)
	if err != nil {
		return nil, err
	}
	reduced, err := ev.XorConst(shifted, reduction)
	if err != nil {
		return nil, err
	}
	return ev.Select(carry, reduced, shifted)
}

// GFMulConst returns a*c in GF(2^8) for a public constant c. Only the bits
// of c drive the control flow.
func GFMulConst(ev fhe.Evaluator, a fhe.Ciphertext, c byte) (fhe.Ciphertext, error) {
	if c == 0 {
		return ev.Trivial(0)
	}

	var result fhe.Ciphertext
	var err error
	for {
		if c&1 == 1 {
			if result == nil {
				result = a
			} else if result, err = ev.Xor(result, a); err != nil {
				return nil, err
			}
		}
		c >>= 1
		if c == 0 {
			return result, nil
		}
		if a, err = xtime(ev, a); err != nil {
			return nil, err
		}
	}
}

// GFMul returns a*b in GF(2^8) when both operands are encrypted. It always
// runs eight iterations.
func GFMul(ev fhe.Evaluator, a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	result, err := ev.Trivial(0)
	if err != nil {
		return nil, err
	}

	for i := 0; i < 8; i++ {
		lb, err := ev.AndConst(b, 1)
		if err != nil {
			return nil, err
		}
		set, err := ev.NeConst(lb, 0)
		if err != nil {
			return nil, err
		}
		acc, err := ev.Xor(result, a)
		if err != nil {
			return nil, err
		}
		if result, err = ev.Select(set, acc, result); err != nil {
			return nil, err
		}
		if a, err = xtime(ev, a); err != nil {
			return nil, err
		}
		if b, err = ev.ShiftRight(b, 1); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GFMulPlain returns a*b in GF(2^8).
func GFMulPlain(a, b byte) byte {
	var p byte
	for b != 0 {
		if b&1 == 1 {
			p ^= a
		}
		hb := a & 0x80
		a <<= 1
		if hb != 0 {
			a ^= reduction
		}
		b >>= 1
	}
	return p
}
