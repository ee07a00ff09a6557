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

var (
	// out[i] = in[shiftRowsMap[i]]; row r rotates left by r columns.
	shiftRowsMap = [BlockSize]int{0, 5, 10, 15, 4, 9, 14, 3, 8, 13, 2, 7, 12, 1, 6, 11}

	// out[i] = in[invShiftRowsMap[i]]; row r rotates right by r columns.
	invShiftRowsMap = [BlockSize]int{0, 13, 10, 7, 4, 1, 14, 11, 8, 5, 2, 15, 12, 9, 6, 3}

	mixColumnsMatrix = newMixer([4][4]byte{
		{2, 3, 1, 1},
		{1, 2, 3, 1},
		{1, 1, 2, 3},
		{3, 1, 1, 2},
	})

	invMixColumnsMatrix = newMixer([4][4]byte{
		{14, 11, 13, 9},
		{9, 14, 11, 13},
		{13, 9, 14, 11},
		{11, 13, 9, 14},
	})
)

// mixer multiplies every column of the state by a fixed matrix. consts
// lists the distinct coefficients of the matrix and slot maps a
// coefficient to its position in consts.
type mixer struct {
	matrix [4][4]byte
	consts []byte
	slot   [256]int
}

func newMixer(m [4][4]byte) *mixer {
	mx := &mixer{matrix: m}
	for i := range mx.slot {
		mx.slot[i] = -1
	}
	for _, row := range m {
		for _, c := range row {
			if mx.slot[c] < 0 {
				mx.slot[c] = len(mx.consts)
				mx.consts = append(mx.consts, c)
			}
		}
	}
	return mx
}

// mapBytes evaluates f on every state position as one batch of
// independent tasks.
func (c *Cipher) mapBytes(ctx context.Context, f func(ev fhe.Evaluator, i int) (fhe.Ciphertext, error)) (Block, error) {
	var out Block
	tasks := make([]scheduler.Task, BlockSize)
	for i := range tasks {
		i := i
		tasks[i] = func(ev fhe.Evaluator) error {
			ct, err := f(ev, i)
			if err != nil {
				return err
			}
			out[i] = ct
			return nil
		}
	}
	if err := c.exec.Execute(ctx, tasks...); err != nil {
		return Block{}, err
	}
	return out, nil
}

func (c *Cipher) addRoundKey(ctx context.Context, s Block, rk []fhe.Ciphertext) (Block, error) {
	return c.mapBytes(ctx, func(ev fhe.Evaluator, i int) (fhe.Ciphertext, error) {
		return ev.Xor(s[i], rk[i])
	})
}

func (c *Cipher) subBytes(ctx context.Context, s Block) (Block, error) {
	return c.mapBytes(ctx, func(ev fhe.Evaluator, i int) (fhe.Ciphertext, error) {
		return c.sbox.Eval(ev, s[i])
	})
}

func (c *Cipher) invSubBytes(ctx context.Context, s Block) (Block, error) {
	return c.mapBytes(ctx, func(ev fhe.Evaluator, i int) (fhe.Ciphertext, error) {
		return c.invSbox.Eval(ev, s[i])
	})
}

// permute only moves handles; ciphertexts are immutable so a handle may be
// read by several output positions.
func permute(s Block, m *[BlockSize]int) Block {
	var out Block
	for i := range out {
		out[i] = s[m[i]]
	}
	return out
}

func shiftRows(s Block) Block {
	return permute(s, &shiftRowsMap)
}

func invShiftRows(s Block) Block {
	return permute(s, &invShiftRowsMap)
}

func (c *Cipher) mixColumns(ctx context.Context, s Block) (Block, error) {
	return c.mix(ctx, s, mixColumnsMatrix)
}

func (c *Cipher) invMixColumns(ctx context.Context, s Block) (Block, error) {
	return c.mix(ctx, s, invMixColumnsMatrix)
}

// mix runs in two batches. The first computes, for every input byte, its
// product with each distinct coefficient of the matrix. The second
// combines four products into every output byte. Both batches read only
// the snapshot s.
func (c *Cipher) mix(ctx context.Context, s Block, mx *mixer) (Block, error) {
	products := make([][]fhe.Ciphertext, BlockSize)
	tasks := make([]scheduler.Task, BlockSize)
	for i := range tasks {
		i := i
		products[i] = make([]fhe.Ciphertext, len(mx.consts))
		tasks[i] = func(ev fhe.Evaluator) error {
			for k, coeff := range mx.consts {
				p, err := GFMulConst(ev, s[i], coeff)
				if err != nil {
					return err
				}
				products[i][k] = p
			}
			return nil
		}
	}
	if err := c.exec.Execute(ctx, tasks...); err != nil {
		return Block{}, err
	}

	return c.mapBytes(ctx, func(ev fhe.Evaluator, i int) (fhe.Ciphertext, error) {
		col, row := i/4, i%4
		var acc fhe.Ciphertext
		for k := 0; k < 4; k++ {
			p := products[4*col+k][mx.slot[mx.matrix[row][k]]]
			if acc == nil {
				acc = p
				continue
			}
			var err error
			if acc, err = ev.Xor(acc, p); err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
}
