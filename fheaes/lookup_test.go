/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import (
	"testing"

	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/plain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestTables(t *testing.T) {
	require.Equal(t, byte(0x63), sbox[0x00])
	require.Equal(t, byte(0xed), sbox[0x53])
	for i := 0; i < 256; i++ {
		require.Equal(t, byte(i), invSbox[sbox[i]])
	}
	require.Equal(t, byte(0x36), rcon[Rounds])
}

func TestLookupTableEval(t *testing.T) {
	env := newPlainEnv(t)
	native := NewTableFromArray(sbox)
	generic := native.Generic()
	require.True(t, native.Complete())

	for i := 0; i < 256; i++ {
		idx := env.encrypt(t, byte(i))

		out, err := native.Eval(env.ev, idx)
		require.NoError(t, err)
		require.Equal(t, sbox[i], env.decrypt(t, out))

		out, err = generic.Eval(env.ev, idx)
		require.NoError(t, err)
		require.Equal(t, sbox[i], env.decrypt(t, out))
	}
}

func TestLookupTableIncomplete(t *testing.T) {
	env := newPlainEnv(t)

	l, err := NewLookupTable([]fhe.MatchPair{{Input: 0, Output: 1}, {Input: 1, Output: 2}, {Input: 2, Output: 3}})
	require.NoError(t, err)
	require.False(t, l.Complete())

	for _, table := range []*LookupTable{l, l.Generic()} {
		_, err = table.Eval(env.ev, env.encrypt(t, 1))
		require.True(t, errors.Is(err, ErrIncompleteTable))
	}
}

func TestLookupTableMatch(t *testing.T) {
	env := newPlainEnv(t)

	l, err := NewLookupTable([]fhe.MatchPair{{Input: 4, Output: 40}, {Input: 7, Output: 70}})
	require.NoError(t, err)

	for _, table := range []*LookupTable{l, l.Generic()} {
		out, matched, err := table.Match(env.ev, env.encrypt(t, 7))
		require.NoError(t, err)
		require.Equal(t, byte(70), env.decrypt(t, out))
		ok, err := env.ck.DecryptCondition(matched)
		require.NoError(t, err)
		require.True(t, ok)

		out, matched, err = table.Match(env.ev, env.encrypt(t, 5))
		require.NoError(t, err)
		require.Equal(t, byte(0), env.decrypt(t, out))
		ok, err = env.ck.DecryptCondition(matched)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestNewLookupTableErrors(t *testing.T) {
	_, err := NewLookupTable(nil)
	require.EqualError(t, err, "match table must contain at least one pair")

	_, err = NewLookupTable([]fhe.MatchPair{{Input: 3, Output: 1}, {Input: 3, Output: 2}})
	require.EqualError(t, err, "duplicate input 0x03 in match table")
}

func TestLookupPropagatesEvaluatorErrors(t *testing.T) {
	env := newPlainEnv(t)
	other := newPlainEnv(t)
	idx := env.encrypt(t, 1)

	_, err := NewTableFromArray(sbox).Generic().Eval(other.ev, idx)
	require.True(t, errors.Is(err, fhe.ErrForeignCiphertext))

	_, err = NewTableFromArray(sbox).Eval(plain.New(nil).NewEvaluator(), idx)
	require.Equal(t, fhe.ErrKeyNotInstalled, err)
}
