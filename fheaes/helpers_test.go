/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/plain"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ck     fhe.ClientKey
	ev     fhe.Evaluator
	pool   *scheduler.Pool
	cipher *Cipher
}

func newTestEnv(t *testing.T, scheme fhe.Scheme, workers int, conf Config) *testEnv {
	ck, err := scheme.KeyGen(rand.Reader)
	require.NoError(t, err)

	ev := scheme.NewEvaluator()
	require.NoError(t, ev.InstallKey(ck.EvaluationKey()))

	pool, err := scheduler.New(scheme, scheduler.Config{Workers: workers}, nil)
	require.NoError(t, err)
	require.NoError(t, pool.Start(ck.EvaluationKey()))
	t.Cleanup(pool.Stop)

	c, err := NewCipher(pool, conf)
	require.NoError(t, err)

	return &testEnv{ck: ck, ev: ev, pool: pool, cipher: c}
}

func newPlainEnv(t *testing.T) *testEnv {
	return newTestEnv(t, plain.New(nil), 4, Config{})
}

func (e *testEnv) encrypt(t *testing.T, b byte) fhe.Ciphertext {
	ct, err := e.ck.Encrypt(b)
	require.NoError(t, err)
	return ct
}

func (e *testEnv) decrypt(t *testing.T, ct fhe.Ciphertext) byte {
	b, err := e.ck.Decrypt(ct)
	require.NoError(t, err)
	return b
}

func (e *testEnv) encryptBlock(t *testing.T, in [BlockSize]byte) Block {
	b, err := EncryptBytes(e.ck, in)
	require.NoError(t, err)
	return b
}

func (e *testEnv) decryptBlock(t *testing.T, b Block) [BlockSize]byte {
	out, err := DecryptBytes(e.ck, b)
	require.NoError(t, err)
	return out
}

func (e *testEnv) expandKey(t *testing.T, key [KeySize]byte) *ExpandedKey {
	xk, err := e.cipher.ExpandKey(context.Background(), Key(e.encryptBlock(t, key)))
	require.NoError(t, err)
	return xk
}

func block(t *testing.T, s string) [BlockSize]byte {
	var b [BlockSize]byte
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, BlockSize)
	copy(b[:], raw)
	return b
}

func randomBlock(t *testing.T) [BlockSize]byte {
	var b [BlockSize]byte
	_, err := rand.Read(b[:])
	require.NoError(t, err)
	return b
}
