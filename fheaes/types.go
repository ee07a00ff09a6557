/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import (
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

const (
	// BlockSize is the AES block size in bytes.
	BlockSize = 16

	// KeySize is the AES-128 key size in bytes.
	KeySize = 16

	// Rounds is the number of AES-128 rounds.
	Rounds = 10

	// ExpandedKeySize is the size in bytes of the expanded key: one round
	// key per round plus the initial whitening key.
	ExpandedKeySize = (Rounds + 1) * BlockSize
)

var (
	// ErrInvalidSize is returned when an input does not have the length
	// its type requires.
	ErrInvalidSize = errors.New("invalid input size")

	// ErrNilCiphertext is returned when an input holds a nil ciphertext.
	ErrNilCiphertext = errors.New("nil ciphertext in input")
)

// Block is an encrypted AES state in column-major order: the byte at row
// r of column c lives at index 4*c+r.
type Block [BlockSize]fhe.Ciphertext

// Key is an encrypted AES-128 key.
type Key [KeySize]fhe.Ciphertext

// ExpandedKey holds the eleven encrypted round keys. It is read-only once
// created and may be shared by concurrent block evaluations.
type ExpandedKey [ExpandedKeySize]fhe.Ciphertext

// RoundKey returns the key of round r.
func (k *ExpandedKey) RoundKey(r int) []fhe.Ciphertext {
	return k[r*BlockSize : (r+1)*BlockSize]
}

func checkCiphertexts(cts []fhe.Ciphertext) error {
	for i, ct := range cts {
		if ct == nil {
			return errors.Wrapf(ErrNilCiphertext, "at index %d", i)
		}
	}
	return nil
}

// BlockFromSlice validates cts and copies it into a Block.
func BlockFromSlice(cts []fhe.Ciphertext) (Block, error) {
	var b Block
	if len(cts) != BlockSize {
		return b, errors.Wrapf(ErrInvalidSize, "block must be %d bytes, got %d", BlockSize, len(cts))
	}
	if err := checkCiphertexts(cts); err != nil {
		return b, err
	}
	copy(b[:], cts)
	return b, nil
}

// KeyFromSlice validates cts and copies it into a Key.
func KeyFromSlice(cts []fhe.Ciphertext) (Key, error) {
	var k Key
	if len(cts) != KeySize {
		return k, errors.Wrapf(ErrInvalidSize, "key must be %d bytes, got %d", KeySize, len(cts))
	}
	if err := checkCiphertexts(cts); err != nil {
		return k, err
	}
	copy(k[:], cts)
	return k, nil
}

// ExpandedKeyFromSlice validates cts and copies it into an ExpandedKey.
func ExpandedKeyFromSlice(cts []fhe.Ciphertext) (*ExpandedKey, error) {
	if len(cts) != ExpandedKeySize {
		return nil, errors.Wrapf(ErrInvalidSize, "expanded key must be %d bytes, got %d", ExpandedKeySize, len(cts))
	}
	if err := checkCiphertexts(cts); err != nil {
		return nil, err
	}
	k := &ExpandedKey{}
	copy(k[:], cts)
	return k, nil
}

// EncryptBytes encrypts every byte of in under ck.
func EncryptBytes(ck fhe.ClientKey, in [BlockSize]byte) (Block, error) {
	var b Block
	for i, v := range in {
		ct, err := ck.Encrypt(v)
		if err != nil {
			return b, errors.Wrapf(err, "failed encrypting byte %d", i)
		}
		b[i] = ct
	}
	return b, nil
}

// DecryptBytes decrypts every byte of b under ck.
func DecryptBytes(ck fhe.ClientKey, b Block) ([BlockSize]byte, error) {
	var out [BlockSize]byte
	for i, ct := range b {
		if ct == nil {
			return out, errors.Wrapf(ErrNilCiphertext, "at index %d", i)
		}
		v, err := ck.Decrypt(ct)
		if err != nil {
			return out, errors.Wrapf(err, "failed decrypting byte %d", i)
		}
		out[i] = v
	}
	return out, nil
}
