/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sw

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	seedSize = 32
	skiSize  = 16

	kindByte      byte = 'b'
	kindCondition byte = 'c'
)

var (
	sealingKeyInfo = []byte("fhe-aes128 sw sealing key")
	skiInfo        = []byte("fhe-aes128 sw key identifier")
)

// keyMaterial is shared by a client key and its evaluation key. The
// sealing AEAD is safe for concurrent use.
type keyMaterial struct {
	ski  []byte
	aead cipher.AEAD
}

func deriveKeyMaterial(seed []byte) (*keyMaterial, error) {
	sealingKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, sealingKeyInfo), sealingKey); err != nil {
		return nil, errors.Wrap(err, "failed deriving sealing key")
	}
	ski := make([]byte, skiSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, skiInfo), ski); err != nil {
		return nil, errors.Wrap(err, "failed deriving key identifier")
	}

	aead, err := chacha20poly1305.NewX(sealingKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed creating sealing cipher")
	}

	return &keyMaterial{ski: ski, aead: aead}, nil
}

func (k *keyMaterial) additionalData(kind byte) []byte {
	return append([]byte{kind}, k.ski...)
}

func (k *keyMaterial) seal(kind, v byte) ([]byte, error) {
	nonce := make([]byte, k.aead.NonceSize(), k.aead.NonceSize()+1+k.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed reading nonce")
	}
	return k.aead.Seal(nonce, nonce, []byte{v}, k.additionalData(kind)), nil
}

func (k *keyMaterial) open(kind byte, ski, sealed []byte) (byte, error) {
	if !bytes.Equal(ski, k.ski) {
		return 0, fhe.ErrForeignCiphertext
	}
	if len(sealed) != k.aead.NonceSize()+1+k.aead.Overhead() {
		return 0, errors.Wrapf(fhe.ErrForeignCiphertext, "malformed ciphertext of length %d", len(sealed))
	}

	nonce, body := sealed[:k.aead.NonceSize()], sealed[k.aead.NonceSize():]
	pt, err := k.aead.Open(nil, nonce, body, k.additionalData(kind))
	if err != nil {
		return 0, errors.Wrap(fhe.ErrForeignCiphertext, "ciphertext authentication failed")
	}
	return pt[0], nil
}

func (k *keyMaterial) encryptByte(v byte) (*ciphertext, error) {
	sealed, err := k.seal(kindByte, v)
	if err != nil {
		return nil, err
	}
	return &ciphertext{ski: k.ski, sealed: sealed}, nil
}

func (k *keyMaterial) decryptByte(ct fhe.Ciphertext) (byte, error) {
	c, ok := ct.(*ciphertext)
	if !ok || c == nil {
		return 0, errors.Wrapf(fhe.ErrForeignCiphertext, "unsupported ciphertext type %T", ct)
	}
	return k.open(kindByte, c.ski, c.sealed)
}

func (k *keyMaterial) encryptBool(v bool) (*condition, error) {
	var b byte
	if v {
		b = 1
	}
	sealed, err := k.seal(kindCondition, b)
	if err != nil {
		return nil, err
	}
	return &condition{ski: k.ski, sealed: sealed}, nil
}

func (k *keyMaterial) decryptBool(c fhe.Condition) (bool, error) {
	cond, ok := c.(*condition)
	if !ok || cond == nil {
		return false, errors.Wrapf(fhe.ErrForeignCiphertext, "unsupported condition type %T", c)
	}
	b, err := k.open(kindCondition, cond.ski, cond.sealed)
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

type clientKey struct {
	km *keyMaterial
	ek *evaluationKey
}

func (k *clientKey) Encrypt(b byte) (fhe.Ciphertext, error) {
	return k.km.encryptByte(b)
}

func (k *clientKey) Decrypt(ct fhe.Ciphertext) (byte, error) {
	return k.km.decryptByte(ct)
}

func (k *clientKey) DecryptCondition(c fhe.Condition) (bool, error) {
	return k.km.decryptBool(c)
}

func (k *clientKey) EvaluationKey() fhe.EvaluationKey {
	return k.ek
}

type evaluationKey struct {
	km *keyMaterial
}

// SKI returns the key identifier of the key pair.
func (k *evaluationKey) SKI() []byte {
	return append([]byte(nil), k.km.ski...)
}

type ciphertext struct {
	ski    []byte
	sealed []byte
}

// Bytes returns the key identifier followed by the sealed byte.
func (c *ciphertext) Bytes() ([]byte, error) {
	return append(append([]byte(nil), c.ski...), c.sealed...), nil
}

type condition struct {
	ski    []byte
	sealed []byte
}

// Bytes returns the key identifier followed by the sealed boolean.
func (c *condition) Bytes() ([]byte, error) {
	return append(append([]byte(nil), c.ski...), c.sealed...), nil
}
