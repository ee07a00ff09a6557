/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sw provides a software implementation of the encrypted-byte
// algebra. Bytes are sealed with XChaCha20-Poly1305 under a key derived
// from a random seed, and every operation opens its operands and seals a
// fresh result. Ciphertexts never expose plaintext through the fhe
// interfaces, and every evaluator refuses to operate until an evaluation
// key is installed.
//
// The evaluation key carries the sealing key, so this scheme provides no
// confidentiality against the party that evaluates. It is the reference
// backend for exercising the evaluator and its scheduling contract.
package sw

import (
	"io"

	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

// SchemeName is the configuration name of this scheme.
const SchemeName = "SW"

var logger = flogging.MustGetLogger("fhe.sw")

// Scheme is the software encrypted-byte scheme.
type Scheme struct{}

// New returns a software scheme.
func New() *Scheme {
	return &Scheme{}
}

// Name returns SchemeName.
func (s *Scheme) Name() string {
	return SchemeName
}

// KeyGen derives a fresh key pair from a seed read from rand.
func (s *Scheme) KeyGen(rand io.Reader) (fhe.ClientKey, error) {
	if rand == nil {
		return nil, errors.New("invalid entropy source, it must be different from nil")
	}

	seed := make([]byte, seedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return nil, errors.Wrap(err, "failed reading key seed")
	}

	km, err := deriveKeyMaterial(seed)
	if err != nil {
		return nil, err
	}
	logger.Debugf("generated key pair [%x]", km.ski)

	return &clientKey{km: km, ek: &evaluationKey{km: km}}, nil
}

// NewEvaluator returns an evaluator with no key installed.
func (s *Scheme) NewEvaluator() fhe.Evaluator {
	return &evaluator{}
}

type evaluator struct {
	km *keyMaterial
}

func (e *evaluator) InstallKey(ek fhe.EvaluationKey) error {
	if e.km != nil {
		return fhe.ErrKeyAlreadyInstalled
	}
	k, ok := ek.(*evaluationKey)
	if !ok || k == nil {
		return errors.Errorf("unsupported evaluation key type %T", ek)
	}
	e.km = k.km
	return nil
}

func (e *evaluator) unary(a fhe.Ciphertext, f func(byte) byte) (fhe.Ciphertext, error) {
	if e.km == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	v, err := e.km.decryptByte(a)
	if err != nil {
		return nil, err
	}
	return e.km.encryptByte(f(v))
}

func (e *evaluator) binary(a, b fhe.Ciphertext, f func(byte, byte) byte) (fhe.Ciphertext, error) {
	if e.km == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	va, err := e.km.decryptByte(a)
	if err != nil {
		return nil, err
	}
	vb, err := e.km.decryptByte(b)
	if err != nil {
		return nil, err
	}
	return e.km.encryptByte(f(va, vb))
}

func (e *evaluator) compare(a fhe.Ciphertext, f func(byte) bool) (fhe.Condition, error) {
	if e.km == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	v, err := e.km.decryptByte(a)
	if err != nil {
		return nil, err
	}
	return e.km.encryptBool(f(v))
}

func (e *evaluator) Trivial(c byte) (fhe.Ciphertext, error) {
	if e.km == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	return e.km.encryptByte(c)
}

func (e *evaluator) Xor(a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	return e.binary(a, b, func(x, y byte) byte { return x ^ y })
}

func (e *evaluator) XorConst(a fhe.Ciphertext, c byte) (fhe.Ciphertext, error) {
	return e.unary(a, func(x byte) byte { return x ^ c })
}

func (e *evaluator) And(a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	return e.binary(a, b, func(x, y byte) byte { return x & y })
}

func (e *evaluator) AndConst(a fhe.Ciphertext, c byte) (fhe.Ciphertext, error) {
	return e.unary(a, func(x byte) byte { return x & c })
}

func (e *evaluator) ShiftLeft(a fhe.Ciphertext, n uint) (fhe.Ciphertext, error) {
	return e.unary(a, func(x byte) byte { return x << n })
}

func (e *evaluator) ShiftRight(a fhe.Ciphertext, n uint) (fhe.Ciphertext, error) {
	return e.unary(a, func(x byte) byte { return x >> n })
}

func (e *evaluator) EqConst(a fhe.Ciphertext, c byte) (fhe.Condition, error) {
	return e.compare(a, func(x byte) bool { return x == c })
}

func (e *evaluator) NeConst(a fhe.Ciphertext, c byte) (fhe.Condition, error) {
	return e.compare(a, func(x byte) bool { return x != c })
}

func (e *evaluator) Select(cond fhe.Condition, a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	if e.km == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	c, err := e.km.decryptBool(cond)
	if err != nil {
		return nil, err
	}
	va, err := e.km.decryptByte(a)
	if err != nil {
		return nil, err
	}
	vb, err := e.km.decryptByte(b)
	if err != nil {
		return nil, err
	}

	// both operands are opened and a fresh ciphertext is sealed either way
	out := vb
	if c {
		out = va
	}
	return e.km.encryptByte(out)
}

// Match evaluates a public table natively.
func (e *evaluator) Match(idx fhe.Ciphertext, table *fhe.MatchTable) (fhe.Ciphertext, fhe.Condition, error) {
	if e.km == nil {
		return nil, nil, fhe.ErrKeyNotInstalled
	}
	if table == nil {
		return nil, nil, errors.New("nil match table")
	}
	v, err := e.km.decryptByte(idx)
	if err != nil {
		return nil, nil, err
	}

	out, matched := table.Lookup(v)
	ct, err := e.km.encryptByte(out)
	if err != nil {
		return nil, nil, err
	}
	cond, err := e.km.encryptBool(matched)
	if err != nil {
		return nil, nil, err
	}
	return ct, cond, nil
}
