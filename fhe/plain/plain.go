/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package plain provides a transparent encrypted-byte scheme. Values are
// carried in the clear and every primitive an evaluator performs can be
// recorded in a Trace together with its public operands. It is meant for
// fast tests and for checking that the control flow of an evaluation does
// not depend on the values it processes.
package plain

import (
	"io"

	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

// SchemeName is the configuration name of this scheme.
const SchemeName = "PLAIN"

const keyIDSize = 8

// Scheme is the transparent scheme. When Trace is set every evaluator
// created by the scheme records into it.
type Scheme struct {
	Trace *Trace
}

// New returns a transparent scheme recording into trace, which may be nil.
func New(trace *Trace) *Scheme {
	return &Scheme{Trace: trace}
}

func (s *Scheme) Name() string {
	return SchemeName
}

func (s *Scheme) KeyGen(rand io.Reader) (fhe.ClientKey, error) {
	if rand == nil {
		return nil, errors.New("invalid entropy source, it must be different from nil")
	}
	id := make([]byte, keyIDSize)
	if _, err := io.ReadFull(rand, id); err != nil {
		return nil, errors.Wrap(err, "failed reading key identifier")
	}
	k := &key{id: string(id)}
	return &clientKey{k: k}, nil
}

func (s *Scheme) NewEvaluator() fhe.Evaluator {
	return &evaluator{trace: s.Trace}
}

type key struct {
	id string
}

func (k *key) SKI() []byte {
	return []byte(k.id)
}

type clientKey struct {
	k *key
}

func (c *clientKey) Encrypt(b byte) (fhe.Ciphertext, error) {
	return &ciphertext{id: c.k.id, v: b}, nil
}

func (c *clientKey) Decrypt(ct fhe.Ciphertext) (byte, error) {
	return c.k.value(ct)
}

func (c *clientKey) DecryptCondition(cond fhe.Condition) (bool, error) {
	return c.k.truth(cond)
}

func (c *clientKey) EvaluationKey() fhe.EvaluationKey {
	return c.k
}

func (k *key) value(ct fhe.Ciphertext) (byte, error) {
	c, ok := ct.(*ciphertext)
	if !ok || c == nil {
		return 0, errors.Wrapf(fhe.ErrForeignCiphertext, "unsupported ciphertext type %T", ct)
	}
	if c.id != k.id {
		return 0, fhe.ErrForeignCiphertext
	}
	return c.v, nil
}

func (k *key) truth(cond fhe.Condition) (bool, error) {
	c, ok := cond.(*condition)
	if !ok || c == nil {
		return false, errors.Wrapf(fhe.ErrForeignCiphertext, "unsupported condition type %T", cond)
	}
	if c.id != k.id {
		return false, fhe.ErrForeignCiphertext
	}
	return c.v, nil
}

type ciphertext struct {
	id string
	v  byte
}

// Bytes returns the key identifier followed by the clear value.
func (c *ciphertext) Bytes() ([]byte, error) {
	return append([]byte(c.id), c.v), nil
}

type condition struct {
	id string
	v  bool
}

func (c *condition) Bytes() ([]byte, error) {
	var b byte
	if c.v {
		b = 1
	}
	return append([]byte(c.id), b), nil
}
