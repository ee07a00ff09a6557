/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fhe defines the encrypted-byte algebra consumed by the
// homomorphic AES evaluator. A Scheme produces key material and
// evaluators; an Evaluator performs the oblivious primitive operations
// over Ciphertext values without ever exposing their plaintext.
package fhe

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrKeyNotInstalled is returned by every Evaluator operation invoked
	// before an evaluation key has been installed on that evaluator.
	ErrKeyNotInstalled = errors.New("evaluation key not installed")

	// ErrKeyAlreadyInstalled is returned when InstallKey is called on an
	// evaluator that already holds an evaluation key.
	ErrKeyAlreadyInstalled = errors.New("evaluation key already installed")

	// ErrForeignCiphertext is returned when an operand was produced by a
	// different scheme or under a different key.
	ErrForeignCiphertext = errors.New("ciphertext does not belong to this key")
)

// Ciphertext is an encrypted byte. Implementations are immutable: every
// operation returns a fresh value, so a Ciphertext may be shared freely.
type Ciphertext interface {
	// Bytes returns the serialized form of the ciphertext.
	Bytes() ([]byte, error)
}

// Condition is an encrypted boolean produced by comparisons and consumed
// by Select.
type Condition interface {
	// Bytes returns the serialized form of the condition.
	Bytes() ([]byte, error)
}

// EvaluationKey is the public material an Evaluator needs to operate on
// ciphertexts. It is immutable once generated.
type EvaluationKey interface {
	// SKI returns the identifier of the key pair this evaluation key
	// belongs to.
	SKI() []byte
}

// ClientKey holds the secret material used to encrypt inputs and decrypt
// results.
type ClientKey interface {
	Encrypt(b byte) (Ciphertext, error)
	Decrypt(ct Ciphertext) (byte, error)
	DecryptCondition(c Condition) (bool, error)

	// EvaluationKey returns the evaluation key paired with this client key.
	EvaluationKey() EvaluationKey
}

// Evaluator performs oblivious operations over ciphertexts. An Evaluator
// is bound to a single goroutine at a time; it must have an evaluation
// key installed before any operation is invoked.
type Evaluator interface {
	// InstallKey installs the evaluation key. It may only be called once.
	InstallKey(ek EvaluationKey) error

	// Trivial returns a ciphertext of a public constant.
	Trivial(c byte) (Ciphertext, error)

	Xor(a, b Ciphertext) (Ciphertext, error)
	XorConst(a Ciphertext, c byte) (Ciphertext, error)
	And(a, b Ciphertext) (Ciphertext, error)
	AndConst(a Ciphertext, c byte) (Ciphertext, error)
	ShiftLeft(a Ciphertext, n uint) (Ciphertext, error)
	ShiftRight(a Ciphertext, n uint) (Ciphertext, error)

	EqConst(a Ciphertext, c byte) (Condition, error)
	NeConst(a Ciphertext, c byte) (Condition, error)

	// Select returns a when cond holds and b otherwise, without
	// revealing which.
	Select(cond Condition, a, b Ciphertext) (Ciphertext, error)
}

// TableMatcher is implemented by evaluators able to evaluate a public
// lookup table natively. The returned condition holds when idx matched
// an input of the table; when it does not, the returned value is an
// encryption of zero.
type TableMatcher interface {
	Match(idx Ciphertext, table *MatchTable) (Ciphertext, Condition, error)
}

// Scheme is a factory for key material and evaluators of one encrypted
// byte algebra.
type Scheme interface {
	// Name returns the scheme name used in configuration.
	Name() string

	// KeyGen generates a fresh client key using entropy from rand.
	KeyGen(rand io.Reader) (ClientKey, error)

	// NewEvaluator returns an evaluator with no key installed.
	NewEvaluator() Evaluator
}
