/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package plain

import (
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

type evaluator struct {
	k     *key
	trace *Trace
}

func (e *evaluator) InstallKey(ek fhe.EvaluationKey) error {
	if e.k != nil {
		return fhe.ErrKeyAlreadyInstalled
	}
	k, ok := ek.(*key)
	if !ok || k == nil {
		return errors.Errorf("unsupported evaluation key type %T", ek)
	}
	e.k = k
	return nil
}

func (e *evaluator) unary(code Opcode, arg int, a fhe.Ciphertext, f func(byte) byte) (fhe.Ciphertext, error) {
	if e.k == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	v, err := e.k.value(a)
	if err != nil {
		return nil, err
	}
	e.trace.record(code, arg)
	return &ciphertext{id: e.k.id, v: f(v)}, nil
}

func (e *evaluator) binary(code Opcode, a, b fhe.Ciphertext, f func(byte, byte) byte) (fhe.Ciphertext, error) {
	if e.k == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	va, err := e.k.value(a)
	if err != nil {
		return nil, err
	}
	vb, err := e.k.value(b)
	if err != nil {
		return nil, err
	}
	e.trace.record(code, 0)
	return &ciphertext{id: e.k.id, v: f(va, vb)}, nil
}

func (e *evaluator) compare(code Opcode, a fhe.Ciphertext, c byte, f func(byte) bool) (fhe.Condition, error) {
	if e.k == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	v, err := e.k.value(a)
	if err != nil {
		return nil, err
	}
	e.trace.record(code, int(c))
	return &condition{id: e.k.id, v: f(v)}, nil
}

func (e *evaluator) Trivial(c byte) (fhe.Ciphertext, error) {
	if e.k == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	e.trace.record(OpTrivial, int(c))
	return &ciphertext{id: e.k.id, v: c}, nil
}

func (e *evaluator) Xor(a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	return e.binary(OpXor, a, b, func(x, y byte) byte { return x ^ y })
}

func (e *evaluator) XorConst(a fhe.Ciphertext, c byte) (fhe.Ciphertext, error) {
	return e.unary(OpXorConst, int(c), a, func(x byte) byte { return x ^ c })
}

func (e *evaluator) And(a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	return e.binary(OpAnd, a, b, func(x, y byte) byte { return x & y })
}

func (e *evaluator) AndConst(a fhe.Ciphertext, c byte) (fhe.Ciphertext, error) {
	return e.unary(OpAndConst, int(c), a, func(x byte) byte { return x & c })
}

func (e *evaluator) ShiftLeft(a fhe.Ciphertext, n uint) (fhe.Ciphertext, error) {
	return e.unary(OpShiftLeft, int(n), a, func(x byte) byte { return x << n })
}

func (e *evaluator) ShiftRight(a fhe.Ciphertext, n uint) (fhe.Ciphertext, error) {
	return e.unary(OpShiftRight, int(n), a, func(x byte) byte { return x >> n })
}

func (e *evaluator) EqConst(a fhe.Ciphertext, c byte) (fhe.Condition, error) {
	return e.compare(OpEqConst, a, c, func(x byte) bool { return x == c })
}

func (e *evaluator) NeConst(a fhe.Ciphertext, c byte) (fhe.Condition, error) {
	return e.compare(OpNeConst, a, c, func(x byte) bool { return x != c })
}

func (e *evaluator) Select(cond fhe.Condition, a, b fhe.Ciphertext) (fhe.Ciphertext, error) {
	if e.k == nil {
		return nil, fhe.ErrKeyNotInstalled
	}
	c, err := e.k.truth(cond)
	if err != nil {
		return nil, err
	}
	va, err := e.k.value(a)
	if err != nil {
		return nil, err
	}
	vb, err := e.k.value(b)
	if err != nil {
		return nil, err
	}
	e.trace.record(OpSelect, 0)

	out := vb
	if c {
		out = va
	}
	return &ciphertext{id: e.k.id, v: out}, nil
}

// Match records the table size as its public operand.
func (e *evaluator) Match(idx fhe.Ciphertext, table *fhe.MatchTable) (fhe.Ciphertext, fhe.Condition, error) {
	if e.k == nil {
		return nil, nil, fhe.ErrKeyNotInstalled
	}
	if table == nil {
		return nil, nil, errors.New("nil match table")
	}
	v, err := e.k.value(idx)
	if err != nil {
		return nil, nil, err
	}
	e.trace.record(OpMatch, table.Len())

	out, matched := table.Lookup(v)
	return &ciphertext{id: e.k.id, v: out}, &condition{id: e.k.id, v: matched}, nil
}
