/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import (
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

// ErrIncompleteTable is returned by Eval when the table does not map every
// byte value.
var ErrIncompleteTable = errors.New("lookup table does not cover every byte value")

// LookupTable evaluates a public byte table on encrypted indexes. It is
// immutable and safe for concurrent use.
type LookupTable struct {
	table   *fhe.MatchTable
	generic bool
}

// NewLookupTable builds a lookup table from pairs.
func NewLookupTable(pairs []fhe.MatchPair) (*LookupTable, error) {
	t, err := fhe.NewMatchTable(pairs)
	if err != nil {
		return nil, err
	}
	return &LookupTable{table: t}, nil
}

// NewTableFromArray builds a complete lookup table mapping i to arr[i].
func NewTableFromArray(arr [fhe.DomainSize]byte) *LookupTable {
	pairs := make([]fhe.MatchPair, fhe.DomainSize)
	for i := range arr {
		pairs[i] = fhe.MatchPair{Input: byte(i), Output: arr[i]}
	}
	t, err := fhe.NewMatchTable(pairs)
	if err != nil {
		panic(err)
	}
	return &LookupTable{table: t}
}

// Generic returns a copy of the table that never uses the native lookup
// of an evaluator.
func (l *LookupTable) Generic() *LookupTable {
	return &LookupTable{table: l.table, generic: true}
}

// Complete reports whether the table maps every byte value.
func (l *LookupTable) Complete() bool {
	return l.table.Complete()
}

func (l *LookupTable) matcher(ev fhe.Evaluator) (fhe.TableMatcher, bool) {
	if l.generic {
		return nil, false
	}
	m, ok := ev.(fhe.TableMatcher)
	return m, ok
}

// Eval returns an encryption of T[idx]. The table must be complete.
//
// Without a native lookup, idx is compared against every input of the
// table and the output is accumulated with oblivious selects, so the cost
// is linear in the table size.
func (l *LookupTable) Eval(ev fhe.Evaluator, idx fhe.Ciphertext) (fhe.Ciphertext, error) {
	if !l.table.Complete() {
		return nil, errors.Wrapf(ErrIncompleteTable, "table has %d entries", l.table.Len())
	}
	if m, ok := l.matcher(ev); ok {
		out, _, err := m.Match(idx, l.table)
		return out, err
	}

	pairs := l.table.Pairs()
	acc, err := ev.Trivial(pairs[0].Output)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs[1:] {
		acc, err = l.selectOn(ev, idx, p, acc)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Match evaluates the table on idx without requiring it to be complete.
// The returned condition holds when idx is an input of the table; when it
// is not, the returned value is an encryption of zero.
func (l *LookupTable) Match(ev fhe.Evaluator, idx fhe.Ciphertext) (fhe.Ciphertext, fhe.Condition, error) {
	if m, ok := l.matcher(ev); ok {
		return m.Match(idx, l.table)
	}

	acc, err := ev.Trivial(0)
	if err != nil {
		return nil, nil, err
	}
	hit := acc
	one, err := ev.Trivial(1)
	if err != nil {
		return nil, nil, err
	}

	for _, p := range l.table.Pairs() {
		cond, err := ev.EqConst(idx, p.Input)
		if err != nil {
			return nil, nil, err
		}
		out, err := ev.Trivial(p.Output)
		if err != nil {
			return nil, nil, err
		}
		if acc, err = ev.Select(cond, out, acc); err != nil {
			return nil, nil, err
		}
		if hit, err = ev.Select(cond, one, hit); err != nil {
			return nil, nil, err
		}
	}

	matched, err := ev.NeConst(hit, 0)
	if err != nil {
		return nil, nil, err
	}
	return acc, matched, nil
}

func (l *LookupTable) selectOn(ev fhe.Evaluator, idx fhe.Ciphertext, p fhe.MatchPair, acc fhe.Ciphertext) (fhe.Ciphertext, error) {
	cond, err := ev.EqConst(idx, p.Input)
	if err != nil {
		return nil, err
	}
	out, err := ev.Trivial(p.Output)
	if err != nil {
		return nil, err
	}
	return ev.Select(cond, out, acc)
}
