/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fhe

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// DomainSize is the number of representable byte values.
const DomainSize = 256

// MatchPair maps one public input byte to one public output byte.
type MatchPair struct {
	Input  byte
	Output byte
}

// MatchTable is an immutable public byte-to-byte table. It is safe for
// concurrent use.
type MatchTable struct {
	pairs  []MatchPair
	out    [DomainSize]byte
	domain *bitset.BitSet
}

// NewMatchTable builds a table from the given pairs. Duplicate inputs and
// empty tables are rejected.
func NewMatchTable(pairs []MatchPair) (*MatchTable, error) {
	if len(pairs) == 0 {
		return nil, errors.New("match table must contain at least one pair")
	}

	t := &MatchTable{
		pairs:  make([]MatchPair, len(pairs)),
		domain: bitset.New(DomainSize),
	}
	copy(t.pairs, pairs)
	sort.Slice(t.pairs, func(i, j int) bool { return t.pairs[i].Input < t.pairs[j].Input })

	for _, p := range t.pairs {
		if t.domain.Test(uint(p.Input)) {
			return nil, errors.Errorf("duplicate input 0x%02x in match table", p.Input)
		}
		t.domain.Set(uint(p.Input))
		t.out[p.Input] = p.Output
	}

	return t, nil
}

// Pairs returns the table pairs ordered by input.
func (t *MatchTable) Pairs() []MatchPair {
	pairs := make([]MatchPair, len(t.pairs))
	copy(pairs, t.pairs)
	return pairs
}

// Len returns the number of pairs in the table.
func (t *MatchTable) Len() int {
	return len(t.pairs)
}

// Complete reports whether every byte value is an input of the table.
func (t *MatchTable) Complete() bool {
	return t.domain.Count() == DomainSize
}

// Covers reports whether b is an input of the table.
func (t *MatchTable) Covers(b byte) bool {
	return t.domain.Test(uint(b))
}

// Lookup returns the output for a public input. The second result is
// false when the input is not covered.
func (t *MatchTable) Lookup(b byte) (byte, bool) {
	if !t.Covers(b) {
		return 0, false
	}
	return t.out[b], true
}
