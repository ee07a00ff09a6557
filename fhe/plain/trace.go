/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package plain

import (
	"fmt"
	"sync"
)

// Opcode identifies a primitive operation.
type Opcode uint8

const (
	OpTrivial Opcode = iota
	OpXor
	OpXorConst
	OpAnd
	OpAndConst
	OpShiftLeft
	OpShiftRight
	OpEqConst
	OpNeConst
	OpSelect
	OpMatch
)

var opcodeNames = map[Opcode]string{
	OpTrivial:    "Trivial",
	OpXor:        "Xor",
	OpXorConst:   "XorConst",
	OpAnd:        "And",
	OpAndConst:   "AndConst",
	OpShiftLeft:  "ShiftLeft",
	OpShiftRight: "ShiftRight",
	OpEqConst:    "EqConst",
	OpNeConst:    "NeConst",
	OpSelect:     "Select",
	OpMatch:      "Match",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(o))
}

// Op is one recorded operation. Arg holds the public operand of the
// operation: the constant, the shift amount, or the table size. It never
// holds a value derived from a ciphertext.
type Op struct {
	Code Opcode
	Arg  int
}

func (o Op) String() string {
	return fmt.Sprintf("%s(%d)", o.Code, o.Arg)
}

// Trace records operations from any number of evaluators. Operations
// recorded concurrently are appended in arrival order.
type Trace struct {
	mutex sync.Mutex
	ops   []Op
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) record(code Opcode, arg int) {
	if t == nil {
		return
	}
	t.mutex.Lock()
	t.ops = append(t.ops, Op{Code: code, Arg: arg})
	t.mutex.Unlock()
}

// Ops returns a copy of the recorded operations.
func (t *Trace) Ops() []Op {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	ops := make([]Op, len(t.ops))
	copy(ops, t.ops)
	return ops
}

// Len returns the number of recorded operations.
func (t *Trace) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.ops)
}

// Counts returns the number of recorded operations per operation. It is
// independent of the interleaving of concurrent evaluators.
func (t *Trace) Counts() map[Op]int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	counts := map[Op]int{}
	for _, op := range t.ops {
		counts[op]++
	}
	return counts
}

// Reset discards the recorded operations.
func (t *Trace) Reset() {
	t.mutex.Lock()
	t.ops = nil
	t.mutex.Unlock()
}
