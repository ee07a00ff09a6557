/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package semaphore bounds the number of cipher blocks evaluated at the
// same time.
package semaphore

import "context"

// Semaphore hands out a fixed number of permits.
type Semaphore interface {
	// Permits returns the number of permits, or zero when unbounded.
	Permits() int
	// Acquire blocks until a permit is free or ctx is done. A done
	// context never takes a permit.
	Acquire(ctx context.Context) error
	// Release returns a permit taken by Acquire.
	Release()
}

// Bounded holds its free permits as tokens in a channel.
type Bounded struct {
	tokens chan struct{}
}

// New returns a semaphore with permits permits. It panics when permits
// is not positive.
func New(permits int) Semaphore {
	if permits <= 0 {
		panic("permits must be greater than 0")
	}
	b := &Bounded{tokens: make(chan struct{}, permits)}
	for i := 0; i < permits; i++ {
		b.tokens <- struct{}{}
	}
	return b
}

func (b *Bounded) Permits() int {
	return cap(b.tokens)
}

func (b *Bounded) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-b.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release panics when every permit is already free.
func (b *Bounded) Release() {
	select {
	case b.tokens <- struct{}{}:
	default:
		panic("release without a matching acquire")
	}
}

// Disabled never blocks.
var Disabled Semaphore = unbounded{}

type unbounded struct{}

func (unbounded) Permits() int { return 0 }

func (unbounded) Acquire(context.Context) error { return nil }

func (unbounded) Release() {}
