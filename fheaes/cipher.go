/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fheaes evaluates AES-128 over encrypted bytes. Every step is
// expressed with the oblivious primitives of an fhe.Evaluator: no branch
// and no memory access depends on an encrypted value. Independent bytes
// and columns of a round are evaluated as batches on an Executor.
package fheaes

import (
	"context"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/common/semaphore"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var logger = flogging.MustGetLogger("fheaes")

// Executor evaluates a batch of independent tasks and returns once all of
// them completed.
type Executor interface {
	Execute(ctx context.Context, tasks ...scheduler.Task) error
}

// Config contains the cipher configuration.
type Config struct {
	// MaxConcurrentBlocks bounds the number of blocks EncryptBlocks and
	// DecryptBlocks evaluate at the same time. Zero means no bound.
	MaxConcurrentBlocks int `mapstructure:"maxConcurrentBlocks" yaml:"MaxConcurrentBlocks"`

	// GenericLookup disables the native table lookup of evaluators.
	GenericLookup bool `mapstructure:"genericLookup" yaml:"GenericLookup"`

	// Clock times the blocks reported to the BlockObserver. The wall
	// clock is used when it is nil.
	Clock clock.Clock `mapstructure:"-" yaml:"-"`
}

// BlockObserver is notified by EncryptBlocks and DecryptBlocks each time
// a block has been evaluated. It may be called concurrently.
type BlockObserver func(index int, elapsed time.Duration)

// Cipher evaluates AES-128 on encrypted blocks.
type Cipher struct {
	exec     Executor
	sbox     *LookupTable
	invSbox  *LookupTable
	sem      semaphore.Semaphore
	clock    clock.Clock
	observer BlockObserver
}

// NewCipher returns a cipher running its batches on exec.
func NewCipher(exec Executor, conf Config) (*Cipher, error) {
	if exec == nil {
		return nil, errors.New("executor must not be nil")
	}
	if conf.MaxConcurrentBlocks < 0 {
		return nil, errors.Errorf("invalid max concurrent blocks %d", conf.MaxConcurrentBlocks)
	}

	c := &Cipher{
		exec:    exec,
		sbox:    NewTableFromArray(sbox),
		invSbox: NewTableFromArray(invSbox),
		sem:     semaphore.Disabled,
		clock:   conf.Clock,
	}
	if c.clock == nil {
		c.clock = clock.NewClock()
	}
	if conf.GenericLookup {
		c.sbox = c.sbox.Generic()
		c.invSbox = c.invSbox.Generic()
	}
	if conf.MaxConcurrentBlocks > 0 {
		c.sem = semaphore.New(conf.MaxConcurrentBlocks)
	}
	if n := c.sem.Permits(); n > 0 {
		logger.Debugf("evaluating at most %d blocks at a time", n)
	} else {
		logger.Debugf("evaluating blocks without a concurrency bound")
	}
	return c, nil
}

// SetBlockObserver registers o with the cipher. It must be called before
// any block is evaluated.
func (c *Cipher) SetBlockObserver(o BlockObserver) {
	c.observer = o
}

func checkInputs(in Block, xk *ExpandedKey) error {
	if xk == nil {
		return errors.Wrap(ErrInvalidSize, "expanded key must not be nil")
	}
	if err := checkCiphertexts(in[:]); err != nil {
		return err
	}
	return checkCiphertexts(xk[:])
}

// EncryptBlock encrypts one block under the expanded key xk.
func (c *Cipher) EncryptBlock(ctx context.Context, in Block, xk *ExpandedKey) (Block, error) {
	if err := checkInputs(in, xk); err != nil {
		return Block{}, err
	}

	s, err := c.addRoundKey(ctx, in, xk.RoundKey(0))
	if err != nil {
		return Block{}, err
	}

	for r := 1; r <= Rounds; r++ {
		if s, err = c.subBytes(ctx, s); err != nil {
			return Block{}, err
		}
		s = shiftRows(s)
		if r < Rounds {
			if s, err = c.mixColumns(ctx, s); err != nil {
				return Block{}, err
			}
		}
		if s, err = c.addRoundKey(ctx, s, xk.RoundKey(r)); err != nil {
			return Block{}, err
		}
		logger.Debugf("encryption round %d done", r)
	}

	return s, nil
}

// DecryptBlock decrypts one block under the expanded key xk.
func (c *Cipher) DecryptBlock(ctx context.Context, in Block, xk *ExpandedKey) (Block, error) {
	if err := checkInputs(in, xk); err != nil {
		return Block{}, err
	}

	s, err := c.addRoundKey(ctx, in, xk.RoundKey(Rounds))
	if err != nil {
		return Block{}, err
	}

	for r := Rounds - 1; r >= 0; r-- {
		s = invShiftRows(s)
		if s, err = c.invSubBytes(ctx, s); err != nil {
			return Block{}, err
		}
		if s, err = c.addRoundKey(ctx, s, xk.RoundKey(r)); err != nil {
			return Block{}, err
		}
		if r > 0 {
			if s, err = c.invMixColumns(ctx, s); err != nil {
				return Block{}, err
			}
		}
		logger.Debugf("decryption round %d done", Rounds-r)
	}

	return s, nil
}

// EncryptBlocks encrypts independent blocks concurrently, sharing xk.
func (c *Cipher) EncryptBlocks(ctx context.Context, in []Block, xk *ExpandedKey) ([]Block, error) {
	return c.blocks(ctx, in, xk, c.EncryptBlock)
}

// DecryptBlocks decrypts independent blocks concurrently, sharing xk.
func (c *Cipher) DecryptBlocks(ctx context.Context, in []Block, xk *ExpandedKey) ([]Block, error) {
	return c.blocks(ctx, in, xk, c.DecryptBlock)
}

type blockFunc func(ctx context.Context, in Block, xk *ExpandedKey) (Block, error)

func (c *Cipher) blocks(ctx context.Context, in []Block, xk *ExpandedKey, f blockFunc) ([]Block, error) {
	out := make([]Block, len(in))
	g, gctx := errgroup.WithContext(ctx)

	var acquireErr error
	for i := range in {
		if acquireErr = c.sem.Acquire(gctx); acquireErr != nil {
			break
		}
		i := i
		g.Go(func() error {
			defer c.sem.Release()
			start := c.clock.Now()
			b, err := f(gctx, in[i], xk)
			if err != nil {
				return err
			}
			out[i] = b
			if c.observer != nil {
				c.observer(i, c.clock.Since(start))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if acquireErr != nil {
		return nil, acquireErr
	}
	return out, nil
}
