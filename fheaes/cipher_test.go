/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fheaes

import (
	"bytes"
	"context"
	"crypto/aes"
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/plain"
	"github.com/lla-dane/FHE-AES128/fhe/sw"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestEncryptBlockVector(t *testing.T) {
	for _, tt := range []struct {
		name   string
		scheme fhe.Scheme
		conf   Config
	}{
		{name: "sw", scheme: sw.New()},
		{name: "plain", scheme: plain.New(nil)},
		{name: "plain generic lookup", scheme: plain.New(nil), conf: Config{GenericLookup: true}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.scheme, 4, tt.conf)
			ctx := context.Background()

			xk := env.expandKey(t, block(t, "000102030405060708090a0b0c0d0e0f"))
			pt := block(t, "00112233445566778899aabbccddeeff")
			want := block(t, "69c4e0d86a7b0430d8cdb78070b4c55a")

			ct, err := env.cipher.EncryptBlock(ctx, env.encryptBlock(t, pt), xk)
			require.NoError(t, err)
			require.Equal(t, want, env.decryptBlock(t, ct))

			back, err := env.cipher.DecryptBlock(ctx, ct, xk)
			require.NoError(t, err)
			require.Equal(t, pt, env.decryptBlock(t, back))
		})
	}
}

func TestMatchesStandardLibrary(t *testing.T) {
	env := newPlainEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		key, pt := randomBlock(t), randomBlock(t)

		ref, err := aes.NewCipher(key[:])
		require.NoError(t, err)
		var want [BlockSize]byte
		ref.Encrypt(want[:], pt[:])

		xk := env.expandKey(t, key)
		ct, err := env.cipher.EncryptBlock(ctx, env.encryptBlock(t, pt), xk)
		require.NoError(t, err)
		require.Equal(t, want, env.decryptBlock(t, ct))

		back, err := env.cipher.DecryptBlock(ctx, ct, xk)
		require.NoError(t, err)
		require.Equal(t, pt, env.decryptBlock(t, back))
	}
}

func TestEncryptBlocks(t *testing.T) {
	env := newTestEnv(t, plain.New(nil), 8, Config{MaxConcurrentBlocks: 2})
	ctx := context.Background()

	key := randomBlock(t)
	ref, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	xk := env.expandKey(t, key)

	counters := CounterBlocks(randomBlock(t), 5)
	in := make([]Block, len(counters))
	for i, c := range counters {
		in[i] = env.encryptBlock(t, c)
	}

	out, err := env.cipher.EncryptBlocks(ctx, in, xk)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i, c := range counters {
		var want [BlockSize]byte
		ref.Encrypt(want[:], c[:])
		require.Equal(t, want, env.decryptBlock(t, out[i]), "block %d", i)
	}

	back, err := env.cipher.DecryptBlocks(ctx, out, xk)
	require.NoError(t, err)
	for i, c := range counters {
		require.Equal(t, c, env.decryptBlock(t, back[i]), "block %d", i)
	}

	empty, err := env.cipher.EncryptBlocks(ctx, nil, xk)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestEncryptBlocksStopsOnError(t *testing.T) {
	env := newPlainEnv(t)
	ctx := context.Background()
	xk := env.expandKey(t, randomBlock(t))

	good := env.encryptBlock(t, randomBlock(t))
	bad := good
	bad[7] = nil

	_, err := env.cipher.EncryptBlocks(ctx, []Block{good, bad, good}, xk)
	require.True(t, errors.Is(err, ErrNilCiphertext))
}

func TestEncryptBlockValidation(t *testing.T) {
	env := newPlainEnv(t)
	ctx := context.Background()
	in := env.encryptBlock(t, randomBlock(t))

	_, err := env.cipher.EncryptBlock(ctx, in, nil)
	require.True(t, errors.Is(err, ErrInvalidSize))

	_, err = env.cipher.DecryptBlock(ctx, in, &ExpandedKey{})
	require.True(t, errors.Is(err, ErrNilCiphertext))
}

// uninstalledExecutor runs every task on an evaluator without a key.
type uninstalledExecutor struct{}

func (uninstalledExecutor) Execute(ctx context.Context, tasks ...scheduler.Task) error {
	ev := plain.New(nil).NewEvaluator()
	for _, task := range tasks {
		if err := task(ev); err != nil {
			return err
		}
	}
	return nil
}

func TestEvaluatorErrorsPropagateUnchanged(t *testing.T) {
	env := newPlainEnv(t)
	xk := env.expandKey(t, randomBlock(t))
	in := env.encryptBlock(t, randomBlock(t))

	c, err := NewCipher(uninstalledExecutor{}, Config{})
	require.NoError(t, err)

	_, err = c.EncryptBlock(context.Background(), in, xk)
	require.Equal(t, fhe.ErrKeyNotInstalled, err)

	_, err = c.DecryptBlock(context.Background(), in, xk)
	require.Equal(t, fhe.ErrKeyNotInstalled, err)

	_, err = c.ExpandKey(context.Background(), Key(in))
	require.Equal(t, fhe.ErrKeyNotInstalled, err)
}

func TestNewCipherErrors(t *testing.T) {
	_, err := NewCipher(nil, Config{})
	require.EqualError(t, err, "executor must not be nil")

	_, err = NewCipher(uninstalledExecutor{}, Config{MaxConcurrentBlocks: -1})
	require.EqualError(t, err, "invalid max concurrent blocks -1")
}

// The sequence of primitive operations, with their public operands, must
// not depend on the key or the plaintext.
func TestEvaluationIsOblivious(t *testing.T) {
	run := func(key, pt [BlockSize]byte) []plain.Op {
		trace := plain.NewTrace()
		env := newTestEnv(t, plain.New(trace), 1, Config{GenericLookup: true})
		ctx := context.Background()

		k, err := EncryptBytes(env.ck, key)
		require.NoError(t, err)
		p, err := EncryptBytes(env.ck, pt)
		require.NoError(t, err)

		xk, err := env.cipher.ExpandKey(ctx, Key(k))
		require.NoError(t, err)
		ct, err := env.cipher.EncryptBlock(ctx, p, xk)
		require.NoError(t, err)
		_, err = env.cipher.DecryptBlock(ctx, ct, xk)
		require.NoError(t, err)
		return trace.Ops()
	}

	var zero, ones [BlockSize]byte
	for i := range ones {
		ones[i] = 0xff
	}

	a := run(zero, zero)
	b := run(ones, randomBlock(t))
	require.NotEmpty(t, a)
	require.Equal(t, len(a), len(b))
	require.Equal(t, a, b)
}

func TestConcurrentTraceCountsAreOblivious(t *testing.T) {
	run := func(key [BlockSize]byte) map[plain.Op]int {
		trace := plain.NewTrace()
		env := newTestEnv(t, plain.New(trace), 4, Config{})
		_, err := env.cipher.ExpandKey(context.Background(), Key(env.encryptBlock(t, key)))
		require.NoError(t, err)
		return trace.Counts()
	}

	require.Equal(t, run(randomBlock(t)), run(randomBlock(t)))
}

func TestBlockObserver(t *testing.T) {
	env := newPlainEnv(t)
	xk := env.expandKey(t, randomBlock(t))

	var mutex sync.Mutex
	seen := map[int]bool{}
	env.cipher.SetBlockObserver(func(i int, elapsed time.Duration) {
		mutex.Lock()
		defer mutex.Unlock()
		seen[i] = true
	})

	in := []Block{env.encryptBlock(t, randomBlock(t)), env.encryptBlock(t, randomBlock(t))}
	_, err := env.cipher.EncryptBlocks(context.Background(), in, xk)
	require.NoError(t, err)
	require.Equal(t, map[int]bool{0: true, 1: true}, seen)
}

// steppingExecutor moves the clock forward once per batch.
type steppingExecutor struct {
	Executor
	clock *fakeclock.FakeClock
	step  time.Duration
}

func (s *steppingExecutor) Execute(ctx context.Context, tasks ...scheduler.Task) error {
	err := s.Executor.Execute(ctx, tasks...)
	s.clock.Increment(s.step)
	return err
}

func TestBlockObserverUsesConfiguredClock(t *testing.T) {
	env := newPlainEnv(t)
	xk := env.expandKey(t, randomBlock(t))

	fakeClock := fakeclock.NewFakeClock(time.Unix(1000, 0))
	exec := &steppingExecutor{Executor: env.pool, clock: fakeClock, step: time.Millisecond}
	c, err := NewCipher(exec, Config{MaxConcurrentBlocks: 1, Clock: fakeClock})
	require.NoError(t, err)

	var elapsed []time.Duration
	c.SetBlockObserver(func(i int, d time.Duration) {
		elapsed = append(elapsed, d)
	})

	_, err = c.EncryptBlocks(context.Background(), []Block{env.encryptBlock(t, randomBlock(t))}, xk)
	require.NoError(t, err)

	// 1 initial AddRoundKey, 9 full rounds of 4 batches (MixColumns takes
	// two) and a final round of 2 batches.
	require.Equal(t, []time.Duration{39 * time.Millisecond}, elapsed)
}

func TestNewCipherLogsBlockBound(t *testing.T) {
	env := newPlainEnv(t)
	buf := &bytes.Buffer{}
	flogging.SetWriter(buf)
	require.NoError(t, flogging.ActivateSpec("fheaes=debug"))
	defer flogging.Reset()

	_, err := NewCipher(env.pool, Config{MaxConcurrentBlocks: 3})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "evaluating at most 3 blocks at a time")

	_, err = NewCipher(env.pool, Config{})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "evaluating blocks without a concurrency bound")
}
