/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package session runs a complete homomorphic counter-mode batch: key
// generation, key expansion, evaluation of every counter block in both
// directions, and verification of the results against the standard
// library cipher.
package session

import (
	"context"
	"crypto/aes"
	"crypto/rand"
	"io"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/common/metrics"
	"github.com/lla-dane/FHE-AES128/common/metrics/disabled"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fheaes"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("session")

const (
	// DirectionEncrypt labels encryption metrics and progress.
	DirectionEncrypt = "encrypt"
	// DirectionDecrypt labels decryption metrics and progress.
	DirectionDecrypt = "decrypt"
)

var (
	// ErrVerificationFailed is returned when an evaluated block differs
	// from the expected value.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrInvalidRequest is returned for a request with no blocks.
	ErrInvalidRequest = errors.New("invalid request")
)

// Request describes one batch.
type Request struct {
	Key    [fheaes.KeySize]byte
	IV     [fheaes.BlockSize]byte
	Blocks int
}

// Report holds the results and timings of a batch.
type Report struct {
	Scheme   string
	Workers  int
	Counters [][fheaes.BlockSize]byte

	// Ciphertexts are the decrypted results of the homomorphic encryption
	// of the counters.
	Ciphertexts [][fheaes.BlockSize]byte

	// Plaintexts are the decrypted results of the homomorphic decryption
	// of the encrypted counters.
	Plaintexts [][fheaes.BlockSize]byte

	KeyGenDuration       time.Duration
	KeyExpansionDuration time.Duration
	EncryptionDuration   time.Duration
	DecryptionDuration   time.Duration

	Verified bool
}

// ProgressFunc is notified each time a block is evaluated in direction.
// It may be called concurrently.
type ProgressFunc func(direction string, block int)

// Config contains the session configuration.
type Config struct {
	Scheduler scheduler.Config
	Cipher    fheaes.Config
}

// Session runs batches on a scheme.
type Session struct {
	Scheme          fhe.Scheme
	Config          Config
	Clock           clock.Clock
	MetricsProvider metrics.Provider
	Rand            io.Reader
	Progress        ProgressFunc
}

// Run evaluates req. The report is returned together with
// ErrVerificationFailed when a result does not match.
func (s *Session) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Blocks <= 0 {
		return nil, errors.Wrapf(ErrInvalidRequest, "number of blocks must be greater than 0, got %d", req.Blocks)
	}
	if s.Scheme == nil {
		return nil, errors.New("scheme must not be nil")
	}

	clk := s.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.Reader
	}
	provider := s.MetricsProvider
	if provider == nil {
		provider = &disabled.Provider{}
	}
	m := NewMetrics(provider)

	report := &Report{
		Scheme:   s.Scheme.Name(),
		Workers:  s.Config.Scheduler.Workers,
		Counters: fheaes.CounterBlocks(req.IV, req.Blocks),
	}

	start := clk.Now()
	ck, err := s.Scheme.KeyGen(rnd)
	if err != nil {
		return nil, errors.WithMessage(err, "key generation failed")
	}
	report.KeyGenDuration = clk.Since(start)
	logger.Infof("generated %s keys in %s", report.Scheme, report.KeyGenDuration)

	pool, err := scheduler.New(s.Scheme, s.Config.Scheduler, provider)
	if err != nil {
		return nil, err
	}
	if err := pool.Start(ck.EvaluationKey()); err != nil {
		return nil, errors.WithMessage(err, "failed starting scheduler")
	}
	defer pool.Stop()

	cipherConf := s.Config.Cipher
	cipherConf.Clock = clk
	cipher, err := fheaes.NewCipher(pool, cipherConf)
	if err != nil {
		return nil, err
	}

	key, err := fheaes.EncryptBytes(ck, req.Key)
	if err != nil {
		return nil, err
	}
	in := make([]fheaes.Block, req.Blocks)
	for i, c := range report.Counters {
		if in[i], err = fheaes.EncryptBytes(ck, c); err != nil {
			return nil, err
		}
	}

	start = clk.Now()
	xk, err := cipher.ExpandKey(ctx, fheaes.Key(key))
	if err != nil {
		return nil, errors.WithMessage(err, "key expansion failed")
	}
	report.KeyExpansionDuration = clk.Since(start)
	logger.Infof("expanded key in %s", report.KeyExpansionDuration)

	direction := DirectionEncrypt
	cipher.SetBlockObserver(func(i int, elapsed time.Duration) {
		m.BlocksEvaluated.With("direction", direction).Add(1)
		m.BlockDuration.With("direction", direction).Observe(elapsed.Seconds())
		if s.Progress != nil {
			s.Progress(direction, i)
		}
	})

	start = clk.Now()
	encrypted, err := cipher.EncryptBlocks(ctx, in, xk)
	if err != nil {
		return nil, errors.WithMessage(err, "encryption failed")
	}
	report.EncryptionDuration = clk.Since(start)
	logger.Infof("encrypted %d blocks in %s", req.Blocks, report.EncryptionDuration)

	direction = DirectionDecrypt
	start = clk.Now()
	decrypted, err := cipher.DecryptBlocks(ctx, encrypted, xk)
	if err != nil {
		return nil, errors.WithMessage(err, "decryption failed")
	}
	report.DecryptionDuration = clk.Since(start)
	logger.Infof("decrypted %d blocks in %s", req.Blocks, report.DecryptionDuration)

	for i := range encrypted {
		c, err := fheaes.DecryptBytes(ck, encrypted[i])
		if err != nil {
			return nil, err
		}
		p, err := fheaes.DecryptBytes(ck, decrypted[i])
		if err != nil {
			return nil, err
		}
		report.Ciphertexts = append(report.Ciphertexts, c)
		report.Plaintexts = append(report.Plaintexts, p)
	}

	if err := verify(req.Key, report); err != nil {
		logger.Errorf("batch verification failed: %s", err)
		return report, err
	}
	report.Verified = true
	return report, nil
}

func verify(key [fheaes.KeySize]byte, report *Report) error {
	ref, err := aes.NewCipher(key[:])
	if err != nil {
		return errors.Wrap(err, "failed creating reference cipher")
	}

	for i, counter := range report.Counters {
		var want [fheaes.BlockSize]byte
		ref.Encrypt(want[:], counter[:])
		if j := firstDiff(want, report.Ciphertexts[i]); j >= 0 {
			return errors.Wrapf(ErrVerificationFailed, "ciphertext of block %d differs at byte %d", i, j)
		}
		if j := firstDiff(counter, report.Plaintexts[i]); j >= 0 {
			return errors.Wrapf(ErrVerificationFailed, "plaintext of block %d differs at byte %d", i, j)
		}
	}
	return nil
}

func firstDiff(a, b [fheaes.BlockSize]byte) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
