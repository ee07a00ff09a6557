/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cheggaaa/pb"
	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/factory"
	"github.com/lla-dane/FHE-AES128/internal/config"
	"github.com/lla-dane/FHE-AES128/internal/operations"
	"github.com/lla-dane/FHE-AES128/internal/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tedsuo/ifrit"
)

var logger = flogging.MustGetLogger("fheaes")

const (
	// FIPS-197 appendix C.1 key and the SP 800-38A counter block.
	defaultKey = "000102030405060708090a0b0c0d0e0f"
	defaultIV  = "f0f1f2f3f4f5f6f7f8f9fafbfcfdfeff"
)

type runFlags struct {
	key      string
	iv       string
	blocks   int
	progress bool
}

func runCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Encrypts and decrypts counter blocks homomorphically.",
		Long: `Generates keys, expands the AES key under encryption and evaluates the ` +
			`counter blocks starting at the IV in both directions. The results are ` +
			`verified against the standard library cipher.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("trailing args detected")
			}
			return runSession(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), f)
		},
	}

	addRunFlags(cmd.Flags(), f)
	return cmd
}

func addRunFlags(flags *pflag.FlagSet, f *runFlags) {
	flags.StringVarP(&f.key, "key", "k", defaultKey, "AES-128 key as 32 hex digits")
	flags.StringVarP(&f.iv, "iv", "i", defaultIV, "initial counter block as 32 hex digits")
	flags.IntVarP(&f.blocks, "blocks", "n", 1, "number of counter blocks")
	flags.BoolVar(&f.progress, "progress", false, "display a progress bar per direction")
}

func runSession(ctx context.Context, out, errOut io.Writer, f *runFlags) error {
	key, err := session.ParseBlockHex(f.key)
	if err != nil {
		return errors.WithMessage(err, "invalid key")
	}
	iv, err := session.ParseBlockHex(f.iv)
	if err != nil {
		return errors.WithMessage(err, "invalid IV")
	}

	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}
	err = flogging.Global.Apply(flogging.Config{
		LogSpec: conf.Logging.Spec,
		Format:  conf.Logging.Format,
		Writer:  errOut,
	})
	if err != nil {
		return errors.WithMessage(err, "invalid logging configuration")
	}

	scheme, err := factory.GetScheme(&conf.Backend)
	if err != nil {
		return err
	}

	system := operations.NewSystem(operations.Options{
		Logger:        flogging.MustGetLogger("operations"),
		ListenAddress: conf.Operations.ListenAddress,
		Backend:       scheme.Name(),
		Metrics:       operations.MetricsOptions{Provider: conf.Metrics.Provider},
	})
	if err := registerCheckers(system, scheme); err != nil {
		return err
	}
	if conf.Operations.ListenAddress != "" {
		process := ifrit.Invoke(system)
		select {
		case err := <-process.Wait():
			return errors.WithMessage(err, "failed starting operations system")
		default:
		}
		logger.Infof("operations endpoint listening on %s", system.Addr())
		defer func() {
			process.Signal(syscall.SIGTERM)
			<-process.Wait()
		}()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &session.Session{
		Scheme:          scheme,
		Config:          conf.SessionConfig(),
		MetricsProvider: system,
	}
	if f.progress {
		bars := newProgressBars(errOut, f.blocks)
		defer bars.finish()
		s.Progress = bars.increment
	}

	logger.Infof("evaluating %d blocks with the %s backend and %d workers", f.blocks, scheme.Name(), conf.Scheduler.Workers)
	report, err := s.Run(ctx, session.Request{Key: key, IV: iv, Blocks: f.blocks})
	if report != nil {
		printReport(out, report)
	}
	return err
}

// backendChecker reports the backend unhealthy when it cannot generate keys.
type backendChecker struct {
	scheme fhe.Scheme
}

func (b *backendChecker) HealthCheck(context.Context) error {
	_, err := b.scheme.KeyGen(rand.Reader)
	return errors.WithMessagef(err, "%s key generation failed", b.scheme.Name())
}

func registerCheckers(system *operations.System, scheme fhe.Scheme) error {
	err := system.RegisterChecker("backend", &backendChecker{scheme: scheme})
	return errors.WithMessage(err, "failed registering backend health checker")
}

func printReport(w io.Writer, r *session.Report) {
	fmt.Fprintf(w, "Backend: %s\n", r.Scheme)
	fmt.Fprintf(w, "Workers: %d\n", r.Workers)
	for i := range r.Counters {
		fmt.Fprintf(w, "Block %d\n", i)
		fmt.Fprintf(w, "  Counter:    %s\n", session.FormatBlockHex(r.Counters[i]))
		if i < len(r.Ciphertexts) {
			fmt.Fprintf(w, "  Ciphertext: %s\n", session.FormatBlockHex(r.Ciphertexts[i]))
		}
		if i < len(r.Plaintexts) {
			fmt.Fprintf(w, "  Plaintext:  %s\n", session.FormatBlockHex(r.Plaintexts[i]))
		}
	}
	fmt.Fprintf(w, "Key generation: %s\n", r.KeyGenDuration)
	fmt.Fprintf(w, "Key expansion:  %s\n", r.KeyExpansionDuration)
	fmt.Fprintf(w, "Encryption:     %s\n", r.EncryptionDuration)
	fmt.Fprintf(w, "Decryption:     %s\n", r.DecryptionDuration)
	fmt.Fprintf(w, "Verified: %t\n", r.Verified)
}

// progressBars holds one bar per direction. A bar is started on the first
// block of its direction.
type progressBars struct {
	mutex  sync.Mutex
	out    io.Writer
	total  int
	bars   map[string]*pb.ProgressBar
	active *pb.ProgressBar
}

func newProgressBars(out io.Writer, total int) *progressBars {
	return &progressBars{
		out:   out,
		total: total,
		bars:  map[string]*pb.ProgressBar{},
	}
}

func (p *progressBars) increment(direction string, _ int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	bar, ok := p.bars[direction]
	if !ok {
		if p.active != nil {
			p.active.Finish()
		}
		bar = pb.New(p.total).Prefix(fmt.Sprintf("%-8s", direction))
		bar.Output = p.out
		bar.ShowSpeed = true
		bar.Start()
		p.bars[direction] = bar
		p.active = bar
	}
	bar.Increment()
	if int(bar.Get()) == p.total && bar == p.active {
		bar.Finish()
		p.active = nil
	}
}

func (p *progressBars) finish() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.active != nil {
		p.active.Finish()
		p.active = nil
	}
}
