/*
Copyright the FHE-AES128 authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"crypto/aes"
	"fmt"
	"io"
	"os"

	"github.com/lla-dane/FHE-AES128/common/metadata"
	"github.com/lla-dane/FHE-AES128/fheaes"
	"github.com/lla-dane/FHE-AES128/internal/session"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

const errorPrefix = "aesref: "

type app struct {
	*kingpin.Application

	ctr      *kingpin.CmdClause
	ctrKey   *string
	ctrIV    *string
	ctrCount *int

	expand    *kingpin.CmdClause
	expandKey *string
}

func newApp() *app {
	a := &app{Application: kingpin.New("aesref", "Plaintext AES-128 reference vectors")}
	a.Version(metadata.Version)

	a.ctr = a.Command("ctr", "Print the counter blocks starting at an IV and their encryption.")
	a.ctrKey = a.ctr.Arg("key", "AES-128 key as 32 hex digits.").Required().String()
	a.ctrIV = a.ctr.Arg("iv", "Initial counter block as 32 hex digits.").Required().String()
	a.ctrCount = a.ctr.Flag("blocks", "Number of counter blocks.").Short('n').Default("1").Int()

	a.expand = a.Command("expand", "Print the expanded key schedule.")
	a.expandKey = a.expand.Arg("key", "AES-128 key as 32 hex digits.").Required().String()
	return a
}

func (a *app) run(args []string, out io.Writer) error {
	command, err := a.Parse(args)
	if err != nil {
		return errors.WithMessage(err, "parsing arguments")
	}

	switch command {
	case a.ctr.FullCommand():
		return counterVectors(out, *a.ctrKey, *a.ctrIV, *a.ctrCount)
	case a.expand.FullCommand():
		return roundKeys(out, *a.expandKey)
	}
	return errors.Errorf("unknown command %s", command)
}

func counterVectors(out io.Writer, keyHex, ivHex string, n int) error {
	if n <= 0 {
		return errors.Errorf("number of blocks must be greater than 0, got %d", n)
	}
	key, err := session.ParseBlockHex(keyHex)
	if err != nil {
		return errors.WithMessage(err, "invalid key")
	}
	iv, err := session.ParseBlockHex(ivHex)
	if err != nil {
		return errors.WithMessage(err, "invalid IV")
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return err
	}
	for i, counter := range fheaes.CounterBlocks(iv, n) {
		var ct [fheaes.BlockSize]byte
		block.Encrypt(ct[:], counter[:])
		fmt.Fprintf(out, "%d %s %s\n", i, session.FormatBlockHex(counter), session.FormatBlockHex(ct))
	}
	return nil
}

func roundKeys(out io.Writer, keyHex string) error {
	key, err := session.ParseBlockHex(keyHex)
	if err != nil {
		return errors.WithMessage(err, "invalid key")
	}

	xk := fheaes.ExpandKeyPlain(key)
	for r := 0; r <= fheaes.Rounds; r++ {
		var rk [fheaes.BlockSize]byte
		copy(rk[:], xk[r*fheaes.BlockSize:])
		fmt.Fprintf(out, "%2d %s\n", r, session.FormatBlockHex(rk))
	}
	return nil
}

func main() {
	if err := newApp().run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s%s\n", errorPrefix, err)
		os.Exit(1)
	}
}
