/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"io"
	"os"

	"github.com/lla-dane/FHE-AES128/common/metadata"
	"github.com/spf13/cobra"
)

// The main command describes the service and
// defaults to printing the help message.
func mainCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          metadata.ProgramName,
		Short:        "Evaluates AES-128 over encrypted bytes.",
		SilenceUsage: true,
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to the configuration file")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(configCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

var configPath string

func main() {
	// On failure Cobra prints the error string, so we only
	// need to exit with a non-0 status
	if mainCmd(os.Stdout).Execute() != nil {
		os.Exit(1)
	}
}
