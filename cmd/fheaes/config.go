/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/lla-dane/FHE-AES128/internal/config"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration.",
		Long:  `Print the configuration after defaults, the configuration file and the environment are applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("trailing args detected")
			}
			conf, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return conf.Dump(cmd.OutOrStdout())
		},
	}
}
