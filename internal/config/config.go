/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the fheaes configuration from a YAML file and the
// environment.
package config

import (
	"io"
	"runtime"
	"strings"

	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/fhe/factory"
	"github.com/lla-dane/FHE-AES128/fheaes"
	"github.com/lla-dane/FHE-AES128/internal/pkg/scheduler"
	"github.com/lla-dane/FHE-AES128/internal/session"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var logger = flogging.MustGetLogger("config")

const (
	// Prefix is the prefix of environment overrides, as in
	// FHEAES_SCHEDULER_WORKERS.
	Prefix = "FHEAES"

	// FileName is the name of the configuration file, without extension.
	FileName = "fheaes"
)

// TopLevel is the complete configuration.
type TopLevel struct {
	Backend    factory.FactoryOpts `mapstructure:"backend" yaml:"Backend"`
	Scheduler  Scheduler           `mapstructure:"scheduler" yaml:"Scheduler"`
	Logging    Logging             `mapstructure:"logging" yaml:"Logging"`
	Metrics    Metrics             `mapstructure:"metrics" yaml:"Metrics"`
	Operations Operations          `mapstructure:"operations" yaml:"Operations"`
}

// Scheduler configures block evaluation.
type Scheduler struct {
	Workers             int  `mapstructure:"workers" yaml:"Workers"`
	MaxConcurrentBlocks int  `mapstructure:"maxConcurrentBlocks" yaml:"MaxConcurrentBlocks"`
	GenericLookup       bool `mapstructure:"genericLookup" yaml:"GenericLookup"`
}

// Logging configures the logging subsystem.
type Logging struct {
	Spec   string `mapstructure:"spec" yaml:"Spec"`
	Format string `mapstructure:"format" yaml:"Format"`
}

// Metrics selects the metrics provider: disabled or prometheus.
type Metrics struct {
	Provider string `mapstructure:"provider" yaml:"Provider"`
}

// Operations configures the operations endpoint. An empty address
// disables it.
type Operations struct {
	ListenAddress string `mapstructure:"listenAddress" yaml:"ListenAddress"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"backend.default":               factory.SWFactoryName,
		"scheduler.workers":             runtime.NumCPU(),
		"scheduler.maxConcurrentBlocks": 2,
		"scheduler.genericLookup":       false,
		"logging.spec":                  "info",
		"logging.format":                "console",
		"metrics.provider":              "disabled",
		"operations.listenAddress":      "",
	}
}

// Load reads the configuration. When path is empty the file is searched
// in the working directory and a missing file is not an error. Values
// from the environment override the file.
func Load(path string) (*TopLevel, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(Prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrap(err, "error reading configuration")
		}
		logger.Debugf("no %s configuration file found, using defaults", FileName)
	} else {
		logger.Debugf("read configuration from %s", v.ConfigFileUsed())
	}

	conf := &TopLevel{}
	err := v.Unmarshal(conf, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
		dc.WeaklyTypedInput = true
	})
	if err != nil {
		return nil, errors.Wrap(err, "error unmarshaling configuration")
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the configuration values.
func (c *TopLevel) Validate() error {
	if c.Scheduler.Workers <= 0 {
		return errors.Errorf("Scheduler.Workers must be greater than 0, got %d", c.Scheduler.Workers)
	}
	if c.Scheduler.MaxConcurrentBlocks < 0 {
		return errors.Errorf("Scheduler.MaxConcurrentBlocks must not be negative, got %d", c.Scheduler.MaxConcurrentBlocks)
	}
	switch strings.ToLower(c.Metrics.Provider) {
	case "disabled", "prometheus":
	default:
		return errors.Errorf("unknown metrics provider '%s'", c.Metrics.Provider)
	}
	return nil
}

// SessionConfig returns the session configuration.
func (c *TopLevel) SessionConfig() session.Config {
	return session.Config{
		Scheduler: scheduler.Config{Workers: c.Scheduler.Workers},
		Cipher: fheaes.Config{
			MaxConcurrentBlocks: c.Scheduler.MaxConcurrentBlocks,
			GenericLookup:       c.Scheduler.GenericLookup,
		},
	}
}

// Dump writes the configuration as YAML.
func (c *TopLevel) Dump(w io.Writer) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "error marshaling configuration")
	}
	_, err = w.Write(out)
	return err
}
