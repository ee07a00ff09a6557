/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package factory

// FactoryOpts holds configuration information used to select and
// initialize a scheme.
type FactoryOpts struct {
	Default   string     `mapstructure:"default" json:"default" yaml:"Default"`
	PlainOpts *PlainOpts `mapstructure:"PLAIN,omitempty" json:"PLAIN,omitempty" yaml:"PLAIN,omitempty"`
}

// PlainOpts contains the options for the PlainFactory.
type PlainOpts struct {
	// Trace enables recording of every primitive operation.
	Trace bool `mapstructure:"trace" json:"trace" yaml:"Trace"`
}

// GetDefaultOpts offers a default implementation for Opts
// returns a new instance every time
func GetDefaultOpts() *FactoryOpts {
	return &FactoryOpts{
		Default: SWFactoryName,
	}
}

// FactoryName returns the name of the selected scheme factory.
func (o *FactoryOpts) FactoryName() string {
	if o.Default == "" {
		return SWFactoryName
	}
	return o.Default
}
