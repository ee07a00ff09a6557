/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package factory

import (
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/plain"
)

const (
	// PlainFactoryName is the name of the factory of the transparent scheme.
	PlainFactoryName = plain.SchemeName
)

// PlainFactory is the factory of the transparent scheme.
type PlainFactory struct{}

// Name returns the name of this factory
func (f *PlainFactory) Name() string {
	return PlainFactoryName
}

// Get returns an instance of the transparent scheme. A trace is attached
// when PlainOpts asks for one.
func (f *PlainFactory) Get(config *FactoryOpts) (fhe.Scheme, error) {
	var trace *plain.Trace
	if config != nil && config.PlainOpts != nil && config.PlainOpts.Trace {
		trace = plain.NewTrace()
	}
	return plain.New(trace), nil
}
