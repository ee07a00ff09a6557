/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package factory

import (
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/lla-dane/FHE-AES128/fhe/sw"
)

const (
	// SWFactoryName is the name of the factory of the software scheme.
	SWFactoryName = sw.SchemeName
)

// SWFactory is the factory of the software scheme.
type SWFactory struct{}

// Name returns the name of this factory
func (f *SWFactory) Name() string {
	return SWFactoryName
}

// Get returns an instance of the software scheme. It takes no options.
func (f *SWFactory) Get(config *FactoryOpts) (fhe.Scheme, error) {
	return sw.New(), nil
}
