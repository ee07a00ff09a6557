/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package factory selects an encrypted-byte scheme from configuration.
package factory

import (
	"strings"

	"github.com/lla-dane/FHE-AES128/common/flogging"
	"github.com/lla-dane/FHE-AES128/fhe"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("fhe.factory")

// SchemeFactory is used to get instances of the fhe.Scheme interface.
type SchemeFactory interface {
	// Name returns an identifier of this factory.
	Name() string

	// Get returns an instance of fhe.Scheme using opts.
	Get(opts *FactoryOpts) (fhe.Scheme, error)
}

var factories = map[string]SchemeFactory{
	SWFactoryName:    &SWFactory{},
	PlainFactoryName: &PlainFactory{},
}

// GetScheme returns the scheme selected by opts. A nil opts selects the
// default options.
func GetScheme(opts *FactoryOpts) (fhe.Scheme, error) {
	if opts == nil {
		opts = GetDefaultOpts()
	}

	name := strings.ToUpper(opts.FactoryName())
	f, ok := factories[name]
	if !ok {
		return nil, errors.Errorf("could not find scheme, no '%s' provider", opts.FactoryName())
	}

	s, err := f.Get(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed initializing %s scheme", name)
	}
	logger.Debugf("initialized %s scheme", name)
	return s, nil
}
