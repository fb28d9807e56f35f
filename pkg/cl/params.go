/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

// LinkSecretAttr is the hidden attribute slot that carries the holder link secret.
const LinkSecretAttr = "master_secret"

// Bit lengths of the scheme's random values.
const (
	DefaultPrimeBits = 1024
	MinPrimeBits     = 128

	linkSecretBits  = 256
	nonceBits       = 80
	challengeBits   = 256
	statisticalBits = 80

	vPrimeBits      = 2128
	vPrimePrimeBits = 2724
	eStartBits      = 596
	eRangeBits      = 119

	vPrimeTildeBits = vPrimeBits + challengeBits + statisticalBits
	mTildeBits      = 593
	eTildeBits      = 456
	vTildeBits      = 3072
	rBits           = 2128
	uTildeBits      = 592
	rTildeBits      = rBits + challengeBits + statisticalBits
	alphaTildeBits  = 2787
)

type params struct {
	primeBits int
}

// Option configures key generation.
type Option func(opts *params)

// WithPrimeBits sets the size of the safe primes p and q. Values below
// MinPrimeBits are ignored.
func WithPrimeBits(bits int) Option {
	return func(opts *params) {
		if bits >= MinPrimeBits {
			opts.primeBits = bits
		}
	}
}

func newParams(opts []Option) *params {
	p := &params{primeBits: DefaultPrimeBits}
	for _, opt := range opts {
		opt(p)
	}

	return p
}
