/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/accumulator"
)

// TailsVersion is the leading version word of a tails file.
const TailsVersion uint16 = 2

const tailSize = bn254.SizeOfG2AffineCompressed

// TailsWriter stores an encoded tails file and returns where it lives.
type TailsWriter interface {
	WriteTails(ctx context.Context, hash string, data []byte) (location string, err error)
}

// TailsReader fetches an encoded tails file by location.
type TailsReader interface {
	ReadTails(ctx context.Context, location string) ([]byte, error)
}

// EncodeTails serializes tails as a big endian version word followed by the
// compressed points in index order.
func EncodeTails(tails accumulator.MemoryTails) []byte {
	out := make([]byte, 2, 2+len(tails)*tailSize)
	binary.BigEndian.PutUint16(out, TailsVersion)

	for i := range tails {
		b := tails[i].Bytes()
		out = append(out, b[:]...)
	}

	return out
}

// DecodeTails parses an encoded tails file.
func DecodeTails(data []byte) (accumulator.MemoryTails, error) {
	if len(data) < 2 {
		return nil, errors.New("tails file is too short")
	}

	if v := binary.BigEndian.Uint16(data); v != TailsVersion {
		return nil, errors.Errorf("unsupported tails file version %d", v)
	}

	body := data[2:]
	if len(body)%tailSize != 0 {
		return nil, errors.Errorf("tails file body of %d bytes is not a whole number of points", len(body))
	}

	out := make(accumulator.MemoryTails, len(body)/tailSize)
	for i := range out {
		if _, err := out[i].SetBytes(body[i*tailSize : (i+1)*tailSize]); err != nil {
			return nil, errors.Wrapf(err, "invalid tail %d", i+1)
		}
	}

	return out, nil
}

// TailsHash is the base58 SHA-256 of an encoded tails file.
func TailsHash(data []byte) string {
	h := sha256.Sum256(data)
	return base58.Encode(h[:])
}

// WriteTails encodes and stores tails, returning the hash and location.
func WriteTails(ctx context.Context, w TailsWriter, tails accumulator.MemoryTails) (hash, location string, err error) {
	data := EncodeTails(tails)
	hash = TailsHash(data)

	location, err = w.WriteTails(ctx, hash, data)
	if err != nil {
		return "", "", errors.Wrap(err, "unable to write tails file")
	}

	return hash, location, nil
}

// LoadTails reads a tails file, checks it against hash and that it holds
// 2*maxCredNum points.
func LoadTails(ctx context.Context, r TailsReader, location, hash string, maxCredNum uint32) (accumulator.MemoryTails,
	error) {
	data, err := r.ReadTails(ctx, location)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read tails file %s", location)
	}

	if got := TailsHash(data); got != hash {
		return nil, errors.Errorf("tails file hash %s does not match %s", got, hash)
	}

	tails, err := DecodeTails(data)
	if err != nil {
		return nil, err
	}

	if uint64(len(tails)) != 2*uint64(maxCredNum) {
		return nil, errors.Errorf("tails file holds %d points, expected %d", len(tails), 2*maxCredNum)
	}

	return tails, nil
}
