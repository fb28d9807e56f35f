/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
)

var logger = log.New("anoncreds/tails-s3")

const contentType = "application/octet-stream"

type s3Uploader interface {
	PutObject(
		ctx context.Context,
		input *s3.PutObjectInput,
		opts ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)

	GetObject(
		ctx context.Context,
		input *s3.GetObjectInput,
		opts ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)
}

// Store keeps tails files in an S3 bucket, keyed by their hash.
type Store struct {
	s3Client s3Uploader
	bucket   string
	region   string
	hostName string
}

// NewStore creates Store.
func NewStore(
	s3Uploader s3Uploader,
	bucket string,
	region string,
	hostName string,
) *Store {
	return &Store{
		s3Client: s3Uploader,
		bucket:   bucket,
		region:   region,
		hostName: hostName,
	}
}

// New creates a Store from the default AWS configuration chain. A non
// empty endpoint overrides the S3 endpoint, for S3 compatible services.
func New(ctx context.Context, bucket, region, endpoint string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region),
		awsconfig.WithEndpointResolverWithOptions(prepareResolver(endpoint, region)))
	if err != nil {
		return nil, errors.Wrap(err, "unable to load aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = endpoint != ""
	})

	hostName := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	if hostName != "" {
		hostName += "/" + bucket
	}

	return NewStore(client, bucket, region, hostName), nil
}

func prepareResolver(endpoint string, reg string) aws.EndpointResolverWithOptionsFunc {
	return func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if endpoint != "" && service == s3.ServiceID && region == reg {
			return aws.Endpoint{
				URL:               endpoint,
				SigningRegion:     reg,
				HostnameImmutable: true,
			}, nil
		}

		return aws.Endpoint{SigningRegion: reg}, &aws.EndpointNotFoundError{}
	}
}

// WriteTails uploads data under hash and returns its resource URL.
func (p *Store) WriteTails(ctx context.Context, hash string, data []byte) (string, error) {
	_, err := p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Body:        bytes.NewReader(data),
		Key:         aws.String(hash),
		Bucket:      aws.String(p.bucket),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "unable to upload tails file %s", hash)
	}

	location := p.GetResourceURL(hash)

	logger.Debug("tails file uploaded", logfields.WithTailsLocation(location))

	return location, nil
}

// ReadTails downloads the tails file at location, which is either a key
// or a resource URL returned by WriteTails.
func (p *Store) ReadTails(ctx context.Context, location string) ([]byte, error) {
	key := location[strings.LastIndex(location, "/")+1:]
	if key == "" {
		return nil, errors.Errorf("no object key in tails location %q", location)
	}

	res, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to download tails file %s", key)
	}

	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read tails file")
	}

	return data, nil
}

func (p *Store) GetResourceURL(key string) string {
	hostName := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", p.bucket, p.region)

	if p.hostName != "" {
		hostName = fmt.Sprintf("https://%s", p.hostName)
	}

	return fmt.Sprintf("%s/%s", hostName, key)
}
