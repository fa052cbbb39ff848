// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
)

// zstdExt marks compressed bank objects.
const zstdExt = ".zst"

// maxObjectSize bounds how much of an object is read. Built-in banks are a
// few megabytes at most.
const maxObjectSize = 512 << 20

// ErrBadURI is returned by ParseURI.
var ErrBadURI = errors.New("invalid object URI")

// ObjectGetter is the part of the S3 client Fetch needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// Object addresses one object in a bucket.
type Object struct {
	Bucket string
	Key    string
}

func (o Object) String() string {
	return "s3://" + o.Bucket + "/" + o.Key
}

// Compressed reports whether the object holds a zstd stream.
func (o Object) Compressed() bool {
	return strings.HasSuffix(o.Key, zstdExt)
}

// ParseURI parses s3://bucket/key.
func ParseURI(uri string) (Object, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return Object{}, fmt.Errorf("%w: %q does not start with s3://", ErrBadURI, uri)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return Object{}, fmt.Errorf("%w: %q needs a bucket and a key", ErrBadURI, uri)
	}
	return Object{Bucket: bucket, Key: key}, nil
}

// Fetch downloads obj. Keys ending in .zst are decompressed.
func Fetch(ctx context.Context, client ObjectGetter, obj Object) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(obj.Bucket),
		Key:    awsv2.String(obj.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", obj, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", obj, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", obj, maxObjectSize)
	}
	log.Debugf("fetched %d bytes from %s", len(data), obj)

	if !obj.Compressed() {
		return data, nil
	}
	return Decompress(data)
}

// Decompress inflates a zstd stream.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxObjectSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

// Compress deflates data into a zstd stream, the format Fetch expects for
// .zst keys.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
