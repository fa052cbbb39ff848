// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	objects map[string][]byte
	asked   []string
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.asked = append(f.asked, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    Object
		wantErr bool
	}{
		{uri: "s3://banks/ascend/built-in/ns.json", want: Object{Bucket: "banks", Key: "ascend/built-in/ns.json"}},
		{uri: "s3://banks/ns.json.zst", want: Object{Bucket: "banks", Key: "ns.json.zst"}},
		{uri: "https://banks/ns.json", wantErr: true},
		{uri: "s3://banks", wantErr: true},
		{uri: "s3://banks/", wantErr: true},
		{uri: "s3:///ns.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.uri, got.String())
		})
	}
}

func TestFetch(t *testing.T) {
	bank := []byte(`{"fp":"[[],1]"}`)
	packed, err := Compress(bank)
	require.NoError(t, err)

	g := &fakeGetter{objects: map[string][]byte{
		"banks/ns.json":     bank,
		"banks/ns.json.zst": packed,
	}}

	got, err := Fetch(context.Background(), g, Object{Bucket: "banks", Key: "ns.json"})
	require.NoError(t, err)
	assert.Equal(t, bank, got)

	got, err = Fetch(context.Background(), g, Object{Bucket: "banks", Key: "ns.json.zst"})
	require.NoError(t, err)
	assert.Equal(t, bank, got)

	_, err = Fetch(context.Background(), g, Object{Bucket: "banks", Key: "missing.json"})
	assert.ErrorContains(t, err, "NoSuchKey")

	assert.Equal(t, []string{"banks/ns.json", "banks/ns.json.zst", "banks/missing.json"}, g.asked)
}

func TestDecompress_Garbage(t *testing.T) {
	_, err := Decompress([]byte("definitely not zstd"))
	assert.Error(t, err)
}

func TestWithS3Endpoint(t *testing.T) {
	var o s3v2.Options
	WithS3Endpoint("")(&o)
	assert.Nil(t, o.BaseEndpoint)
	assert.False(t, o.UsePathStyle)

	WithS3Endpoint("http://localhost:9000")(&o)
	require.NotNil(t, o.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *o.BaseEndpoint)
	assert.True(t, o.UsePathStyle)
}
