// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/codec"
)

func newDelegateID(t *testing.T, seed byte) codec.DelegateID {
	t.Helper()
	var id codec.DelegateID
	for i := range id {
		id[i] = seed
	}
	return id
}

func TestAccessToken_RoundTrip(t *testing.T) {
	delegate := newDelegateID(t, 0x11)
	expires := time.Now().Add(time.Hour).Truncate(time.Millisecond)

	at, err := codec.NewAccessToken(delegate, expires)
	require.NoError(t, err)

	raw := at.Encode()
	assert.Len(t, raw, codec.ATSize)
	assert.Equal(t, 32, codec.ATSize)

	decoded, err := codec.DecodeAccessToken(raw[:])
	require.NoError(t, err)
	assert.Equal(t, delegate, decoded.DelegateID)
	assert.True(t, expires.Equal(decoded.ExpiresAt))
	assert.Equal(t, at.Nonce, decoded.Nonce)

	parsed, err := codec.ParseAccessToken(at.String())
	require.NoError(t, err)
	assert.Equal(t, at, parsed)
}

func TestAccessToken_NoncesAreRandom(t *testing.T) {
	delegate := newDelegateID(t, 0x22)
	expires := time.Now().Add(time.Hour)

	at1, err := codec.NewAccessToken(delegate, expires)
	require.NoError(t, err)
	at2, err := codec.NewAccessToken(delegate, expires)
	require.NoError(t, err)

	assert.NotEqual(t, at1.Nonce, at2.Nonce)
	assert.NotEqual(t, at1.String(), at2.String())
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	delegate := newDelegateID(t, 0x33)

	rt, err := codec.NewRefreshToken(delegate)
	require.NoError(t, err)

	raw := rt.Encode()
	assert.Len(t, raw, codec.RTSize)
	assert.Equal(t, 24, codec.RTSize)

	decoded, err := codec.DecodeRefreshToken(raw[:])
	require.NoError(t, err)
	assert.Equal(t, delegate, decoded.DelegateID)
	assert.Equal(t, rt.Nonce, decoded.Nonce)

	parsed, err := codec.ParseRefreshToken(rt.String())
	require.NoError(t, err)
	assert.Equal(t, rt, parsed)
}

func TestDecodeAccessToken_RejectsWrongLength(t *testing.T) {
	_, err := codec.DecodeAccessToken(make([]byte, codec.RTSize))
	assert.Error(t, err)
}

func TestDecodeRefreshToken_RejectsWrongLength(t *testing.T) {
	_, err := codec.DecodeRefreshToken(make([]byte, codec.ATSize))
	assert.Error(t, err)
}

func TestClassifyBearerBytes(t *testing.T) {
	assert.Equal(t, codec.BearerAccessToken, codec.ClassifyBearerBytes(make([]byte, codec.ATSize)))
	assert.Equal(t, codec.BearerRefreshToken, codec.ClassifyBearerBytes(make([]byte, codec.RTSize)))
	assert.Equal(t, codec.BearerUnknown, codec.ClassifyBearerBytes(make([]byte, 10)))
}
