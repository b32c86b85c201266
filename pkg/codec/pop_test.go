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

func TestComputePoP_VerifiesAgainstSameAT(t *testing.T) {
	delegate := newDelegateID(t, 0x44)
	at, err := codec.NewAccessToken(delegate, time.Now().Add(time.Hour))
	require.NoError(t, err)

	nodeBytes := (&codec.File{ContentType: "text/plain", Payload: []byte("hi")}).Encode()

	pop, err := codec.ComputePoP(at, nodeBytes)
	require.NoError(t, err)
	assert.Equal(t, "pop:", pop[:4])

	ok, err := codec.VerifyPoP(at, nodeBytes, pop)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestComputePoP_TamperedBytesFailVerification(t *testing.T) {
	delegate := newDelegateID(t, 0x55)
	at, err := codec.NewAccessToken(delegate, time.Now().Add(time.Hour))
	require.NoError(t, err)

	nodeBytes := []byte("original")
	pop, err := codec.ComputePoP(at, nodeBytes)
	require.NoError(t, err)

	ok, err := codec.VerifyPoP(at, []byte("tampered"), pop)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComputePoP_NewATForSameDelegateDoesNotReproducePoP(t *testing.T) {
	// spec.md §9 open question (a): PoP is keyed over the literal AT bytes,
	// nonce included, so re-minting an AT for the same delegate must not
	// reproduce an older PoP.
	delegate := newDelegateID(t, 0x66)
	expires := time.Now().Add(time.Hour)

	at1, err := codec.NewAccessToken(delegate, expires)
	require.NoError(t, err)
	at2, err := codec.NewAccessToken(delegate, expires)
	require.NoError(t, err)

	nodeBytes := []byte("same content")
	pop1, err := codec.ComputePoP(at1, nodeBytes)
	require.NoError(t, err)

	ok, err := codec.VerifyPoP(at2, nodeBytes, pop1)
	require.NoError(t, err)
	assert.False(t, ok)
}
