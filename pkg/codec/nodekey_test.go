// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/codec"
)

func TestDeriveNodeKey_Deterministic(t *testing.T) {
	content := []byte("hello\n")

	k1 := codec.DeriveNodeKey(content)
	k2 := codec.DeriveNodeKey(content)
	assert.Equal(t, k1, k2)

	other := codec.DeriveNodeKey([]byte("hello\n\n"))
	assert.NotEqual(t, k1, other)

	assert.True(t, codec.VerifyNodeKey(k1, content))
	assert.False(t, codec.VerifyNodeKey(k1, []byte("tampered")))
}

func TestNodeKey_TextRoundTrip(t *testing.T) {
	k := codec.DeriveNodeKey([]byte("round trip me"))

	s := k.String()
	assert.Equal(t, "nod_", s[:4])

	parsed, err := codec.ParseNodeKey(s)
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestNodeKey_SizeFlagVariesByLength(t *testing.T) {
	small := codec.DeriveNodeKey(make([]byte, 10))
	medium := codec.DeriveNodeKey(make([]byte, 10000))
	large := codec.DeriveNodeKey(make([]byte, 2<<20))

	assert.NotEqual(t, small[0], medium[0])
	assert.NotEqual(t, medium[0], large[0])
}

func TestParseNodeKey_RejectsBadInput(t *testing.T) {
	for _, tt := range []string{
		"",
		"nod_",
		"usr_00000000000000000000000000",
		"nod_00",
	} {
		_, err := codec.ParseNodeKey(tt)
		assert.Error(t, err, tt)
	}
}
