// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/codec"
)

func TestRealm_TextRoundTrip(t *testing.T) {
	var userID [16]byte
	copy(userID[:], "user-one-seed...")

	r := codec.DeriveRealm(userID)
	s := r.String()
	assert.Equal(t, "usr_", s[:4])

	parsed, err := codec.ParseRealm(s)
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

func TestDeriveRealm_DeterministicAndDistinctFromUserID(t *testing.T) {
	var userID [16]byte
	copy(userID[:], "user-two-seed...")

	r1 := codec.DeriveRealm(userID)
	r2 := codec.DeriveRealm(userID)
	assert.Equal(t, r1, r2)
	assert.NotEqual(t, [16]byte(r1), userID)

	var otherUser [16]byte
	copy(otherUser[:], "a-different-user")
	assert.NotEqual(t, r1, codec.DeriveRealm(otherUser))
}

func TestDepotID_TextRoundTrip(t *testing.T) {
	var d codec.DepotID
	for i := range d {
		d[i] = byte(i)
	}

	s := d.String()
	assert.Equal(t, "depot:", s[:6])

	parsed, err := codec.ParseDepotID(s)
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestDelegateID_TextRoundTripAndZero(t *testing.T) {
	var d codec.DelegateID
	assert.True(t, d.IsZero())

	for i := range d {
		d[i] = byte(0xA0 + i)
	}
	assert.False(t, d.IsZero())

	s := d.String()
	assert.Equal(t, "tkn_", s[:4])

	parsed, err := codec.ParseDelegateID(s)
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestParseRealm_RejectsWrongPrefix(t *testing.T) {
	_, err := codec.ParseRealm("depot:00000000000000000000000000")
	assert.Error(t, err)
}

func TestParseDepotID_RejectsWrongPrefix(t *testing.T) {
	_, err := codec.ParseDepotID("usr_00000000000000000000000000")
	assert.Error(t, err)
}

func TestParseDelegateID_RejectsWrongPrefix(t *testing.T) {
	_, err := codec.ParseDelegateID("usr_00000000000000000000000000")
	assert.Error(t, err)
}
