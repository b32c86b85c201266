// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"time"
)

// ATSize and RTSize are the only two valid Authorization bearer-credential
// lengths besides a JWT; length alone disambiguates them (spec.md §3).
const (
	ATSize = 16 + 8 + 8 // delegateId || expiresAt(u64 LE ms) || nonce
	RTSize = 16 + 8     // delegateId || nonce
)

// AccessToken is the 32-byte Access Token. Its bytes are also the keying
// material for Proof-of-Possession (spec.md §4.2).
type AccessToken struct {
	DelegateID DelegateID
	ExpiresAt  time.Time
	Nonce      uint64
}

// Encode renders the canonical 32-byte binary form.
func (t AccessToken) Encode() [ATSize]byte {
	var out [ATSize]byte
	copy(out[0:16], t.DelegateID[:])
	binary.LittleEndian.PutUint64(out[16:24], uint64(t.ExpiresAt.UnixMilli()))
	binary.LittleEndian.PutUint64(out[24:32], t.Nonce)
	return out
}

// String renders the token as Base64-URL, as it travels on the wire.
func (t AccessToken) String() string {
	raw := t.Encode()
	return base64.RawURLEncoding.EncodeToString(raw[:])
}

// DecodeAccessToken parses the 32-byte binary form.
func DecodeAccessToken(raw []byte) (AccessToken, error) {
	if len(raw) != ATSize {
		return AccessToken{}, ErrMalformedNode.New("access token must be %d bytes, got %d", ATSize, len(raw))
	}
	var t AccessToken
	copy(t.DelegateID[:], raw[0:16])
	t.ExpiresAt = time.UnixMilli(int64(binary.LittleEndian.Uint64(raw[16:24])))
	t.Nonce = binary.LittleEndian.Uint64(raw[24:32])
	return t, nil
}

// ParseAccessToken decodes the Base64-URL wire form.
func ParseAccessToken(s string) (AccessToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return AccessToken{}, Error.Wrap(err)
	}
	return DecodeAccessToken(raw)
}

// NewAccessToken mints a fresh AT with a cryptographically random nonce.
func NewAccessToken(delegate DelegateID, expiresAt time.Time) (AccessToken, error) {
	nonce, err := randomNonce()
	if err != nil {
		return AccessToken{}, Error.Wrap(err)
	}
	return AccessToken{DelegateID: delegate, ExpiresAt: expiresAt, Nonce: nonce}, nil
}

// RefreshToken is the 24-byte Refresh Token. RTs are long-lived and are not
// rotated on use by default.
type RefreshToken struct {
	DelegateID DelegateID
	Nonce      uint64
}

// Encode renders the canonical 24-byte binary form.
func (t RefreshToken) Encode() [RTSize]byte {
	var out [RTSize]byte
	copy(out[0:16], t.DelegateID[:])
	binary.LittleEndian.PutUint64(out[16:24], t.Nonce)
	return out
}

// String renders the token as Base64-URL, as it travels on the wire.
func (t RefreshToken) String() string {
	raw := t.Encode()
	return base64.RawURLEncoding.EncodeToString(raw[:])
}

// DecodeRefreshToken parses the 24-byte binary form.
func DecodeRefreshToken(raw []byte) (RefreshToken, error) {
	if len(raw) != RTSize {
		return RefreshToken{}, ErrMalformedNode.New("refresh token must be %d bytes, got %d", RTSize, len(raw))
	}
	var t RefreshToken
	copy(t.DelegateID[:], raw[0:16])
	t.Nonce = binary.LittleEndian.Uint64(raw[16:24])
	return t, nil
}

// ParseRefreshToken decodes the Base64-URL wire form.
func ParseRefreshToken(s string) (RefreshToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return RefreshToken{}, Error.Wrap(err)
	}
	return DecodeRefreshToken(raw)
}

// NewRefreshToken mints a fresh RT with a cryptographically random nonce.
func NewRefreshToken(delegate DelegateID) (RefreshToken, error) {
	nonce, err := randomNonce()
	if err != nil {
		return RefreshToken{}, Error.Wrap(err)
	}
	return RefreshToken{DelegateID: delegate, Nonce: nonce}, nil
}

func randomNonce() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// BearerKind is what ClassifyBearerBytes reports: which of AT / RT the
// decoded bearer value's length indicates, per spec.md §4.5's
// disambiguation-by-length rule. ClassifyBearerBytes never returns
// BearerJWT: it does not itself decode a JWT — that is the auth pipeline's job.
type BearerKind int

const (
	BearerUnknown BearerKind = iota
	BearerJWT
	BearerAccessToken
	BearerRefreshToken
)

// ClassifyBearerBytes classifies a decoded (already base64/JWT-parsed as
// appropriate) bearer credential by raw byte length.
func ClassifyBearerBytes(raw []byte) BearerKind {
	switch len(raw) {
	case ATSize:
		return BearerAccessToken
	case RTSize:
		return BearerRefreshToken
	default:
		return BearerUnknown
	}
}
