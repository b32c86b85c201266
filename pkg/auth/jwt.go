// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Claims is the payload of the user JWT pkg/idp's local IdP issues and this
// pipeline verifies (spec.md §4.5: "derive userId from sub").
type Claims struct {
	jwt.StandardClaims
}

// JWTVerifier verifies a signed JWT string and returns the userId carried
// in its "sub" claim. Pluggable per spec.md §4.5 ("a valid JWT for the
// configured verifier") so a deployment can swap pkg/idp's own HS256
// verifier for an external IdP's.
type JWTVerifier interface {
	Verify(tokenString string) (userID [16]byte, err error)
}

// HMACVerifier is the default JWTVerifier: HS256 with a shared secret, the
// same algorithm pkg/idp signs with.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier constructs an HMACVerifier.
func NewHMACVerifier(secret []byte) *HMACVerifier {
	return &HMACVerifier{secret: append([]byte{}, secret...)}
}

// refreshAudience marks a JWT minted by SignRefresh, so verifyClaims's
// caller can tell a refresh token from an access token signed with the
// same key (both decode and verify identically otherwise).
const refreshAudience = "casfa-refresh-token"

// Sign mints an access JWT for userID, valid until expiresAt. Exposed here
// (rather than only in pkg/idp) since the verifier and the signer must
// agree on claim shape and algorithm.
func (v *HMACVerifier) Sign(userID [16]byte, expiresAt time.Time) (string, error) {
	return v.sign(userID, expiresAt, "")
}

// SignRefresh mints a long-lived refresh JWT for userID (pkg/idp's
// "/api/local/refresh"), distinguishable from an access JWT by audience.
func (v *HMACVerifier) SignRefresh(userID [16]byte, expiresAt time.Time) (string, error) {
	return v.sign(userID, expiresAt, refreshAudience)
}

func (v *HMACVerifier) sign(userID [16]byte, expiresAt time.Time, audience string) (string, error) {
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   uuid.UUID(userID).String(),
			Audience:  audience,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", Error.Wrap(err)
	}
	return signed, nil
}

// Verify implements JWTVerifier: it accepts only access tokens (empty
// audience), rejecting a refresh JWT presented where an access JWT is
// expected.
func (v *HMACVerifier) Verify(tokenString string) ([16]byte, error) {
	claims, err := v.verifyClaims(tokenString)
	if err != nil {
		return [16]byte{}, err
	}
	if claims.Audience == refreshAudience {
		return [16]byte{}, ErrUnauthenticated.New("a refresh token cannot be used as an access token")
	}
	return v.subjectID(claims)
}

// VerifyRefresh accepts only a refresh JWT minted by SignRefresh.
func (v *HMACVerifier) VerifyRefresh(tokenString string) ([16]byte, error) {
	claims, err := v.verifyClaims(tokenString)
	if err != nil {
		return [16]byte{}, err
	}
	if claims.Audience != refreshAudience {
		return [16]byte{}, ErrUnauthenticated.New("not a refresh token")
	}
	return v.subjectID(claims)
}

func (v *HMACVerifier) verifyClaims(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, Error.New("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if verr, ok := err.(*jwt.ValidationError); ok && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return Claims{}, ErrExpired.Wrap(err)
		}
		return Claims{}, ErrUnauthenticated.Wrap(err)
	}
	if err := claims.Valid(); err != nil {
		return Claims{}, ErrUnauthenticated.Wrap(err)
	}
	return claims, nil
}

func (v *HMACVerifier) subjectID(claims Claims) ([16]byte, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return [16]byte{}, ErrUnauthenticated.New("sub is not a valid user id: %v", err)
	}
	return [16]byte(id), nil
}
