// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "github.com/zeebo/blake3"

// PoPPrefix is the textual prefix for a rendered Proof-of-Possession value.
const PoPPrefix = "pop:"

// ComputePoP computes BLAKE3-128-keyed(key=atBytes, input=nodeBytes),
// rendered as "pop:" + Crockford-Base32 (spec.md §4.2). The AT's 32 bytes
// are exactly BLAKE3's keyed-mode key size.
//
// Note (spec.md §9, open question (a)): PoP is keyed over the literal AT
// bytes, nonce included. Nonces are random and not stored, so a PoP
// computed with one AT will not be reproduced by a later AT minted for the
// same delegate. This is intentional, not a bug: it ties a claim to the
// specific AT the claimant actually holds, not merely to their delegate.
func ComputePoP(at AccessToken, nodeBytes []byte) (string, error) {
	atBytes := at.Encode()
	h, err := blake3.NewKeyed(atBytes[:])
	if err != nil {
		return "", Error.Wrap(err)
	}
	if _, err := h.Write(nodeBytes); err != nil {
		return "", Error.Wrap(err)
	}
	var out [NodeKeySize]byte
	if _, err := h.Digest().Read(out[:]); err != nil {
		return "", Error.Wrap(err)
	}
	return PoPPrefix + crockford.EncodeToString(out[:]), nil
}

// VerifyPoP recomputes the PoP for nodeBytes under at and compares it to pop.
func VerifyPoP(at AccessToken, nodeBytes []byte, pop string) (bool, error) {
	want, err := ComputePoP(at, nodeBytes)
	if err != nil {
		return false, err
	}
	return want == pop, nil
}
