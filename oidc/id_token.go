// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// IdToken is an oidc id_token
type IdToken string

// RedactedIdToken is the redacted string or json for an oidc id_token
const RedactedIdToken = "[REDACTED: id_token]"

// String will redact the token
func (t IdToken) String() string {
	return RedactedIdToken
}

// MarshalJSON will redact the token
func (t IdToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIdToken)
}

// DecodedJWT is a structurally valid id_token split into its header and
// payload claims. The signature is not verified.
type DecodedJWT struct {
	IdToken IdToken
	Header  Claims
	Payload Claims
}

// DecodeIdToken decodes a compact serialized JWT and validates its
// structure: it must have exactly three segments, the header and payload
// must be base64url encoded JSON objects, the payload must contain a "sub"
// and its "nonce" must equal expectedNonce. Missing base64 padding is
// tolerated.
//
// DecodeIdToken does not verify the token's signature.
func DecodeIdToken(jwt string, expectedNonce string) (*DecodedJWT, error) {
	const op = "oidc.DecodeIdToken"
	parts := strings.Split(jwt, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%s: expected 3 segments and got %d: %w", op, len(parts), ErrMalformedToken)
	}
	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%s: header: %s: %w", op, err, ErrMalformedToken)
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s: payload: %s: %w", op, err, ErrMalformedToken)
	}

	sub, ok := payload.String("sub")
	if !ok || sub == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSubject)
	}
	nonce, _ := payload.String("nonce")
	if expectedNonce == "" || subtle.ConstantTimeCompare([]byte(nonce), []byte(expectedNonce)) != 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrNonceMismatch)
	}

	return &DecodedJWT{
		IdToken: IdToken(jwt),
		Header:  header,
		Payload: payload,
	}, nil
}

// decodeSegment restores the standard base64 alphabet and padding of a
// base64url segment and decodes it into claims.
func decodeSegment(seg string) (Claims, error) {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(seg)
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("not valid utf-8")
	}
	return UnmarshalClaims(raw)
}

// ClaimKind is the type of a claim value.
type ClaimKind int

const (
	ClaimNull ClaimKind = iota
	ClaimString
	ClaimNumber
	ClaimBool
	// ClaimJSON is a nested array or object, kept as its JSON text.
	ClaimJSON
)

// Claim is a single claim value: a string, a number, a bool or null. Arrays
// and objects are kept undecoded as ClaimJSON.
type Claim struct {
	kind ClaimKind
	str  string
	num  json.Number
	b    bool
	raw  json.RawMessage
}

// StringClaim returns a string claim.
func StringClaim(s string) Claim { return Claim{kind: ClaimString, str: s} }

// NumberClaim returns a number claim.
func NumberClaim(n json.Number) Claim { return Claim{kind: ClaimNumber, num: n} }

// BoolClaim returns a bool claim.
func BoolClaim(b bool) Claim { return Claim{kind: ClaimBool, b: b} }

// NullClaim returns a null claim.
func NullClaim() Claim { return Claim{kind: ClaimNull} }

// Kind returns the claim's type.
func (c Claim) Kind() ClaimKind { return c.kind }

// AsString returns the value of a string claim.
func (c Claim) AsString() (string, bool) { return c.str, c.kind == ClaimString }

// AsNumber returns the value of a number claim.
func (c Claim) AsNumber() (json.Number, bool) { return c.num, c.kind == ClaimNumber }

// AsBool returns the value of a bool claim.
func (c Claim) AsBool() (bool, bool) { return c.b, c.kind == ClaimBool }

// IsNull reports whether the claim is null.
func (c Claim) IsNull() bool { return c.kind == ClaimNull }

// Raw returns the JSON text of the claim.
func (c Claim) Raw() json.RawMessage {
	switch c.kind {
	case ClaimString:
		b, _ := json.Marshal(c.str)
		return b
	case ClaimNumber:
		return json.RawMessage(c.num)
	case ClaimBool:
		if c.b {
			return json.RawMessage("true")
		}
		return json.RawMessage("false")
	case ClaimJSON:
		return c.raw
	default:
		return json.RawMessage("null")
	}
}

// MarshalJSON implements json.Marshaler.
func (c Claim) MarshalJSON() ([]byte, error) { return c.Raw(), nil }

// Claims is a set of JWT claims keyed by claim name.
type Claims map[string]Claim

// UnmarshalClaims decodes a JSON object claim-by-claim.
func UnmarshalClaims(data []byte) (Claims, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("claims are not a json object")
	}
	claims := make(Claims, len(raw))
	for k, v := range raw {
		c, err := unmarshalClaim(v)
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", k, err)
		}
		claims[k] = c
	}
	return claims, nil
}

func unmarshalClaim(v json.RawMessage) (Claim, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return Claim{}, fmt.Errorf("empty value")
	}
	switch v[0] {
	case 'n':
		return NullClaim(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return Claim{}, err
		}
		return BoolClaim(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Claim{}, err
		}
		return StringClaim(s), nil
	case '{', '[':
		return Claim{kind: ClaimJSON, raw: append(json.RawMessage(nil), v...)}, nil
	default:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return Claim{}, err
		}
		return NumberClaim(n), nil
	}
}

// String returns the named string claim.
func (c Claims) String(name string) (string, bool) {
	v, ok := c[name]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Int64 returns the named number claim truncated to an integer.
func (c Claims) Int64(name string) (int64, bool) {
	v, ok := c[name]
	if !ok {
		return 0, false
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// Subject returns the "sub" claim.
func (c Claims) Subject() string {
	s, _ := c.String("sub")
	return s
}
