package jwt

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidCACert    = errors.New("invalid CA certificate")
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSignature is returned when no key of the set verifies the
	// token's signature.
	ErrInvalidSignature = errors.New("invalid signature")
)
