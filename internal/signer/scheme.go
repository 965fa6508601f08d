package signer

import (
	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Scheme selects the wrapping applied to a typed-data digest before ECDSA
// signing. The tag travels with the order so the verifier recomputes the
// identical wrap; the two variants are not interchangeable.
type Scheme string

const (
	// SchemeEip712 signs the typed-data digest directly.
	SchemeEip712 Scheme = "eip712"
	// SchemeEthSign wraps the digest in the personal-sign message prefix
	// before signing.
	SchemeEthSign Scheme = "ethsign"
)

// ethSignPrefix is the literal 28-byte ASCII prefix asserting that a
// 32-byte payload follows.
var ethSignPrefix = []byte("\x19Ethereum Signed Message:\n32")

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeEip712:
		return SchemeEip712, nil
	case SchemeEthSign:
		return SchemeEthSign, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidRequest, "unsupported signing scheme %q", s)
	}
}

// SigningValue returns the 32-byte value actually handed to the signer
// for the given digest under this scheme.
func (s Scheme) SigningValue(digest common.Hash) (common.Hash, error) {
	switch s {
	case SchemeEip712:
		return digest, nil
	case SchemeEthSign:
		return crypto.Keccak256Hash(ethSignPrefix, digest.Bytes()), nil
	default:
		return common.Hash{}, apperrors.Newf(apperrors.ErrInvalidRequest, "unsupported signing scheme %q", string(s))
	}
}
