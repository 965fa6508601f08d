package signer

import (
	"crypto/ecdsa"
	"strings"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signature is a 65-byte recoverable ECDSA signature: r || s || v.
type Signature [65]byte

func (sig Signature) Hex() string {
	return hexutil.Encode(sig[:])
}

func (sig Signature) V() byte {
	return sig[64]
}

// Signer signs 32-byte hashes with a secp256k1 private key. Signing is
// deterministic: repeated calls over the same hash and key are
// byte-identical.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address

	// vOffset is added to the raw 0/1 recovery id. The submission
	// service's expected convention is a configuration constant, not
	// inferred: 27 for the common 27/28 style, 0 for a raw recovery id.
	vOffset byte
}

// New parses a hex private key and derives the signing address. A key
// that is not a valid scalar in the curve's group order fails with
// INVALID_KEY.
func New(privateKeyHex string, vOffset int) (*Signer, error) {
	if privateKeyHex == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidKey, "private key is required")
	}
	if vOffset != 0 && vOffset != 27 {
		return nil, apperrors.Newf(apperrors.ErrInvalidKey, "unsupported recovery id offset %d", vOffset)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidKey, "invalid private key", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		vOffset: byte(vOffset),
	}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

// SignDigest wraps the typed-data digest per the scheme and signs the
// resulting 32-byte value.
func (s *Signer) SignDigest(digest common.Hash, scheme Scheme) (Signature, error) {
	signingValue, err := scheme.SigningValue(digest)
	if err != nil {
		return Signature{}, err
	}
	return s.SignHash(signingValue)
}

// SignHash signs a 32-byte hash, normalizing v to the configured
// convention.
func (s *Signer) SignHash(hash common.Hash) (Signature, error) {
	raw, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return Signature{}, apperrors.New(apperrors.ErrInvalidKey, "signing failed", err)
	}
	var sig Signature
	copy(sig[:], raw)
	sig[64] += s.vOffset
	return sig, nil
}

// RecoverSigner returns the address that produced sig over signingValue.
// It accepts both v conventions.
func RecoverSigner(sig Signature, signingValue common.Hash) (common.Address, error) {
	raw := make([]byte, 65)
	copy(raw, sig[:])
	if raw[64] >= 27 {
		raw[64] -= 27
	}
	pub, err := crypto.SigToPub(signingValue.Bytes(), raw)
	if err != nil {
		return common.Address{}, apperrors.New(apperrors.ErrInvalidKey, "signature recovery failed", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
