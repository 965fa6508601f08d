package signer

import (
	"testing"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test key from the reference flow. Never fund this account.
const (
	testKey     = "542667984ecd2ef899fca4e6e10fc28fcfb964c47d820009d1c1e45451e0523f"
	testAddress = "0x2f8A528EB0De3b43fD9Eb6f23D55C8D95fb7AF98"

	// Typed-data digest of the reference order, see the cow package tests.
	testDigest = "0xb80b66a20670697f1640cd97798d321bcf492df9d529995708ddafe2db9d7178"

	wantEthSignSig = "0x9258426a2a2a81c1d2d1e74fd3c5b393e689e1c48c32a49dedfb30cd64436744246103a5a81ce058f29242ad0bb387aa048f9578182c52250bea6adede492bfa1c"
	wantEip712Sig  = "0xb1a8ba1c88818a5fa42862cf256059add133912dc924ece0ed0dec772a36a9b05030595455ee65d4a955243b123ec1a9771e9f017e7c3cc9cffa658de2644a041b"
)

func TestNew(t *testing.T) {
	s, err := New(testKey, 27)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())

	// 0x prefix is tolerated
	s2, err := New("0x"+testKey, 27)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), s2.Address())
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New("", 27)
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidKey))

	_, err = New("zz", 27)
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidKey))

	// Zero is not a valid scalar in the group order
	_, err = New("0000000000000000000000000000000000000000000000000000000000000000", 27)
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidKey))

	_, err = New(testKey, 13)
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidKey))
}

func TestSignDigest_GoldenSignatures(t *testing.T) {
	s, err := New(testKey, 27)
	require.NoError(t, err)
	digest := common.HexToHash(testDigest)

	ethSig, err := s.SignDigest(digest, SchemeEthSign)
	require.NoError(t, err)
	assert.Equal(t, wantEthSignSig, ethSig.Hex())

	eipSig, err := s.SignDigest(digest, SchemeEip712)
	require.NoError(t, err)
	assert.Equal(t, wantEip712Sig, eipSig.Hex())
}

func TestSignDigest_Deterministic(t *testing.T) {
	s, err := New(testKey, 27)
	require.NoError(t, err)
	digest := common.HexToHash(testDigest)

	first, err := s.SignDigest(digest, SchemeEthSign)
	require.NoError(t, err)
	second, err := s.SignDigest(digest, SchemeEthSign)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSchemeDivergence(t *testing.T) {
	digest := common.HexToHash(testDigest)

	direct, err := SchemeEip712.SigningValue(digest)
	require.NoError(t, err)
	wrapped, err := SchemeEthSign.SigningValue(digest)
	require.NoError(t, err)

	assert.Equal(t, digest, direct)
	assert.NotEqual(t, direct, wrapped)

	// The wrap is independently re-derivable
	want := crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n32"), digest.Bytes())
	assert.Equal(t, want, wrapped)
}

func TestRecoverSigner_RoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hexutil.Encode(crypto.FromECDSA(key))

	for _, vOffset := range []int{0, 27} {
		s, err := New(keyHex, vOffset)
		require.NoError(t, err)

		digest := crypto.Keccak256Hash([]byte("round trip"))
		for _, scheme := range []Scheme{SchemeEip712, SchemeEthSign} {
			sig, err := s.SignDigest(digest, scheme)
			require.NoError(t, err)

			signingValue, err := scheme.SigningValue(digest)
			require.NoError(t, err)
			recovered, err := RecoverSigner(sig, signingValue)
			require.NoError(t, err)
			assert.Equal(t, s.Address(), recovered)
		}
	}
}

func TestParseScheme(t *testing.T) {
	scheme, err := ParseScheme("eip712")
	require.NoError(t, err)
	assert.Equal(t, SchemeEip712, scheme)

	scheme, err = ParseScheme("ethsign")
	require.NoError(t, err)
	assert.Equal(t, SchemeEthSign, scheme)

	_, err = ParseScheme("presign")
	assert.Error(t, err)
}
