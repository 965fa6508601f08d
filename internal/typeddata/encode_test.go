package typeddata

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference example from the typed-data signing standard:
// Mail(Person from,Person to,string contents)Person(string name,address wallet)
func mailTypes() Types {
	return Types{
		"Person": []Type{
			{Name: "name", Type: "string"},
			{Name: "wallet", Type: "address"},
		},
		"Mail": []Type{
			{Name: "from", Type: "Person"},
			{Name: "to", Type: "Person"},
			{Name: "contents", Type: "string"},
		},
	}
}

func mailDomain() *Domain {
	return &Domain{
		Name:              "Ether Mail",
		Version:           "1",
		ChainID:           big.NewInt(1),
		VerifyingContract: "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC",
	}
}

func mailMessage() map[string]interface{} {
	return map[string]interface{}{
		"from": map[string]interface{}{
			"name":   "Cow",
			"wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826",
		},
		"to": map[string]interface{}{
			"name":   "Bob",
			"wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
		},
		"contents": "Hello, Bob!",
	}
}

func TestEncodeType_NestedReferences(t *testing.T) {
	types := mailTypes()

	enc, err := types.EncodeType("Mail")
	require.NoError(t, err)
	assert.Equal(t, "Mail(Person from,Person to,string contents)Person(string name,address wallet)", string(enc))

	// The referenced type's signature is part of the primary signature,
	// so changing its field list must change the primary type hash.
	types["Person"] = append(types["Person"], Type{Name: "email", Type: "string"})
	enc2, err := types.EncodeType("Mail")
	require.NoError(t, err)
	assert.NotEqual(t, string(enc), string(enc2))
}

func TestEncodeType_ReferencedTypesSortedLexicographically(t *testing.T) {
	// Zebra is discovered before Apple while walking the fields; the
	// output must still list Apple first.
	types := Types{
		"Outer": []Type{
			{Name: "z", Type: "Zebra"},
			{Name: "a", Type: "Apple"},
		},
		"Zebra": []Type{{Name: "v", Type: "uint256"}},
		"Apple": []Type{{Name: "v", Type: "uint256"}},
	}
	enc, err := types.EncodeType("Outer")
	require.NoError(t, err)
	assert.Equal(t, "Outer(Zebra z,Apple a)Apple(uint256 v)Zebra(uint256 v)", string(enc))
}

func TestEncodeType_UnknownType(t *testing.T) {
	types := mailTypes()
	_, err := types.EncodeType("Postcard")
	assert.True(t, apperrors.IsType(err, apperrors.ErrUnknownType))
}

func TestMailDigest(t *testing.T) {
	types := mailTypes()
	require.NoError(t, types.Validate())

	sep, err := DomainSeparator(mailDomain())
	require.NoError(t, err)
	assert.Equal(t, "0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f", sep.Hex())

	structHash, err := types.HashStruct("Mail", mailMessage())
	require.NoError(t, err)
	assert.Equal(t, "0xc52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e", structHash.Hex())

	digest, err := SigningHash(types, "Mail", mailDomain(), mailMessage())
	require.NoError(t, err)
	assert.Equal(t, "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", digest.Hex())
}

func TestHashStruct_Deterministic(t *testing.T) {
	types := mailTypes()
	first, err := types.HashStruct("Mail", mailMessage())
	require.NoError(t, err)
	second, err := types.HashStruct("Mail", mailMessage())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncodePrimitiveValue_Padding(t *testing.T) {
	// uint256 zero encodes as 32 zero bytes
	enc, err := encodePrimitiveValue("uint256", big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 32), enc)

	// address is right-justified with 12 leading zero bytes
	enc, err = encodePrimitiveValue("address", "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14")
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 12), enc[:12])
	assert.Equal(t, "fff9976782d46cc05630d1f6ebab18b2324d6b14", hex.EncodeToString(enc[12:]))

	// bytesN is left-justified, zero-padded on the right
	enc, err = encodePrimitiveValue("bytes4", []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, enc[:4])
	assert.Equal(t, make([]byte, 28), enc[4:])

	// bool encodes as 0x00 / 0x01 right-justified
	enc, err = encodePrimitiveValue("bool", true)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), enc[31])
	enc, err = encodePrimitiveValue("bool", false)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 32), enc)
}

func TestEncodePrimitiveValue_OutOfRange(t *testing.T) {
	_, err := encodePrimitiveValue("uint8", big.NewInt(256))
	assert.True(t, apperrors.IsType(err, apperrors.ErrOutOfRange))

	_, err = encodePrimitiveValue("uint256", big.NewInt(-1))
	assert.True(t, apperrors.IsType(err, apperrors.ErrOutOfRange))

	_, err = encodePrimitiveValue("int8", big.NewInt(128))
	assert.True(t, apperrors.IsType(err, apperrors.ErrOutOfRange))

	_, err = encodePrimitiveValue("int8", big.NewInt(-129))
	assert.True(t, apperrors.IsType(err, apperrors.ErrOutOfRange))

	// Boundary values fit
	_, err = encodePrimitiveValue("uint8", big.NewInt(255))
	assert.NoError(t, err)
	_, err = encodePrimitiveValue("int8", big.NewInt(-128))
	assert.NoError(t, err)
}

func TestEncodePrimitiveValue_LengthMismatch(t *testing.T) {
	_, err := encodePrimitiveValue("bytes32", []byte{0x01, 0x02})
	assert.True(t, apperrors.IsType(err, apperrors.ErrLengthMismatch))
}

func TestEncodeData_MissingField(t *testing.T) {
	types := mailTypes()
	msg := mailMessage()
	delete(msg, "contents")
	_, err := types.EncodeData("Mail", msg)
	assert.True(t, apperrors.IsType(err, apperrors.ErrMissingField))
}

func TestEncodeData_ExtraFieldsIgnored(t *testing.T) {
	types := mailTypes()
	msg := mailMessage()
	base, err := types.HashStruct("Mail", msg)
	require.NoError(t, err)

	msg["unexpected"] = "ignored"
	withExtra, err := types.HashStruct("Mail", msg)
	require.NoError(t, err)
	assert.Equal(t, base, withExtra)
}

func TestEncodeArray(t *testing.T) {
	types := Types{
		"Batch": []Type{
			{Name: "ids", Type: "uint256[]"},
		},
	}

	// Empty array hashes the empty byte sequence. The encoding is
	// typeHash || arrayHash, one 32-byte slot per field.
	enc, err := types.EncodeData("Batch", map[string]interface{}{
		"ids": []interface{}{},
	})
	require.NoError(t, err)
	require.Len(t, enc, 64)
	assert.Equal(t, crypto.Keccak256(nil), enc[32:64])

	// Non-empty array hashes the concatenation of element encodings
	enc, err = types.EncodeData("Batch", map[string]interface{}{
		"ids": []interface{}{big.NewInt(1), big.NewInt(2)},
	})
	require.NoError(t, err)
	require.Len(t, enc, 64)
	one, _ := encodePrimitiveValue("uint256", big.NewInt(1))
	two, _ := encodePrimitiveValue("uint256", big.NewInt(2))
	assert.Equal(t, crypto.Keccak256(append(one, two...)), enc[32:64])
}

func TestEncodeArray_FixedSize(t *testing.T) {
	types := Types{
		"Pair": []Type{
			{Name: "ids", Type: "uint256[2]"},
		},
	}
	_, err := types.EncodeData("Pair", map[string]interface{}{
		"ids": []interface{}{big.NewInt(1)},
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrLengthMismatch))

	_, err = types.EncodeData("Pair", map[string]interface{}{
		"ids": []interface{}{big.NewInt(1), big.NewInt(2)},
	})
	assert.NoError(t, err)
}
