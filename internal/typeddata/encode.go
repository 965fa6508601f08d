package typeddata

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Dependencies returns primaryType plus every struct type transitively
// referenced by its fields, each included exactly once. The primary type
// is always first; the caller is responsible for ordering the rest.
func (t Types) Dependencies(primaryType string, found []string) []string {
	includes := func(arr []string, str string) bool {
		for _, obj := range arr {
			if obj == str {
				return true
			}
		}
		return false
	}
	if includes(found, primaryType) {
		return found
	}
	if t[primaryType] == nil {
		return found
	}
	found = append(found, primaryType)
	for _, field := range t[primaryType] {
		for _, dep := range t.Dependencies(field.typeName(), found) {
			if !includes(found, dep) {
				found = append(found, dep)
			}
		}
	}
	return found
}

// EncodeType produces the canonical type signature for primaryType:
// "Name(type1 name1,type2 name2,...)" followed by the signatures of all
// referenced struct types, sorted lexicographically by name. The primary
// type always comes first, unmodified by the sort.
func (t Types) EncodeType(primaryType string) ([]byte, error) {
	if _, err := t.Resolve(primaryType); err != nil {
		return nil, err
	}
	deps := t.Dependencies(primaryType, []string{})
	slicedDeps := deps[1:]
	sort.Strings(slicedDeps)
	deps = append([]string{primaryType}, slicedDeps...)

	var buffer bytes.Buffer
	for _, dep := range deps {
		buffer.WriteString(dep)
		buffer.WriteString("(")
		for i, obj := range t[dep] {
			if i > 0 {
				buffer.WriteString(",")
			}
			buffer.WriteString(obj.Type)
			buffer.WriteString(" ")
			buffer.WriteString(obj.Name)
		}
		buffer.WriteString(")")
	}
	return buffer.Bytes(), nil
}

// TypeHash is the keccak256 of the canonical type signature.
func (t Types) TypeHash(primaryType string) (common.Hash, error) {
	enc, err := t.EncodeType(primaryType)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// EncodeData produces typeHash(primaryType) followed by the 32-byte
// encoding of every declared field in schema order. The schema is
// authoritative: a declared field absent from data fails with
// MISSING_FIELD, while keys in data that the schema does not declare are
// ignored.
func (t Types) EncodeData(primaryType string, data map[string]interface{}) ([]byte, error) {
	fields, err := t.Resolve(primaryType)
	if err != nil {
		return nil, err
	}
	typeHash, err := t.TypeHash(primaryType)
	if err != nil {
		return nil, err
	}

	buffer := bytes.Buffer{}
	buffer.Write(typeHash.Bytes())
	for _, field := range fields {
		value, ok := data[field.Name]
		if !ok {
			return nil, apperrors.Newf(apperrors.ErrMissingField,
				"type %q: field %q is missing from the value map", primaryType, field.Name)
		}
		encoded, err := t.encodeField(field, value)
		if err != nil {
			return nil, err
		}
		buffer.Write(encoded)
	}
	return buffer.Bytes(), nil
}

func (t Types) encodeField(field Type, value interface{}) ([]byte, error) {
	if field.isArray() {
		return t.encodeArray(field, value)
	}
	if t[field.Type] != nil {
		mapValue, ok := value.(map[string]interface{})
		if !ok {
			return nil, dataMismatchError(field.Type, value)
		}
		nested, err := t.HashStruct(field.Type, mapValue)
		if err != nil {
			return nil, err
		}
		return nested.Bytes(), nil
	}
	return encodePrimitiveValue(field.Type, value)
}

// encodeArray hashes the concatenation of the element encodings in order.
// An empty array hashes the empty byte sequence.
func (t Types) encodeArray(field Type, value interface{}) ([]byte, error) {
	arrayValue, ok := toInterfaceSlice(value)
	if !ok {
		return nil, dataMismatchError(field.Type, value)
	}
	size, err := arraySize(field.Type)
	if err != nil {
		return nil, err
	}
	if size >= 0 && len(arrayValue) != size {
		return nil, apperrors.Newf(apperrors.ErrLengthMismatch,
			"array %q: expected %d elements, got %d", field.Type, size, len(arrayValue))
	}

	elem := Type{Name: field.Name, Type: field.typeName()}
	arrayBuffer := bytes.Buffer{}
	for _, item := range arrayValue {
		encoded, err := t.encodeField(elem, item)
		if err != nil {
			return nil, err
		}
		arrayBuffer.Write(encoded)
	}
	return crypto.Keccak256(arrayBuffer.Bytes()), nil
}

// HashStruct binds a type's canonical signature to its field values:
// keccak256(typeHash || encoded fields). Identical (typeName, data,
// schema) always yields an identical hash because field order comes from
// the schema, never from map iteration.
func (t Types) HashStruct(primaryType string, data map[string]interface{}) (common.Hash, error) {
	encodedData, err := t.EncodeData(primaryType, data)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encodedData), nil
}

// SigningHash composes the final typed-data digest:
// keccak256(0x19 || 0x01 || domainSeparator || hashStruct(message)).
// The leading version/prefix pair identifies typed structured data
// framing and must be bit-exact.
func SigningHash(types Types, primaryType string, domain *Domain, message map[string]interface{}) (common.Hash, error) {
	domainSeparator, err := DomainSeparator(domain)
	if err != nil {
		return common.Hash{}, err
	}
	messageHash, err := types.HashStruct(primaryType, message)
	if err != nil {
		return common.Hash{}, err
	}
	digest := crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), messageHash.Bytes())
	return digest, nil
}

// DomainSeparator is hashStruct over the EIP712Domain schema synthesized
// from the fields present on domain.
func DomainSeparator(domain *Domain) (common.Hash, error) {
	domainTypes := Types{"EIP712Domain": domain.FieldTypes()}
	return domainTypes.HashStruct("EIP712Domain", domain.Map())
}

func encodePrimitiveValue(encType string, value interface{}) ([]byte, error) {
	switch encType {
	case "address":
		var addr common.Address
		switch v := value.(type) {
		case common.Address:
			addr = v
		case string:
			if !common.IsHexAddress(v) {
				return nil, dataMismatchError(encType, value)
			}
			addr = common.HexToAddress(v)
		default:
			return nil, dataMismatchError(encType, value)
		}
		// Right-justified into 32 bytes, 12 leading zero bytes
		retval := make([]byte, 32)
		copy(retval[12:], addr.Bytes())
		return retval, nil

	case "bool":
		boolValue, ok := value.(bool)
		if !ok {
			return nil, dataMismatchError(encType, value)
		}
		retval := make([]byte, 32)
		if boolValue {
			retval[31] = 0x01
		}
		return retval, nil

	case "string":
		strVal, ok := value.(string)
		if !ok {
			return nil, dataMismatchError(encType, value)
		}
		return crypto.Keccak256([]byte(strVal)), nil

	case "bytes":
		bytesValue, err := toByteSlice(value)
		if err != nil {
			return nil, dataMismatchError(encType, value)
		}
		return crypto.Keccak256(bytesValue), nil
	}

	if size, ok := sizedType(encType, "bytes"); ok {
		if size < 1 || size > 32 {
			return nil, apperrors.Newf(apperrors.ErrUnknownType, "invalid size on %q", encType)
		}
		bytesValue, err := toByteSlice(value)
		if err != nil {
			return nil, dataMismatchError(encType, value)
		}
		if len(bytesValue) != size {
			return nil, apperrors.Newf(apperrors.ErrLengthMismatch,
				"type %q: expected %d bytes, got %d", encType, size, len(bytesValue))
		}
		// Left-justified, zero-padded on the right
		retval := make([]byte, 32)
		copy(retval, bytesValue)
		return retval, nil
	}

	if _, ok := sizedType(encType, "uint"); ok {
		return encodeInteger(encType, value)
	}
	if _, ok := sizedType(encType, "int"); ok {
		return encodeInteger(encType, value)
	}
	return nil, apperrors.Newf(apperrors.ErrUnknownType, "unrecognized type %q", encType)
}

// encodeInteger emits the big-endian two's-complement representation
// right-justified into 32 bytes, after checking that the value fits in
// the declared bit width.
func encodeInteger(encType string, value interface{}) ([]byte, error) {
	b, err := parseInteger(encType, value)
	if err != nil {
		return nil, err
	}
	signed := encType[0] == 'i'
	var size int
	if signed {
		size, _ = sizedType(encType, "int")
	} else {
		size, _ = sizedType(encType, "uint")
	}
	if err := checkIntegerRange(encType, b, size, signed); err != nil {
		return nil, err
	}
	// U256Bytes mutates its argument, work on a copy
	return math.U256Bytes(new(big.Int).Set(b)), nil
}

func parseInteger(encType string, value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, dataMismatchError(encType, value)
		}
		return v, nil
	case string:
		var hexIntValue math.HexOrDecimal256
		if err := hexIntValue.UnmarshalText([]byte(v)); err != nil {
			return nil, dataMismatchError(encType, value)
		}
		return (*big.Int)(&hexIntValue), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		// json.Unmarshal delivers numbers as float64
		if float64(int64(v)) != v {
			return nil, dataMismatchError(encType, value)
		}
		return big.NewInt(int64(v)), nil
	default:
		return nil, dataMismatchError(encType, value)
	}
}

func checkIntegerRange(encType string, b *big.Int, size int, signed bool) error {
	if signed {
		// [-2^(N-1), 2^(N-1)-1]
		if b.Sign() < 0 {
			min := new(big.Int).Lsh(big.NewInt(1), uint(size-1))
			min.Neg(min)
			if b.Cmp(min) < 0 {
				return apperrors.Newf(apperrors.ErrOutOfRange, "value %s does not fit in %s", b, encType)
			}
			return nil
		}
		if b.BitLen() > size-1 {
			return apperrors.Newf(apperrors.ErrOutOfRange, "value %s does not fit in %s", b, encType)
		}
		return nil
	}
	if b.Sign() < 0 || b.BitLen() > size {
		return apperrors.Newf(apperrors.ErrOutOfRange, "value %s does not fit in %s", b, encType)
	}
	return nil
}

func toByteSlice(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case hexutil.Bytes:
		return v, nil
	case common.Hash:
		return v.Bytes(), nil
	case string:
		return hexutil.Decode(v)
	default:
		return nil, fmt.Errorf("not a byte sequence: %T", value)
	}
}

func toInterfaceSlice(value interface{}) ([]interface{}, bool) {
	if arr, ok := value.([]interface{}); ok {
		return arr, true
	}
	return nil, false
}

func dataMismatchError(encType string, value interface{}) error {
	return apperrors.Newf(apperrors.ErrInvalidRequest,
		"provided data %v does not match type %q", value, encType)
}
