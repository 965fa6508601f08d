package typeddata

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
)

// Type is a single field of a structured type: a name plus either a
// primitive type, a reference to another registered type, or an array of
// one of those.
type Type struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (t *Type) isArray() bool {
	return strings.HasSuffix(t.Type, "]")
}

// typeName returns the element type with any array suffix stripped.
func (t *Type) typeName() string {
	if idx := strings.Index(t.Type, "["); idx >= 0 {
		return t.Type[:idx]
	}
	return t.Type
}

func (t *Type) isReferenceType() bool {
	if len(t.Type) == 0 {
		return false
	}
	// Reference types must start with an uppercase letter
	return unicode.IsUpper([]rune(t.typeName())[0])
}

// Types is the schema registry: an ordered field list per registered type
// name. It is built once per signing session and never mutated afterwards.
// Field order is significant; it fixes both the canonical type signature
// and the byte layout of encoded values.
type Types map[string][]Type

var referenceTypeRegexp = regexp.MustCompile(`^[A-Z]\w*$`)

// Resolve returns the ordered field list for typeName.
func (t Types) Resolve(typeName string) ([]Type, error) {
	fields, ok := t[typeName]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownType, "type %q is not registered", typeName)
	}
	return fields, nil
}

// Validate checks the registry invariants: every referenced type must be
// registered, a type may not directly contain a field of its own type,
// and every non-reference type must be a recognized primitive.
func (t Types) Validate() error {
	for typeKey, fields := range t {
		if len(typeKey) == 0 {
			return apperrors.Newf(apperrors.ErrUnknownType, "empty type key")
		}
		for i, field := range fields {
			if len(field.Name) == 0 {
				return apperrors.Newf(apperrors.ErrUnknownType, "type %q field %d: empty name", typeKey, i)
			}
			if len(field.Type) == 0 {
				return apperrors.Newf(apperrors.ErrUnknownType, "type %q field %d: empty type", typeKey, i)
			}
			if field.Type == typeKey {
				// Unbounded recursion; self-reference is only allowed
				// through an array.
				return apperrors.Newf(apperrors.ErrUnknownType, "type %q cannot reference itself", typeKey)
			}
			if field.isReferenceType() {
				if !referenceTypeRegexp.MatchString(field.typeName()) {
					return apperrors.Newf(apperrors.ErrUnknownType, "invalid reference type %q", field.Type)
				}
				if _, ok := t[field.typeName()]; !ok {
					return apperrors.Newf(apperrors.ErrUnknownType, "reference type %q is undefined", field.Type)
				}
			} else if !isPrimitiveType(field.typeName()) {
				return apperrors.Newf(apperrors.ErrUnknownType, "unknown type %q", field.Type)
			}
		}
	}
	return nil
}

// isPrimitiveType reports whether name (without array suffix) is one of
// the fixed primitive type names: address, bool, string, bytes, bytesN
// for N in 1..32, uintN/intN for N in 8..256 step 8.
func isPrimitiveType(name string) bool {
	switch name {
	case "address", "bool", "string", "bytes":
		return true
	}
	if n, ok := sizedType(name, "bytes"); ok {
		return n >= 1 && n <= 32
	}
	for _, prefix := range []string{"uint", "int"} {
		if n, ok := sizedType(name, prefix); ok {
			return n >= 8 && n <= 256 && n%8 == 0
		}
	}
	return false
}

func sizedType(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// arraySize parses an array type suffix. It returns -1 for a dynamic
// array ("T[]") and the declared length for a fixed one ("T[k]").
func arraySize(encType string) (int, error) {
	open := strings.Index(encType, "[")
	if open < 0 || !strings.HasSuffix(encType, "]") {
		return 0, apperrors.Newf(apperrors.ErrUnknownType, "type %q is not an array", encType)
	}
	inner := encType[open+1 : len(encType)-1]
	if inner == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return 0, apperrors.Newf(apperrors.ErrUnknownType, "invalid array size in %q", encType)
	}
	return n, nil
}

// Domain carries the contextual fields that bind a signature to one
// protocol deployment. Only the populated fields take part in the domain
// separator; the EIP712Domain schema is synthesized from exactly the
// fields that are present, in canonical order.
type Domain struct {
	Name              string   `json:"name,omitempty"`
	Version           string   `json:"version,omitempty"`
	ChainID           *big.Int `json:"chainId,omitempty"`
	VerifyingContract string   `json:"verifyingContract,omitempty"`
	Salt              []byte   `json:"salt,omitempty"`
}

// FieldTypes returns the EIP712Domain schema derived from the fields that
// are present on d. Absent optional fields are excluded entirely, not
// encoded as zero.
func (d *Domain) FieldTypes() []Type {
	fields := make([]Type, 0, 5)
	if d.Name != "" {
		fields = append(fields, Type{Name: "name", Type: "string"})
	}
	if d.Version != "" {
		fields = append(fields, Type{Name: "version", Type: "string"})
	}
	if d.ChainID != nil {
		fields = append(fields, Type{Name: "chainId", Type: "uint256"})
	}
	if d.VerifyingContract != "" {
		fields = append(fields, Type{Name: "verifyingContract", Type: "address"})
	}
	if len(d.Salt) > 0 {
		fields = append(fields, Type{Name: "salt", Type: "bytes32"})
	}
	return fields
}

// Map returns the domain value map matching FieldTypes.
func (d *Domain) Map() map[string]interface{} {
	dataMap := map[string]interface{}{}
	if d.Name != "" {
		dataMap["name"] = d.Name
	}
	if d.Version != "" {
		dataMap["version"] = d.Version
	}
	if d.ChainID != nil {
		dataMap["chainId"] = d.ChainID
	}
	if d.VerifyingContract != "" {
		dataMap["verifyingContract"] = d.VerifyingContract
	}
	if len(d.Salt) > 0 {
		dataMap["salt"] = d.Salt
	}
	return dataMap
}
