package cow

import (
	"encoding/json"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AppDataDoc is the out-of-band metadata object whose hash is embedded
// in the order's appData field.
type AppDataDoc struct {
	Version  string                 `json:"version"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Hash computes keccak256 over the canonical JSON encoding of the
// document. Canonical means the struct's declared key order, map keys
// sorted, and no extraneous whitespace; the encoding is hashed verbatim,
// so any drift here changes appData and with it the order digest.
func (d AppDataDoc) Hash() (common.Hash, error) {
	if d.Metadata == nil {
		d.Metadata = map[string]interface{}{}
	}
	encoded, err := json.Marshal(d)
	if err != nil {
		return common.Hash{}, apperrors.New(apperrors.ErrInvalidRequest, "appData document is not encodable", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}
