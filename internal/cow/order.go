package cow

import (
	"math/big"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/GoCowSwap/cowgate/internal/typeddata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 domain constants for the settlement contract. The contract
// address is the same on every supported chain; only chainId varies.
const (
	DomainName         = "Gnosis Protocol"
	DomainVersion      = "v2"
	SettlementContract = "0x9008D19f58AAbD9eD0D60971565AA8510560ab41"
)

// The kind and token-balance discriminants are fixed protocol constants:
// keccak256 of short ASCII tags, precomputed here as enum-to-hash lookups.
var (
	KindSell = crypto.Keccak256Hash([]byte("sell"))
	KindBuy  = crypto.Keccak256Hash([]byte("buy"))

	BalanceErc20    = crypto.Keccak256Hash([]byte("erc20"))
	BalanceExternal = crypto.Keccak256Hash([]byte("external"))
	BalanceInternal = crypto.Keccak256Hash([]byte("internal"))

	kindHashes = map[string]common.Hash{
		"sell": KindSell,
		"buy":  KindBuy,
	}
	balanceHashes = map[string]common.Hash{
		"erc20":    BalanceErc20,
		"external": BalanceExternal,
		"internal": BalanceInternal,
	}
)

// OrderTypes returns the schema for the signable order type. Field order
// is fixed; it determines the canonical type signature and byte layout.
func OrderTypes() typeddata.Types {
	return typeddata.Types{
		"Order": []typeddata.Type{
			{Name: "sellToken", Type: "address"},
			{Name: "buyToken", Type: "address"},
			{Name: "sellAmount", Type: "uint256"},
			{Name: "buyAmount", Type: "uint256"},
			{Name: "validTo", Type: "uint32"},
			{Name: "appData", Type: "bytes32"},
			{Name: "feeAmount", Type: "uint256"},
			{Name: "kind", Type: "bytes32"},
			{Name: "partiallyFillable", Type: "bool"},
			{Name: "sellTokenBalance", Type: "bytes32"},
			{Name: "buyTokenBalance", Type: "bytes32"},
			{Name: "receiver", Type: "address"},
		},
	}
}

// Domain returns the signing domain for the settlement contract on the
// given chain.
func Domain(chainID int64, verifyingContract string) *typeddata.Domain {
	if verifyingContract == "" {
		verifyingContract = SettlementContract
	}
	return &typeddata.Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           big.NewInt(chainID),
		VerifyingContract: verifyingContract,
	}
}

// Order is the signable order record, built fresh per order from quote
// data. Kind and the balance locations carry the short ASCII tags as
// returned by the quote service; they are translated to their hash
// discriminants at encoding time.
type Order struct {
	SellToken         common.Address
	BuyToken          common.Address
	SellAmount        *big.Int
	BuyAmount         *big.Int
	ValidTo           uint32
	AppData           common.Hash
	FeeAmount         *big.Int
	Kind              string
	PartiallyFillable bool
	SellTokenBalance  string
	BuyTokenBalance   string
	Receiver          common.Address
}

// Map renders the order as a typed-data value map for the Order schema.
func (o *Order) Map() (map[string]interface{}, error) {
	kind, ok := kindHashes[o.Kind]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown order kind %q", o.Kind)
	}
	sellBalance, ok := balanceHashes[o.SellTokenBalance]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown sell token balance %q", o.SellTokenBalance)
	}
	buyBalance, ok := balanceHashes[o.BuyTokenBalance]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown buy token balance %q", o.BuyTokenBalance)
	}
	return map[string]interface{}{
		"sellToken":         o.SellToken,
		"buyToken":          o.BuyToken,
		"sellAmount":        o.SellAmount,
		"buyAmount":         o.BuyAmount,
		"validTo":           uint64(o.ValidTo),
		"appData":           o.AppData,
		"feeAmount":         o.FeeAmount,
		"kind":              kind,
		"partiallyFillable": o.PartiallyFillable,
		"sellTokenBalance":  sellBalance,
		"buyTokenBalance":   buyBalance,
		"receiver":          o.Receiver,
	}, nil
}

// Digest computes the typed-data digest the settlement contract verifies.
func (o *Order) Digest(domain *typeddata.Domain) (common.Hash, error) {
	message, err := o.Map()
	if err != nil {
		return common.Hash{}, err
	}
	return typeddata.SigningHash(OrderTypes(), "Order", domain, message)
}
