package cow

import (
	"math/big"
	"testing"

	"github.com/GoCowSwap/cowgate/internal/typeddata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference order from the Sepolia flow; every intermediate hash below is
// pinned so a drift anywhere in the encoding chain fails loudly.
func referenceOrder() *Order {
	sellAmount, _ := new(big.Int).SetString("473107794665489160", 10)
	buyAmount, _ := new(big.Int).SetString("164428962043613737416", 10)
	return &Order{
		SellToken:         common.HexToAddress("0xfff9976782d46cc05630d1f6ebab18b2324d6b14"),
		BuyToken:          common.HexToAddress("0x0625afb445c3b6b7b929342a04a22599fd5dbb59"),
		SellAmount:        sellAmount,
		BuyAmount:         buyAmount,
		ValidTo:           1746436866,
		AppData:           common.HexToHash("0xc85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4"),
		FeeAmount:         big.NewInt(0),
		Kind:              "sell",
		PartiallyFillable: false,
		SellTokenBalance:  "erc20",
		BuyTokenBalance:   "erc20",
		Receiver:          common.HexToAddress("0x2f8A528EB0De3b43fD9Eb6f23D55C8D95fb7AF98"),
	}
}

func TestProtocolConstants(t *testing.T) {
	assert.Equal(t, "0xf3b277728b3fee749481eb3e0b3b48980dbbab78658fc419025cb16eee346775", KindSell.Hex())
	assert.Equal(t, "0x6ed88e868af0a1983e3886d5f3e95a2fafbd6c3450bc229e27342283dc429ccc", KindBuy.Hex())
	assert.Equal(t, "0x5a28e9363bb942b639270062aa6bb295f434bcdfc42c97267bf003f272060dc9", BalanceErc20.Hex())
	assert.Equal(t, "0xabee3b73373acd583a130924aad6dc38cfdc44ba0555ba94ce2ff63980ea0632", BalanceExternal.Hex())
	assert.Equal(t, "0x4ac99ace14ee0a5ef932dc609df0943ab7ac16b7583634612f8dc35a4289a6ce", BalanceInternal.Hex())
}

func TestOrderTypes(t *testing.T) {
	types := OrderTypes()
	require.NoError(t, types.Validate())

	typeHash, err := types.TypeHash("Order")
	require.NoError(t, err)
	assert.Equal(t, "0xa1da117a5203df6aa19b5264ef4636a9f580d8f0ad18bde0c05c3d6f52bee2bc", typeHash.Hex())
}

func TestDomainSeparator_Sepolia(t *testing.T) {
	sep, err := typeddata.DomainSeparator(Domain(11155111, ""))
	require.NoError(t, err)
	assert.Equal(t, "0xdaee378bd0eb30ddf479272accf91761e697bc00e067a268f95f1d2732ed230b", sep.Hex())
}

func TestOrderDigest_Golden(t *testing.T) {
	order := referenceOrder()
	domain := Domain(11155111, "")

	message, err := order.Map()
	require.NoError(t, err)
	structHash, err := OrderTypes().HashStruct("Order", message)
	require.NoError(t, err)
	assert.Equal(t, "0x517b9078e58cbc6fc66501454af956e292dd2a7b676e3ad0ac6a5dfe5ffef235", structHash.Hex())

	digest, err := order.Digest(domain)
	require.NoError(t, err)
	assert.Equal(t, "0xb80b66a20670697f1640cd97798d321bcf492df9d529995708ddafe2db9d7178", digest.Hex())
}

func TestOrderDigest_ChainBinding(t *testing.T) {
	order := referenceOrder()

	sepolia, err := order.Digest(Domain(11155111, ""))
	require.NoError(t, err)
	mainnet, err := order.Digest(Domain(1, ""))
	require.NoError(t, err)
	assert.NotEqual(t, sepolia, mainnet)
}

func TestOrderMap_UnknownDiscriminants(t *testing.T) {
	order := referenceOrder()
	order.Kind = "short"
	_, err := order.Map()
	assert.Error(t, err)

	order = referenceOrder()
	order.SellTokenBalance = "erc721"
	_, err = order.Map()
	assert.Error(t, err)
}
