package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"

	"github.com/GoCowSwap/cowgate/internal/cow"
	"github.com/GoCowSwap/cowgate/internal/signer"
	"github.com/GoCowSwap/cowgate/internal/typeddata"
	"github.com/ethereum/go-ethereum/common"
)

// Offline inspection tool: rebuilds the typed-data digest chain for an
// order so it can be checked against another implementation without
// touching the network.
func main() {
	var (
		keyHex     = flag.String("key", "", "hex private key (optional; omit to skip signing)")
		chainID    = flag.Int64("chain", 11155111, "chain id bound into the domain")
		contract   = flag.String("contract", "", "settlement contract override")
		sellToken  = flag.String("sell-token", "", "sell token address")
		buyToken   = flag.String("buy-token", "", "buy token address")
		receiver   = flag.String("receiver", "", "receiver address")
		sellAmount = flag.String("sell-amount", "0", "sell amount in base units")
		buyAmount  = flag.String("buy-amount", "0", "buy amount in base units")
		feeAmount  = flag.String("fee", "0", "fee amount in base units")
		validTo    = flag.Uint("valid-to", 0, "expiry unix timestamp")
		appData    = flag.String("app-data", "0x0000000000000000000000000000000000000000000000000000000000000000", "app data hash (bytes32 hex)")
		kind       = flag.String("kind", "sell", "order kind: sell or buy")
		partial    = flag.Bool("partial", false, "partially fillable")
		schemeStr  = flag.String("scheme", "eip712", "signing scheme: eip712 or ethsign")
		vOffset    = flag.Int("v-offset", 27, "recovery id offset: 27 or 0")
	)
	flag.Parse()

	sell, ok := new(big.Int).SetString(*sellAmount, 10)
	if !ok {
		log.Fatalf("invalid sell-amount %q", *sellAmount)
	}
	buy, ok := new(big.Int).SetString(*buyAmount, 10)
	if !ok {
		log.Fatalf("invalid buy-amount %q", *buyAmount)
	}
	fee, ok := new(big.Int).SetString(*feeAmount, 10)
	if !ok {
		log.Fatalf("invalid fee %q", *feeAmount)
	}

	order := &cow.Order{
		SellToken:         common.HexToAddress(*sellToken),
		BuyToken:          common.HexToAddress(*buyToken),
		Receiver:          common.HexToAddress(*receiver),
		SellAmount:        sell,
		BuyAmount:         buy,
		FeeAmount:         fee,
		ValidTo:           uint32(*validTo),
		AppData:           common.HexToHash(*appData),
		Kind:              *kind,
		PartiallyFillable: *partial,
		SellTokenBalance:  "erc20",
		BuyTokenBalance:   "erc20",
	}

	domain := cow.Domain(*chainID, *contract)
	types := cow.OrderTypes()

	sep, err := typeddata.DomainSeparator(domain)
	if err != nil {
		log.Fatalf("domain separator: %v", err)
	}
	message, err := order.Map()
	if err != nil {
		log.Fatalf("order message: %v", err)
	}
	structHash, err := types.HashStruct("Order", message)
	if err != nil {
		log.Fatalf("struct hash: %v", err)
	}
	typeHash, err := types.TypeHash("Order")
	if err != nil {
		log.Fatalf("type hash: %v", err)
	}
	digest, err := order.Digest(domain)
	if err != nil {
		log.Fatalf("digest: %v", err)
	}

	fmt.Println("--- Typed Data ---")
	fmt.Printf("encoded type:     %s\n", mustEncodeType(types))
	fmt.Printf("type hash:        %s\n", typeHash.Hex())
	fmt.Printf("domain separator: %s\n", sep.Hex())
	fmt.Printf("struct hash:      %s\n", structHash.Hex())
	fmt.Printf("digest:           %s\n", digest.Hex())

	if *keyHex == "" {
		return
	}

	scheme, err := signer.ParseScheme(*schemeStr)
	if err != nil {
		log.Fatal(err)
	}
	s, err := signer.New(*keyHex, *vOffset)
	if err != nil {
		log.Fatal(err)
	}
	sig, err := s.SignDigest(digest, scheme)
	if err != nil {
		log.Fatal(err)
	}
	signingValue, _ := scheme.SigningValue(digest)

	fmt.Println("\n--- Signature ---")
	fmt.Printf("signer:        %s\n", s.Address().Hex())
	fmt.Printf("scheme:        %s\n", scheme)
	fmt.Printf("signing value: %s\n", signingValue.Hex())
	fmt.Printf("signature:     %s\n", sig.Hex())
	fmt.Printf("v:             %d\n", sig.V())
}

func mustEncodeType(types typeddata.Types) string {
	enc, err := types.EncodeType("Order")
	if err != nil {
		log.Fatalf("encode type: %v", err)
	}
	return string(enc)
}
