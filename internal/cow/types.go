package cow

// Wire types for the CoW order book API. Amounts travel as decimal
// strings; the core treats the quote purely as a source of order field
// values plus the chosen signing scheme.

// QuoteRequest asks the quote service for trade terms for a given size.
type QuoteRequest struct {
	SellToken           string `json:"sellToken"`
	BuyToken            string `json:"buyToken"`
	Receiver            string `json:"receiver"`
	From                string `json:"from"`
	Kind                string `json:"kind"`
	SellAmountBeforeFee string `json:"sellAmountBeforeFee"`
	PartiallyFillable   bool   `json:"partiallyFillable"`
}

// Quote carries the concrete trade terms the service committed to.
type Quote struct {
	SellToken         string `json:"sellToken"`
	BuyToken          string `json:"buyToken"`
	Receiver          string `json:"receiver"`
	SellAmount        string `json:"sellAmount"`
	BuyAmount         string `json:"buyAmount"`
	ValidTo           uint32 `json:"validTo"`
	AppData           string `json:"appData"`
	FeeAmount         string `json:"feeAmount"`
	Kind              string `json:"kind"`
	PartiallyFillable bool   `json:"partiallyFillable"`
	SellTokenBalance  string `json:"sellTokenBalance"`
	BuyTokenBalance   string `json:"buyTokenBalance"`
	SigningScheme     string `json:"signingScheme"`
}

type QuoteResponse struct {
	Quote      Quote  `json:"quote"`
	From       string `json:"from"`
	Expiration string `json:"expiration"`
	ID         int64  `json:"id"`
}

// OrderSubmission is the signed order payload accepted by the order
// submission service.
type OrderSubmission struct {
	SellToken         string `json:"sellToken"`
	BuyToken          string `json:"buyToken"`
	Receiver          string `json:"receiver"`
	SellAmount        string `json:"sellAmount"`
	BuyAmount         string `json:"buyAmount"`
	ValidTo           uint32 `json:"validTo"`
	AppData           string `json:"appData"`
	FeeAmount         string `json:"feeAmount"`
	Kind              string `json:"kind"`
	PartiallyFillable bool   `json:"partiallyFillable"`
	SellTokenBalance  string `json:"sellTokenBalance"`
	BuyTokenBalance   string `json:"buyTokenBalance"`
	From              string `json:"from"`
	// Signature is the hex-encoded 65-byte value, 0x-prefixed.
	Signature     string `json:"signature"`
	SigningScheme string `json:"signingScheme"`
	QuoteID       int64  `json:"quoteId,omitempty"`
}
