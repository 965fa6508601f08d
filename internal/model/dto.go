package model

import "github.com/GoCowSwap/cowgate/internal/cow"

// OrderRequest represents the incoming JSON body
type OrderRequest struct {
	SellToken string `json:"sell_token" binding:"required"`
	BuyToken  string `json:"buy_token" binding:"required"`
	// SellAmount is denominated in sell-token units (e.g. "0.10"), scaled
	// by SellTokenDecimals before it reaches the quote service.
	SellAmount        string `json:"sell_amount" binding:"required"`
	SellTokenDecimals int32  `json:"sell_token_decimals,omitempty"` // default 18
	Kind              string `json:"kind,omitempty"`                // sell (default) or buy
	Receiver          string `json:"receiver,omitempty"`            // default: signing address
	PartiallyFillable bool   `json:"partially_fillable,omitempty"`
	// SigningScheme overrides the scheme echoed by the quote service:
	// eip712 or ethsign.
	SigningScheme string `json:"signing_scheme,omitempty"`
}

// OrderResponse reports the pipeline outcome. State is the most recent
// pipeline state reached; on success it is ACCEPTED and UID identifies
// the submitted order.
type OrderResponse struct {
	State         string               `json:"state"`
	UID           string               `json:"uid,omitempty"`
	Digest        string               `json:"digest,omitempty"`
	Signature     string               `json:"signature,omitempty"`
	SigningScheme string               `json:"signing_scheme,omitempty"`
	Order         *cow.OrderSubmission `json:"order,omitempty"`
}
