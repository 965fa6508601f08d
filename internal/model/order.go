package model

import (
	"time"
)

// OrderRecord is one journal row per pipeline invocation, terminal state
// included, so rejected and failed runs are queryable alongside accepted
// ones.
type OrderRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UID           string    `json:"uid" gorm:"index"`
	SellToken     string    `json:"sell_token"`
	BuyToken      string    `json:"buy_token"`
	SellAmount    string    `json:"sell_amount"`
	BuyAmount     string    `json:"buy_amount"`
	FeeAmount     string    `json:"fee_amount"`
	ValidTo       uint32    `json:"valid_to"`
	Kind          string    `json:"kind"`
	Receiver      string    `json:"receiver"`
	SigningScheme string    `json:"signing_scheme"`
	Digest        string    `json:"digest"`
	Signature     string    `json:"signature"`
	State         string    `json:"state" gorm:"index"`
	// Upstream verdict, preserved verbatim for rejected orders
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (OrderRecord) TableName() string {
	return "orders"
}
