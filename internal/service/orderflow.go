package service

import (
	"context"
	"math/big"
	"time"

	"github.com/GoCowSwap/cowgate/internal/config"
	"github.com/GoCowSwap/cowgate/internal/cow"
	"github.com/GoCowSwap/cowgate/internal/model"
	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/GoCowSwap/cowgate/internal/pkg/logger"
	"github.com/GoCowSwap/cowgate/internal/pkg/metrics"
	"github.com/GoCowSwap/cowgate/internal/signer"
	"github.com/GoCowSwap/cowgate/internal/typeddata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pipeline states, in order. Each transition is a single attempt with no
// retry; a failed step leaves the flow at the most recent state reached.
const (
	StateQuoteRequested = "QUOTE_REQUESTED"
	StateQuoteReceived  = "QUOTE_RECEIVED"
	StateOrderBuilt     = "ORDER_BUILT"
	StateDigestComputed = "DIGEST_COMPUTED"
	StateSigned         = "SIGNED"
	StateSubmitted      = "SUBMITTED"
	StateAccepted       = "ACCEPTED"
	StateRejected       = "REJECTED"
)

// OrderBook is the synchronous request/response surface of the two
// external collaborators. Keeping it minimal keeps the hashing/signing
// core unit-testable without network access.
type OrderBook interface {
	Quote(ctx context.Context, req *cow.QuoteRequest) (*cow.QuoteResponse, error)
	SubmitOrder(ctx context.Context, order *cow.OrderSubmission) (string, error)
}

// OrderJournal records one row per pipeline invocation. A nil journal
// disables recording.
type OrderJournal interface {
	Insert(ctx context.Context, rec *model.OrderRecord) error
	List(ctx context.Context, limit int) ([]*model.OrderRecord, error)
}

type OrderFlow struct {
	cfg     *config.Config
	book    OrderBook
	signer  *signer.Signer
	domain  *typeddata.Domain
	types   typeddata.Types
	journal OrderJournal
}

func NewOrderFlow(cfg *config.Config, book OrderBook, s *signer.Signer, journal OrderJournal) *OrderFlow {
	return &OrderFlow{
		cfg:     cfg,
		book:    book,
		signer:  s,
		domain:  cow.Domain(cfg.Cow.ChainID, cfg.Cow.VerifyingContract),
		types:   cow.OrderTypes(),
		journal: journal,
	}
}

// PlaceOrder runs the full pipeline: quote, build, hash, sign, submit.
func (f *OrderFlow) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResponse, error) {
	return f.run(ctx, req, true)
}

// PreviewOrder runs the pipeline through signing but never submits,
// returning the order, digest and signature for inspection.
func (f *OrderFlow) PreviewOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResponse, error) {
	return f.run(ctx, req, false)
}

// GetQuote passes a quote request through without building or signing
// anything.
func (f *OrderFlow) GetQuote(ctx context.Context, req model.OrderRequest) (*cow.QuoteResponse, error) {
	quoteReq, err := f.buildQuoteRequest(req)
	if err != nil {
		return nil, err
	}
	return f.book.Quote(ctx, quoteReq)
}

// ListOrders returns recent journal rows, newest first.
func (f *OrderFlow) ListOrders(ctx context.Context, limit int) ([]*model.OrderRecord, error) {
	if f.journal == nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "order journal is not configured")
	}
	return f.journal.List(ctx, limit)
}

// run is the linear state machine. The response always carries the most
// recent state reached, so a non-nil error still comes with a usable
// response.
func (f *OrderFlow) run(ctx context.Context, req model.OrderRequest, submit bool) (resp *model.OrderResponse, err error) {
	resp = &model.OrderResponse{State: StateQuoteRequested}
	var order *cow.Order
	var submission *cow.OrderSubmission

	defer func() {
		metrics.OrdersTotal.WithLabelValues(resp.State, resp.SigningScheme).Inc()
		f.record(resp, order, err)
	}()

	quoteReq, err := f.buildQuoteRequest(req)
	if err != nil {
		return resp, err
	}

	// QuoteRequested -> QuoteReceived
	quote, err := f.book.Quote(ctx, quoteReq)
	if err != nil {
		return resp, err
	}
	resp.State = StateQuoteReceived

	// QuoteReceived -> OrderBuilt
	order, submission, err = f.buildOrder(req, quote)
	if err != nil {
		return resp, err
	}
	resp.Order = submission
	resp.State = StateOrderBuilt

	scheme, err := f.resolveScheme(req, quote)
	if err != nil {
		return resp, err
	}
	resp.SigningScheme = string(scheme)
	submission.SigningScheme = string(scheme)

	// OrderBuilt -> DigestComputed
	digest, err := order.Digest(f.domain)
	if err != nil {
		return resp, err
	}
	resp.Digest = digest.Hex()
	resp.State = StateDigestComputed

	// DigestComputed -> Signed
	sig, err := f.signer.SignDigest(digest, scheme)
	if err != nil {
		return resp, err
	}
	submission.Signature = sig.Hex()
	resp.Signature = sig.Hex()
	resp.State = StateSigned

	if !submit {
		return resp, nil
	}

	// Signed -> Submitted -> {Accepted | Rejected}. A transport failure
	// leaves the flow at Submitted: the request went out and the order
	// may or may not have reached the book.
	resp.State = StateSubmitted
	uid, err := f.book.SubmitOrder(ctx, submission)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrServiceRejected) {
			resp.State = StateRejected
		}
		return resp, err
	}
	resp.State = StateAccepted
	resp.UID = uid
	return resp, nil
}

func (f *OrderFlow) buildQuoteRequest(req model.OrderRequest) (*cow.QuoteRequest, error) {
	kind := req.Kind
	if kind == "" {
		kind = "sell"
	}
	if kind != "sell" && kind != "buy" {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown order kind %q", kind)
	}
	if !common.IsHexAddress(req.SellToken) || !common.IsHexAddress(req.BuyToken) {
		return nil, apperrors.NewInvalidRequest("sell_token and buy_token must be hex addresses")
	}

	sellAmountWei, err := scaleAmount(req.SellAmount, req.SellTokenDecimals)
	if err != nil {
		return nil, err
	}

	receiver := req.Receiver
	if receiver == "" {
		receiver = f.signer.Address().Hex()
	} else if !common.IsHexAddress(receiver) {
		return nil, apperrors.NewInvalidRequest("receiver must be a hex address")
	}

	return &cow.QuoteRequest{
		SellToken:           common.HexToAddress(req.SellToken).Hex(),
		BuyToken:            common.HexToAddress(req.BuyToken).Hex(),
		Receiver:            receiver,
		From:                f.signer.Address().Hex(),
		Kind:                kind,
		SellAmountBeforeFee: sellAmountWei,
		PartiallyFillable:   req.PartiallyFillable,
	}, nil
}

// scaleAmount converts a human-denominated token amount into an integer
// base-unit string.
func scaleAmount(amount string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", apperrors.New(apperrors.ErrInvalidRequest, "sell_amount is not a decimal number", err)
	}
	if d.Sign() <= 0 {
		return "", apperrors.NewInvalidRequest("sell_amount must be positive")
	}
	if decimals == 0 {
		decimals = 18
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return "", apperrors.Newf(apperrors.ErrInvalidRequest,
			"sell_amount has more precision than %d decimals", decimals)
	}
	return scaled.BigInt().String(), nil
}

func (f *OrderFlow) buildOrder(req model.OrderRequest, quote *cow.QuoteResponse) (*cow.Order, *cow.OrderSubmission, error) {
	q := quote.Quote

	sellAmount, ok := new(big.Int).SetString(q.SellAmount, 10)
	if !ok {
		return nil, nil, apperrors.Newf(apperrors.ErrInvalidRequest, "quote sellAmount %q is not an integer", q.SellAmount)
	}
	buyAmount, ok := new(big.Int).SetString(q.BuyAmount, 10)
	if !ok {
		return nil, nil, apperrors.Newf(apperrors.ErrInvalidRequest, "quote buyAmount %q is not an integer", q.BuyAmount)
	}
	feeAmount, ok := new(big.Int).SetString(q.FeeAmount, 10)
	if !ok {
		return nil, nil, apperrors.Newf(apperrors.ErrInvalidRequest, "quote feeAmount %q is not an integer", q.FeeAmount)
	}

	appData, err := f.appDataHash()
	if err != nil {
		return nil, nil, err
	}

	receiver := q.Receiver
	if receiver == "" {
		receiver = req.Receiver
	}
	if receiver == "" {
		receiver = f.signer.Address().Hex()
	}

	sellBalance := q.SellTokenBalance
	if sellBalance == "" {
		sellBalance = "erc20"
	}
	buyBalance := q.BuyTokenBalance
	if buyBalance == "" {
		buyBalance = "erc20"
	}

	order := &cow.Order{
		SellToken:         common.HexToAddress(q.SellToken),
		BuyToken:          common.HexToAddress(q.BuyToken),
		SellAmount:        sellAmount,
		BuyAmount:         buyAmount,
		ValidTo:           q.ValidTo,
		AppData:           appData,
		FeeAmount:         feeAmount,
		Kind:              q.Kind,
		PartiallyFillable: q.PartiallyFillable,
		SellTokenBalance:  sellBalance,
		BuyTokenBalance:   buyBalance,
		Receiver:          common.HexToAddress(receiver),
	}

	submission := &cow.OrderSubmission{
		SellToken:         order.SellToken.Hex(),
		BuyToken:          order.BuyToken.Hex(),
		Receiver:          order.Receiver.Hex(),
		SellAmount:        order.SellAmount.String(),
		BuyAmount:         order.BuyAmount.String(),
		ValidTo:           order.ValidTo,
		AppData:           appData.Hex(),
		FeeAmount:         order.FeeAmount.String(),
		Kind:              order.Kind,
		PartiallyFillable: order.PartiallyFillable,
		SellTokenBalance:  order.SellTokenBalance,
		BuyTokenBalance:   order.BuyTokenBalance,
		From:              f.signer.Address().Hex(),
		QuoteID:           quote.ID,
	}
	return order, submission, nil
}

func (f *OrderFlow) appDataHash() (common.Hash, error) {
	doc := cow.AppDataDoc{Version: f.cfg.Cow.AppDataVersion}
	if f.cfg.Cow.AppCode != "" {
		doc.Metadata = map[string]interface{}{"appCode": f.cfg.Cow.AppCode}
	}
	return doc.Hash()
}

// resolveScheme picks the signing scheme: an explicit request override
// wins, then the configured scheme, then whatever the quote service
// echoed. The tag travels with the order so the verifier wraps the
// digest identically.
func (f *OrderFlow) resolveScheme(req model.OrderRequest, quote *cow.QuoteResponse) (signer.Scheme, error) {
	switch {
	case req.SigningScheme != "":
		return signer.ParseScheme(req.SigningScheme)
	case f.cfg.Signing.Scheme != "":
		return signer.ParseScheme(f.cfg.Signing.Scheme)
	case quote.Quote.SigningScheme != "":
		return signer.ParseScheme(quote.Quote.SigningScheme)
	default:
		return signer.SchemeEip712, nil
	}
}

// record writes the journal row for this invocation. Journal failures
// are logged, never propagated; the pipeline verdict stands.
func (f *OrderFlow) record(resp *model.OrderResponse, order *cow.Order, runErr error) {
	if f.journal == nil || order == nil {
		return
	}
	rec := &model.OrderRecord{
		ID:            uuid.NewString(),
		UID:           resp.UID,
		SellToken:     order.SellToken.Hex(),
		BuyToken:      order.BuyToken.Hex(),
		SellAmount:    order.SellAmount.String(),
		BuyAmount:     order.BuyAmount.String(),
		FeeAmount:     order.FeeAmount.String(),
		ValidTo:       order.ValidTo,
		Kind:          order.Kind,
		Receiver:      order.Receiver.Hex(),
		SigningScheme: resp.SigningScheme,
		Digest:        resp.Digest,
		Signature:     resp.Signature,
		State:         resp.State,
		CreatedAt:     time.Now().UTC(),
	}
	if appErr, ok := runErr.(*apperrors.AppError); ok {
		rec.UpstreamStatus = appErr.UpstreamStatus
		rec.UpstreamBody = appErr.UpstreamBody
	}

	// Journal writes are best-effort and bounded
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.journal.Insert(ctx, rec); err != nil {
		logger.Error("failed to record order", "error", err, "state", rec.State)
	}
}
