package auctionapi

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptCOSE holds raw COSE_Sign1 bytes of a signed settlement receipt.
type ReceiptCOSE []byte

// ReceiptCOSEBase64 is a base64 (StdEncoding) representation of receipt
// COSE bytes, used for JSON transport.
type ReceiptCOSEBase64 string

// ReceiptCOSEGzip is a gzip-compressed, URL-safe base64 representation of
// receipt COSE bytes, used where the receipt travels in a URL parameter.
type ReceiptCOSEGzip string

// EncodeBase64 encodes raw COSE bytes for JSON transport.
func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

// CompressGzip compresses and encodes raw COSE bytes for URL transport.
func (r ReceiptCOSE) CompressGzip() (ReceiptCOSEGzip, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(r); err != nil {
		return "", fmt.Errorf("gzip receipt COSE: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close gzip writer: %w", err)
	}
	return ReceiptCOSEGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

func (r ReceiptCOSEBase64) String() string {
	return string(r)
}

// Decode returns the raw COSE bytes.
func (r ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(r))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return ReceiptCOSE(data), nil
}

func (r ReceiptCOSEGzip) String() string {
	return string(r)
}

// Decompress returns the raw COSE bytes.
func (r ReceiptCOSEGzip) Decompress() (ReceiptCOSE, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(string(r))
	if err != nil {
		return nil, fmt.Errorf("decode COSE gzip base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress COSE bytes: %w", err)
	}
	return ReceiptCOSE(data), nil
}

// SettlementReceipt is the payload of a signed settlement record: proof
// that one auction paid out exactly once. Encoded as CBOR inside a
// COSE_Sign1 envelope.
type SettlementReceipt struct {
	AuctionID   string    `json:"auction_id" cbor:"auction_id"`
	Beneficiary string    `json:"beneficiary" cbor:"beneficiary"`
	Winner      string    `json:"winner,omitempty" cbor:"winner,omitempty"`
	Amount      string    `json:"amount" cbor:"amount"`
	Timestamp   time.Time `json:"timestamp" cbor:"timestamp"`
}

// NewAuctionResponse is returned when an auction is registered.
type NewAuctionResponse struct {
	AuctionID string `json:"auction_id"`
}

// PhaseResponse reports the phase an auction moved to.
type PhaseResponse struct {
	AuctionID string `json:"auction_id"`
	Phase     string `json:"phase"`
}

// PlaceBidRequest carries a sealed bid: the commitment digest and the
// escrow deposit attached to the call.
type PlaceBidRequest struct {
	Commitment string `json:"commitment"`
	Deposit    string `json:"deposit"`
}

// Validate checks the request is well-formed before it reaches the
// engine: a 64-character hex commitment and a positive decimal deposit.
func (r *PlaceBidRequest) Validate() error {
	if len(r.Commitment) != 64 {
		return fmt.Errorf("commitment must be 64 hex characters, got %d", len(r.Commitment))
	}
	if _, err := hex.DecodeString(r.Commitment); err != nil {
		return fmt.Errorf("commitment is not valid hex: %w", err)
	}
	deposit, err := decimal.NewFromString(r.Deposit)
	if err != nil {
		return fmt.Errorf("invalid deposit %q: %w", r.Deposit, err)
	}
	if deposit.Sign() <= 0 {
		return fmt.Errorf("deposit must be positive, got %s", deposit)
	}
	return nil
}

// DepositAmount parses the deposit. Call Validate first.
func (r *PlaceBidRequest) DepositAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(r.Deposit)
}

// RevealRequest opens a commitment: the claimed bid amount and the secret
// it was blinded with.
type RevealRequest struct {
	Amount string `json:"amount"`
	Secret string `json:"secret"`
}

func (r *RevealRequest) Validate() error {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("amount must not be negative, got %s", amount)
	}
	return nil
}

// BidAmount parses the revealed amount. Call Validate first.
func (r *RevealRequest) BidAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(r.Amount)
}

// RevealResponse reports how a reveal settled.
type RevealResponse struct {
	Accepted bool   `json:"accepted"`
	Refund   string `json:"refund"`
}

// WithdrawResponse reports the refunded amount.
type WithdrawResponse struct {
	Amount string `json:"amount"`
}

// SettlementResponse carries the settled amount and the signed receipt.
type SettlementResponse struct {
	AuctionID string            `json:"auction_id"`
	Winner    string            `json:"winner,omitempty"`
	Amount    string            `json:"amount"`
	Receipt   ReceiptCOSEBase64 `json:"receipt_cose_base64"`
}

// AuctionRecord is one slot of a listing response. Slots not owned by the
// caller are zero-valued placeholders at their registration-order
// position.
type AuctionRecord struct {
	ID          string `json:"id,omitempty"`
	Beneficiary string `json:"beneficiary,omitempty"`
	Phase       string `json:"phase,omitempty"`
	Settled     bool   `json:"settled,omitempty"`
}

// ErrorResponse is the JSON error body of the HTTP surface.
type ErrorResponse struct {
	Error string `json:"error"`
	Phase string `json:"phase,omitempty"` // current phase on phase-gate violations
}
