package core

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeBidCommitment computes the commitment digest binding a bidder to
// an (amount, secret) pair without revealing either until the reveal
// phase. Both the engine (to verify reveals) and bidders (to produce
// commitments) use this algorithm.
//
// Formula: SHA256(amount_fixed6 + "|" + secret)
//
// The amount is formatted to exactly 6 decimal places so the digest does
// not depend on how the caller happened to write the number.
func ComputeBidCommitment(amount decimal.Decimal, secret string) string {
	data := fmt.Sprintf("%s|%s", amount.StringFixed(6), secret)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// VerifyBidCommitment reports whether a revealed (amount, secret) pair
// matches a previously stored commitment. Pure and deterministic; this is
// the sole authentication mechanism for reveals beyond caller identity.
func VerifyBidCommitment(commitment string, amount decimal.Decimal, secret string) bool {
	return commitment == ComputeBidCommitment(amount, secret)
}

// ComputeAuctionID derives an auction identifier from the beneficiary,
// the creation instant and a random nonce.
//
// Formula: SHA256(beneficiary + "|" + unix_nanos + "|" + nonce)
func ComputeAuctionID(beneficiary Principal, createdAt time.Time, nonce string) string {
	data := fmt.Sprintf("%s|%d|%s", beneficiary, createdAt.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
