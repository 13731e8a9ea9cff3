package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/core"
)

// ReceiptValidationInput contains all inputs needed to validate a
// settlement receipt against what a bidder observed.
type ReceiptValidationInput struct {
	ReceiptCOSEBase64 auctionapi.ReceiptCOSEBase64
	PublicKeyPEM      string // Engine's receipt verification key

	// Optional cross-checks; empty values skip the corresponding check.
	ExpectedAuctionID string
	ExpectedAmount    string // Decimal string of the expected winning amount
	ExpectedWinner    string

	// Optional commitment recomputation: a bidder can check that the
	// winning amount they are told matches the commitment they placed.
	Commitment     string
	RevealedAmount string
	RevealedSecret string
}

// ReceiptValidationResult contains detailed results of receipt
// validation. Call IsValid for the overall status.
type ReceiptValidationResult struct {
	SignatureValid    bool
	PayloadValid      bool
	AuctionIDValid    bool
	AmountValid       bool
	WinnerValid       bool
	CommitmentValid   bool
	Receipt           *auctionapi.SettlementReceipt
	ValidationDetails []string
}

// IsValid returns true if all requested validation checks passed.
func (r *ReceiptValidationResult) IsValid() bool {
	return r.SignatureValid && r.PayloadValid && r.AuctionIDValid &&
		r.AmountValid && r.WinnerValid && r.CommitmentValid
}

// ValidateSettlementReceipt verifies a settlement receipt end to end:
// - COSE_Sign1 signature against the engine's published key
// - payload decodes to a well-formed receipt
// - auction id, amount and winner match the caller's expectations
// - optionally, that a (amount, secret) pair matches a stored commitment
//
// Returns the detailed result, or an error when validation cannot be
// performed at all (malformed input).
func ValidateSettlementReceipt(input *ReceiptValidationInput) (*ReceiptValidationResult, error) {
	if input.ReceiptCOSEBase64 == "" {
		return nil, fmt.Errorf("receipt COSE bytes are required")
	}
	if input.PublicKeyPEM == "" {
		return nil, fmt.Errorf("public key PEM is required")
	}

	result := &ReceiptValidationResult{}

	// Signature first: everything else is meaningless on a forged receipt.
	if err := VerifyReceiptSignature(input.ReceiptCOSEBase64, input.PublicKeyPEM); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Signature verification failed: %v", err))
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "Signature verified")
	}

	receipt, err := ParseReceipt(input.ReceiptCOSEBase64)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt payload invalid: %v", err))
		return result, nil
	}
	result.PayloadValid = true
	result.Receipt = receipt

	result.AuctionIDValid = validateAuctionID(input, receipt, result)
	result.AmountValid = validateAmount(input, receipt, result)
	result.WinnerValid = validateWinner(input, receipt, result)
	result.CommitmentValid = validateCommitment(input, result)

	return result, nil
}

func validateAuctionID(input *ReceiptValidationInput, receipt *auctionapi.SettlementReceipt, result *ReceiptValidationResult) bool {
	if input.ExpectedAuctionID == "" {
		return true
	}
	if receipt.AuctionID == input.ExpectedAuctionID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Auction id matches: %s", receipt.AuctionID))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Auction id mismatch: receipt has %s, expected %s", receipt.AuctionID, input.ExpectedAuctionID))
	return false
}

func validateAmount(input *ReceiptValidationInput, receipt *auctionapi.SettlementReceipt, result *ReceiptValidationResult) bool {
	if input.ExpectedAmount == "" {
		return true
	}

	expected, err := decimal.NewFromString(input.ExpectedAmount)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Expected amount is not a decimal: %v", err))
		return false
	}
	actual, err := decimal.NewFromString(receipt.Amount)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt amount is not a decimal: %v", err))
		return false
	}

	if actual.Equal(expected) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Settlement amount matches: %s", actual))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Settlement amount mismatch: receipt has %s, expected %s", actual, expected))
	return false
}

func validateWinner(input *ReceiptValidationInput, receipt *auctionapi.SettlementReceipt, result *ReceiptValidationResult) bool {
	if input.ExpectedWinner == "" {
		return true
	}
	if receipt.Winner == input.ExpectedWinner {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner matches: %s", receipt.Winner))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Winner mismatch: receipt has %q, expected %q", receipt.Winner, input.ExpectedWinner))
	return false
}

func validateCommitment(input *ReceiptValidationInput, result *ReceiptValidationResult) bool {
	if input.Commitment == "" {
		return true
	}

	amount, err := decimal.NewFromString(input.RevealedAmount)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Revealed amount is not a decimal: %v", err))
		return false
	}

	if core.VerifyBidCommitment(input.Commitment, amount, input.RevealedSecret) {
		result.ValidationDetails = append(result.ValidationDetails, "Commitment matches revealed details")
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Commitment does NOT match revealed details (amount=%s)", amount))
	return false
}
