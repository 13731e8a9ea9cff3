package validation

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engine"
)

func signedReceipt(t *testing.T, receipt auctionapi.SettlementReceipt) (auctionapi.ReceiptCOSEBase64, string) {
	t.Helper()
	signer, err := engine.NewReceiptSigner()
	assert.Nil(t, err)
	coseBytes, err := signer.SignReceipt(receipt)
	assert.Nil(t, err)
	pemKey, err := signer.PublicKeyPEM()
	assert.Nil(t, err)
	return coseBytes.EncodeBase64(), pemKey
}

func TestVerifyReceiptSignature(t *testing.T) {
	coseB64, pemKey := signedReceipt(t, auctionapi.SettlementReceipt{
		AuctionID: "auction-1",
		Winner:    "alice",
		Amount:    "70",
		Timestamp: time.Now(),
	})

	check.Nil(t, VerifyReceiptSignature(coseB64, pemKey))
}

func TestVerifyReceiptSignature_Tampered(t *testing.T) {
	coseB64, pemKey := signedReceipt(t, auctionapi.SettlementReceipt{AuctionID: "auction-1", Amount: "70"})

	coseBytes, err := coseB64.Decode()
	assert.Nil(t, err)
	coseBytes[len(coseBytes)-1] ^= 0xff
	tampered := auctionapi.ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(coseBytes))

	check.NotNil(t, VerifyReceiptSignature(tampered, pemKey))
}

func TestVerifyReceiptSignature_BadInput(t *testing.T) {
	_, pemKey := signedReceipt(t, auctionapi.SettlementReceipt{AuctionID: "a"})

	check.NotNil(t, VerifyReceiptSignature("not-base64!!", pemKey))
	check.NotNil(t, VerifyReceiptSignature("", pemKey))

	coseB64, _ := signedReceipt(t, auctionapi.SettlementReceipt{AuctionID: "a"})
	check.NotNil(t, VerifyReceiptSignature(coseB64, "not a pem key"))
}

func TestParseReceipt(t *testing.T) {
	want := auctionapi.SettlementReceipt{
		AuctionID:   "auction-1",
		Beneficiary: "seller",
		Winner:      "alice",
		Amount:      "42.5",
	}
	coseB64, _ := signedReceipt(t, want)

	receipt, err := ParseReceipt(coseB64)
	assert.Nil(t, err)
	check.Equal(t, want.AuctionID, receipt.AuctionID)
	check.Equal(t, want.Beneficiary, receipt.Beneficiary)
	check.Equal(t, want.Winner, receipt.Winner)
	check.Equal(t, want.Amount, receipt.Amount)
}

func TestValidateSettlementReceipt_AllChecksPass(t *testing.T) {
	amount := decimal.RequireFromString("42.5")
	secret := "bid-secret"
	commitment := core.ComputeBidCommitment(amount, secret)

	coseB64, pemKey := signedReceipt(t, auctionapi.SettlementReceipt{
		AuctionID: "auction-1",
		Winner:    "alice",
		Amount:    "42.5",
		Timestamp: time.Now(),
	})

	result, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: coseB64,
		PublicKeyPEM:      pemKey,
		ExpectedAuctionID: "auction-1",
		ExpectedAmount:    "42.50", // decimal comparison, not string comparison
		ExpectedWinner:    "alice",
		Commitment:        commitment,
		RevealedAmount:    "42.5",
		RevealedSecret:    secret,
	})
	assert.Nil(t, err)
	check.True(t, result.IsValid())
	check.True(t, result.SignatureValid)
	check.True(t, result.CommitmentValid)
}

func TestValidateSettlementReceipt_Mismatches(t *testing.T) {
	coseB64, pemKey := signedReceipt(t, auctionapi.SettlementReceipt{
		AuctionID: "auction-1",
		Winner:    "alice",
		Amount:    "70",
	})

	tests := []struct {
		name  string
		input ReceiptValidationInput
		field func(*ReceiptValidationResult) bool
	}{
		{
			name:  "wrong auction id",
			input: ReceiptValidationInput{ExpectedAuctionID: "auction-2"},
			field: func(r *ReceiptValidationResult) bool { return r.AuctionIDValid },
		},
		{
			name:  "wrong amount",
			input: ReceiptValidationInput{ExpectedAmount: "71"},
			field: func(r *ReceiptValidationResult) bool { return r.AmountValid },
		},
		{
			name:  "wrong winner",
			input: ReceiptValidationInput{ExpectedWinner: "bob"},
			field: func(r *ReceiptValidationResult) bool { return r.WinnerValid },
		},
		{
			name: "wrong commitment details",
			input: ReceiptValidationInput{
				Commitment:     core.ComputeBidCommitment(decimal.RequireFromString("70"), "right"),
				RevealedAmount: "70",
				RevealedSecret: "wrong",
			},
			field: func(r *ReceiptValidationResult) bool { return r.CommitmentValid },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			input.ReceiptCOSEBase64 = coseB64
			input.PublicKeyPEM = pemKey

			result, err := ValidateSettlementReceipt(&input)
			assert.Nil(t, err)
			check.Equal(t, false, tt.field(result))
			check.Equal(t, false, result.IsValid())
			check.True(t, result.SignatureValid)
		})
	}
}

func TestValidateSettlementReceipt_SkipsEmptyChecks(t *testing.T) {
	coseB64, pemKey := signedReceipt(t, auctionapi.SettlementReceipt{AuctionID: "auction-1", Amount: "70"})

	result, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: coseB64,
		PublicKeyPEM:      pemKey,
	})
	assert.Nil(t, err)
	check.True(t, result.IsValid())
}

func TestValidateSettlementReceipt_MissingInputs(t *testing.T) {
	_, err := ValidateSettlementReceipt(&ReceiptValidationInput{PublicKeyPEM: "x"})
	check.NotNil(t, err)

	_, err = ValidateSettlementReceipt(&ReceiptValidationInput{ReceiptCOSEBase64: "x"})
	check.NotNil(t, err)
}
