package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/validation"
)

func TestReceiptSigner_SignAndVerify(t *testing.T) {
	signer, err := NewReceiptSigner()
	assert.Nil(t, err)

	receipt := auctionapi.SettlementReceipt{
		AuctionID:   "auction-1",
		Beneficiary: "seller",
		Winner:      "alice",
		Amount:      "42.5",
		Timestamp:   time.Now(),
	}

	coseBytes, err := signer.SignReceipt(receipt)
	assert.Nil(t, err)

	pemKey, err := signer.PublicKeyPEM()
	assert.Nil(t, err)
	check.True(t, strings.HasPrefix(pemKey, "-----BEGIN PUBLIC KEY-----"))

	check.Nil(t, validation.VerifyReceiptSignature(coseBytes.EncodeBase64(), pemKey))
}

func TestReceiptSigner_WrongKeyRejected(t *testing.T) {
	signer, err := NewReceiptSigner()
	assert.Nil(t, err)
	other, err := NewReceiptSigner()
	assert.Nil(t, err)

	coseBytes, err := signer.SignReceipt(auctionapi.SettlementReceipt{AuctionID: "auction-1", Amount: "1"})
	assert.Nil(t, err)

	otherPEM, err := other.PublicKeyPEM()
	assert.Nil(t, err)

	check.NotNil(t, validation.VerifyReceiptSignature(coseBytes.EncodeBase64(), otherPEM))
}
