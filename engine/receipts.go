package engine

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/blindauction/auctionapi"
)

// ReceiptSigner signs settlement receipts so that settlement can be
// proven to third parties without trusting the engine's API responses.
// The key pair is generated fresh at startup; the verification key is
// published through PublicKeyPEM.
type ReceiptSigner struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
}

// NewReceiptSigner creates a ReceiptSigner with a fresh ECDSA P-256 key pair.
func NewReceiptSigner() (*ReceiptSigner, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt key pair: %w", err)
	}

	return &ReceiptSigner{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// PublicKeyPEM returns the verification key in PEM format.
func (rs *ReceiptSigner) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(rs.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// SignReceipt encodes the receipt as CBOR and wraps it in a COSE_Sign1
// envelope signed with ES256.
func (rs *ReceiptSigner) SignReceipt(receipt auctionapi.SettlementReceipt) (auctionapi.ReceiptCOSE, error) {
	payload, err := cbor.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt payload: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, rs.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("failed to sign receipt: %w", err)
	}

	coseBytes, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to encode COSE message: %w", err)
	}

	return auctionapi.ReceiptCOSE(coseBytes), nil
}
