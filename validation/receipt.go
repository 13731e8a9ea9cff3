package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/blindauction/auctionapi"
)

// ExtractReceiptPayload extracts the payload from a COSE_Sign1 envelope
// without verifying the signature. Useful for inspecting a receipt before
// deciding which key to verify it against.
func ExtractReceiptPayload(coseBytes []byte) ([]byte, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1 message: %w", err)
	}
	if msg.Payload == nil {
		return nil, fmt.Errorf("invalid payload in COSE structure")
	}
	return msg.Payload, nil
}

// ParsePublicKeyPEM parses a PEM-encoded ECDSA verification key, the
// format the engine publishes its receipt key in.
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaKey, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// VerifyReceiptSignature verifies a settlement receipt's COSE_Sign1
// signature given base64-encoded COSE bytes and the engine's PEM-encoded
// verification key. Receipts are signed with ES256 (ECDSA P-256 with
// SHA-256).
func VerifyReceiptSignature(coseB64 auctionapi.ReceiptCOSEBase64, publicKeyPEM string) error {
	coseBytes, err := coseB64.Decode()
	if err != nil {
		return fmt.Errorf("decode COSE bytes: %w", err)
	}

	ecdsaKey, err := ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return err
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return fmt.Errorf("parse COSE_Sign1 message: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, ecdsaKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}

	return nil
}

// ParseReceipt decodes the CBOR settlement receipt payload from a
// COSE_Sign1 envelope. Does not verify the signature; pair with
// VerifyReceiptSignature.
func ParseReceipt(coseB64 auctionapi.ReceiptCOSEBase64) (*auctionapi.SettlementReceipt, error) {
	coseBytes, err := coseB64.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode COSE bytes: %w", err)
	}

	payload, err := ExtractReceiptPayload(coseBytes)
	if err != nil {
		return nil, err
	}

	var receipt auctionapi.SettlementReceipt
	if err := cbor.Unmarshal(payload, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &receipt, nil
}
