package auctionapi

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"
)

// TestReceiptCOSE_Encode tests encoding raw COSE bytes to base64
func TestReceiptCOSE_Encode(t *testing.T) {
	coseBytes := ReceiptCOSE([]byte("mock-cose-receipt-data"))

	encoded := coseBytes.EncodeBase64()
	check.NotEqual(t, "", encoded.String())

	decoded, err := encoded.Decode()
	check.Nil(t, err)
	check.Equal(t, coseBytes, decoded)
}

// TestReceiptCOSE_CompressGzip tests GZIP compression with URL-safe encoding
func TestReceiptCOSE_CompressGzip(t *testing.T) {
	coseBytes := ReceiptCOSE([]byte("mock-cose-receipt-data-for-compression-testing"))

	compressed, err := coseBytes.CompressGzip()
	check.Nil(t, err)
	check.NotEqual(t, "", compressed.String())

	compressedStr := compressed.String()
	check.True(t, !strings.Contains(compressedStr, "+"))
	check.True(t, !strings.Contains(compressedStr, "/"))
	check.True(t, !strings.Contains(compressedStr, "="))

	for _, char := range compressedStr {
		valid := (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_'
		check.True(t, valid)
	}

	decompressed, err := compressed.Decompress()
	check.Nil(t, err)
	check.Equal(t, coseBytes, decompressed)
}

// TestReceiptCOSEBase64_Decode tests decoding base64 to raw bytes
func TestReceiptCOSEBase64_Decode(t *testing.T) {
	tests := []struct {
		name      string
		input     ReceiptCOSEBase64
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "valid base64",
			input:   "bW9jay1jb3NlLXJlY2VpcHQ=",
			wantErr: false,
		},
		{
			name:      "invalid base64 - illegal characters",
			input:     "not-valid-base64!!!@@@",
			wantErr:   true,
			errSubstr: "decode COSE base64",
		},
		{
			name:      "invalid base64 - wrong padding",
			input:     "abc",
			wantErr:   true,
			errSubstr: "decode COSE base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.input.Decode()

			if tt.wantErr {
				check.NotNil(t, err)
				check.True(t, strings.Contains(err.Error(), tt.errSubstr))
				check.Nil(t, result)
			} else {
				check.Nil(t, err)
				check.NotNil(t, result)
			}
		})
	}
}

// TestReceiptCOSEGzip_Decompress_Invalid tests malformed gzip input
func TestReceiptCOSEGzip_Decompress_Invalid(t *testing.T) {
	invalid := ReceiptCOSEGzip("bm90LWd6aXAtZGF0YQ")

	_, err := invalid.Decompress()
	check.NotNil(t, err)
}

func TestPlaceBidRequest_Validate(t *testing.T) {
	validCommitment := strings.Repeat("ab", 32)

	tests := []struct {
		name      string
		req       PlaceBidRequest
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "valid",
			req:     PlaceBidRequest{Commitment: validCommitment, Deposit: "60"},
			wantErr: false,
		},
		{
			name:    "valid fractional deposit",
			req:     PlaceBidRequest{Commitment: validCommitment, Deposit: "0.000001"},
			wantErr: false,
		},
		{
			name:      "commitment too short",
			req:       PlaceBidRequest{Commitment: "abcd", Deposit: "60"},
			wantErr:   true,
			errSubstr: "64 hex characters",
		},
		{
			name:      "commitment not hex",
			req:       PlaceBidRequest{Commitment: strings.Repeat("zz", 32), Deposit: "60"},
			wantErr:   true,
			errSubstr: "not valid hex",
		},
		{
			name:      "deposit not a number",
			req:       PlaceBidRequest{Commitment: validCommitment, Deposit: "sixty"},
			wantErr:   true,
			errSubstr: "invalid deposit",
		},
		{
			name:      "zero deposit",
			req:       PlaceBidRequest{Commitment: validCommitment, Deposit: "0"},
			wantErr:   true,
			errSubstr: "must be positive",
		},
		{
			name:      "negative deposit",
			req:       PlaceBidRequest{Commitment: validCommitment, Deposit: "-5"},
			wantErr:   true,
			errSubstr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				check.NotNil(t, err)
				check.True(t, strings.Contains(err.Error(), tt.errSubstr))
			} else {
				check.Nil(t, err)
			}
		})
	}
}

func TestRevealRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RevealRequest
		wantErr bool
	}{
		{"valid", RevealRequest{Amount: "50", Secret: "s1"}, false},
		{"zero amount allowed", RevealRequest{Amount: "0", Secret: "s1"}, false},
		{"empty secret allowed", RevealRequest{Amount: "50", Secret: ""}, false},
		{"negative amount", RevealRequest{Amount: "-1", Secret: "s1"}, true},
		{"not a number", RevealRequest{Amount: "fifty", Secret: "s1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				check.NotNil(t, err)
			} else {
				check.Nil(t, err)
			}
		})
	}
}
