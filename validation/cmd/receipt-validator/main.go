package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/validation"
)

func main() {
	// Define CLI flags
	var (
		receiptInput   = flag.String("receipt", "", "Settlement receipt COSE (base64, inline or file path)")
		keyInput       = flag.String("public-key", "", "Engine receipt verification key (PEM, inline or file path)")
		auctionID      = flag.String("auction-id", "", "Expected auction id (optional)")
		amount         = flag.String("amount", "", "Expected settlement amount (optional)")
		winner         = flag.String("winner", "", "Expected winner principal (optional)")
		commitment     = flag.String("commitment", "", "Bid commitment to recompute (optional, needs --revealed-amount and --revealed-secret)")
		revealedAmount = flag.String("revealed-amount", "", "Revealed bid amount for commitment recomputation")
		revealedSecret = flag.String("revealed-secret", "", "Revealed bid secret for commitment recomputation")
		outputFormat   = flag.String("format", "text", "Output format: text or json")
		help           = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	// Show help
	if *help {
		showUsage()
		os.Exit(0)
	}

	// Check for required inputs
	if *receiptInput == "" || *keyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --receipt and --public-key are required\n")
		os.Exit(1)
	}

	receipt, err := readInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	publicKey, err := readInput(*keyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading public key: %v\n", err)
		os.Exit(2)
	}

	// Validate using library
	result, err := validation.ValidateSettlementReceipt(&validation.ReceiptValidationInput{
		ReceiptCOSEBase64: auctionapi.ReceiptCOSEBase64(strings.TrimSpace(receipt)),
		PublicKeyPEM:      publicKey,
		ExpectedAuctionID: *auctionID,
		ExpectedAmount:    *amount,
		ExpectedWinner:    *winner,
		Commitment:        *commitment,
		RevealedAmount:    *revealedAmount,
		RevealedSecret:    *revealedSecret,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	// Output results
	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	// Exit with appropriate code
	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println()
	fmt.Println("Verifies COSE-signed settlement receipts issued by the auction engine.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <base64> --public-key <pem> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <base64>                Receipt COSE bytes (inline base64 or file path)")
	fmt.Println("  --public-key <pem>                Engine verification key (inline PEM or file path)")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --auction-id <id>                 Check the receipt covers this auction")
	fmt.Println("  --amount <decimal>                Check the settled amount")
	fmt.Println("  --winner <principal>              Check the winning bidder")
	fmt.Println("  --commitment <hex>                Recompute a bid commitment, with:")
	fmt.Println("  --revealed-amount <decimal>       ... the revealed amount")
	fmt.Println("  --revealed-secret <string>        ... the revealed secret")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) (string, error) {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return string(data), nil
	}
	// Treat as inline value
	return input, nil
}

func outputText(result *validation.ReceiptValidationResult) {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println("============================")
	fmt.Println()

	fmt.Println("Validation Results:")
	fmt.Println("-------------------")

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Signature Valid:   %v\n", result.SignatureValid)
	fmt.Printf("  Payload Valid:     %v\n", result.PayloadValid)
	fmt.Printf("  Auction ID Valid:  %v\n", result.AuctionIDValid)
	fmt.Printf("  Amount Valid:      %v\n", result.AmountValid)
	fmt.Printf("  Winner Valid:      %v\n", result.WinnerValid)
	fmt.Printf("  Commitment Valid:  %v\n", result.CommitmentValid)

	if result.Receipt != nil {
		fmt.Println()
		fmt.Println("Receipt:")
		fmt.Printf("  Auction:     %s\n", result.Receipt.AuctionID)
		fmt.Printf("  Beneficiary: %s\n", result.Receipt.Beneficiary)
		fmt.Printf("  Winner:      %s\n", result.Receipt.Winner)
		fmt.Printf("  Amount:      %s\n", result.Receipt.Amount)
		fmt.Printf("  Timestamp:   %s\n", result.Receipt.Timestamp)
	}

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("============================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
		fmt.Println("Exit Code: 0")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
		fmt.Println("Exit Code: 1")
	}
}

func outputJSON(result *validation.ReceiptValidationResult) {
	output := map[string]any{
		"valid":            result.IsValid(),
		"signature_valid":  result.SignatureValid,
		"payload_valid":    result.PayloadValid,
		"auction_id_valid": result.AuctionIDValid,
		"amount_valid":     result.AmountValid,
		"winner_valid":     result.WinnerValid,
		"commitment_valid": result.CommitmentValid,
		"details":          result.ValidationDetails,
	}
	if result.Receipt != nil {
		output["receipt"] = result.Receipt
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
