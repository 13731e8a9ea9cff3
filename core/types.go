package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Principal is an opaque authenticated caller identity. Authentication
// happens outside the engine; the engine only compares principals for
// equality.
type Principal string

// Auction is a registered sealed-bid auction. ID and Beneficiary are
// immutable after creation; Phase is monotonically non-decreasing.
type Auction struct {
	ID          string    `json:"id"`
	Beneficiary Principal `json:"beneficiary"`
	Phase       Phase     `json:"phase"`
	CreatedAt   time.Time `json:"created_at"`

	// Settled records that the winning amount has been paid out to the
	// beneficiary. Settlement happens at most once per auction.
	Settled bool `json:"settled"`
}

// Bid is a committed sealed bid with its escrowed deposit. At most one
// live bid exists per (bidder, auction) pair; re-bidding during the
// bidding phase overwrites the previous commitment.
type Bid struct {
	Bidder     Principal       `json:"bidder"`
	Commitment string          `json:"commitment"`
	Deposit    decimal.Decimal `json:"deposit"`

	// Revealed marks the commitment as consumed. A bid is revealed at
	// most once.
	Revealed bool `json:"revealed"`
}

// HighestBid is the current winner record for one auction. Amount is the
// revealed bid value, not the escrowed deposit. The zero value (empty
// bidder, zero amount) means no bid has been accepted yet.
type HighestBid struct {
	Bidder Principal       `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
}
