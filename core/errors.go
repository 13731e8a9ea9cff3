package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors returned by the settlement engine. All errors are
// synchronous and non-retryable by the engine itself; callers may retry
// with corrected input.
var (
	// ErrNotAuthorized is returned when the caller lacks the required
	// role for the operation (e.g., a non-beneficiary advancing phases).
	ErrNotAuthorized = errors.New("caller is not authorized for this operation")

	// ErrAuctionNotFound is returned for an unknown auction id.
	ErrAuctionNotFound = errors.New("auction not found")

	// ErrAuctionEnded is returned on an attempt to advance past the
	// terminal phase.
	ErrAuctionEnded = errors.New("auction already ended")

	// ErrNoBidFound is returned by reveal when the caller has no stored
	// commitment for the auction.
	ErrNoBidFound = errors.New("no bid found for caller")

	// ErrBidAlreadyRevealed is returned when a bid's commitment has
	// already been consumed by a successful reveal.
	ErrBidAlreadyRevealed = errors.New("bid already revealed")

	// ErrNothingToRefund is returned by withdraw when the caller has no
	// pending refund balance.
	ErrNothingToRefund = errors.New("nothing to refund")

	// ErrAuctionSettled is returned when settlement is requested for an
	// auction that has already paid out its beneficiary.
	ErrAuctionSettled = errors.New("auction already settled")
)

// PhaseNotStartedError reports a phase-gated operation attempted before
// the auction reached the required phase.
type PhaseNotStartedError struct {
	Required Phase
	Current  Phase
}

func (e *PhaseNotStartedError) Error() string {
	return fmt.Sprintf("phase %s has not started (current phase %s)", e.Required, e.Current)
}

// PhaseEndedError reports a phase-gated operation attempted after the
// auction moved past the required phase.
type PhaseEndedError struct {
	Required Phase
	Current  Phase
}

func (e *PhaseEndedError) Error() string {
	return fmt.Sprintf("phase %s has ended (current phase %s)", e.Required, e.Current)
}

// InvalidBidDetailsError reports a reveal whose (amount, secret) pair
// does not match the stored commitment.
type InvalidBidDetailsError struct {
	Amount decimal.Decimal
	Secret string
}

func (e *InvalidBidDetailsError) Error() string {
	return fmt.Sprintf("revealed details do not match commitment (amount=%s, secret=%q)", e.Amount, e.Secret)
}
