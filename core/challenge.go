package core

import "github.com/shopspring/decimal"

// EvaluateChallenge decides whether a revealed amount displaces the
// current highest bid. This is the single authoritative comparator for
// the whole engine: ties favor the incumbent, so a challenger must reveal
// a strictly greater amount to win.
//
// Returns the highest-bid record after the challenge and whether the
// challenger was accepted. When the challenger is not accepted the
// current record is returned unchanged.
func EvaluateChallenge(current HighestBid, challenger Principal, amount decimal.Decimal) (HighestBid, bool) {
	if amount.Cmp(current.Amount) <= 0 {
		return current, false
	}
	return HighestBid{Bidder: challenger, Amount: amount}, true
}
