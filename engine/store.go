package engine

import (
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/core"
)

// Store owns all settlement state: auction records, sealed bids,
// highest-bid records and pending refund balances, plus the ordered list
// of auction ids. The ordered list is load-bearing: listings preserve
// positional correspondence with registration order.
//
// Relations between the maps are by id/principal lookup only; no record
// points into another map. Store does no locking of its own, the Engine
// serializes access.
type Store struct {
	auctions   map[string]*core.Auction
	auctionIDs []string

	// bids is keyed by auction id, then bidder.
	bids map[string]map[core.Principal]*core.Bid

	highestBids map[string]*core.HighestBid

	pendingReturns map[core.Principal]decimal.Decimal
}

func NewStore() *Store {
	return &Store{
		auctions:       make(map[string]*core.Auction),
		bids:           make(map[string]map[core.Principal]*core.Bid),
		highestBids:    make(map[string]*core.HighestBid),
		pendingReturns: make(map[core.Principal]decimal.Decimal),
	}
}

// Auction returns the auction record for id, if known.
func (s *Store) Auction(id string) (*core.Auction, bool) {
	a, ok := s.auctions[id]
	return a, ok
}

// AddAuction registers a new auction record and appends its id to the
// ordered list. The caller guarantees the id is fresh.
func (s *Store) AddAuction(a *core.Auction) {
	s.auctions[a.ID] = a
	s.auctionIDs = append(s.auctionIDs, a.ID)
}

// AuctionIDs returns the auction ids in registration order.
func (s *Store) AuctionIDs() []string {
	return s.auctionIDs
}

// Bid returns the live bid for (auctionID, bidder), if any.
func (s *Store) Bid(auctionID string, bidder core.Principal) (*core.Bid, bool) {
	b, ok := s.bids[auctionID][bidder]
	return b, ok
}

// PutBid stores a bid, overwriting any previous bid by the same bidder
// for the same auction (last write wins). Returns the overwritten bid, if
// there was one.
func (s *Store) PutBid(auctionID string, bid *core.Bid) (*core.Bid, bool) {
	byBidder, ok := s.bids[auctionID]
	if !ok {
		byBidder = make(map[core.Principal]*core.Bid)
		s.bids[auctionID] = byBidder
	}
	prev, had := byBidder[bid.Bidder]
	byBidder[bid.Bidder] = bid
	return prev, had
}

// HighestBid returns the current winner record for auctionID. The zero
// record is returned when no reveal has been accepted yet.
func (s *Store) HighestBid(auctionID string) core.HighestBid {
	if hb, ok := s.highestBids[auctionID]; ok {
		return *hb
	}
	return core.HighestBid{}
}

// SetHighestBid replaces the winner record for auctionID.
func (s *Store) SetHighestBid(auctionID string, hb core.HighestBid) {
	s.highestBids[auctionID] = &hb
}

// PendingReturn returns the caller's pending refund balance (zero when no
// entry exists).
func (s *Store) PendingReturn(p core.Principal) decimal.Decimal {
	return s.pendingReturns[p]
}

// CreditPendingReturn accumulates amount into the principal's pending
// refund balance. Accumulation (rather than overwrite) means a principal
// displaced twice before withdrawing keeps both credits.
func (s *Store) CreditPendingReturn(p core.Principal, amount decimal.Decimal) {
	s.pendingReturns[p] = s.pendingReturns[p].Add(amount)
}

// debitPendingReturn reverses a credit during rollback of a failed
// transfer. Never exposed outside the engine.
func (s *Store) debitPendingReturn(p core.Principal, amount decimal.Decimal) {
	remaining := s.pendingReturns[p].Sub(amount)
	if remaining.Sign() == 0 {
		delete(s.pendingReturns, p)
		return
	}
	s.pendingReturns[p] = remaining
}

// TakePendingReturn atomically zeroes and returns the principal's pending
// refund balance. Zero-before-transfer: callers must zero the balance
// before moving any value.
func (s *Store) TakePendingReturn(p core.Principal) decimal.Decimal {
	amount := s.pendingReturns[p]
	delete(s.pendingReturns, p)
	return amount
}
