package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/auctionapi"
	"github.com/cloudx-io/blindauction/core"
)

// Engine is the auction orchestrator. It validates caller authority and
// the current phase, then delegates to the store, comparator and
// accounting, emitting one event per externally observable action.
//
// A single mutex serializes every operation: each call executes to
// completion atomically with respect to all shared state, the execution
// model the accounting invariants assume. External value transfers happen
// only after the call's bookkeeping is in place, and the bookkeeping is
// rolled back if the transfer fails.
type Engine struct {
	mu       sync.Mutex
	store    *Store
	treasury Treasury
	signer   *ReceiptSigner
	sink     EventSink
	now      func() time.Time
	seq      uint64
}

// New creates an Engine paying out through treasury. signer may be nil,
// in which case settlements produce unsigned results. Events go to every
// sink, in emission order.
func New(treasury Treasury, signer *ReceiptSigner, sinks ...EventSink) *Engine {
	return &Engine{
		store:    NewStore(),
		treasury: treasury,
		signer:   signer,
		sink:     multiSink(sinks),
		now:      time.Now,
	}
}

// RevealResult reports how a reveal settled: whether the revealed amount
// became the new highest bid, and the deposit excess refunded to the
// revealer.
type RevealResult struct {
	Accepted bool
	Refund   decimal.Decimal
}

// Settlement is the outcome of ending an auction: the receipt payload and
// its COSE_Sign1 envelope (nil when the engine has no signer).
type Settlement struct {
	Receipt auctionapi.SettlementReceipt
	COSE    auctionapi.ReceiptCOSE
}

// NewAuction registers an auction for beneficiary and returns its id. The
// id is derived from the beneficiary, the creation instant and a random
// nonce, and is re-derived on the (vanishingly unlikely) collision with
// an existing id.
func (e *Engine) NewAuction(beneficiary core.Principal) (string, error) {
	if beneficiary == "" {
		return "", fmt.Errorf("beneficiary principal is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	createdAt := e.now()
	var id string
	for {
		nonce, err := generateNonce()
		if err != nil {
			return "", fmt.Errorf("failed to generate auction id nonce: %w", err)
		}
		id = core.ComputeAuctionID(beneficiary, createdAt, nonce)
		if _, exists := e.store.Auction(id); !exists {
			break
		}
	}

	e.store.AddAuction(&core.Auction{
		ID:          id,
		Beneficiary: beneficiary,
		Phase:       core.PhaseInit,
		CreatedAt:   createdAt,
	})

	log.Printf("INFO: Auction %s registered for beneficiary %s", id, beneficiary)
	e.emit(Event{Kind: EventAuctionRegistration, AuctionID: id, Principal: beneficiary})
	return id, nil
}

// NextPhase advances the auction to its next lifecycle phase. Only the
// beneficiary may advance phases; a terminal auction cannot advance.
func (e *Engine) NextPhase(auctionID string, caller core.Principal) (core.Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.Auction(auctionID)
	if !ok {
		return 0, fmt.Errorf("auction %s: %w", auctionID, core.ErrAuctionNotFound)
	}
	if caller != a.Beneficiary {
		return 0, fmt.Errorf("advance phase of auction %s: %w", auctionID, core.ErrNotAuthorized)
	}
	if a.Phase.Terminal() {
		return 0, fmt.Errorf("auction %s: %w", auctionID, core.ErrAuctionEnded)
	}

	a.Phase = a.Phase.Next()

	log.Printf("INFO: Auction %s advanced to phase %s", auctionID, a.Phase)
	e.emit(Event{Kind: EventPhaseChanged, AuctionID: auctionID, Principal: caller, Phase: a.Phase.String()})
	return a.Phase, nil
}

// PlaceBid stores a sealed bid with its escrow deposit. Requires the
// bidding phase. A bidder re-bidding overwrites their previous commitment
// (last write wins); the overwritten deposit is credited to the bidder's
// pending refunds rather than silently absorbed.
func (e *Engine) PlaceBid(auctionID string, bidder core.Principal, commitment string, deposit decimal.Decimal) error {
	if deposit.Sign() <= 0 {
		return fmt.Errorf("deposit must be positive, got %s", deposit)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.Auction(auctionID)
	if !ok {
		return fmt.Errorf("auction %s: %w", auctionID, core.ErrAuctionNotFound)
	}
	if err := core.CheckPhase(a.Phase, core.PhaseBidding); err != nil {
		return fmt.Errorf("place bid in auction %s: %w", auctionID, err)
	}

	prev, had := e.store.PutBid(auctionID, &core.Bid{
		Bidder:     bidder,
		Commitment: commitment,
		Deposit:    deposit,
	})
	if had {
		// The replaced escrow goes to pending refunds so no deposited
		// value is lost by re-bidding.
		e.store.CreditPendingReturn(bidder, prev.Deposit)
		log.Printf("INFO: Bidder %s re-bid in auction %s, previous deposit %s queued for refund",
			bidder, auctionID, prev.Deposit)
	}

	log.Printf("INFO: New bid by %s in auction %s (deposit %s)", bidder, auctionID, deposit)
	e.emit(Event{Kind: EventNewBid, AuctionID: auctionID, Principal: bidder, Amount: deposit.String()})
	return nil
}

// GetAuctions lists one slot per known auction, in registration order.
// Slots not belonging to the caller are zero-value placeholders rather
// than omitted, preserving positional correspondence with the internal
// id ordering.
func (e *Engine) GetAuctions(caller core.Principal) []core.Auction {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := e.store.AuctionIDs()
	out := make([]core.Auction, len(ids))
	for i, id := range ids {
		a, _ := e.store.Auction(id)
		if a.Beneficiary == caller {
			out[i] = *a
		}
	}
	return out
}

// Reveal opens the caller's sealed bid for an auction. Requires the
// reveal phase. The revealed (amount, secret) pair must match the stored
// commitment; a commitment is consumed by at most one reveal. A revealed
// amount covered by the deposit challenges the current highest bid; on
// acceptance the winning amount stays in the engine's custody and only
// the excess is refunded. The displaced previous winner's revealed amount
// is credited to their pending refunds.
func (e *Engine) Reveal(auctionID string, caller core.Principal, amount decimal.Decimal, secret string) (RevealResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.Auction(auctionID)
	if !ok {
		return RevealResult{}, fmt.Errorf("auction %s: %w", auctionID, core.ErrAuctionNotFound)
	}
	if err := core.CheckPhase(a.Phase, core.PhaseReveal); err != nil {
		return RevealResult{}, fmt.Errorf("reveal in auction %s: %w", auctionID, err)
	}

	bid, ok := e.store.Bid(auctionID, caller)
	if !ok {
		return RevealResult{}, fmt.Errorf("reveal by %s in auction %s: %w", caller, auctionID, core.ErrNoBidFound)
	}
	if bid.Revealed {
		return RevealResult{}, fmt.Errorf("reveal by %s in auction %s: %w", caller, auctionID, core.ErrBidAlreadyRevealed)
	}
	if !core.VerifyBidCommitment(bid.Commitment, amount, secret) {
		return RevealResult{}, &core.InvalidBidDetailsError{Amount: amount, Secret: secret}
	}

	refund := bid.Deposit
	accepted := false
	current := e.store.HighestBid(auctionID)

	// A revealed amount exceeding the deposit can never win: the escrow
	// would not cover the bid, so the challenge is not attempted and the
	// full deposit comes back.
	if bid.Deposit.Cmp(amount) >= 0 {
		updated, won := core.EvaluateChallenge(current, caller, amount)
		if won {
			if current.Bidder != "" {
				e.store.CreditPendingReturn(current.Bidder, current.Amount)
			}
			e.store.SetHighestBid(auctionID, updated)
			accepted = true
			refund = refund.Sub(amount)
		}
	}

	bid.Revealed = true

	// Bookkeeping is committed; the excess refund moves last. A failed
	// transfer rolls this call back completely.
	if refund.Sign() > 0 {
		if err := e.treasury.Transfer(caller, refund); err != nil {
			bid.Revealed = false
			if accepted {
				e.store.SetHighestBid(auctionID, current)
				if current.Bidder != "" {
					e.store.debitPendingReturn(current.Bidder, current.Amount)
				}
			}
			return RevealResult{}, fmt.Errorf("refund transfer to %s failed: %w", caller, err)
		}
	}

	log.Printf("INFO: Reveal by %s in auction %s settled: accepted=%v refund=%s",
		caller, auctionID, accepted, refund)
	e.emit(Event{Kind: EventRevealSettled, AuctionID: auctionID, Principal: caller, Amount: refund.String()})
	return RevealResult{Accepted: accepted, Refund: refund}, nil
}

// Withdraw pays out the caller's pending refund balance. The balance is
// zeroed before the transfer, so a re-entrant or repeated withdrawal
// observes zero and fails with ErrNothingToRefund.
func (e *Engine) Withdraw(caller core.Principal) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount := e.store.TakePendingReturn(caller)
	if amount.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("withdraw by %s: %w", caller, core.ErrNothingToRefund)
	}

	if err := e.treasury.Transfer(caller, amount); err != nil {
		e.store.CreditPendingReturn(caller, amount)
		return decimal.Zero, fmt.Errorf("withdrawal transfer to %s failed: %w", caller, err)
	}

	log.Printf("INFO: Withdrawal by %s: %s", caller, amount)
	e.emit(Event{Kind: EventWithdrawal, Principal: caller, Amount: amount.String()})
	return amount, nil
}

// EndAuction settles the winning amount to the beneficiary. Requires the
// caller to be the beneficiary and the auction to be in its terminal
// phase. Settlement happens exactly once: the settled flag makes repeat
// calls fail with ErrAuctionSettled instead of double-transferring.
func (e *Engine) EndAuction(auctionID string, caller core.Principal) (*Settlement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.Auction(auctionID)
	if !ok {
		return nil, fmt.Errorf("auction %s: %w", auctionID, core.ErrAuctionNotFound)
	}
	if caller != a.Beneficiary {
		return nil, fmt.Errorf("settle auction %s: %w", auctionID, core.ErrNotAuthorized)
	}
	if err := core.CheckPhase(a.Phase, core.PhaseDone); err != nil {
		return nil, fmt.Errorf("settle auction %s: %w", auctionID, err)
	}
	if a.Settled {
		return nil, fmt.Errorf("auction %s: %w", auctionID, core.ErrAuctionSettled)
	}

	highest := e.store.HighestBid(auctionID)
	settlement := &Settlement{
		Receipt: auctionapi.SettlementReceipt{
			AuctionID:   auctionID,
			Beneficiary: string(a.Beneficiary),
			Winner:      string(highest.Bidder),
			Amount:      highest.Amount.String(),
			Timestamp:   e.now(),
		},
	}

	// Sign before mutating anything so a signing failure aborts the call
	// with no state change.
	if e.signer != nil {
		coseBytes, err := e.signer.SignReceipt(settlement.Receipt)
		if err != nil {
			return nil, fmt.Errorf("failed to sign settlement receipt for auction %s: %w", auctionID, err)
		}
		settlement.COSE = coseBytes
	}

	a.Settled = true

	if highest.Amount.Sign() > 0 {
		if err := e.treasury.Transfer(a.Beneficiary, highest.Amount); err != nil {
			a.Settled = false
			return nil, fmt.Errorf("settlement transfer to %s failed: %w", a.Beneficiary, err)
		}
	}

	log.Printf("INFO: Auction %s settled: winner=%s amount=%s beneficiary=%s",
		auctionID, winnerName(highest), highest.Amount, a.Beneficiary)
	e.emit(Event{Kind: EventAuctionSettled, AuctionID: auctionID, Principal: a.Beneficiary, Amount: highest.Amount.String()})
	return settlement, nil
}

// PendingReturn reports the caller's current pending refund balance.
// Read-only; useful for clients deciding whether to withdraw.
func (e *Engine) PendingReturn(caller core.Principal) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.PendingReturn(caller)
}

func (e *Engine) emit(ev Event) {
	e.seq++
	ev.Seq = e.seq
	ev.Timestamp = e.now()
	if e.sink != nil {
		e.sink.Emit(ev)
	}
}

func winnerName(hb core.HighestBid) string {
	if hb.Bidder == "" {
		return "none"
	}
	return string(hb.Bidder)
}

// generateNonce returns 256 bits of entropy as a hex string.
func generateNonce() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("entropy generation failed: %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
