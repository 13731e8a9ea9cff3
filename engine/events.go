package engine

import (
	"sync"
	"time"

	"github.com/cloudx-io/blindauction/core"
)

// EventKind identifies one externally observable engine action.
type EventKind string

const (
	EventAuctionRegistration EventKind = "auction_registration"
	EventPhaseChanged        EventKind = "phase_changed"
	EventNewBid              EventKind = "new_bid"
	EventRevealSettled       EventKind = "reveal_settled"
	EventWithdrawal          EventKind = "withdrawal"
	EventAuctionSettled      EventKind = "auction_settled"
)

// Event is one entry of the append-only event log. Seq is assigned by the
// engine and strictly increases across all auctions. Amount and Phase are
// strings for stable wire encoding; Amount is the decimal string of the
// value the event reports (refund, withdrawal, settlement).
type Event struct {
	Seq       uint64         `json:"seq" cbor:"seq"`
	Kind      EventKind      `json:"kind" cbor:"kind"`
	AuctionID string         `json:"auction_id,omitempty" cbor:"auction_id,omitempty"`
	Principal core.Principal `json:"principal,omitempty" cbor:"principal,omitempty"`
	Phase     string         `json:"phase,omitempty" cbor:"phase,omitempty"`
	Amount    string         `json:"amount,omitempty" cbor:"amount,omitempty"`
	Timestamp time.Time      `json:"timestamp" cbor:"timestamp"`
}

// EventSink receives engine events in emission order. Implementations
// must not block for long; the engine emits while holding its lock so
// event order matches state mutation order.
type EventSink interface {
	Emit(Event)
}

// MemorySink buffers events in memory, for tests and diagnostics.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of all buffered events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// multiSink fans one event out to several sinks.
type multiSink []EventSink

func (m multiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
