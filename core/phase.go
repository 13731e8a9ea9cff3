package core

import "fmt"

// Phase is an auction lifecycle phase. Phases only move forward:
// INIT -> BIDDING -> REVEAL -> DONE.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseBidding
	PhaseReveal
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseBidding:
		return "BIDDING"
	case PhaseReveal:
		return "REVEAL"
	case PhaseDone:
		return "DONE"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether p is the final phase of the lifecycle. No
// transitions are permitted out of a terminal phase.
func (p Phase) Terminal() bool {
	return p >= PhaseDone
}

// Next returns the phase following p. Callers must check Terminal first;
// advancing past DONE is rejected by the registry.
func (p Phase) Next() Phase {
	return p + 1
}

// CheckPhase is the phase gate used by every phase-sensitive operation.
// It returns a PhaseNotStartedError if the auction has not yet reached
// the required phase, a PhaseEndedError if it has already moved past it,
// and nil when current == required. Both errors carry the current phase
// for diagnostics.
func CheckPhase(current, required Phase) error {
	if current < required {
		return &PhaseNotStartedError{Required: required, Current: current}
	}
	if current > required {
		return &PhaseEndedError{Required: required, Current: current}
	}
	return nil
}
