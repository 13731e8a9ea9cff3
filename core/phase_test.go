package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestPhase_Ordering(t *testing.T) {
	// The lifecycle order is load-bearing: phase-gate comparisons and
	// Next() both rely on it.
	check.True(t, PhaseInit < PhaseBidding)
	check.True(t, PhaseBidding < PhaseReveal)
	check.True(t, PhaseReveal < PhaseDone)

	check.Equal(t, PhaseBidding, PhaseInit.Next())
	check.Equal(t, PhaseReveal, PhaseBidding.Next())
	check.Equal(t, PhaseDone, PhaseReveal.Next())
}

func TestPhase_String(t *testing.T) {
	check.Equal(t, "INIT", PhaseInit.String())
	check.Equal(t, "BIDDING", PhaseBidding.String())
	check.Equal(t, "REVEAL", PhaseReveal.String())
	check.Equal(t, "DONE", PhaseDone.String())
	check.Equal(t, "Phase(7)", Phase(7).String())
}

func TestPhase_Terminal(t *testing.T) {
	check.True(t, !PhaseInit.Terminal())
	check.True(t, !PhaseBidding.Terminal())
	check.True(t, !PhaseReveal.Terminal())
	check.True(t, PhaseDone.Terminal())
}

func TestCheckPhase(t *testing.T) {
	// Exact match passes
	check.Nil(t, CheckPhase(PhaseBidding, PhaseBidding))

	// Too early
	err := CheckPhase(PhaseInit, PhaseBidding)
	check.NotNil(t, err)
	var notStarted *PhaseNotStartedError
	check.True(t, errors.As(err, &notStarted))
	check.Equal(t, PhaseBidding, notStarted.Required)
	check.Equal(t, PhaseInit, notStarted.Current)

	// Too late
	err = CheckPhase(PhaseReveal, PhaseBidding)
	check.NotNil(t, err)
	var ended *PhaseEndedError
	check.True(t, errors.As(err, &ended))
	check.Equal(t, PhaseBidding, ended.Required)
	check.Equal(t, PhaseReveal, ended.Current)
}

func TestCheckPhase_ErrorMessages(t *testing.T) {
	err := CheckPhase(PhaseInit, PhaseBidding)
	check.Equal(t, "phase BIDDING has not started (current phase INIT)", err.Error())

	err = CheckPhase(PhaseDone, PhaseReveal)
	check.Equal(t, "phase REVEAL has ended (current phase DONE)", err.Error())
}
