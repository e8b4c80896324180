package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusDraft, StatusSubmitted, StatusInReview, StatusProcessing,
		StatusUnderwriting, StatusConditionallyApproved, StatusApproved,
		StatusClosed, StatusDenied, StatusWithdrawn,
	} {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, Status("PENDING").Valid())
	assert.False(t, Status("").Valid())
}

func TestCanTransitionHappyPath(t *testing.T) {
	chain := []Status{
		StatusDraft, StatusSubmitted, StatusInReview, StatusProcessing,
		StatusUnderwriting, StatusConditionallyApproved, StatusApproved,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]),
			"expected %s -> %s to be allowed", chain[i], chain[i+1])
	}
	assert.True(t, CanTransition(StatusConditionallyApproved, StatusClosed))
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	assert.False(t, CanTransition(StatusSubmitted, StatusApproved))
	assert.False(t, CanTransition(StatusDraft, StatusUnderwriting))
	assert.False(t, CanTransition(StatusInReview, StatusConditionallyApproved))
	assert.False(t, CanTransition(StatusSubmitted, StatusDraft))
}

func TestDeniedWithdrawnReachableFromNonTerminal(t *testing.T) {
	nonTerminal := []Status{
		StatusDraft, StatusSubmitted, StatusInReview, StatusProcessing,
		StatusUnderwriting, StatusConditionallyApproved,
	}
	for _, from := range nonTerminal {
		assert.True(t, CanTransition(from, StatusDenied), "expected %s -> DENIED", from)
		assert.True(t, CanTransition(from, StatusWithdrawn), "expected %s -> WITHDRAWN", from)
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	terminal := []Status{StatusApproved, StatusClosed, StatusDenied, StatusWithdrawn}
	every := []Status{
		StatusDraft, StatusSubmitted, StatusInReview, StatusProcessing,
		StatusUnderwriting, StatusConditionallyApproved, StatusApproved,
		StatusClosed, StatusDenied, StatusWithdrawn,
	}
	for _, from := range terminal {
		assert.True(t, from.IsTerminal())
		assert.Empty(t, Successors(from))
		for _, to := range every {
			assert.False(t, CanTransition(from, to),
				"expected %s -> %s to be rejected", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusConditionallyApproved.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusClosed.IsTerminal())
}
