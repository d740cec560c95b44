package pipeline

import (
	"fmt"

	"erpverify/internal/domain"
)

// transitions lists the legal successor states of each non-terminal state.
var transitions = map[domain.PipelineState][]domain.PipelineState{
	domain.StateReceived:    {domain.StateClassifying, domain.StateFailed},
	domain.StateClassifying: {domain.StateExtracting, domain.StateCompleted, domain.StateFailed},
	domain.StateExtracting:  {domain.StateAggregating, domain.StateFailed},
	domain.StateAggregating: {domain.StateCompleted, domain.StateFailed},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to domain.PipelineState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// machine tracks the state of one run and its history.
type machine struct {
	state   domain.PipelineState
	history []domain.PipelineState
}

func newMachine() *machine {
	return &machine{
		state:   domain.StateReceived,
		history: []domain.PipelineState{domain.StateReceived},
	}
}

func (m *machine) advance(to domain.PipelineState) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("illegal state transition %s -> %s", m.state, to)
	}
	m.state = to
	m.history = append(m.history, to)
	return nil
}

func (m *machine) History() []domain.PipelineState {
	out := make([]domain.PipelineState, len(m.history))
	copy(out, m.history)
	return out
}
