package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNegotiationBusy rejects an operation started while another round
	// holds the machine.
	ErrNegotiationBusy = errors.New("negotiation already in progress")

	// ErrNoAnswer marks a publish round the backend acknowledged without
	// producing an answer. The connection stays up so the caller can retry.
	ErrNoAnswer = errors.New("backend produced no answer")

	// ErrSuperseded marks a round abandoned because Leave tore the session
	// down while the round was in flight.
	ErrSuperseded = errors.New("round superseded by leave")
)

// InvalidPhaseError rejects an operation in a resting phase it is not defined
// for.
type InvalidPhaseError struct {
	Op    string
	Phase Phase
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Phase)
}
