package session

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseJoining
	PhaseJoined
	PhasePublishing
	PhasePublished
	PhaseSubscribing
	PhaseRenegotiating
	PhaseLeaving
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseJoining:
		return "joining"
	case PhaseJoined:
		return "joined"
	case PhasePublishing:
		return "publishing"
	case PhasePublished:
		return "published"
	case PhaseSubscribing:
		return "subscribing"
	case PhaseRenegotiating:
		return "renegotiating"
	case PhaseLeaving:
		return "leaving"
	}
	return "unknown"
}

// transitional reports whether a negotiation round or teardown owns the
// machine in this phase.
func (p Phase) transitional() bool {
	switch p {
	case PhaseJoining, PhasePublishing, PhaseSubscribing, PhaseRenegotiating, PhaseLeaving:
		return true
	}
	return false
}
