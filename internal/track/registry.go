package track

import "sync"

// TrackState is the lifecycle state of one requested remote track.
type TrackState int

const (
	TrackRequested TrackState = iota
	TrackBound
	TrackErrored
)

func (s TrackState) String() string {
	switch s {
	case TrackRequested:
		return "requested"
	case TrackBound:
		return "bound"
	case TrackErrored:
		return "errored"
	}
	return "unknown"
}

// Outcome records how the backend resolved one requested track.
type Outcome struct {
	State       TrackState
	MID         string
	Code        string
	Description string
}

// Subscription holds one subscribe round: the requested remote tracks and
// their per-track outcomes. Instances are mutated only while their round is
// pending and are read-only afterwards.
type Subscription struct {
	RemoteSessionID string
	names           []string
	outcomes        map[string]Outcome
}

// NewSubscription builds a subscription for the given remote session.
// Duplicate names collapse, first occurrence keeps the ordering.
func NewSubscription(remoteSessionID string, names []string) *Subscription {
	s := &Subscription{
		RemoteSessionID: remoteSessionID,
		outcomes:        make(map[string]Outcome, len(names)),
	}
	for _, n := range names {
		if _, ok := s.outcomes[n]; ok {
			continue
		}
		s.names = append(s.names, n)
		s.outcomes[n] = Outcome{State: TrackRequested}
	}
	return s
}

// Names returns the requested track names in request order.
func (s *Subscription) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// MarkBound records a successful binding for name.
func (s *Subscription) MarkBound(name, mid string) {
	if _, ok := s.outcomes[name]; !ok {
		return
	}
	s.outcomes[name] = Outcome{State: TrackBound, MID: mid}
}

// MarkErrored records a backend-reported failure for name.
func (s *Subscription) MarkErrored(name, code, description string) {
	if _, ok := s.outcomes[name]; !ok {
		return
	}
	s.outcomes[name] = Outcome{State: TrackErrored, Code: code, Description: description}
}

// Outcome returns the recorded outcome for name.
func (s *Subscription) Outcome(name string) (Outcome, bool) {
	o, ok := s.outcomes[name]
	return o, ok
}

// Outcomes returns a copy of all recorded outcomes keyed by track name.
func (s *Subscription) Outcomes() map[string]Outcome {
	out := make(map[string]Outcome, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}

// Errored reports whether any requested track ended in an error.
func (s *Subscription) Errored() bool {
	for _, o := range s.outcomes {
		if o.State == TrackErrored {
			return true
		}
	}
	return false
}

// Registry holds the session's published bindings and its subscribe history.
// Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	bindings []Binding
	subs     []*Subscription
}

func NewRegistry() *Registry {
	return &Registry{}
}

// SetBindings replaces the published bindings. Every publish round negotiates
// the full local track set, so the previous bindings are discarded wholesale.
func (r *Registry) SetBindings(bindings []Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = append([]Binding(nil), bindings...)
}

// Bindings returns a copy of the current published bindings.
func (r *Registry) Bindings() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Binding(nil), r.bindings...)
}

// AddSubscription records a completed subscribe round.
func (r *Registry) AddSubscription(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, s)
}

// Subscriptions returns the recorded subscribe rounds, oldest first.
func (r *Registry) Subscriptions() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Subscription(nil), r.subs...)
}

// Reset drops all bindings and subscriptions.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = nil
	r.subs = nil
}
