package signaling

import "fmt"

// TransportError reports a backend exchange the client could not accept,
// whether a non-2xx status or a reply that deviates from the endpoint's
// canonical schema. Status is zero when no reply arrived at all.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("backend request: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("http %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("http %d: %s", e.Status, e.Body)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }
