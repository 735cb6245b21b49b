// Package domain holds the ports and wire types shared across the client, so
// the negotiation core can be exercised without a backend or a real peer
// connection.
package domain

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/eapenzacharias/roomrtc/internal/track"
)

// Credentials supplies the bearer credential attached to every backend call.
type Credentials interface {
	CurrentCredential() (string, error)
}

// StaticCredentials is a fixed bearer credential.
type StaticCredentials string

func (c StaticCredentials) CurrentCredential() (string, error) {
	return string(c), nil
}

// Signaler is the request/response signaling surface of the backend.
type Signaler interface {
	Join(ctx context.Context, roomID string) (*JoinResult, error)
	Publish(ctx context.Context, roomID, offerSDP string, bindings []track.Binding) (*NegotiationResult, error)
	Subscribe(ctx context.Context, roomID, offerSDP string, requests []TrackRequest) (*NegotiationResult, error)
	Renegotiate(ctx context.Context, roomID, offerSDP string) (*SessionAnswer, error)
	Leave(ctx context.Context, roomID string) error
}

// TransceiverInfo is a read-only snapshot of one negotiated media line. MID is
// empty until a local description has been committed.
type TransceiverInfo struct {
	MID           string
	Kind          track.Kind
	HasLocalTrack bool
}

// IncomingTrack describes a remote track announced by the connection.
type IncomingTrack struct {
	StreamID string
	ID       string
	Kind     track.Kind
	Codec    string
	Remote   *webrtc.TrackRemote
}

// ConnectionObserver receives connection lifecycle events. Callbacks fire on
// the connection's own goroutines.
type ConnectionObserver interface {
	OnConnectionStateChange(state webrtc.PeerConnectionState)
	OnICEGatheringStateChange(state webrtc.ICEGatheringState)
	OnICECandidate(candidate *webrtc.ICECandidate)
	OnIncomingTrack(t IncomingTrack)
}

// Connection is the negotiation surface of one peer connection. A single
// owner drives it; Close is safe to call more than once.
type Connection interface {
	AddLocalTrack(t webrtc.TrackLocal) error
	AddReceiveOnlySlot(kind track.Kind) error
	CreateOffer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	Transceivers() []TransceiverInfo
	Close() error
}

// ConnectionFactory builds a fresh connection for one negotiation lifetime.
type ConnectionFactory interface {
	New(servers []ICEServer, observer ConnectionObserver) (Connection, error)
}

// MediaSource supplies the local tracks a publish round should carry.
type MediaSource interface {
	LocalTracks() []webrtc.TrackLocal
}
