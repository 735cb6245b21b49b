package domain

import "github.com/eapenzacharias/roomrtc/internal/track"

// JoinResult holds the session identity and ICE configuration returned by the
// backend's join endpoint.
type JoinResult struct {
	SessionID  string      `json:"sessionId"`
	ICEServers []ICEServer `json:"iceServers"`
	Room       RoomInfo    `json:"room"`
}

// RoomInfo mirrors the backend's room descriptor. Opaque to the client.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackRequest names one remote track to subscribe to.
type TrackRequest struct {
	TrackName       string     `json:"trackName"`
	RemoteSessionID string     `json:"remoteSessionId"`
	Kind            track.Kind `json:"kind"`
}

// TrackResult is the backend's per-track verdict inside a negotiation reply.
type TrackResult struct {
	TrackName        string `json:"trackName"`
	MID              string `json:"mid,omitempty"`
	ErrorCode        string `json:"errorCode,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
}

// Errored reports whether the backend rejected this track.
func (t TrackResult) Errored() bool {
	return t.ErrorCode != "" || t.ErrorDescription != ""
}

// NegotiationResult is the backend's reply to publish and subscribe calls. An
// empty AnswerSDP means the backend acknowledged the request without
// producing an answer.
type NegotiationResult struct {
	AnswerSDP                      string        `json:"answerSdp"`
	AnswerType                     string        `json:"answerType,omitempty"`
	Tracks                         []TrackResult `json:"tracks,omitempty"`
	RequiresImmediateRenegotiation bool          `json:"requiresImmediateRenegotiation,omitempty"`
}

// SessionAnswer is the backend's reply to a renegotiate call.
type SessionAnswer struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}
