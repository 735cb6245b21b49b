// Package session drives room membership and offer/answer negotiation. One
// state machine owns the mutable session state and serializes negotiation
// rounds; the Session facade feeds operator intents into it and exposes
// read-only views over what it holds.
package session

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/eapenzacharias/roomrtc/internal/domain"
	"github.com/eapenzacharias/roomrtc/internal/eventlog"
	"github.com/eapenzacharias/roomrtc/internal/track"
)

// RemoteTrack is one track announced inside a remote stream.
type RemoteTrack struct {
	ID    string
	Kind  track.Kind
	Codec string
}

// RemoteStream groups the announced remote tracks sharing a stream id.
type RemoteStream struct {
	ID     string
	Tracks []RemoteTrack
}

// Options configures a Session. Signaler and Connections are required;
// Logger is used as-is, pass zerolog.Nop() to silence it.
type Options struct {
	Signaler      domain.Signaler
	Connections   domain.ConnectionFactory
	Logger        zerolog.Logger
	EventCapacity int
	// OnRemoteTrack is invoked after a remote track is recorded. It runs on
	// a connection goroutine and receives the live track handle.
	OnRemoteTrack func(domain.IncomingTrack)
}

// Session is the operator-facing surface of one room session.
type Session struct {
	neg    *negotiator
	events *eventlog.Log
}

func New(opts Options) (*Session, error) {
	if opts.Signaler == nil {
		return nil, errors.New("session: signaler is required")
	}
	if opts.Connections == nil {
		return nil, errors.New("session: connection factory is required")
	}

	events := eventlog.New(opts.EventCapacity)
	log := opts.Logger.Hook(events).With().Str("module", "session").Logger()

	return &Session{
		neg: &negotiator{
			signaler:    opts.Signaler,
			connections: opts.Connections,
			log:         log,
			onRemote:    opts.OnRemoteTrack,
			phase:       PhaseIdle,
			registry:    track.NewRegistry(),
			remote:      make(map[string]RemoteStream),
		},
		events: events,
	}, nil
}

// Join enters roomID and records the backend-assigned session identity.
func (s *Session) Join(ctx context.Context, roomID string) error {
	return s.neg.Join(ctx, roomID)
}

// Publish negotiates the given local tracks on a fresh connection, replacing
// any previous one. Publishing no tracks is valid and still creates the
// connection a later subscribe needs.
func (s *Session) Publish(ctx context.Context, tracks ...webrtc.TrackLocal) error {
	return s.neg.Publish(ctx, tracks)
}

// SubscribeTo requests the named tracks of a remote session. The returned
// subscription carries the per-track outcomes.
func (s *Session) SubscribeTo(ctx context.Context, remoteSessionID string, trackNames ...string) (*track.Subscription, error) {
	return s.neg.SubscribeTo(ctx, remoteSessionID, trackNames)
}

// Leave tears the session down. It never fails; teardown problems are logged
// and swallowed.
func (s *Session) Leave(ctx context.Context) {
	s.neg.Leave(ctx)
}

// Phase returns the machine's current phase.
func (s *Session) Phase() Phase {
	s.neg.mu.Lock()
	defer s.neg.mu.Unlock()
	return s.neg.phase
}

// SessionID returns the backend-assigned session identity, empty before Join.
func (s *Session) SessionID() string {
	s.neg.mu.Lock()
	defer s.neg.mu.Unlock()
	return s.neg.sessionID
}

// Room returns the backend's room descriptor.
func (s *Session) Room() domain.RoomInfo {
	s.neg.mu.Lock()
	defer s.neg.mu.Unlock()
	return s.neg.room
}

// ICEServers returns the servers negotiated connections are built with.
func (s *Session) ICEServers() []domain.ICEServer {
	s.neg.mu.Lock()
	defer s.neg.mu.Unlock()
	return append([]domain.ICEServer(nil), s.neg.iceServers...)
}

// LocalTracks returns the tracks of the last successful publish.
func (s *Session) LocalTracks() []webrtc.TrackLocal {
	s.neg.mu.Lock()
	defer s.neg.mu.Unlock()
	return append([]webrtc.TrackLocal(nil), s.neg.localTracks...)
}

// Bindings returns the published track bindings.
func (s *Session) Bindings() []track.Binding {
	return s.neg.registry.Bindings()
}

// Subscriptions returns the completed subscribe rounds, oldest first.
func (s *Session) Subscriptions() []*track.Subscription {
	return s.neg.registry.Subscriptions()
}

// RemoteStreams returns a copy of the remote-stream map, keyed by stream id.
func (s *Session) RemoteStreams() map[string]RemoteStream {
	s.neg.mu.Lock()
	defer s.neg.mu.Unlock()
	out := make(map[string]RemoteStream, len(s.neg.remote))
	for id, stream := range s.neg.remote {
		stream.Tracks = append([]RemoteTrack(nil), stream.Tracks...)
		out[id] = stream
	}
	return out
}

// Events returns the session event log, oldest first.
func (s *Session) Events() []eventlog.Entry {
	return s.events.Entries()
}
