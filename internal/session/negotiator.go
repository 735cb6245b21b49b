package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/eapenzacharias/roomrtc/internal/domain"
	"github.com/eapenzacharias/roomrtc/internal/track"
)

// negotiator is the single owner of the session's mutable state. All phase
// moves happen under mu; backend and connection I/O happens outside it. The
// epoch counter is bumped by Leave so commits of rounds that were in flight
// during a teardown become no-ops.
type negotiator struct {
	signaler    domain.Signaler
	connections domain.ConnectionFactory
	log         zerolog.Logger
	onRemote    func(domain.IncomingTrack)

	mu          sync.Mutex
	phase       Phase
	epoch       uint64
	roomID      string
	sessionID   string
	room        domain.RoomInfo
	iceServers  []domain.ICEServer
	conn        domain.Connection
	localTracks []webrtc.TrackLocal
	registry    *track.Registry
	remote      map[string]RemoteStream
}

// begin moves the machine into the transitional phase of a new round. It
// fails fast when another round holds the machine and rejects resting phases
// op is not defined for.
func (n *negotiator) begin(op string, allowed []Phase, next Phase) (Phase, uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.phase.transitional() {
		return 0, 0, ErrNegotiationBusy
	}
	ok := false
	for _, p := range allowed {
		if p == n.phase {
			ok = true
			break
		}
	}
	if !ok {
		return 0, 0, &InvalidPhaseError{Op: op, Phase: n.phase}
	}

	prev := n.phase
	n.phase = next
	return prev, n.epoch, nil
}

// settle moves the machine to next unless the round's epoch has been
// invalidated by a teardown.
func (n *negotiator) settle(epoch uint64, next Phase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.epoch != epoch {
		return
	}
	n.phase = next
}

// Join enters the room and records the backend-assigned session identity.
func (n *negotiator) Join(ctx context.Context, roomID string) error {
	_, epoch, err := n.begin("join", []Phase{PhaseIdle}, PhaseJoining)
	if err != nil {
		return err
	}

	res, err := n.signaler.Join(ctx, roomID)
	if err != nil {
		n.log.Error().Err(err).Str("room", roomID).Msg("join failed")
		n.settle(epoch, PhaseIdle)
		return err
	}

	servers := res.ICEServers
	if len(servers) == 0 {
		n.log.Info().Msg("backend sent no ice servers, falling back to defaults")
		servers = domain.DefaultICEServers()
	}

	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return ErrSuperseded
	}
	n.roomID = roomID
	n.sessionID = res.SessionID
	n.room = res.Room
	n.iceServers = servers
	n.phase = PhaseJoined
	n.mu.Unlock()

	n.log.Info().Str("room", roomID).Str("session", res.SessionID).Msg("joined room")
	return nil
}

// Publish negotiates the full local track set on a fresh connection. Any
// previous connection is closed before its replacement is created.
func (n *negotiator) Publish(ctx context.Context, tracks []webrtc.TrackLocal) error {
	prev, epoch, err := n.begin("publish", []Phase{PhaseJoined, PhasePublished}, PhasePublishing)
	if err != nil {
		return err
	}

	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return ErrSuperseded
	}
	roomID := n.roomID
	servers := n.iceServers
	old := n.conn
	n.conn = nil
	n.localTracks = nil
	n.mu.Unlock()

	if old != nil {
		n.log.Info().Msg("replacing connection")
		if err := old.Close(); err != nil {
			n.log.Warn().Err(err).Msg("closing replaced connection")
		}
	}

	// Until a new connection is installed, a failure leaves the machine with
	// no connection at all, which is the joined state.
	restore := PhaseJoined

	conn, err := n.connections.New(servers, &connObserver{n: n, epoch: epoch})
	if err != nil {
		n.log.Error().Err(err).Msg("publish failed")
		n.settle(epoch, restore)
		return fmt.Errorf("create connection: %w", err)
	}

	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		_ = conn.Close()
		return ErrSuperseded
	}
	n.conn = conn
	n.mu.Unlock()
	restore = prev

	bindings, err := n.publishRound(ctx, conn, roomID, tracks, epoch)
	if err != nil {
		if !errors.Is(err, ErrNoAnswer) {
			n.log.Error().Err(err).Msg("publish failed")
		}
		n.settle(epoch, restore)
		return err
	}

	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return ErrSuperseded
	}
	n.localTracks = append([]webrtc.TrackLocal(nil), tracks...)
	n.registry.SetBindings(bindings)
	n.phase = PhasePublished
	n.mu.Unlock()

	n.log.Info().Int("tracks", len(bindings)).Msg("published")
	return nil
}

// publishRound runs the offer/answer exchange of one publish. The returned
// bindings are committed by the caller on success.
func (n *negotiator) publishRound(ctx context.Context, conn domain.Connection, roomID string, tracks []webrtc.TrackLocal, epoch uint64) ([]track.Binding, error) {
	for _, t := range tracks {
		if err := conn.AddLocalTrack(t); err != nil {
			return nil, err
		}
	}

	offer, err := conn.CreateOffer()
	if err != nil {
		return nil, err
	}
	if err := conn.SetLocalDescription(offer); err != nil {
		return nil, err
	}

	// Media-line identifiers exist only now that the offer is committed.
	bindings := localBindings(conn)

	res, err := n.signaler.Publish(ctx, roomID, offer.SDP, bindings)
	if err != nil {
		return nil, err
	}
	if res.AnswerSDP == "" {
		n.log.Warn().Msg("publish got no answer, connection left open for retry")
		return nil, ErrNoAnswer
	}

	desc, err := answerDescription(res.AnswerSDP, res.AnswerType)
	if err != nil {
		return nil, err
	}
	if err := conn.SetRemoteDescription(desc); err != nil {
		return nil, err
	}

	if res.RequiresImmediateRenegotiation {
		if err := n.renegotiate(ctx, conn, roomID, epoch); err != nil {
			return nil, err
		}
	}
	return bindings, nil
}

// SubscribeTo asks the backend for remote tracks on the existing connection.
// Per-track rejections do not fail the round; they are recorded on the
// returned subscription.
func (n *negotiator) SubscribeTo(ctx context.Context, remoteSessionID string, names []string) (*track.Subscription, error) {
	_, epoch, err := n.begin("subscribe", []Phase{PhasePublished}, PhaseSubscribing)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return nil, ErrSuperseded
	}
	roomID := n.roomID
	conn := n.conn
	n.mu.Unlock()

	sub := track.NewSubscription(remoteSessionID, names)

	if err := n.subscribeRound(ctx, conn, roomID, sub, epoch); err != nil {
		n.log.Error().Err(err).Str("remote", remoteSessionID).Msg("subscribe failed")
		n.settle(epoch, PhasePublished)
		return nil, err
	}

	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return nil, ErrSuperseded
	}
	n.registry.AddSubscription(sub)
	n.phase = PhasePublished
	n.mu.Unlock()

	n.log.Info().Str("remote", remoteSessionID).Int("tracks", len(names)).Msg("subscribe round complete")
	return sub, nil
}

func (n *negotiator) subscribeRound(ctx context.Context, conn domain.Connection, roomID string, sub *track.Subscription, epoch uint64) error {
	names := sub.Names()
	requests := make([]domain.TrackRequest, 0, len(names))
	for _, name := range names {
		kind := track.InferKind(name)
		if err := conn.AddReceiveOnlySlot(kind); err != nil {
			return err
		}
		requests = append(requests, domain.TrackRequest{
			TrackName:       name,
			RemoteSessionID: sub.RemoteSessionID,
			Kind:            kind,
		})
	}

	offer, err := conn.CreateOffer()
	if err != nil {
		return err
	}
	if err := conn.SetLocalDescription(offer); err != nil {
		return err
	}

	res, err := n.signaler.Subscribe(ctx, roomID, offer.SDP, requests)
	if err != nil {
		return err
	}

	for _, tr := range res.Tracks {
		if tr.Errored() {
			n.log.Warn().Str("track", tr.TrackName).Str("code", tr.ErrorCode).Str("reason", tr.ErrorDescription).Msg("subscribe track rejected")
			sub.MarkErrored(tr.TrackName, tr.ErrorCode, tr.ErrorDescription)
			continue
		}
		sub.MarkBound(tr.TrackName, tr.MID)
	}

	if res.AnswerSDP == "" {
		// The backend rejected the pass without an answer; the per-track
		// outcomes say which tracks failed and the session stays up.
		n.log.Warn().Msg("subscribe got no answer")
		return nil
	}

	desc, err := answerDescription(res.AnswerSDP, res.AnswerType)
	if err != nil {
		return err
	}
	if err := conn.SetRemoteDescription(desc); err != nil {
		return err
	}

	if res.RequiresImmediateRenegotiation {
		return n.renegotiate(ctx, conn, roomID, epoch)
	}
	return nil
}

// renegotiate runs the server-requested second pass of a pending round. The
// round keeps the machine; only the phase changes while it runs.
func (n *negotiator) renegotiate(ctx context.Context, conn domain.Connection, roomID string, epoch uint64) error {
	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return ErrSuperseded
	}
	n.phase = PhaseRenegotiating
	n.mu.Unlock()

	n.log.Info().Msg("backend requested immediate renegotiation")

	offer, err := conn.CreateOffer()
	if err != nil {
		return err
	}
	if err := conn.SetLocalDescription(offer); err != nil {
		return err
	}

	res, err := n.signaler.Renegotiate(ctx, roomID, offer.SDP)
	if err != nil {
		return err
	}

	desc, err := answerDescription(res.SDP, res.Type)
	if err != nil {
		return err
	}
	return conn.SetRemoteDescription(desc)
}

// Leave tears the session down unconditionally. Every step failure is logged
// and swallowed; an in-flight round loses its machine and its outcome is
// ignored.
func (n *negotiator) Leave(ctx context.Context) {
	n.mu.Lock()
	if n.phase == PhaseIdle || n.phase == PhaseLeaving {
		n.mu.Unlock()
		return
	}
	n.epoch++
	n.phase = PhaseLeaving
	conn := n.conn
	tracks := n.localTracks
	roomID := n.roomID
	n.conn = nil
	n.localTracks = nil
	n.sessionID = ""
	n.iceServers = nil
	n.mu.Unlock()

	n.log.Info().Str("room", roomID).Msg("leaving room")

	for _, t := range tracks {
		closer, ok := t.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			n.log.Warn().Err(err).Str("track", t.ID()).Msg("stopping local track")
		}
	}

	if conn != nil {
		if err := conn.Close(); err != nil {
			n.log.Warn().Err(err).Msg("closing connection")
		}
	}

	if roomID != "" {
		if err := n.signaler.Leave(ctx, roomID); err != nil {
			n.log.Warn().Err(err).Msg("backend leave failed")
		}
	}

	n.registry.Reset()

	n.mu.Lock()
	n.phase = PhaseIdle
	n.roomID = ""
	n.room = domain.RoomInfo{}
	n.remote = make(map[string]RemoteStream)
	n.mu.Unlock()

	n.log.Info().Msg("left room")
}

func (n *negotiator) addRemoteTrack(epoch uint64, t domain.IncomingTrack) {
	n.mu.Lock()
	if n.epoch != epoch {
		n.mu.Unlock()
		return
	}
	stream := n.remote[t.StreamID]
	stream.ID = t.StreamID
	for _, existing := range stream.Tracks {
		if existing.ID == t.ID {
			n.mu.Unlock()
			return
		}
	}
	stream.Tracks = append(stream.Tracks, RemoteTrack{ID: t.ID, Kind: t.Kind, Codec: t.Codec})
	n.remote[t.StreamID] = stream
	cb := n.onRemote
	n.mu.Unlock()

	n.log.Info().Str("stream", t.StreamID).Str("track", t.ID).Str("kind", string(t.Kind)).Msg("remote track added")
	if cb != nil {
		cb(t)
	}
}

// connObserver forwards connection events into the machine. It carries the
// epoch of the round that created its connection, so events from a connection
// that outlived a teardown are dropped.
type connObserver struct {
	n     *negotiator
	epoch uint64
}

func (o *connObserver) OnConnectionStateChange(state webrtc.PeerConnectionState) {
	o.n.log.Info().Str("state", state.String()).Msg("connection state")
}

func (o *connObserver) OnICEGatheringStateChange(state webrtc.ICEGatheringState) {
	o.n.log.Debug().Str("state", state.String()).Msg("ice gathering state")
}

func (o *connObserver) OnICECandidate(c *webrtc.ICECandidate) {
	if c == nil {
		o.n.log.Debug().Msg("ice gathering complete")
		return
	}
	o.n.log.Debug().Str("candidate", c.ToJSON().Candidate).Msg("local ice candidate")
}

func (o *connObserver) OnIncomingTrack(t domain.IncomingTrack) {
	o.n.addRemoteTrack(o.epoch, t)
}

func localBindings(conn domain.Connection) []track.Binding {
	var out []track.Binding
	for _, info := range conn.Transceivers() {
		if !info.HasLocalTrack {
			continue
		}
		out = append(out, track.Binding{
			Name: track.DeriveName(info.Kind, info.MID),
			MID:  info.MID,
			Kind: info.Kind,
		})
	}
	return out
}

func answerDescription(sdp, typ string) (webrtc.SessionDescription, error) {
	if typ != "" && typ != "answer" {
		return webrtc.SessionDescription{}, fmt.Errorf("unexpected answer type %q", typ)
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}, nil
}
