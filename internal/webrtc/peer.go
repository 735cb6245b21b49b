// Package webrtc adapts pion peer connections to the domain Connection port.
package webrtc

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/interceptor"
	pion "github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/eapenzacharias/roomrtc/internal/domain"
	"github.com/eapenzacharias/roomrtc/internal/track"
)

// Factory builds peer connections sharing one engine configuration.
type Factory struct {
	log zerolog.Logger
}

func NewFactory(log zerolog.Logger) *Factory {
	return &Factory{log: log.With().Str("module", "webrtc").Logger()}
}

// New creates a peer connection for the given ICE servers and wires the
// observer callbacks before returning it.
func (f *Factory) New(servers []domain.ICEServer, observer domain.ConnectionObserver) (domain.Connection, error) {
	m := &pion.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	i := &interceptor.Registry{}
	if err := pion.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	s := pion.SettingEngine{LoggerFactory: pionLogger{log: f.log}}

	api := pion.NewAPI(
		pion.WithMediaEngine(m),
		pion.WithInterceptorRegistry(i),
		pion.WithSettingEngine(s),
	)

	pc, err := api.NewPeerConnection(pion.Configuration{
		ICEServers:   toPionServers(servers),
		BundlePolicy: pion.BundlePolicyMaxBundle,
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Peer{pc: pc, log: f.log}
	p.wireObserver(observer)
	return p, nil
}

func toPionServers(servers []domain.ICEServer) []pion.ICEServer {
	out := make([]pion.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, pion.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out
}

// Peer wraps a pion PeerConnection behind the domain Connection port.
type Peer struct {
	pc     *pion.PeerConnection
	log    zerolog.Logger
	closed atomic.Bool
}

func (p *Peer) wireObserver(observer domain.ConnectionObserver) {
	p.pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		p.log.Info().Str("state", state.String()).Msg("connection state")
		observer.OnConnectionStateChange(state)
	})
	p.pc.OnICEGatheringStateChange(func(state pion.ICEGatheringState) {
		p.log.Debug().Str("state", state.String()).Msg("ice gathering state")
		observer.OnICEGatheringStateChange(state)
	})
	p.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c != nil {
			p.log.Debug().Str("candidate", c.ToJSON().Candidate).Msg("local ice candidate")
		}
		observer.OnICECandidate(c)
	})
	p.pc.OnTrack(func(tr *pion.TrackRemote, _ *pion.RTPReceiver) {
		codec := tr.Codec()
		p.log.Info().
			Str("stream", tr.StreamID()).
			Str("track", tr.ID()).
			Str("codec", codec.MimeType).
			Msg("remote track")
		observer.OnIncomingTrack(domain.IncomingTrack{
			StreamID: tr.StreamID(),
			ID:       tr.ID(),
			Kind:     track.FromCodecType(tr.Kind()),
			Codec:    codec.MimeType,
			Remote:   tr,
		})
	})
}

// AddLocalTrack attaches t for sending.
func (p *Peer) AddLocalTrack(t pion.TrackLocal) error {
	sender, err := p.pc.AddTrack(t)
	if err != nil {
		return fmt.Errorf("add track: %w", err)
	}

	// Read incoming RTCP so interceptor feedback keeps flowing.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

// AddReceiveOnlySlot adds a recvonly transceiver for kind.
func (p *Peer) AddReceiveOnlySlot(kind track.Kind) error {
	_, err := p.pc.AddTransceiverFromKind(kind.CodecType(), pion.RTPTransceiverInit{
		Direction: pion.RTPTransceiverDirectionRecvonly,
	})
	if err != nil {
		return fmt.Errorf("add %s transceiver: %w", kind, err)
	}
	return nil
}

// CreateOffer builds a local offer without committing it.
func (p *Peer) CreateOffer() (pion.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return pion.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	return offer, nil
}

// SetLocalDescription commits desc. Media-line identifiers are readable from
// Transceivers only afterwards.
func (p *Peer) SetLocalDescription(desc pion.SessionDescription) error {
	if err := p.pc.SetLocalDescription(desc); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	p.log.Debug().Str("media", describeSDP(desc.SDP)).Msg("local description set")
	return nil
}

// SetRemoteDescription applies the backend's answer.
func (p *Peer) SetRemoteDescription(desc pion.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	p.log.Debug().Str("media", describeSDP(desc.SDP)).Msg("remote description set")
	return nil
}

// Transceivers snapshots the media lines in creation order.
func (p *Peer) Transceivers() []domain.TransceiverInfo {
	trs := p.pc.GetTransceivers()
	infos := make([]domain.TransceiverInfo, 0, len(trs))
	for _, t := range trs {
		sender := t.Sender()
		infos = append(infos, domain.TransceiverInfo{
			MID:           t.Mid(),
			Kind:          track.FromCodecType(t.Kind()),
			HasLocalTrack: sender != nil && sender.Track() != nil,
		})
	}
	return infos
}

// Close shuts the connection down. Safe to call more than once.
func (p *Peer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.pc.Close()
}
