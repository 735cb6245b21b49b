// Package capture builds the local media tracks a session publishes.
package capture

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/eapenzacharias/roomrtc/internal/track"
)

// Static produces one placeholder sample track per configured kind. The
// tracks occupy media lines and negotiate codecs but carry no samples until
// a producer writes to them.
type Static struct {
	tracks []webrtc.TrackLocal
}

// NewStatic builds one track per kind, preserving the given order.
func NewStatic(kinds []track.Kind) (*Static, error) {
	s := &Static{}
	for _, kind := range kinds {
		t, err := newStaticTrack(kind)
		if err != nil {
			return nil, err
		}
		s.tracks = append(s.tracks, t)
	}
	return s, nil
}

func newStaticTrack(kind track.Kind) (webrtc.TrackLocal, error) {
	switch kind {
	case track.KindAudio:
		return webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "capture")
	case track.KindVideo:
		return webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "capture")
	default:
		return nil, fmt.Errorf("unsupported track kind %q", kind)
	}
}

// LocalTracks returns the source's tracks in publish order.
func (s *Static) LocalTracks() []webrtc.TrackLocal {
	return append([]webrtc.TrackLocal(nil), s.tracks...)
}
