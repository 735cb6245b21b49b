package track

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

// Kind identifies the media kind of a track.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// FromCodecType maps a pion codec type onto a Kind.
func FromCodecType(t webrtc.RTPCodecType) Kind {
	if t == webrtc.RTPCodecTypeVideo {
		return KindVideo
	}
	return KindAudio
}

// CodecType maps the Kind back onto the pion codec type.
func (k Kind) CodecType() webrtc.RTPCodecType {
	if k == KindVideo {
		return webrtc.RTPCodecTypeVideo
	}
	return webrtc.RTPCodecTypeAudio
}

// DeriveName builds the canonical name for a published track from its media
// kind and the media-line identifier of the committed local description.
func DeriveName(kind Kind, mid string) string {
	return string(kind) + "-" + mid
}

// InferKind recovers the media kind from a track name. Names starting with
// "video" are video, everything else is audio.
func InferKind(name string) Kind {
	if strings.HasPrefix(name, "video") {
		return KindVideo
	}
	return KindAudio
}

// Binding ties a published track name to the media line that carries it.
type Binding struct {
	Name string `json:"trackName"`
	MID  string `json:"mid"`
	Kind Kind   `json:"kind"`
}
