package track

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveName(t *testing.T) {
	assert.Equal(t, "audio-0", DeriveName(KindAudio, "0"))
	assert.Equal(t, "video-1", DeriveName(KindVideo, "1"))
}

func TestInferKind(t *testing.T) {
	assert.Equal(t, KindVideo, InferKind("video-3"))
	assert.Equal(t, KindAudio, InferKind("audio-0"))
	// Anything that does not look like video counts as audio.
	assert.Equal(t, KindAudio, InferKind("screen-2"))
	assert.Equal(t, KindAudio, InferKind(""))
}

func TestNameRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindAudio, KindVideo} {
		name := DeriveName(kind, "7")
		assert.Equal(t, kind, InferKind(name))
	}
}

func TestKindCodecType(t *testing.T) {
	assert.Equal(t, webrtc.RTPCodecTypeVideo, KindVideo.CodecType())
	assert.Equal(t, webrtc.RTPCodecTypeAudio, KindAudio.CodecType())
	assert.Equal(t, KindVideo, FromCodecType(webrtc.RTPCodecTypeVideo))
	assert.Equal(t, KindAudio, FromCodecType(webrtc.RTPCodecTypeAudio))
}

func TestSubscriptionOutcomes(t *testing.T) {
	sub := NewSubscription("peer-1", []string{"audio-0", "video-1", "audio-0"})
	require.Equal(t, []string{"audio-0", "video-1"}, sub.Names())

	o, ok := sub.Outcome("audio-0")
	require.True(t, ok)
	assert.Equal(t, TrackRequested, o.State)
	assert.False(t, sub.Errored())

	sub.MarkBound("audio-0", "2")
	sub.MarkErrored("video-1", "not_found", "no such track")

	o, _ = sub.Outcome("audio-0")
	assert.Equal(t, TrackBound, o.State)
	assert.Equal(t, "2", o.MID)

	o, _ = sub.Outcome("video-1")
	assert.Equal(t, TrackErrored, o.State)
	assert.Equal(t, "not_found", o.Code)
	assert.True(t, sub.Errored())

	// Marks for names never requested are ignored.
	sub.MarkBound("bogus", "9")
	_, ok = sub.Outcome("bogus")
	assert.False(t, ok)
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	r.SetBindings([]Binding{{Name: "audio-0", MID: "0", Kind: KindAudio}})
	r.AddSubscription(NewSubscription("peer-1", []string{"audio-0"}))

	require.Len(t, r.Bindings(), 1)
	require.Len(t, r.Subscriptions(), 1)

	r.Reset()
	assert.Empty(t, r.Bindings())
	assert.Empty(t, r.Subscriptions())
}

func TestRegistryReplacesBindings(t *testing.T) {
	r := NewRegistry()
	r.SetBindings([]Binding{{Name: "audio-0", MID: "0", Kind: KindAudio}})
	r.SetBindings([]Binding{
		{Name: "audio-0", MID: "0", Kind: KindAudio},
		{Name: "video-1", MID: "1", Kind: KindVideo},
	})
	assert.Len(t, r.Bindings(), 2)
}
