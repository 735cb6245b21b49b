package webrtc

import (
	"fmt"
	"strings"

	"github.com/pion/sdp/v3"
)

// describeSDP renders a short media-section summary of an SDP body for logs,
// e.g. "audio:0 video:1".
func describeSDP(raw string) string {
	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(raw)); err != nil {
		return fmt.Sprintf("unparsable sdp (%v)", err)
	}

	parts := make([]string, 0, len(parsed.MediaDescriptions))
	for _, m := range parsed.MediaDescriptions {
		mid := "?"
		for _, a := range m.Attributes {
			if a.Key == "mid" {
				mid = a.Value
				break
			}
		}
		parts = append(parts, m.MediaName.Media+":"+mid)
	}
	if len(parts) == 0 {
		return "no media sections"
	}
	return strings.Join(parts, " ")
}
