package domain

// ICEServer holds STUN/TURN server configuration handed out by the backend.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// DefaultICEServers is the fallback applied when the backend hands out an
// empty list.
func DefaultICEServers() []ICEServer {
	return []ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
}
