package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/eapenzacharias/roomrtc/internal/track"
)

// SubscribeTarget names the tracks to request from one remote session.
type SubscribeTarget struct {
	RemoteSessionID string
	TrackNames      []string
}

// Config holds the application configuration.
type Config struct {
	BackendURL     string
	Token          string
	Room           string
	Publish        []track.Kind
	Subscribe      []SubscribeTarget
	MonitoringPort int
	Debug          bool
}

// Load reads configuration from a .env file (if present) and environment variables.
// Environment variables take precedence over .env values.
func Load() (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	url := os.Getenv("ROOMRTC_URL")
	if url == "" {
		return nil, fmt.Errorf("ROOMRTC_URL environment variable is required")
	}

	token := os.Getenv("ROOMRTC_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("ROOMRTC_TOKEN environment variable is required")
	}

	room := os.Getenv("ROOMRTC_ROOM")
	if room == "" {
		return nil, fmt.Errorf("ROOMRTC_ROOM environment variable is required")
	}

	publish, err := parsePublish(getenvDefault("ROOMRTC_PUBLISH", "audio"))
	if err != nil {
		return nil, err
	}

	subscribe, err := parseSubscribe(os.Getenv("ROOMRTC_SUBSCRIBE"))
	if err != nil {
		return nil, err
	}

	port := 0
	if raw := os.Getenv("ROOMRTC_MONITORING_PORT"); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("ROOMRTC_MONITORING_PORT: %w", err)
		}
	}

	debug := os.Getenv("ROOMRTC_DEBUG")

	return &Config{
		BackendURL:     url,
		Token:          token,
		Room:           room,
		Publish:        publish,
		Subscribe:      subscribe,
		MonitoringPort: port,
		Debug:          debug == "true" || debug == "1",
	}, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parsePublish reads a comma-separated kind list such as "audio,video". The
// value "none" publishes no local tracks.
func parsePublish(raw string) ([]track.Kind, error) {
	if raw == "none" {
		return nil, nil
	}
	var kinds []track.Kind
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "audio":
			kinds = append(kinds, track.KindAudio)
		case "video":
			kinds = append(kinds, track.KindVideo)
		default:
			return nil, fmt.Errorf("ROOMRTC_PUBLISH: unknown kind %q", part)
		}
	}
	return kinds, nil
}

// parseSubscribe reads targets such as "sess-9:video-0+audio-1,sess-4:audio-0".
func parseSubscribe(raw string) ([]SubscribeTarget, error) {
	if raw == "" {
		return nil, nil
	}
	var targets []SubscribeTarget
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		remote, names, ok := strings.Cut(part, ":")
		if !ok || remote == "" || names == "" {
			return nil, fmt.Errorf("ROOMRTC_SUBSCRIBE: malformed target %q, want remoteSession:track+track", part)
		}
		target := SubscribeTarget{RemoteSessionID: remote}
		for _, name := range strings.Split(names, "+") {
			if name = strings.TrimSpace(name); name != "" {
				target.TrackNames = append(target.TrackNames, name)
			}
		}
		if len(target.TrackNames) == 0 {
			return nil, fmt.Errorf("ROOMRTC_SUBSCRIBE: target %q names no tracks", part)
		}
		targets = append(targets, target)
	}
	return targets, nil
}
