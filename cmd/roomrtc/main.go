package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eapenzacharias/roomrtc/internal/capture"
	"github.com/eapenzacharias/roomrtc/internal/config"
	"github.com/eapenzacharias/roomrtc/internal/domain"
	"github.com/eapenzacharias/roomrtc/internal/monitoring"
	"github.com/eapenzacharias/roomrtc/internal/session"
	"github.com/eapenzacharias/roomrtc/internal/signaling"
	"github.com/eapenzacharias/roomrtc/internal/track"
	"github.com/eapenzacharias/roomrtc/internal/webrtc"
)

const helpText = `roomrtc - Join an SFU room, publish local tracks and pull remote ones

Usage:
  roomrtc [options]

The client joins the configured room, publishes placeholder tracks for the
configured kinds and subscribes to the configured remote tracks, then keeps
the session up until interrupted.

Environment Variables (required):
  ROOMRTC_URL    Base URL of the room backend, e.g. https://sfu.example.org
  ROOMRTC_TOKEN  Bearer token for the backend API
  ROOMRTC_ROOM   Room identifier to join

Environment Variables (optional):
  ROOMRTC_PUBLISH          Kinds to publish: "audio", "audio,video" or "none" (default "audio")
  ROOMRTC_SUBSCRIBE        Remote tracks to pull, e.g. "sess-9:video-0+audio-1,sess-4:audio-0"
  ROOMRTC_MONITORING_PORT  Serve /metrics and /debug/pprof on this port
  ROOMRTC_DEBUG            Set to "true" for debug logging

Options:
  -h, --help  Show this help message
`

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Print(helpText)
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Step 1: Operational endpoints, when configured
	if cfg.MonitoringPort > 0 {
		mon := monitoring.New(cfg.MonitoringPort, log)
		go mon.Run()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = mon.Shutdown(shutdownCtx)
		}()
	}

	// Step 2: Backend client
	client, err := signaling.NewClient(cfg.BackendURL, domain.StaticCredentials(cfg.Token), log)
	if err != nil {
		log.Fatal().Err(err).Msg("create signaling client")
	}

	// Step 3: Local media
	var source domain.MediaSource
	source, err = capture.NewStatic(cfg.Publish)
	if err != nil {
		log.Fatal().Err(err).Msg("create media source")
	}

	// Step 4: Session machinery
	sess, err := session.New(session.Options{
		Signaler:    client,
		Connections: webrtc.NewFactory(log),
		Logger:      log,
		OnRemoteTrack: func(t domain.IncomingTrack) {
			go drainTrack(t, log)
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create session")
	}

	// Step 5: Join, publish, subscribe
	if err := sess.Join(ctx, cfg.Room); err != nil {
		log.Fatal().Err(err).Msg("join room")
	}
	if err := sess.Publish(ctx, source.LocalTracks()...); err != nil {
		log.Error().Err(err).Msg("publish failed")
		leave(sess)
		os.Exit(1)
	}
	for _, target := range cfg.Subscribe {
		sub, err := sess.SubscribeTo(ctx, target.RemoteSessionID, target.TrackNames...)
		if err != nil {
			log.Error().Err(err).Str("remote", target.RemoteSessionID).Msg("subscribe failed")
			continue
		}
		for name, o := range sub.Outcomes() {
			switch o.State {
			case track.TrackBound:
				log.Info().Str("track", name).Str("mid", o.MID).Msg("subscribed")
			case track.TrackErrored:
				log.Warn().Str("track", name).Str("code", o.Code).Str("reason", o.Description).Msg("subscribe rejected")
			default:
				log.Warn().Str("track", name).Msg("track left unresolved")
			}
		}
	}

	log.Info().Str("room", cfg.Room).Str("session", sess.SessionID()).Msg("session up")
	<-ctx.Done()
	log.Info().Msg("shutting down")

	leave(sess)

	if cfg.Debug {
		for _, e := range sess.Events() {
			fmt.Fprintf(os.Stderr, "%s [%s] %s\n", e.Time.Format("15:04:05.000"), e.Level, e.Message)
		}
	}
	log.Info().Msg("done")
}

// leave tears the session down with a bounded deadline, so shutdown cannot
// hang on a dead backend.
func leave(sess *session.Session) {
	leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess.Leave(leaveCtx)
}

// drainTrack keeps reading the remote track so RTCP feedback and stats keep
// flowing. Payload handling is up to embedding applications.
func drainTrack(t domain.IncomingTrack, log zerolog.Logger) {
	if t.Remote == nil {
		return
	}
	buf := make([]byte, 1500)
	for {
		if _, _, err := t.Remote.Read(buf); err != nil {
			log.Debug().Err(err).Str("track", t.ID).Msg("remote track closed")
			return
		}
	}
}
