// Package signaling implements the REST client for the room backend.
package signaling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eapenzacharias/roomrtc/internal/domain"
	"github.com/eapenzacharias/roomrtc/internal/track"
)

type publishRequest struct {
	OfferSDP string          `json:"offerSdp"`
	Tracks   []track.Binding `json:"tracks"`
}

type subscribeRequest struct {
	OfferSDP string                `json:"offerSdp"`
	Tracks   []domain.TrackRequest `json:"tracks"`
}

type renegotiateRequest struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// Client talks to the room backend's session endpoints. Every call carries
// the bearer credential and a fresh request id. The client sets no timeout of
// its own; deadlines are the caller's business via ctx.
type Client struct {
	base  *url.URL
	creds domain.Credentials
	http  *http.Client
	log   zerolog.Logger
}

// NewClient creates a signaling client for the backend at baseURL.
func NewClient(baseURL string, creds domain.Credentials, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Client{
		base:  base,
		creds: creds,
		http:  &http.Client{},
		log:   log.With().Str("module", "signaling").Logger(),
	}, nil
}

// Join enters the room and returns the backend-assigned session identity.
func (c *Client) Join(ctx context.Context, roomID string) (*domain.JoinResult, error) {
	var res domain.JoinResult
	if _, err := c.post(ctx, c.roomPath(roomID, "join"), struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Publish sends the local offer and the bindings for every published track.
func (c *Client) Publish(ctx context.Context, roomID, offerSDP string, bindings []track.Binding) (*domain.NegotiationResult, error) {
	req := publishRequest{OfferSDP: offerSDP, Tracks: bindings}
	var res domain.NegotiationResult
	if _, err := c.post(ctx, c.roomPath(roomID, "publish"), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Subscribe sends the receive offer and the requested remote tracks.
func (c *Client) Subscribe(ctx context.Context, roomID, offerSDP string, requests []domain.TrackRequest) (*domain.NegotiationResult, error) {
	req := subscribeRequest{OfferSDP: offerSDP, Tracks: requests}
	var res domain.NegotiationResult
	if _, err := c.post(ctx, c.roomPath(roomID, "subscribe"), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Renegotiate completes a server-requested negotiation pass. Its reply must
// carry an answer; one without is a schema deviation.
func (c *Client) Renegotiate(ctx context.Context, roomID, offerSDP string) (*domain.SessionAnswer, error) {
	req := renegotiateRequest{SDP: offerSDP, Type: "offer"}
	var res domain.SessionAnswer
	status, err := c.post(ctx, c.roomPath(roomID, "renegotiate"), req, &res)
	if err != nil {
		return nil, err
	}
	if res.SDP == "" {
		return nil, &TransportError{Status: status, Err: errors.New("renegotiate reply missing sdp")}
	}
	return &res, nil
}

// Leave tells the backend the session is over.
func (c *Client) Leave(ctx context.Context, roomID string) error {
	_, err := c.post(ctx, c.roomPath(roomID, "leave"), struct{}{}, nil)
	return err
}

func (c *Client) roomPath(roomID, action string) string {
	return "/api/rooms/" + url.PathEscape(roomID) + "/" + action
}

func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	cred, err := c.creds.CurrentCredential()
	if err != nil {
		return 0, fmt.Errorf("resolve credential: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred)
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.log.Debug().Str("path", path).Msg("backend call")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, &TransportError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, &TransportError{Status: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("unmarshal response: %w", err)}
		}
	}
	return resp.StatusCode, nil
}
