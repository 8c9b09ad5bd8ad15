// Package search provides the client for the media-search agent API.
//
// The agent answers a spoken query with a conversational reply and an
// optional media list:
//
//	GET {base}/agent/voice_media_search?message=...
//	→ { "status": "success"|"error", "chat": "...", "medias_info": [...] }
//
// Natural-language understanding happens entirely on the agent side;
// this client only carries the utterance over and decodes the reply.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/voicemedia/go-voicemedia/internal/httpc"
	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
)

// Status is the agent's verdict on a search.
type Status string

const (
	// StatusSuccess means chat holds the reply to narrate.
	StatusSuccess Status = "success"
	// StatusError means chat holds a user-visible error message.
	StatusError Status = "error"
)

// Response is the agent's reply to a voice search.
type Response struct {
	Status Status           `json:"status"`
	Chat   string           `json:"chat"`
	Medias []mediafeed.Item `json:"medias_info,omitempty"`
}

// serverIPResponse is the body of /agent/server_ip.
type serverIPResponse struct {
	IP string `json:"ip"`
}

// Client talks to the agent backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the agent at baseURL,
// e.g. http://localhost:8000.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    httpc.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search sends the utterance to the agent and decodes the reply.
// A status:"error" reply is not an error return; it is a parsed
// Response the caller surfaces to the user.
func (c *Client) Search(ctx context.Context, message string) (*Response, error) {
	u := fmt.Sprintf("%s/agent/voice_media_search?message=%s", c.baseURL, url.QueryEscape(message))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}

// ServerIP asks the agent for its reachable address, used to build
// links that other devices on the network can open.
func (c *Client) ServerIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/agent/server_ip", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out serverIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out.IP, nil
}

// UploaderURL builds the shareable uploader page link from the agent's
// reachable address, suitable for QR encoding.
func (c *Client) UploaderURL(ctx context.Context) (string, error) {
	ip, err := c.ServerIP(ctx)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	port := base.Port()
	if port == "" {
		port = "8000"
	}
	return fmt.Sprintf("http://%s:%s/agent/uploader_page", ip, port), nil
}
