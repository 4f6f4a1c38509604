// Package api provides the HTTP client for a LearnLab backend.
//
// The client covers the JSON endpoints under /chat plus the streaming
// ask_stream endpoint, which hands off to pkg/stream for incremental
// consumption of the response body.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/stream"
)

const defaultTimeout = 30 * time.Second

// APIError is returned when the backend answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Client talks to a LearnLab backend.
type Client struct {
	target string
	token  string

	httpClient   *http.Client
	streamClient *stream.Client
	logger       *zap.Logger
}

// NewClient creates a Client for the backend at target (scheme + host + port).
// The token is sent as a bearer credential on every request; pass an empty
// string for unauthenticated backends. A nil httpClient gets a client with a
// sane timeout for the JSON endpoints; streaming requests are never subject
// to that timeout.
func NewClient(target, token string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Streaming connections stay open for the lifetime of the answer, so
	// the stream client shares the transport but not the client timeout.
	streamHTTP := &http.Client{Transport: httpClient.Transport}

	return &Client{
		target:       strings.TrimRight(target, "/"),
		token:        token,
		httpClient:   httpClient,
		streamClient: stream.NewClient(streamHTTP, log),
		logger:       log,
	}
}

// Target returns the backend base URL the client was built with.
func (c *Client) Target() string {
	return c.target
}

// Ask sends a prompt and waits for the complete answer.
func (c *Client) Ask(ctx context.Context, payload AskPayload) (*AskResponse, error) {
	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/chat/ask", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AskStream sends a prompt and returns a live session streaming the answer
// through h. The returned session reports its own terminal state; see
// stream.Session.
func (c *Client) AskStream(ctx context.Context, payload AskPayload, h stream.Handler) (*stream.Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling ask payload: %w", err)
	}

	c.logger.Debug("opening ask stream",
		zap.String("target", c.target),
		zap.String("namespace", payload.Namespace),
		zap.String("session_id", payload.SessionID),
	)

	req := stream.Request{
		URL:    c.target + "/chat/ask_stream",
		Method: http.MethodPost,
		Header: c.headers(),
		Body:   body,
	}
	req.Header.Set("Accept", "text/event-stream")

	return c.streamClient.Open(ctx, req, h), nil
}

// ListSessions returns all chat sessions visible to the caller.
func (c *Client) ListSessions(ctx context.Context) ([]ChatSession, error) {
	var sessions []ChatSession
	if err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a new chat session.
func (c *Client) CreateSession(ctx context.Context, payload CreateSessionPayload) (*ChatSession, error) {
	var sess ChatSession
	if err := c.do(ctx, http.MethodPost, "/chat/sessions", payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SessionMessages returns the stored turns of a session, oldest first.
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	var messages []ChatMessage
	path := "/chat/sessions/" + sessionID + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// RenameSession updates a session's title.
func (c *Client) RenameSession(ctx context.Context, sessionID, title string) (*ChatSession, error) {
	var sess ChatSession
	path := "/chat/sessions/" + sessionID
	if err := c.do(ctx, http.MethodPatch, path, RenameSessionPayload{Title: title}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession removes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/chat/sessions/"+sessionID, nil, nil)
}

// Healthy probes the backend health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// do performs a JSON round trip. A nil in skips the request body; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range c.headers() {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// errorMessage extracts a human-readable message from an error response,
// handling the backend's {"detail": "..."} shape with a raw-body fallback.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	if detail := gjson.GetBytes(data, "detail"); detail.Exists() {
		return detail.String()
	}

	return strings.TrimSpace(string(data))
}
