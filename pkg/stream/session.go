package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/sse"
)

// readBufferSize is the transport read buffer. Chunks arrive in arbitrary
// sizes; the pipeline is correct for any of them.
const readBufferSize = 32 * 1024

// State is the lifecycle state of a Session.
type State int32

const (
	StateIdle State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Request describes the single HTTP request a session drives: URL, method,
// headers, and body. The credential header is the caller's responsibility,
// passed in explicitly rather than read from ambient state.
type Request struct {
	URL    string
	Method string // defaults to POST
	Header http.Header
	Body   []byte
}

// Client opens streaming sessions. The zero value is not usable; construct
// with NewClient.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a stream client. A nil httpClient gets a default with no
// overall timeout — timeout semantics are layered on top by the caller via
// the context behind Session.Cancel. A nil logger is replaced with a nop.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Open issues the request and returns the session that owns it. The returned
// session is already running: events are delivered to h from a dedicated
// goroutine until a terminal signal or Cancel. Exactly one session owns the
// transport connection it opened; sessions are not reused.
func (c *Client) Open(ctx context.Context, req Request, h Handler) *Session {
	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		id:      uuid.New(),
		handler: h,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.logger = c.logger.With(zap.String("session_id", s.id.String()))

	go s.run(ctx, c.httpClient, req)
	return s
}

// Session owns one in-flight streaming request: it drives bytes through the
// decode/frame/parse/dispatch pipeline, exposes a cancellation handle, and
// guarantees the pipeline is torn down exactly once whichever terminal path
// is taken.
type Session struct {
	id      uuid.UUID
	handler Handler
	logger  *zap.Logger
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	state     State
	cancelled bool
	err       error
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id.String() }

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error after the session closed: an *OpenError,
// *TransportError, or *sse.DecodeError for the corresponding failure paths,
// context.Canceled after Cancel, and nil for clean completion. All failure
// paths still resolve through a single OnDone; Err exists so programmatic
// callers can tell a refused connection from an empty result without a
// behavioral change.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done returns a channel closed once the session reaches the closed state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cancel aborts the transport and stops the pipeline at its next suspension
// point. No further events are dispatched and OnDone is not invoked — the
// caller already knows it cancelled. Cancelling a session that has already
// closed is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	s.logger.Debug("session cancelled")
	s.cancel()
}

// run is the session's read loop. It is the only writer of terminal state.
func (s *Session) run(ctx context.Context, client *http.Client, req Request) {
	defer close(s.done)
	defer s.cancel()

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		s.close(ctx, &OpenError{Err: err})
		return
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		s.close(ctx, &OpenError{Err: err})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then treat the
		// open as a no-op completion.
		_, _ = io.CopyN(io.Discard, resp.Body, 4*1024)
		s.logger.Warn("stream open refused",
			zap.Int("status", resp.StatusCode),
			zap.String("url", req.URL),
		)
		s.close(ctx, &OpenError{Status: resp.StatusCode})
		return
	}

	s.setState(StateOpen)
	s.logger.Debug("stream opened",
		zap.String("url", req.URL),
		zap.Duration("ttfb", time.Since(start)),
	)

	var (
		dec    sse.Decoder
		framer sse.Framer
		disp   = dispatcher{handler: s.handler, logger: s.logger}
		buf    = make([]byte, readBufferSize)
		events int
	)

	// Exactly one outstanding read at a time; the framer never reads ahead.
	for {
		n, readErr := resp.Body.Read(buf)

		if n > 0 {
			text, decErr := dec.Push(buf[:n])
			if decErr != nil {
				s.logger.Warn("stream decode failed", zap.Error(decErr))
				s.close(ctx, decErr)
				return
			}

			for _, rec := range framer.Feed(text) {
				if ctx.Err() != nil {
					// Cancelled mid-chunk: already-dispatched events stand,
					// nothing further is delivered.
					s.close(ctx, ctx.Err())
					return
				}

				events++
				if disp.dispatch(sse.ParseRecord(rec)) {
					s.setState(StateClosing)
					s.logger.Debug("stream completed",
						zap.Int("events", events),
						zap.Duration("duration", time.Since(start)),
					)
					s.close(ctx, nil)
					return
				}
			}
		}

		if readErr != nil {
			switch {
			case errors.Is(readErr, io.EOF):
				// EOF without an explicit done event is a valid terminal
				// signal. A partial record left in the framer is never
				// handed to the parser.
				if flushErr := dec.Flush(); flushErr != nil {
					s.logger.Warn("stream decode failed at EOF", zap.Error(flushErr))
					s.close(ctx, flushErr)
					return
				}
				s.setState(StateClosing)
				s.logger.Debug("stream ended at EOF",
					zap.Int("events", events),
					zap.Int("buffered", framer.Buffered()),
					zap.Duration("duration", time.Since(start)),
				)
				s.close(ctx, nil)
				return

			case ctx.Err() != nil:
				s.close(ctx, ctx.Err())
				return

			default:
				s.logger.Warn("stream transport failed", zap.Error(readErr))
				s.close(ctx, &TransportError{Err: readErr})
				return
			}
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// close resolves the session to the closed state exactly once and fires the
// single OnDone, unless the session was cancelled: cancellation is silent.
func (s *Session) close(ctx context.Context, err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	silent := s.cancelled || ctx.Err() != nil
	if silent {
		s.err = context.Canceled
	} else {
		s.err = err
	}
	s.mu.Unlock()

	if silent {
		return
	}
	s.handler.OnDone()
}
