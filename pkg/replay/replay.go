// Package replay serves a recorded stream transcript back over HTTP.
//
// The server mimics a LearnLab backend's ask_stream endpoint, which makes it
// useful for demoing the CLI offline and for exercising stream consumers
// against real captured traffic.
package replay

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/sse"
)

// Config holds replay server settings.
type Config struct {
	// ListenAddr is the address to listen on (e.g. ":8082").
	ListenAddr string

	// Delay is the pause between replayed records.
	Delay time.Duration
}

// Server replays a transcript to every streaming request it receives.
type Server struct {
	config     Config
	transcript *Transcript
	logger     *zap.Logger
	app        *fiber.App
}

// NewServer creates a replay server for the given transcript.
func NewServer(config Config, transcript *Transcript, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		transcript: transcript,
		logger:     logger,
		app:        app,
	}

	app.Get("/health", s.handleHealth)
	app.Post("/chat/ask_stream", s.handleStream)

	return s
}

// Run starts the replay server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting replay server",
		zap.String("listen", s.config.ListenAddr),
		zap.Int("records", len(s.transcript.Records)),
		zap.Duration("delay", s.config.Delay),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the replay server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "records": len(s.transcript.Records)})
}

// handleStream writes the transcript records one at a time with the
// configured delay between them.
func (s *Server) handleStream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")

	// Use io.Pipe + SetBodyStream so each record is flushed to the socket
	// as it is written instead of buffering the whole body. pw.Write blocks
	// until fasthttp's chunked writer consumes the data, which gives true
	// per-record streaming.
	pr, pw := io.Pipe()
	go s.writeRecords(pw)

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writeRecords(pw *io.PipeWriter) {
	defer pw.Close()

	for i, rec := range s.transcript.Records {
		if i > 0 && s.config.Delay > 0 {
			time.Sleep(s.config.Delay)
		}

		frame := strings.Join(rec, "\n") + "\n\n"
		if _, err := pw.Write([]byte(frame)); err != nil {
			// Client went away.
			s.logger.Debug("replay stream closed early", zap.Error(err), zap.Int("record", i))
			return
		}
	}
}

// Events returns the transcript parsed into events, in replay order.
func (s *Server) Events() []sse.Event {
	events := make([]sse.Event, len(s.transcript.Records))
	for i, rec := range s.transcript.Records {
		events[i] = sse.ParseRecord(rec)
	}
	return events
}
