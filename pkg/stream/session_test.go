package stream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/learnlabco/lectern/pkg/sse"
	"github.com/learnlabco/lectern/pkg/stream"
)

// recorder captures every delivery of one session, in order.
type recorder struct {
	mu     sync.Mutex
	steps  []stream.Step
	tokens []string
	errs   []string
	dones  int
	order  []string
}

func (r *recorder) OnStep(step stream.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
	r.order = append(r.order, "step")
}

func (r *recorder) OnToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	r.order = append(r.order, "token")
}

func (r *recorder) OnDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dones++
	r.order = append(r.order, "done")
}

func (r *recorder) OnError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, message)
	r.order = append(r.order, "error")
}

func (r *recorder) snapshot() (steps []stream.Step, tokens, errs, order []string, dones int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps, r.tokens, r.errs, r.order, r.dones
}

// sseServer streams each write as its own flushed chunk.
func sseServer(writes ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for _, chunk := range writes {
			_, _ = io.WriteString(w, chunk)
			fl.Flush()
		}
	}))
}

var _ = Describe("Session", func() {
	var (
		client *stream.Client
		rec    *recorder
	)

	BeforeEach(func() {
		client = stream.NewClient(nil, nil)
		rec = &recorder{}
	})

	open := func(url string) *stream.Session {
		return client.Open(context.Background(), stream.Request{URL: url}, rec)
	}

	Context("with a well-formed step/token/done stream", func() {
		It("dispatches step, token, done in order, exactly once each", func() {
			srv := sseServer(
				"event: step\ndata: {\"name\":\"retrieval\",\"detail\":\"k=4\"}\n\n",
				"event: token\ndata: \"hi\"\n\n",
				"event: done\ndata: {}\n\n",
			)
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			steps, tokens, _, order, dones := rec.snapshot()
			Expect(order).To(Equal([]string{"step", "token", "done"}))
			Expect(steps).To(HaveLen(1))
			Expect(steps[0].Name).To(Equal("retrieval"))
			Expect(steps[0].Detail).To(Equal("k=4"))
			Expect(tokens).To(Equal([]string{"hi"}))
			Expect(dones).To(Equal(1))
			Expect(sess.State()).To(Equal(stream.StateClosed))
			Expect(sess.Err()).To(BeNil())
		})

		It("does not dispatch records that arrive after done", func() {
			srv := sseServer(
				"event: done\ndata: {}\n\nevent: token\ndata: \"late\"\n\n",
			)
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, order, _ := rec.snapshot()
			Expect(tokens).To(BeEmpty())
			Expect(order).To(Equal([]string{"done"}))
		})
	})

	Context("with records split across chunks", func() {
		It("produces the same events for one-byte chunks", func() {
			input := "event: step\ndata: {\"name\":\"answer\"}\n\nevent: token\ndata: \"héllo 🎓\"\n\nevent: done\ndata: {}\n\n"
			var writes []string
			for _, b := range []byte(input) {
				writes = append(writes, string([]byte{b}))
			}
			srv := sseServer(writes...)
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			steps, tokens, _, order, dones := rec.snapshot()
			Expect(order).To(Equal([]string{"step", "token", "done"}))
			Expect(steps[0].Name).To(Equal("answer"))
			Expect(tokens).To(Equal([]string{"héllo 🎓"}))
			Expect(dones).To(Equal(1))
		})

		It("detects a record delimiter split across two chunks", func() {
			srv := sseServer("event: token\ndata: \"split\"\n", "\nevent: done\ndata: {}\n\n")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, _, dones := rec.snapshot()
			Expect(tokens).To(Equal([]string{"split"}))
			Expect(dones).To(Equal(1))
		})
	})

	Context("with protocol variations", func() {
		It("ignores records without a recognized event name", func() {
			srv := sseServer("data: hello\n\nevent: done\ndata: {}\n\n")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			steps, tokens, errs, _, dones := rec.snapshot()
			Expect(steps).To(BeEmpty())
			Expect(tokens).To(BeEmpty())
			Expect(errs).To(BeEmpty())
			Expect(dones).To(Equal(1))
		})

		It("falls back to raw text for a token payload that is not JSON", func() {
			srv := sseServer("event: token\ndata: not-json\n\nevent: done\ndata: {}\n\n")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, _, _ := rec.snapshot()
			Expect(tokens).To(Equal([]string{"not-json"}))
		})

		It("silently drops a step payload that is not a JSON object", func() {
			srv := sseServer("event: step\ndata: not-json\n\nevent: done\ndata: {}\n\n")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			steps, _, _, order, _ := rec.snapshot()
			Expect(steps).To(BeEmpty())
			Expect(order).To(Equal([]string{"done"}))
		})

		It("delivers error events without terminating the stream", func() {
			srv := sseServer(
				"event: error\ndata: retrieval backend unavailable\n\n",
				"event: token\ndata: \"still going\"\n\n",
				"event: done\ndata: {}\n\n",
			)
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, errs, order, dones := rec.snapshot()
			Expect(errs).To(Equal([]string{"retrieval backend unavailable"}))
			Expect(tokens).To(Equal([]string{"still going"}))
			Expect(order).To(Equal([]string{"error", "token", "done"}))
			Expect(dones).To(Equal(1))
		})
	})

	Context("when the transport ends without a done event", func() {
		It("fires OnDone exactly once at EOF", func() {
			srv := sseServer("event: token\ndata: \"partial\"\n\n")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, _, dones := rec.snapshot()
			Expect(tokens).To(Equal([]string{"partial"}))
			Expect(dones).To(Equal(1))
			Expect(sess.Err()).To(BeNil())
		})

		It("never hands an unterminated trailing record to the parser", func() {
			srv := sseServer("event: token\ndata: \"ok\"\n\nevent: token\ndata: \"unterminated\"")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, _, dones := rec.snapshot()
			Expect(tokens).To(Equal([]string{"ok"}))
			Expect(dones).To(Equal(1))
		})
	})

	Context("when the open attempt fails", func() {
		It("resolves a non-success status to a single OnDone with no events", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", http.StatusForbidden)
			}))
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			steps, tokens, errs, _, dones := rec.snapshot()
			Expect(steps).To(BeEmpty())
			Expect(tokens).To(BeEmpty())
			Expect(errs).To(BeEmpty())
			Expect(dones).To(Equal(1))

			var openErr *stream.OpenError
			Expect(errors.As(sess.Err(), &openErr)).To(BeTrue())
			Expect(openErr.Status).To(Equal(http.StatusForbidden))
		})

		It("resolves a connection failure to a single OnDone", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			srv.Close() // nothing is listening anymore

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, _, _, _, dones := rec.snapshot()
			Expect(dones).To(Equal(1))

			var openErr *stream.OpenError
			Expect(errors.As(sess.Err(), &openErr)).To(BeTrue())
			Expect(openErr.Status).To(BeZero())
		})
	})

	Context("when the transport fails mid-stream", func() {
		It("routes the failure to a single OnDone, preserving delivered tokens", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fl := w.(http.Flusher)
				_, _ = io.WriteString(w, "event: token\ndata: \"kept\"\n\n")
				fl.Flush()
				panic(http.ErrAbortHandler)
			}))
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, errs, _, dones := rec.snapshot()
			Expect(tokens).To(Equal([]string{"kept"}))
			Expect(errs).To(BeEmpty())
			Expect(dones).To(Equal(1))

			var transportErr *stream.TransportError
			Expect(errors.As(sess.Err(), &transportErr)).To(BeTrue())
		})
	})

	Context("when the stream carries malformed bytes", func() {
		It("aborts the session through a single OnDone with a DecodeError", func() {
			srv := sseServer(string([]byte{0xFF, 0xFE}))
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, _, dones := rec.snapshot()
			Expect(tokens).To(BeEmpty())
			Expect(dones).To(Equal(1))

			var decErr *sse.DecodeError
			Expect(errors.As(sess.Err(), &decErr)).To(BeTrue())
		})

		It("fails at EOF when a multi-byte sequence never completes", func() {
			srv := sseServer("event: token\ndata: \"ok\"\n\n" + string([]byte{0xE2, 0x82}))
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			_, tokens, _, _, dones := rec.snapshot()
			Expect(tokens).To(Equal([]string{"ok"}))
			Expect(dones).To(Equal(1))

			var decErr *sse.DecodeError
			Expect(errors.As(sess.Err(), &decErr)).To(BeTrue())
		})
	})

	Context("cancellation", func() {
		It("fires no callback when cancelled before any chunk arrives", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				w.(http.Flusher).Flush()
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			defer srv.Close()
			defer close(release)

			sess := open(srv.URL)
			sess.Cancel()
			Eventually(sess.Done()).Should(BeClosed())

			steps, tokens, errs, _, dones := rec.snapshot()
			Expect(steps).To(BeEmpty())
			Expect(tokens).To(BeEmpty())
			Expect(errs).To(BeEmpty())
			Expect(dones).To(BeZero())
			Expect(sess.Err()).To(MatchError(context.Canceled))
		})

		It("is a no-op after the session has closed", func() {
			srv := sseServer("event: done\ndata: {}\n\n")
			defer srv.Close()

			sess := open(srv.URL)
			Eventually(sess.Done()).Should(BeClosed())

			Expect(sess.Cancel).NotTo(Panic())
			Expect(sess.Cancel).NotTo(Panic())

			_, _, _, _, dones := rec.snapshot()
			Expect(dones).To(Equal(1))
			Expect(sess.State()).To(Equal(stream.StateClosed))
		})

		It("honors cancellation of the parent context", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				w.(http.Flusher).Flush()
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			defer srv.Close()
			defer close(release)

			ctx, cancel := context.WithCancel(context.Background())
			sess := client.Open(ctx, stream.Request{URL: srv.URL}, rec)
			cancel()
			Eventually(sess.Done()).Should(BeClosed())

			_, _, _, _, dones := rec.snapshot()
			Expect(dones).To(BeZero())
		})
	})

	Context("concurrent sessions", func() {
		It("keeps two simultaneous streams fully independent", func() {
			srvA := sseServer("event: token\ndata: \"from-a\"\n\nevent: done\ndata: {}\n\n")
			defer srvA.Close()
			srvB := sseServer("event: token\ndata: \"from-b\"\n\nevent: done\ndata: {}\n\n")
			defer srvB.Close()

			recB := &recorder{}
			sessA := client.Open(context.Background(), stream.Request{URL: srvA.URL}, rec)
			sessB := client.Open(context.Background(), stream.Request{URL: srvB.URL}, recB)

			Eventually(sessA.Done()).Should(BeClosed())
			Eventually(sessB.Done()).Should(BeClosed())

			_, tokensA, _, _, donesA := rec.snapshot()
			_, tokensB, _, _, donesB := recB.snapshot()
			Expect(tokensA).To(Equal([]string{"from-a"}))
			Expect(tokensB).To(Equal([]string{"from-b"}))
			Expect(donesA).To(Equal(1))
			Expect(donesB).To(Equal(1))
			Expect(sessA.ID()).NotTo(Equal(sessB.ID()))
		})
	})

	Context("request descriptor", func() {
		It("sends method, headers, and body as given", func() {
			var (
				gotMethod string
				gotAuth   string
				gotBody   []byte
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotAuth = r.Header.Get("Authorization")
				gotBody, _ = io.ReadAll(r.Body)
				_, _ = io.WriteString(w, "event: done\ndata: {}\n\n")
			}))
			defer srv.Close()

			header := http.Header{}
			header.Set("Authorization", "Bearer test-token")
			sess := client.Open(context.Background(), stream.Request{
				URL:    srv.URL,
				Header: header,
				Body:   []byte(`{"prompt":"hi"}`),
			}, rec)
			Eventually(sess.Done()).Should(BeClosed())

			Expect(gotMethod).To(Equal(http.MethodPost))
			Expect(gotAuth).To(Equal("Bearer test-token"))
			Expect(gotBody).To(Equal([]byte(`{"prompt":"hi"}`)))
		})
	})
})
