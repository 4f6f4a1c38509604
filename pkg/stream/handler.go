// Package stream implements the client side of the LearnLab streaming-event
// protocol: it opens one long-lived HTTP request, drives the transport bytes
// through the sse decode/frame/parse pipeline, and dispatches typed events
// to a Handler while owning the session's cancellation lifecycle.
//
// Data flows one direction (transport bytes → decoder → framer → parser →
// dispatcher → handler); control flows the other way only through Cancel.
package stream

// Step is an intermediate agent action reported by the platform while it
// assembles an answer (retrieval, tool calls, planning).
type Step struct {
	Name   string         `json:"name"`
	Detail string         `json:"detail,omitempty"`
	Output map[string]any `json:"output,omitempty"`
}

// Handler receives the events of one streaming session. Methods are invoked
// synchronously from the session's read loop, in the order the underlying
// records were framed. OnDone fires exactly once per session on every
// terminal path except cancellation, which is silent; no method is invoked
// after it.
type Handler interface {
	// OnStep delivers an intermediate agent action.
	OnStep(step Step)

	// OnToken delivers the next fragment of the answer text.
	OnToken(token string)

	// OnDone signals that the session ended: explicit done event, transport
	// EOF, failure to open, or a mid-stream transport/decode failure. It is
	// the single authoritative signal to stop indicating progress.
	OnDone()

	// OnError delivers an application-level error event. It is not terminal;
	// the stream may continue afterwards.
	OnError(message string)
}

// Callbacks adapts plain function slots to the Handler interface. Nil slots
// are skipped, so callers wire only the events they care about.
type Callbacks struct {
	Step  func(step Step)
	Token func(token string)
	Done  func()
	Error func(message string)
}

func (c Callbacks) OnStep(step Step) {
	if c.Step != nil {
		c.Step(step)
	}
}

func (c Callbacks) OnToken(token string) {
	if c.Token != nil {
		c.Token(token)
	}
}

func (c Callbacks) OnDone() {
	if c.Done != nil {
		c.Done()
	}
}

func (c Callbacks) OnError(message string) {
	if c.Error != nil {
		c.Error(message)
	}
}

// EventKind discriminates deliveries on a channel-based consumer.
type EventKind int

const (
	KindStep EventKind = iota
	KindToken
	KindDone
	KindError
)

// Event is a single delivery from a channel Handler.
type Event struct {
	Kind    EventKind
	Step    Step
	Token   string
	Message string
}

// channelHandler forwards events to a channel so goroutine-based hosts can
// range over a session instead of providing callbacks.
type channelHandler struct {
	ch chan Event
}

// NewChannelHandler returns a Handler that forwards every event to the
// returned channel. The channel is closed after the KindDone delivery; a
// cancelled session never delivers KindDone, so cancelling callers must stop
// receiving on their own.
func NewChannelHandler(buffer int) (Handler, <-chan Event) {
	h := &channelHandler{ch: make(chan Event, buffer)}
	return h, h.ch
}

func (h *channelHandler) OnStep(step Step) {
	h.ch <- Event{Kind: KindStep, Step: step}
}

func (h *channelHandler) OnToken(token string) {
	h.ch <- Event{Kind: KindToken, Token: token}
}

func (h *channelHandler) OnDone() {
	h.ch <- Event{Kind: KindDone}
	close(h.ch)
}

func (h *channelHandler) OnError(message string) {
	h.ch <- Event{Kind: KindError, Message: message}
}
