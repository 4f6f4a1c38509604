package stream

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/sse"
)

// Recognized protocol event names. Anything else is ignored.
const (
	eventStep  = "step"
	eventToken = "token"
	eventDone  = "done"
	eventError = "error"
)

// dispatcher maps parsed protocol events onto a Handler and decides, per
// event name, whether the payload is JSON or literal text.
type dispatcher struct {
	handler Handler
	logger  *zap.Logger
}

// dispatch routes one parsed event. It reports whether the event was the
// terminal done signal; it never fails.
func (d *dispatcher) dispatch(ev sse.Event) (done bool) {
	switch ev.Name {
	case eventStep:
		var step Step
		if err := json.Unmarshal([]byte(ev.Data), &step); err != nil {
			// Transient progress info: drop rather than fail the stream.
			d.logger.Debug("dropping unparseable step event", zap.Error(err))
			return false
		}
		d.handler.OnStep(step)

	case eventToken:
		// The payload is normally a JSON-encoded string so embedded
		// newlines and quotes survive transport, but a server sending bare
		// text degrades to raw delivery instead of failing the stream.
		var token string
		if err := json.Unmarshal([]byte(ev.Data), &token); err != nil {
			token = ev.Data
		}
		d.handler.OnToken(token)

	case eventDone:
		return true

	case eventError:
		d.handler.OnError(ev.Data)

	default:
		d.logger.Debug("ignoring unrecognized event", zap.String("event", ev.Name))
	}

	return false
}
