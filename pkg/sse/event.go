// Package sse implements the wire-level half of the LearnLab streaming
// protocol: incremental UTF-8 decoding of transport chunks, framing of
// blank-line-delimited records, and parsing of records into typed events.
//
// The platform emits a sequence of UTF-8 text records separated by a blank
// line ("\n\n") over a chunked HTTP response body. Each record is a sequence
// of lines of the form "event: <name>" or "data: <text>"; anything else is
// ignored for forward compatibility.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

// DefaultEventName is the event name assigned when a record carries no
// "event:" line, per the SSE spec.
const DefaultEventName = "message"

// Record is one protocol unit: the raw text lines collected between two
// blank-line delimiters. A Record is only materialized by the Framer once a
// full delimiter has been observed; partial records are never handed out.
type Record []string

// Event is a parsed record.
type Event struct {
	// Name is the event name from the "event:" field, or DefaultEventName
	// when the record carried none.
	Name string

	// Data is the concatenated contents of all "data:" lines, joined with
	// "\n" (per the SSE spec, multiple data fields are joined with a single
	// newline). Multi-line payloads survive transport this way.
	Data string
}

// ParseRecord parses one record's raw lines into an Event.
//
// Parsing never fails: malformed or unknown lines are dropped, not rejected,
// so the protocol stays forward-compatible with servers emitting additional
// metadata lines. An empty record yields {Name: "message", Data: ""}.
func ParseRecord(rec Record) Event {
	ev := Event{Name: DefaultEventName}
	var data strings.Builder
	sawData := false

	for _, line := range rec {
		// Tolerate CRLF line endings from intermediaries.
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			// Line with no colon: the entire line is a field name with an
			// empty value. No field we recognize is valueless, so skip.
			continue
		}
		// Strip a single leading space after the colon, per spec.
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			ev.Name = value
		case "data":
			if sawData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			sawData = true
		default:
			// Unknown fields ("id", "retry", future metadata) are ignored.
		}
	}

	ev.Data = data.String()
	return ev
}
