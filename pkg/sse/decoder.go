package sse

import (
	"fmt"
	"unicode/utf8"
)

// DecodeError indicates a malformed UTF-8 byte sequence on the wire. It is
// fatal to the stream that produced it.
type DecodeError struct {
	// Pending is the number of undecodable bytes held by the decoder when
	// the error was detected.
	Pending int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sse: malformed UTF-8 sequence (%d pending bytes)", e.Pending)
}

// Decoder converts raw transport chunks into text, tolerating multi-byte
// UTF-8 sequences split across chunk boundaries. A trailing incomplete
// sequence is held back and emitted once its continuation bytes arrive, so
// splitting a valid byte stream at any boundary decodes to the same text.
//
// The zero value is ready to use. A Decoder is bound to one stream and must
// not be shared.
type Decoder struct {
	pending []byte
}

// Push appends chunk to any held-back bytes and returns the longest complete
// UTF-8 prefix as text. Zero-length chunks are accepted and yield "".
// A byte sequence that can never complete into valid UTF-8 returns a
// *DecodeError.
func (d *Decoder) Push(chunk []byte) (string, error) {
	if len(chunk) == 0 && len(d.pending) == 0 {
		return "", nil
	}

	buf := append(d.pending, chunk...)
	complete := completePrefixLen(buf)

	if !utf8.Valid(buf[:complete]) {
		d.pending = nil
		return "", &DecodeError{Pending: len(buf) - complete}
	}

	text := string(buf[:complete])
	d.pending = buf[complete:]
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return text, nil
}

// Flush reports whether the decoder drained cleanly at end of stream.
// Held-back bytes at that point are by definition an incomplete sequence
// that can no longer be completed, which is a *DecodeError.
func (d *Decoder) Flush() error {
	if len(d.pending) == 0 {
		return nil
	}
	n := len(d.pending)
	d.pending = nil
	return &DecodeError{Pending: n}
}

// completePrefixLen returns the length of the prefix of buf that ends on a
// UTF-8 sequence boundary. At most utf8.UTFMax-1 trailing bytes can belong
// to an incomplete sequence; anything the walk-back cannot explain is left
// in the prefix for validity checking.
func completePrefixLen(buf []byte) int {
	n := len(buf)
	if n == 0 {
		return 0
	}

	// Walk back over trailing continuation bytes to the candidate start of
	// the final sequence.
	start := n - 1
	for lookback := 0; start > 0 && lookback < utf8.UTFMax-1 && isContinuation(buf[start]); lookback++ {
		start--
	}

	b := buf[start]
	switch {
	case b < utf8.RuneSelf:
		// ASCII final byte: the whole buffer is complete.
		return n
	case isContinuation(b):
		// No start byte within reach: the bytes are orphaned continuations,
		// not a split sequence. Leave them in the prefix so validation fails.
		return n
	default:
		if want := seqLen(b); n-start < want {
			// Incomplete trailing sequence: hold it back.
			return start
		}
		return n
	}
}

func isContinuation(b byte) bool {
	return b&0xC0 == 0x80
}

// seqLen returns the encoded length implied by a UTF-8 start byte.
// Invalid start bytes report 1 so they stay in the complete prefix and are
// rejected by validation rather than held back forever.
func seqLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}
