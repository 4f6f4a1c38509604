package replay

import (
	"fmt"
	"os"

	"github.com/learnlabco/lectern/pkg/sse"
)

// Transcript is an ordered list of records captured from a live stream.
type Transcript struct {
	Records []sse.Record
}

// ParseTranscript splits raw stream text into records. Incomplete trailing
// data (no closing blank line) is rejected so a truncated capture is caught
// at load time rather than replayed as a broken stream.
func ParseTranscript(data []byte) (*Transcript, error) {
	framer := &sse.Framer{}
	records := framer.Feed(string(data))

	if framer.Buffered() > 0 {
		return nil, fmt.Errorf("transcript has %d bytes of unterminated trailing data", framer.Buffered())
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("transcript contains no records")
	}

	return &Transcript{Records: records}, nil
}

// LoadTranscript reads and parses a transcript file.
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	t, err := ParseTranscript(data)
	if err != nil {
		return nil, fmt.Errorf("parsing transcript %s: %w", path, err)
	}

	return t, nil
}
