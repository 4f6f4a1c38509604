package sse

import (
	"bytes"
	"strings"
)

// delimiter separates records on the wire.
var delimiter = []byte("\n\n")

// Framer accumulates decoded text and extracts complete records. The buffer
// is exclusively owned by the Framer bound to one stream; text before the
// consumed cursor has been handed out as records, text after it is
// unconsumed and may be incomplete.
//
// The zero value is ready to use.
type Framer struct {
	buf []byte

	// scanned marks how far into buf the delimiter search has already
	// looked without a match. Each Feed resumes from there (backed up by
	// one byte so a delimiter split across feeds is still seen), which
	// keeps total scan work linear over the life of a stream.
	scanned int
}

// Feed appends fragment to the buffer and returns every complete record now
// available, in order. Trailing text after the final delimiter stays
// buffered for the next call. Zero-length segments between delimiters
// (leading blank lines, keep-alive newlines) are skipped.
func (f *Framer) Feed(fragment string) []Record {
	if fragment == "" {
		return nil
	}
	f.buf = append(f.buf, fragment...)

	var records []Record
	for {
		from := f.scanned
		if from > 0 {
			// The previous scan may have stopped on the first byte of a
			// delimiter split across feeds.
			from--
		}

		i := bytes.Index(f.buf[from:], delimiter)
		if i < 0 {
			f.scanned = len(f.buf)
			return records
		}

		end := from + i
		if end > 0 {
			records = append(records, splitLines(string(f.buf[:end])))
		}
		f.buf = f.buf[end+len(delimiter):]
		f.scanned = 0
	}
}

// Buffered reports how many bytes of unconsumed text remain, for diagnostics.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// splitLines splits record text into its raw lines.
func splitLines(text string) Record {
	return Record(strings.Split(text, "\n"))
}
