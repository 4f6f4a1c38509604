package sse_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/learnlabco/lectern/pkg/sse"
)

var _ = Describe("ParseRecord", func() {
	It("parses an event name and data payload", func() {
		ev := sse.ParseRecord(sse.Record{"event: token", "data: \"hi\""})
		Expect(ev.Name).To(Equal("token"))
		Expect(ev.Data).To(Equal("\"hi\""))
	})

	It("defaults the name to message when no event line is present", func() {
		ev := sse.ParseRecord(sse.Record{"data: hello"})
		Expect(ev.Name).To(Equal("message"))
		Expect(ev.Data).To(Equal("hello"))
	})

	It("joins multiple data lines with a newline", func() {
		ev := sse.ParseRecord(sse.Record{"data: line one", "data: line two", "data: line three"})
		Expect(ev.Data).To(Equal("line one\nline two\nline three"))
	})

	It("handles data with no space after the colon", func() {
		ev := sse.ParseRecord(sse.Record{"data:no-space"})
		Expect(ev.Data).To(Equal("no-space"))
	})

	It("strips only one leading space after the colon", func() {
		ev := sse.ParseRecord(sse.Record{"data:  indented"})
		Expect(ev.Data).To(Equal(" indented"))
	})

	It("yields message with empty data for an empty record", func() {
		ev := sse.ParseRecord(sse.Record{})
		Expect(ev.Name).To(Equal("message"))
		Expect(ev.Data).To(BeEmpty())
	})

	It("ignores unknown fields", func() {
		ev := sse.ParseRecord(sse.Record{"retry: 3000", "id: 42", "data: hello"})
		Expect(ev.Name).To(Equal("message"))
		Expect(ev.Data).To(Equal("hello"))
	})

	It("ignores lines with no colon", func() {
		ev := sse.ParseRecord(sse.Record{"garbage", "data: kept"})
		Expect(ev.Data).To(Equal("kept"))
	})

	It("tolerates CRLF line endings", func() {
		ev := sse.ParseRecord(sse.Record{"event: token\r", "data: hi\r"})
		Expect(ev.Name).To(Equal("token"))
		Expect(ev.Data).To(Equal("hi"))
	})

	It("preserves an empty data value", func() {
		ev := sse.ParseRecord(sse.Record{"event: done", "data:"})
		Expect(ev.Name).To(Equal("done"))
		Expect(ev.Data).To(BeEmpty())
	})

	It("round-trips a JSON string payload with embedded newlines and quotes", func() {
		original := "line one\nline \"two\"\nline three"
		payload, err := json.Marshal(original)
		Expect(err).NotTo(HaveOccurred())

		// A JSON string never contains a raw newline, so it always arrives
		// as a single data line.
		ev := sse.ParseRecord(sse.Record{"event: token", "data: " + string(payload)})

		var decoded string
		Expect(json.Unmarshal([]byte(ev.Data), &decoded)).To(Succeed())
		Expect(decoded).To(Equal(original))
	})
})
