package sse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/learnlabco/lectern/pkg/sse"
)

var _ = Describe("Framer", func() {
	var fr *sse.Framer

	BeforeEach(func() {
		fr = &sse.Framer{}
	})

	It("extracts a single complete record", func() {
		recs := fr.Feed("data: hello\n\n")
		Expect(recs).To(HaveLen(1))
		Expect(recs[0]).To(Equal(sse.Record{"data: hello"}))
		Expect(fr.Buffered()).To(BeZero())
	})

	It("extracts multiple records from one fragment", func() {
		recs := fr.Feed("data: first\n\ndata: second\n\n")
		Expect(recs).To(HaveLen(2))
		Expect(recs[0]).To(Equal(sse.Record{"data: first"}))
		Expect(recs[1]).To(Equal(sse.Record{"data: second"}))
	})

	It("keeps a partial record buffered", func() {
		recs := fr.Feed("data: par")
		Expect(recs).To(BeEmpty())
		Expect(fr.Buffered()).To(Equal(len("data: par")))

		recs = fr.Feed("tial\n\n")
		Expect(recs).To(HaveLen(1))
		Expect(recs[0]).To(Equal(sse.Record{"data: partial"}))
	})

	It("detects a delimiter split exactly across two feeds", func() {
		recs := fr.Feed("data: split\n")
		Expect(recs).To(BeEmpty())

		recs = fr.Feed("\n")
		Expect(recs).To(HaveLen(1))
		Expect(recs[0]).To(Equal(sse.Record{"data: split"}))
	})

	It("splits a record into its lines", func() {
		recs := fr.Feed("event: step\ndata: {\"n\":1}\n\n")
		Expect(recs).To(HaveLen(1))
		Expect(recs[0]).To(Equal(sse.Record{"event: step", "data: {\"n\":1}"}))
	})

	It("skips zero-length segments between delimiters", func() {
		recs := fr.Feed("\n\n\n\ndata: hello\n\n")
		Expect(recs).To(HaveLen(1))
		Expect(recs[0]).To(Equal(sse.Record{"data: hello"}))
	})

	It("ignores empty fragments", func() {
		Expect(fr.Feed("")).To(BeEmpty())
	})

	It("leaves trailing text after the final delimiter buffered", func() {
		recs := fr.Feed("data: done\n\ndata: next")
		Expect(recs).To(HaveLen(1))
		Expect(fr.Buffered()).To(Equal(len("data: next")))
	})

	It("frames identically regardless of fragment boundaries", func() {
		input := "event: step\ndata: {\"n\":1}\n\nevent: token\ndata: \"hi\"\n\nevent: done\ndata: {}\n\n"

		whole := (&sse.Framer{}).Feed(input)

		for _, size := range []int{1, 2, 3, 5, 11} {
			split := &sse.Framer{}
			var recs []sse.Record
			for i := 0; i < len(input); i += size {
				end := min(i+size, len(input))
				recs = append(recs, split.Feed(input[i:end])...)
			}
			Expect(recs).To(Equal(whole), "fragment size %d", size)
		}
	})
})
