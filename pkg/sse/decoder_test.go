package sse_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/learnlabco/lectern/pkg/sse"
)

var _ = Describe("Decoder", func() {
	var dec *sse.Decoder

	BeforeEach(func() {
		dec = &sse.Decoder{}
	})

	Describe("Push", func() {
		It("decodes plain ASCII in one chunk", func() {
			text, err := dec.Push([]byte("event: token\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("event: token\n"))
		})

		It("accepts and ignores zero-length chunks", func() {
			text, err := dec.Push(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())

			text, err = dec.Push([]byte{})
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())
		})

		It("holds back a 2-byte rune split across chunks", func() {
			raw := []byte("é") // 0xC3 0xA9

			text, err := dec.Push(raw[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())

			text, err = dec.Push(raw[1:])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("é"))
		})

		It("holds back a 3-byte rune split at both boundaries", func() {
			raw := []byte("€") // 0xE2 0x82 0xAC

			text, err := dec.Push(raw[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())

			text, err = dec.Push(raw[1:2])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())

			text, err = dec.Push(raw[2:])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("€"))
		})

		It("emits the complete prefix before a split 4-byte rune", func() {
			raw := []byte("ok🎓") // 4-byte emoji at the end

			text, err := dec.Push(raw[:len(raw)-2])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("ok"))

			text, err = dec.Push(raw[len(raw)-2:])
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("🎓"))
		})

		It("decodes a multi-byte character only once when split", func() {
			raw := []byte("héllo")
			var out string
			for i := range raw {
				text, err := dec.Push(raw[i : i+1])
				Expect(err).NotTo(HaveOccurred())
				out += text
			}
			Expect(out).To(Equal("héllo"))
		})

		It("fails on an orphaned continuation byte", func() {
			_, err := dec.Push([]byte{0x80, 'a'})
			var decErr *sse.DecodeError
			Expect(errors.As(err, &decErr)).To(BeTrue())
		})

		It("fails on an invalid start byte", func() {
			_, err := dec.Push([]byte{0xFF})
			var decErr *sse.DecodeError
			Expect(errors.As(err, &decErr)).To(BeTrue())
		})
	})

	Describe("Flush", func() {
		It("succeeds when nothing is held back", func() {
			_, err := dec.Push([]byte("done"))
			Expect(err).NotTo(HaveOccurred())
			Expect(dec.Flush()).To(Succeed())
		})

		It("fails with DecodeError when an incomplete sequence remains", func() {
			_, err := dec.Push([]byte{0xE2, 0x82}) // truncated €
			Expect(err).NotTo(HaveOccurred())

			err = dec.Flush()
			var decErr *sse.DecodeError
			Expect(errors.As(err, &decErr)).To(BeTrue())
			Expect(decErr.Pending).To(Equal(2))
		})

		It("is a no-op on a fresh decoder", func() {
			Expect(dec.Flush()).To(Succeed())
		})
	})

	Describe("chunk-split equivalence", func() {
		It("yields identical text for any chunking of the same bytes", func() {
			raw := []byte("event: token\ndata: \"héllo 🎓 wörld\"\n\n")

			whole, err := dec.Push(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(dec.Flush()).To(Succeed())

			for _, size := range []int{1, 2, 3, 5, 7} {
				split := &sse.Decoder{}
				var out string
				for i := 0; i < len(raw); i += size {
					end := min(i+size, len(raw))
					text, err := split.Push(raw[i:end])
					Expect(err).NotTo(HaveOccurred())
					out += text
				}
				Expect(split.Flush()).To(Succeed())
				Expect(out).To(Equal(whole), "chunk size %d", size)
			}
		})
	})
})
