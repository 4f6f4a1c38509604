package stream

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Callbacks", func() {
	It("invokes only the slots that are set", func() {
		var tokens []string
		cb := &Callbacks{
			Token: func(tok string) { tokens = append(tokens, tok) },
		}

		Expect(func() {
			cb.OnStep(Step{Name: "retrieve"})
			cb.OnToken("a")
			cb.OnError("boom")
			cb.OnDone()
		}).NotTo(Panic())

		Expect(tokens).To(Equal([]string{"a"}))
	})

	It("is safe with every slot nil", func() {
		cb := &Callbacks{}
		Expect(func() {
			cb.OnStep(Step{})
			cb.OnToken("")
			cb.OnError("")
			cb.OnDone()
		}).NotTo(Panic())
	})
})

var _ = Describe("ChannelHandler", func() {
	It("delivers events in order and closes the channel after done", func() {
		h, events := NewChannelHandler(8)

		h.OnStep(Step{Name: "retrieve", Detail: "docs"})
		h.OnToken("hello")
		h.OnError("transient")
		h.OnDone()

		Expect((<-events).Kind).To(Equal(KindStep))

		tok := <-events
		Expect(tok.Kind).To(Equal(KindToken))
		Expect(tok.Token).To(Equal("hello"))

		errEv := <-events
		Expect(errEv.Kind).To(Equal(KindError))
		Expect(errEv.Message).To(Equal("transient"))

		Expect((<-events).Kind).To(Equal(KindDone))
		Eventually(events).Should(BeClosed())
	})
})
