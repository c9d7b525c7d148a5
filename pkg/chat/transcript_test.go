package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/llm"
)

const testDirective = "You are a friendly assistant."

var _ = Describe("Transcript", func() {
	Describe("New", func() {
		It("contains exactly the system directive", func() {
			t := chat.New(testDirective, 0)

			msgs := t.Messages()
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0]).To(Equal(llm.Message{Role: llm.RoleSystem, Content: testDirective}))
		})
	})

	Describe("Append", func() {
		It("yields a sequence ending in the appended user message", func() {
			t := chat.New(testDirective, 0)
			t.Append(llm.RoleUser, "hello")

			msgs := t.Messages()
			Expect(msgs[len(msgs)-1]).To(Equal(llm.Message{Role: llm.RoleUser, Content: "hello"}))
		})

		It("preserves conversation order", func() {
			t := chat.New(testDirective, 0)
			t.Append(llm.RoleUser, "hello")
			t.Append(llm.RoleAssistant, "hi there")
			t.Append(llm.RoleUser, "how are you?")

			msgs := t.Messages()
			Expect(msgs).To(HaveLen(4))
			Expect(msgs[1].Content).To(Equal("hello"))
			Expect(msgs[2].Content).To(Equal("hi there"))
			Expect(msgs[3].Content).To(Equal("how are you?"))
		})
	})

	Describe("Messages", func() {
		It("returns a copy that callers cannot use to mutate the transcript", func() {
			t := chat.New(testDirective, 0)
			t.Append(llm.RoleUser, "hello")

			msgs := t.Messages()
			msgs[0].Content = "tampered"

			Expect(t.Messages()[0].Content).To(Equal(testDirective))
		})
	})

	Describe("Rehydrate", func() {
		It("replays prior pairs onto a fresh directive", func() {
			prior := []llm.Message{
				{Role: llm.RoleUser, Content: "hello"},
				{Role: llm.RoleAssistant, Content: "hi there"},
			}

			t := chat.Rehydrate(prior, testDirective, 0)

			msgs := t.Messages()
			Expect(msgs).To(HaveLen(3))
			Expect(msgs[0].Role).To(Equal(llm.RoleSystem))
			Expect(msgs[1].Content).To(Equal("hello"))
			Expect(msgs[2].Content).To(Equal("hi there"))
		})

		It("never duplicates the system directive", func() {
			prior := []llm.Message{
				{Role: llm.RoleSystem, Content: "stale directive"},
				{Role: llm.RoleUser, Content: "hello"},
			}

			t := chat.Rehydrate(prior, testDirective, 0)

			msgs := t.Messages()
			Expect(msgs[0]).To(Equal(llm.Message{Role: llm.RoleSystem, Content: testDirective}))
			for _, msg := range msgs[1:] {
				Expect(msg.Role).NotTo(Equal(llm.RoleSystem))
			}
		})

		It("skips system entries anywhere in the prior list", func() {
			prior := []llm.Message{
				{Role: llm.RoleUser, Content: "hello"},
				{Role: llm.RoleSystem, Content: "injected"},
				{Role: llm.RoleAssistant, Content: "hi there"},
			}

			t := chat.Rehydrate(prior, testDirective, 0)
			Expect(t.Messages()).To(HaveLen(3))
		})

		It("handles an empty prior list", func() {
			t := chat.Rehydrate(nil, testDirective, 0)
			Expect(t.Len()).To(Equal(1))
		})
	})

	Describe("turn bound", func() {
		It("drops the oldest pair once the bound is exceeded", func() {
			t := chat.New(testDirective, 2)
			t.Append(llm.RoleUser, "one")
			t.Append(llm.RoleAssistant, "reply one")
			t.Append(llm.RoleUser, "two")
			t.Append(llm.RoleAssistant, "reply two")
			t.Append(llm.RoleUser, "three")
			t.Append(llm.RoleAssistant, "reply three")

			msgs := t.Messages()
			Expect(msgs).To(HaveLen(5))
			Expect(msgs[0].Role).To(Equal(llm.RoleSystem))
			Expect(msgs[1].Content).To(Equal("two"))
			Expect(msgs[4].Content).To(Equal("reply three"))
		})

		It("keeps the directive in place while trimming", func() {
			t := chat.New(testDirective, 1)
			for i := 0; i < 10; i++ {
				t.Append(llm.RoleUser, "question")
				t.Append(llm.RoleAssistant, "answer")
			}

			Expect(t.Messages()[0].Content).To(Equal(testDirective))
			Expect(t.Len()).To(BeNumerically("<=", 3))
		})

		It("is disabled when maxTurns is zero", func() {
			t := chat.New(testDirective, 0)
			for i := 0; i < 20; i++ {
				t.Append(llm.RoleUser, "question")
				t.Append(llm.RoleAssistant, "answer")
			}

			Expect(t.Len()).To(Equal(41))
		})
	})
})
