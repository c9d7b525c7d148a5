package chat_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/chat"
)

var _ = Describe("PendingResponses", func() {
	var table *chat.PendingResponses

	BeforeEach(func() {
		table = chat.NewPendingResponses(time.Minute, time.Minute)
	})

	AfterEach(func() {
		table.Close()
	})

	Describe("Stage and Commit", func() {
		It("consumes a staged entry exactly once", func() {
			table.Stage("resp-1", "full reply")

			content, err := table.Commit("resp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("full reply"))

			_, err = table.Commit("resp-1")
			Expect(err).To(BeAssignableToTypeOf(chat.UnknownResponseError{}))
		})

		It("fails a commit for an id that was never staged", func() {
			_, err := table.Commit("never-staged")

			var unknownErr chat.UnknownResponseError
			Expect(err).To(BeAssignableToTypeOf(unknownErr))
			Expect(err.Error()).To(ContainSubstring("never-staged"))
		})

		It("overwrites an entry staged twice under the same id", func() {
			table.Stage("resp-1", "first")
			table.Stage("resp-1", "second")

			content, err := table.Commit("resp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("second"))
		})

		It("tracks the number of staged entries", func() {
			Expect(table.Len()).To(BeZero())
			table.Stage("a", "x")
			table.Stage("b", "y")
			Expect(table.Len()).To(Equal(2))
		})
	})

	Describe("TTL eviction", func() {
		It("sweeps expired entries in the background", func() {
			short := chat.NewPendingResponses(10*time.Millisecond, 5*time.Millisecond)
			defer short.Close()

			short.Stage("resp-1", "reply")
			Expect(short.Len()).To(Equal(1))

			Eventually(short.Len, "1s", "5ms").Should(BeZero())
		})

		It("refuses to commit an expired entry before the sweeper runs", func() {
			short := chat.NewPendingResponses(5*time.Millisecond, time.Hour)
			defer short.Close()

			short.Stage("resp-1", "reply")
			time.Sleep(20 * time.Millisecond)

			_, err := short.Commit("resp-1")
			Expect(err).To(BeAssignableToTypeOf(chat.UnknownResponseError{}))
		})
	})

	Describe("Close", func() {
		It("is safe to call more than once", func() {
			Expect(func() {
				table.Close()
				table.Close()
			}).NotTo(Panic())
		})
	})
})
