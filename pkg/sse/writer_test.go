package sse

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("downstream gone")
}

var _ = Describe("WriteEvent", func() {
	It("frames a JSON payload as a single data event", func() {
		var buf bytes.Buffer

		err := WriteEvent(&buf, map[string]string{"content": "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal("data: {\"content\":\"hi\"}\n\n"))
	})

	It("round-trips through the Reader", func() {
		var buf bytes.Buffer

		Expect(WriteEvent(&buf, map[string]string{"status": "complete"})).To(Succeed())

		r := NewReader(&buf)
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal(`{"status":"complete"}`))
	})

	It("propagates writer errors", func() {
		err := WriteEvent(failingWriter{}, map[string]string{"content": "hi"})
		Expect(err).To(MatchError(ContainSubstring("downstream gone")))
	})

	It("rejects unmarshalable payloads", func() {
		var buf bytes.Buffer

		err := WriteEvent(&buf, make(chan int))
		Expect(err).To(MatchError(ContainSubstring("marshaling event payload")))
		Expect(buf.Len()).To(BeZero())
	})
})
