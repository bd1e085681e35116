package protoc_test

import (
	"errors"
	"io"
	"strings"

	"github.com/derektruong/fxvfs/protoc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingBody struct {
	io.Reader
	readErr  error
	closeErr error
	closed   int
}

func (b *recordingBody) Read(p []byte) (int, error) {
	if b.readErr != nil {
		return 0, b.readErr
	}
	return b.Reader.Read(p)
}

func (b *recordingBody) Close() error {
	b.closed++
	return b.closeErr
}

var _ = Describe("ResponseTracker", func() {
	var (
		tracker *protoc.ResponseTracker
		body    *recordingBody
	)

	BeforeEach(func() {
		tracker = new(protoc.ResponseTracker)
		body = &recordingBody{Reader: strings.NewReader("trailing response body")}
	})

	It("should have nothing pending initially", func() {
		Expect(tracker.Pending()).To(BeFalse())
		Expect(tracker.Drain()).To(Succeed())
	})

	It("should clear the pending response when the caller closes it", func() {
		rc := tracker.Track(body)
		Expect(tracker.Pending()).To(BeTrue())
		data, err := io.ReadAll(rc)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("trailing response body"))
		Expect(rc.Close()).To(Succeed())
		Expect(tracker.Pending()).To(BeFalse())
		Expect(body.closed).To(Equal(1))
	})

	It("should consume and close an unread response when draining", func() {
		rc := tracker.Track(body)
		Expect(tracker.Drain()).To(Succeed())
		Expect(tracker.Pending()).To(BeFalse())
		Expect(body.closed).To(Equal(1))
		Expect(body.Reader.(*strings.Reader).Len()).To(BeZero())

		_, err := rc.Read(make([]byte, 1))
		Expect(err).To(MatchError(protoc.ErrResponseDrained))
		Expect(rc.Close()).To(Succeed())
		Expect(body.closed).To(Equal(1))
	})

	It("should report a failing drain", func() {
		body.readErr = errors.New("connection reset")
		tracker.Track(body)
		Expect(tracker.Drain()).To(MatchError(ContainSubstring("connection reset")))
		Expect(tracker.Pending()).To(BeFalse())
		Expect(body.closed).To(Equal(1))
	})

	It("should close without reading when discarding", func() {
		tracker.Track(body)
		Expect(tracker.Discard()).To(Succeed())
		Expect(body.closed).To(Equal(1))
		Expect(body.Reader.(*strings.Reader).Len()).ToNot(BeZero())
	})

	It("should only keep the latest response pending", func() {
		first := tracker.Track(body)
		second := &recordingBody{Reader: strings.NewReader("next")}
		tracker.Track(second)
		Expect(first.Close()).To(Succeed())
		Expect(tracker.Pending()).To(BeTrue())
		Expect(tracker.Drain()).To(Succeed())
		Expect(second.closed).To(Equal(1))
	})
})
