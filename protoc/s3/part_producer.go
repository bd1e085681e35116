package s3

import (
	"bytes"
	"context"
	"io"
)

// partProducer cuts a stream of bytes into in-memory parts of a multipart
// upload.
type partProducer struct {
	parts chan part
	// err is set before parts is closed
	err error
	r   io.Reader
}

type part struct {
	reader io.ReadSeeker
	size   int64
}

func newPartProducer(src io.Reader, backlog int) (*partProducer, <-chan part) {
	parts := make(chan part, backlog)
	return &partProducer{parts: parts, r: src}, parts
}

// drain should always be called by the consumer, it lets a producer
// blocked on a full backlog terminate.
func (p *partProducer) drain() {
	for range p.parts {
	}
}

func (p *partProducer) produce(ctx context.Context, partSize int64) {
	defer close(p.parts)
	for {
		next, ok, err := p.nextPart(partSize)
		if err != nil {
			p.err = err
			return
		}
		if !ok {
			return
		}
		select {
		case p.parts <- next:
		case <-ctx.Done():
			return
		}
	}
}

func (p *partProducer) nextPart(size int64) (part, bool, error) {
	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(p.r, size))
	if err != nil {
		return part{}, false, err
	}
	// nothing left in the source
	if n == 0 {
		return part{}, false, nil
	}
	return part{reader: bytes.NewReader(buf.Bytes()), size: n}, true, nil
}
