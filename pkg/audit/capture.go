package audit

import (
	"io"
	"strings"
	"unicode/utf8"
)

// captureBuffer keeps up to limit bytes of what is written to it and never
// fails, so it can sit on a tee without affecting the primary stream.
// A limit of 0 keeps everything.
type captureBuffer struct {
	limit     int64
	buf       []byte
	truncated bool
}

func newCaptureBuffer(limit int64) *captureBuffer {
	return &captureBuffer{limit: limit}
}

func (c *captureBuffer) Write(p []byte) (int, error) {
	if c.limit <= 0 {
		c.buf = append(c.buf, p...)
		return len(p), nil
	}
	room := c.limit - int64(len(c.buf))
	if room <= 0 {
		if len(p) > 0 {
			c.truncated = true
		}
		return len(p), nil
	}
	if int64(len(p)) > room {
		c.buf = append(c.buf, p[:room]...)
		c.truncated = true
		return len(p), nil
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// String decodes the captured bytes as UTF-8, replacing invalid sequences.
func (c *captureBuffer) String() string {
	if utf8.Valid(c.buf) {
		return string(c.buf)
	}
	return strings.ToValidUTF8(string(c.buf), "\uFFFD")
}

// teeBody records everything the handler reads from a request body.
type teeBody struct {
	io.Reader
	io.Closer
}

func newTeeBody(body io.ReadCloser, capture io.Writer) io.ReadCloser {
	return teeBody{Reader: io.TeeReader(body, capture), Closer: body}
}
