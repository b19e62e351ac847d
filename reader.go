package uploadkit

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// errCapExceeded is returned by cappedReader once more than limit bytes
// have been read. It never leaves the package; callers translate it.
var errCapExceeded = errors.New("read limit exceeded")

// cappedReader counts bytes as they arrive and fails as soon as the running
// total passes limit. It never requests more than limit+1 bytes from the
// underlying reader, so an oversized source is not drained.
type cappedReader struct {
	ctx   context.Context
	r     io.Reader
	limit int64 // <= 0 means unlimited
	n     int64
}

func newCappedReader(ctx context.Context, r io.Reader, limit int64) *cappedReader {
	return &cappedReader{ctx: ctx, r: r, limit: limit}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	if c.limit > 0 {
		if c.n > c.limit {
			return 0, errCapExceeded
		}
		// room+1 cannot overflow here: len(p) > room bounds room below MaxInt64.
		if room := c.limit - c.n; int64(len(p)) > room {
			p = p[:room+1]
		}
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		return n, errCapExceeded
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *cappedReader) BytesRead() int64 {
	return c.n
}

// maxSizeHint bounds preallocation; a declared length is only a claim.
const maxSizeHint = 512 << 10

// readAll drains c into a fresh buffer. sizeHint, when positive and within
// the limit, preallocates up to maxSizeHint.
func (c *cappedReader) readAll(sizeHint int64) ([]byte, error) {
	var buf bytes.Buffer
	if sizeHint > 0 && (c.limit <= 0 || sizeHint <= c.limit) {
		buf.Grow(int(min(sizeHint, maxSizeHint)))
	}
	_, err := buf.ReadFrom(c)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
