package download

import (
	"context"
	"io"
)

type readResult struct {
	n   int
	err error
}

// ContextReader is an io.Reader that gives up as soon as its context is
// done, even if the underlying read is still blocked. A blocked read is left
// to finish in its own goroutine.
type ContextReader struct {
	ctx context.Context
	r   io.Reader
}

func NewContextReader(ctx context.Context, r io.Reader) *ContextReader {
	return &ContextReader{
		ctx: ctx,
		r:   r,
	}
}

// Read implements io.Reader.
func (cr *ContextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	// The orphaned goroutine must not write into the caller's buffer after
	// Read has returned.
	buf := make([]byte, len(p))
	ch := make(chan readResult, 1)
	go func() {
		n, err := cr.r.Read(buf)
		ch <- readResult{n, err}
	}()

	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	case res := <-ch:
		return copy(p, buf[:res.n]), res.err
	}
}
