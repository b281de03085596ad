package source

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// limitedReader throttles reads against a shared byte-per-second
// budget. The limiter is owned by the source instance, so every
// response body drawn through it counts against the same budget.
type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func newLimitedReader(ctx context.Context, r io.Reader, limiter *rate.Limiter) *limitedReader {
	return &limitedReader{ctx: ctx, r: r, limiter: limiter}
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	// Cap each read at the limiter burst so WaitN can always succeed.
	if burst := lr.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := lr.r.Read(p)
	if n > 0 {
		if waitErr := lr.limiter.WaitN(lr.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
