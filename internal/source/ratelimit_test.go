package source

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimitedReader_DeliversAllBytes(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	limiter := rate.NewLimiter(rate.Limit(1<<30), 1<<30)

	lr := newLimitedReader(context.Background(), strings.NewReader(payload), limiter)
	got, err := io.ReadAll(lr)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, []byte(payload)) {
		t.Errorf("read %d bytes, want %d unaltered", len(got), len(payload))
	}
}

func TestLimitedReader_CapsReadsAtBurst(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1<<20), 16)
	lr := newLimitedReader(context.Background(), strings.NewReader(strings.Repeat("y", 100)), limiter)

	buf := make([]byte, 1024)
	n, err := lr.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n > 16 {
		t.Errorf("single read returned %d bytes, want at most the burst of 16", n)
	}
}

func TestLimitedReader_ThrottlesToBudget(t *testing.T) {
	// 1000 bytes/s with a 100-byte burst: reading 300 bytes must take
	// at least the time the post-burst 200 bytes cost.
	limiter := rate.NewLimiter(rate.Limit(1000), 100)
	lr := newLimitedReader(context.Background(), strings.NewReader(strings.Repeat("z", 300)), limiter)

	start := time.Now()
	if _, err := io.ReadAll(lr); err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("300 bytes at 1000 B/s finished in %v, want throttling", elapsed)
	}
}

func TestLimitedReader_CancelledContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lr := newLimitedReader(ctx, strings.NewReader("abcdef"), limiter)
	if _, err := io.ReadAll(lr); err == nil {
		t.Error("ReadAll() succeeded with a cancelled context, want error")
	}
}
