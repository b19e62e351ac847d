package uploadkit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestCappedReader(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int64
		wantErr bool
	}{
		{"under limit", 10, 20, false},
		{"exactly limit", 20, 20, false},
		{"one over", 21, 20, true},
		{"far over", 10000, 20, true},
		{"unlimited", 10000, 0, false},
		{"maximum limit", 5, math.MaxInt64, false},
		{"one below maximum", 5, math.MaxInt64 - 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingReader{r: bytes.NewReader(make([]byte, tt.size))}
			data, err := newCappedReader(context.Background(), src, tt.limit).readAll(0)
			if tt.wantErr {
				if !errors.Is(err, errCapExceeded) {
					t.Fatalf("Expected errCapExceeded, got %v", err)
				}
				if src.n > tt.limit+1 {
					t.Errorf("Expected at most %d bytes pulled from source, got %d", tt.limit+1, src.n)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(data) != tt.size {
				t.Errorf("Expected %d bytes, got %d", tt.size, len(data))
			}
		})
	}
}

func TestCappedReaderSizeHint(t *testing.T) {
	// A declared length far above what arrives must not be preallocated.
	data, err := newCappedReader(context.Background(), strings.NewReader("hello"), 1<<40).readAll(1 << 40)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", data)
	}
	if cap(data) > 2*maxSizeHint {
		t.Errorf("Expected preallocation bounded by %d, got capacity %d", maxSizeHint, cap(data))
	}
}

func TestCappedReaderContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCappedReader(ctx, strings.NewReader("data"), 0).readAll(0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// countingReader records how many bytes its consumer pulled.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
