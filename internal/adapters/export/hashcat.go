package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
)

// HashcatWriter appends captures as hashcat 22000 lines, writing each
// distinct line at most once per writer.
type HashcatWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	seen   map[string]struct{}
}

// NewHashcatWriter writes to w. Close flushes and, if w is an io.Closer,
// closes it.
func NewHashcatWriter(w io.Writer) *HashcatWriter {
	hw := &HashcatWriter{
		w:    bufio.NewWriter(w),
		seen: make(map[string]struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		hw.closer = c
	}
	return hw
}

// OpenHashcatFile opens path for appending, creating it if needed.
func OpenHashcatFile(path string) (*HashcatWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open hashcat file: %w", err)
	}
	return NewHashcatWriter(f), nil
}

// Export writes the hashcat line of every capture not written before and
// returns how many lines were added.
func (h *HashcatWriter) Export(captures []domain.PMKIDCapture) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	written := 0
	for _, c := range captures {
		if _, dup := h.seen[c.HashcatFormat]; dup {
			continue
		}
		if _, err := h.w.WriteString(c.HashcatFormat + "\n"); err != nil {
			return written, err
		}
		h.seen[c.HashcatFormat] = struct{}{}
		written++
	}
	return written, h.w.Flush()
}

func (h *HashcatWriter) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.w.Flush()
	if h.closer != nil {
		if cerr := h.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ ports.CaptureExporter = (*HashcatWriter)(nil)
