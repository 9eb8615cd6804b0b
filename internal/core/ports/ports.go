package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

// CaptureSource opens packet readers on named capture devices.
type CaptureSource interface {
	// ListDevices returns the names of all devices the source can open.
	ListDevices() ([]string, error)

	// Open starts a capture on device. Reads block for at most timeout
	// before reporting that no buffer arrived.
	Open(device string, promiscuous bool, timeout time.Duration) (PacketReader, error)
}

// PacketReader yields raw captured buffers.
type PacketReader interface {
	// Next returns the next buffer. A nil buffer with a nil error means the
	// read timed out. Exhausted sources return an error matching
	// ErrSourceExhausted or io.EOF.
	Next() ([]byte, error)

	// Close releases the underlying handle.
	Close()
}

// InterfaceLister enumerates wireless interfaces ahead of capture devices.
type InterfaceLister interface {
	ListInterfaces() ([]string, error)
}

// ResultStore persists the outcome of scans.
type ResultStore interface {
	// BeginSession records the start of a scan and returns its identifier.
	BeginSession(ctx context.Context, mode, iface string) (string, error)

	// EndSession stamps the session with its finish time and totals.
	EndSession(ctx context.Context, sessionID string, networks, pmkids int) error

	SaveNetworks(ctx context.Context, sessionID string, networks []domain.Network) error
	SavePMKIDs(ctx context.Context, sessionID string, captures []domain.PMKIDCapture) error

	// ListPMKIDs returns every stored capture.
	ListPMKIDs(ctx context.Context) ([]domain.PMKIDCapture, error)

	Close() error
}

// VendorResolver names the manufacturer behind a hardware address.
type VendorResolver interface {
	Vendor(ctx context.Context, mac string) string
	Close() error
}

// CaptureExporter writes captures in an offline cracking format.
type CaptureExporter interface {
	Export(captures []domain.PMKIDCapture) (int, error)
	Close() error
}
