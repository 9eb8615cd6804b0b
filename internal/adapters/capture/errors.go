package capture

import (
	"fmt"

	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
)

// ErrBadRadioTap is returned for radiotap headers that cannot be removed.
// It wraps ports.ErrMalformedFrame, so capture loops skip the buffer.
var ErrBadRadioTap = fmt.Errorf("malformed radiotap header: %w", ports.ErrMalformedFrame)
