package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	radioTapMinLen = 8
	fcsLen         = 4
)

// FrameFromLink returns the 802.11 frame inside a captured buffer. Radiotap
// headers are removed, along with a trailing FCS when the header flags one.
// Buffers of any other link type are returned unchanged.
func FrameFromLink(data []byte, linkType layers.LinkType) ([]byte, error) {
	if linkType != layers.LinkTypeIEEE80211Radio {
		return data, nil
	}

	if len(data) < radioTapMinLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadRadioTap, len(data))
	}
	hdrLen := int(binary.LittleEndian.Uint16(data[2:4]))
	if hdrLen < radioTapMinLen || hdrLen > len(data) {
		return nil, fmt.Errorf("%w: length %d of %d", ErrBadRadioTap, hdrLen, len(data))
	}

	var rt layers.RadioTap
	if err := rt.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRadioTap, err)
	}

	frame := rt.Payload
	if rt.Flags.FCS() && len(frame) >= fcsLen {
		frame = frame[:len(frame)-fcsLen]
	}
	return frame, nil
}
