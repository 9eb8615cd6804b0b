package parser

import (
	"encoding/binary"
	"net"

	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

// MinFrameLen is the size of an 802.11 management header. Shorter buffers
// are never classified.
const MinFrameLen = 24

const (
	dot11TypeShift = 2
	dot11TypeMask  = 0x3F // type (2 bits) and subtype (4 bits)

	etherTypeOffset = 12
)

// Classify inspects the leading bytes of a captured buffer.
//
// Beacons are recognized from the little-endian frame control field
// (type 0, subtype 8). EAPOL frames are recognized from a big-endian
// 0x888E ether type at offset 12. A buffer matching both is reported as a
// beacon; callers that extract key material check IsEAPOL separately.
func Classify(buf []byte) domain.FrameKind {
	if len(buf) < MinFrameLen {
		return domain.FrameUnrecognized
	}

	fc := binary.LittleEndian.Uint16(buf[0:2])
	if layers.Dot11Type((fc>>dot11TypeShift)&dot11TypeMask) == layers.Dot11TypeMgmtBeacon {
		return domain.FrameBeacon
	}
	if IsEAPOL(buf) {
		return domain.FrameEAPOL
	}
	return domain.FrameUnrecognized
}

// IsEAPOL reports whether buf carries the EAPOL ether type at offset 12,
// regardless of its frame control field.
func IsEAPOL(buf []byte) bool {
	if len(buf) < MinFrameLen {
		return false
	}
	etherType := layers.EthernetType(binary.BigEndian.Uint16(buf[etherTypeOffset : etherTypeOffset+2]))
	return etherType == layers.EthernetTypeEAPOL
}

// MACAt formats the six bytes at offset as a lowercase colon separated
// address. It reports false if the buffer is too short.
func MACAt(buf []byte, offset int) (string, bool) {
	if offset < 0 || len(buf) < offset+6 {
		return "", false
	}
	return net.HardwareAddr(buf[offset : offset+6]).String(), true
}
