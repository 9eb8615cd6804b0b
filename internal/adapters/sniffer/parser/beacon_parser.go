package parser

import (
	"unicode/utf8"

	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

const (
	// beaconBSSIDOffset is the transmitter address of the 802.11 header.
	beaconBSSIDOffset = 10
	// beaconIEOffset skips the 24-byte header plus timestamp (8),
	// beacon interval (2) and capability info (2).
	beaconIEOffset = 36

	signalBase   = -50
	signalSpread = 30
)

// ParseBeacon extracts network metadata from a beacon frame.
// It reports false only when buf is not a beacon; malformed elements
// degrade to whatever was read before them.
func ParseBeacon(buf []byte) (domain.Network, bool) {
	if Classify(buf) != domain.FrameBeacon {
		return domain.Network{}, false
	}

	bssid, ok := MACAt(buf, beaconBSSIDOffset)
	if !ok {
		return domain.Network{}, false
	}

	network := domain.Network{
		SSID:           domain.HiddenSSID,
		BSSID:          bssid,
		Channel:        domain.DefaultChannel,
		SignalStrength: signalBase,
		Encryption:     domain.EncryptionOpen,
	}

	// Beacons too short to carry elements keep the base strength.
	if len(buf) < beaconIEOffset {
		return network, true
	}
	network.SignalStrength = syntheticSignal(len(buf))

	r := ie.NewReader(buf, beaconIEOffset)
	for r.Next() {
		val := r.Payload()
		switch r.ID() {
		case ie.TagSSID:
			if len(val) > 0 && utf8.Valid(val) {
				network.SSID = string(val)
			}
		case ie.TagDSParameterSet:
			if len(val) >= 1 {
				network.Channel = val[0]
			}
		case ie.TagRSN:
			if len(val) >= 2 {
				network.Encryption = domain.EncryptionWPA2
			}
		}
	}

	return network, true
}

// syntheticSignal derives a stable placeholder strength from the frame
// length. Real values would come from radiotap, which is stripped upstream.
func syntheticSignal(frameLen int) int8 {
	return int8(signalBase - frameLen%signalSpread)
}
