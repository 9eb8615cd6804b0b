package storage

import (
	"time"

	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

func toNetworkModel(n domain.Network, sessionID string, seen time.Time) NetworkModel {
	return NetworkModel{
		BSSID:          n.BSSID,
		SSID:           n.SSID,
		Channel:        n.Channel,
		SignalStrength: n.SignalStrength,
		Encryption:     n.Encryption,
		SessionID:      sessionID,
		FirstSeen:      seen,
		LastSeen:       seen,
	}
}

func toPMKIDModel(c domain.PMKIDCapture, sessionID string, captured time.Time) PMKIDModel {
	return PMKIDModel{
		BSSID:         c.BSSID,
		ClientMAC:     c.ClientMAC,
		PMKID:         c.PMKID,
		SSID:          c.SSID,
		HashcatFormat: c.HashcatFormat,
		SessionID:     sessionID,
		CapturedAt:    captured,
	}
}

// toPMKIDCapture rebuilds the capture so the hashcat line always matches
// the stored fields.
func toPMKIDCapture(m PMKIDModel) domain.PMKIDCapture {
	return domain.NewPMKIDCapture(m.SSID, m.BSSID, m.ClientMAC, m.PMKID)
}
