package domain

import (
	"fmt"
	"strings"
)

// UnknownSSID is used for captures whose network was never seen in a beacon.
const UnknownSSID = "Unknown"

// PMKIDCapture is a PMKID extracted from an EAPOL-Key frame together with
// the addresses needed to attack it offline.
type PMKIDCapture struct {
	SSID          string `json:"ssid"`
	BSSID         string `json:"bssid"`
	ClientMAC     string `json:"client_mac"`
	PMKID         string `json:"pmkid"` // 32 lowercase hex characters
	HashcatFormat string `json:"hashcat_format"`
}

// NewPMKIDCapture builds a capture and derives its hashcat line.
func NewPMKIDCapture(ssid, bssid, clientMAC, pmkid string) PMKIDCapture {
	return PMKIDCapture{
		SSID:          ssid,
		BSSID:         bssid,
		ClientMAC:     clientMAC,
		PMKID:         pmkid,
		HashcatFormat: HashcatLine(ssid, bssid, clientMAC, pmkid),
	}
}

// HashcatLine renders WPA*01*<pmkid>*<bssid>*<client>*<ssid> with the
// address separators removed.
func HashcatLine(ssid, bssid, clientMAC, pmkid string) string {
	return fmt.Sprintf("WPA*01*%s*%s*%s*%s",
		pmkid,
		strings.ReplaceAll(bssid, ":", ""),
		strings.ReplaceAll(clientMAC, ":", ""),
		ssid,
	)
}

// WithSSID returns a copy of the capture attributed to ssid.
func (p PMKIDCapture) WithSSID(ssid string) PMKIDCapture {
	return NewPMKIDCapture(ssid, p.BSSID, p.ClientMAC, p.PMKID)
}

// Summary is the one-line human readable description of the capture.
func (p PMKIDCapture) Summary() string {
	return fmt.Sprintf("PMKID: %s -> %s (Client: %s)", p.SSID, p.BSSID, p.ClientMAC)
}
