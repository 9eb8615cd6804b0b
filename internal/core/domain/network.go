package domain

import "fmt"

// Defaults applied when a beacon does not carry the corresponding element.
const (
	HiddenSSID     = "Hidden Network"
	DefaultChannel = 6
)

// Encryption labels derived from beacon information elements.
const (
	EncryptionOpen = "Open"
	EncryptionWPA2 = "WPA2"
)

// Network represents an access point discovered from a beacon frame.
type Network struct {
	SSID           string `json:"ssid"`
	BSSID          string `json:"bssid"` // lowercase, colon separated
	Channel        uint8  `json:"channel"`
	SignalStrength int8   `json:"signal_strength"` // synthesized, not an RF measurement
	Encryption     string `json:"encryption"`      // "Open" or "WPA2"
}

// IsHidden reports whether the beacon did not advertise an SSID.
func (n Network) IsHidden() bool {
	return n.SSID == HiddenSSID
}

func (n Network) String() string {
	return fmt.Sprintf("%s (%s) - %s", n.SSID, n.BSSID, n.Encryption)
}
