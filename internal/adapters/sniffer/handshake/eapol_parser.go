package handshake

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/parser"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

// Offsets within a captured EAPOL buffer.
const (
	bssidOffset       = 4
	clientOffset      = 10
	eapolHeaderOffset = 14
	eapolBodyOffset   = eapolHeaderOffset + 4

	// keyHeaderLen is skipped at the start of the key body before the
	// element scan begins.
	keyHeaderLen = 16
)

var (
	ErrNotEAPOL    = errors.New("not an EAPOL frame")
	ErrNotEAPOLKey = errors.New("not an EAPOL-Key frame")
	ErrTruncated   = errors.New("EAPOL frame truncated")
	ErrNoRSN       = errors.New("no RSN IE in key data")
)

// PMKIDFrame holds what an EAPOL-Key frame reveals on its own. The SSID is
// attributed later from beacons.
type PMKIDFrame struct {
	BSSID     string
	ClientMAC string
	PMKID     string
}

// ExtractPMKID locates the first RSN element of an EAPOL-Key body and
// returns its PMKID. Every structural problem is reported as an error;
// none of them are fatal to a capture loop.
func ExtractPMKID(buf []byte) (PMKIDFrame, error) {
	if !parser.IsEAPOL(buf) {
		return PMKIDFrame{}, ErrNotEAPOL
	}

	bssid, ok := parser.MACAt(buf, bssidOffset)
	if !ok {
		return PMKIDFrame{}, ErrTruncated
	}
	client, ok := parser.MACAt(buf, clientOffset)
	if !ok {
		return PMKIDFrame{}, ErrTruncated
	}

	var eapol layers.EAPOL
	if err := eapol.DecodeFromBytes(buf[eapolHeaderOffset:], gopacket.NilDecodeFeedback); err != nil {
		return PMKIDFrame{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if eapol.Type != layers.EAPOLTypeKey {
		return PMKIDFrame{}, fmt.Errorf("%w (Type: %d)", ErrNotEAPOLKey, eapol.Type)
	}
	if len(buf) < eapolBodyOffset+int(eapol.Length) {
		return PMKIDFrame{}, fmt.Errorf("%w: body length %d, have %d", ErrTruncated, eapol.Length, len(buf)-eapolBodyOffset)
	}

	// The element scan runs to the end of the buffer, not the end of the
	// declared body.
	keyData := buf[eapolBodyOffset:]
	if len(keyData) < keyHeaderLen {
		return PMKIDFrame{}, ErrTruncated
	}

	rsn, ok := ie.FindIE(keyData, keyHeaderLen, ie.TagRSN)
	if !ok {
		return PMKIDFrame{}, ErrNoRSN
	}
	pmkid, err := ie.PMKIDFromRSN(rsn)
	if err != nil {
		return PMKIDFrame{}, err
	}
	return PMKIDFrame{
		BSSID:     bssid,
		ClientMAC: client,
		PMKID:     hex.EncodeToString(pmkid),
	}, nil
}

// ParsePMKID returns a capture attributed to the unknown SSID, or false if
// the buffer holds no PMKID.
func ParsePMKID(buf []byte) (domain.PMKIDCapture, bool) {
	frame, err := ExtractPMKID(buf)
	if err != nil {
		return domain.PMKIDCapture{}, false
	}
	return frame.Capture(domain.UnknownSSID), true
}

// Capture attributes the frame to ssid.
func (f PMKIDFrame) Capture(ssid string) domain.PMKIDCapture {
	return domain.NewPMKIDCapture(ssid, f.BSSID, f.ClientMAC, f.PMKID)
}
