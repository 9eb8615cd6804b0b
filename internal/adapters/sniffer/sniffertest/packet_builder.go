// Package sniffertest builds raw capture buffers for parser and scanner tests.
package sniffertest

import (
	"encoding/binary"
	"net"

	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/ie"
)

// PacketBuilder helps construct 802.11 beacon frames using raw bytes
type PacketBuilder struct {
	data []byte
}

func NewPacketBuilder() *PacketBuilder {
	return &PacketBuilder{
		data: make([]byte, 0, 64),
	}
}

// AddMgmtBeacon writes a beacon header transmitted by bssid and the fixed
// beacon parameters. Elements are appended with AddIE.
func (pb *PacketBuilder) AddMgmtBeacon(bssid net.HardwareAddr) *PacketBuilder {
	// Header: Type=Beacon (0x80), Flags=0
	// Addr1=Broadcast, Addr2=SA, Addr3=BSSID
	broadcast := net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	pb.data = append(pb.data, buildDot11Header(0x80, broadcast, bssid, bssid)...)

	// Fixed Param: Timestamp(8), Interval(2), CapInfo(2)
	fixed := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Timestamp
		0x64, 0x00, // Interval 100
		0x11, 0x04, // Caps: ESS, Privacy
	}
	pb.data = append(pb.data, fixed...)
	return pb
}

// AddHeaderOnly writes a bare 24-byte header with the given frame control byte.
func (pb *PacketBuilder) AddHeaderOnly(fcType byte, bssid net.HardwareAddr) *PacketBuilder {
	broadcast := net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	pb.data = append(pb.data, buildDot11Header(fcType, broadcast, bssid, bssid)...)
	return pb
}

func (pb *PacketBuilder) AddIE(id uint8, data []byte) *PacketBuilder {
	pb.data = append(pb.data, Element(id, data)...)
	return pb
}

// AddSSID adds the SSID element.
func (pb *PacketBuilder) AddSSID(ssid string) *PacketBuilder {
	return pb.AddIE(ie.TagSSID, []byte(ssid))
}

// AddChannel adds a DS Parameter Set element.
func (pb *PacketBuilder) AddChannel(channel uint8) *PacketBuilder {
	return pb.AddIE(ie.TagDSParameterSet, []byte{channel})
}

// AddRSNIE adds a WPA2 RSN Information Element
func (pb *PacketBuilder) AddRSNIE() *PacketBuilder {
	data := []byte{
		0x01, 0x00, // Version
		0x00, 0x0F, 0xAC, 0x04, // Group Cipher
		0x01, 0x00, // Pairwise Count
		0x00, 0x0F, 0xAC, 0x04, // Pairwise
		0x01, 0x00, // Auth Count
		0x00, 0x0F, 0xAC, 0x02, // Auth
		0x00, 0x00, // Caps
	}
	return pb.AddIE(ie.TagRSN, data)
}

// AddRaw appends bytes verbatim, e.g. a truncated element.
func (pb *PacketBuilder) AddRaw(b ...byte) *PacketBuilder {
	pb.data = append(pb.data, b...)
	return pb
}

// Bytes returns a copy of the frame built so far.
func (pb *PacketBuilder) Bytes() []byte {
	out := make([]byte, len(pb.data))
	copy(out, pb.data)
	return out
}

// Helper: buildDot11Header (Basic MGMT header 24 bytes)
func buildDot11Header(fcType byte, a1, a2, a3 net.HardwareAddr) []byte {
	h := make([]byte, 24)
	h[0] = fcType
	h[1] = 0x00 // Default flags
	// Duration (2 bytes) = 0
	copy(h[4:], a1)
	copy(h[10:], a2)
	copy(h[16:], a3)
	// Seq (2 bytes) = 0
	return h
}

// Element encodes a single tag/length/value record.
func Element(id uint8, payload []byte) []byte {
	return append([]byte{id, byte(len(payload))}, payload...)
}

// EAPOLFrame lays out an EAPOL capture buffer: BSSID at offset 4, client
// address at 10, ether type 0x888E at 12, EAPOL header (version, type,
// body length) at 14 and the body at 18. The ether type and EAPOL header
// overwrite the last four client address bytes.
func EAPOLFrame(bssid, client net.HardwareAddr, packetType layers.EAPOLType, body []byte) []byte {
	buf := make([]byte, 18, 18+len(body))
	copy(buf[4:10], bssid)
	copy(buf[10:16], client)
	binary.BigEndian.PutUint16(buf[12:14], uint16(layers.EthernetTypeEAPOL))
	buf[14] = 1 // 802.1X-2001
	buf[15] = byte(packetType)
	binary.BigEndian.PutUint16(buf[16:18], uint16(len(body)))
	return append(buf, body...)
}

// KeyBody returns a zeroed 16-byte key header followed by elems.
func KeyBody(elems ...[]byte) []byte {
	body := make([]byte, 16)
	body[0] = 2 // RSN Key Descriptor
	for _, e := range elems {
		body = append(body, e...)
	}
	return body
}

// RSNWithPMKID returns an RSN element advertising no pairwise suites, one
// PSK AKM suite and the given PMKID.
func RSNWithPMKID(pmkid []byte) []byte {
	data := []byte{
		0x01, 0x00, // Version
		0x00, 0x0F, 0xAC, 0x04, // Group Cipher
		0x00, 0x00, // Pairwise Count
		0x01, 0x00, // Auth Count
		0x00, 0x0F, 0xAC, 0x02, // Auth
		0x00, 0x00, // Caps
		0x01, 0x00, // PMKID Count
	}
	return Element(ie.TagRSN, append(data, pmkid...))
}

// PMKID is a fixed identifier used across tests.
var PMKID = []byte{
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
}

// PMKIDHex is PMKID rendered as lowercase hex.
const PMKIDHex = "0123456789abcdef0123456789abcdef"

// MustMAC parses s or panics.
func MustMAC(s string) net.HardwareAddr {
	hw, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return hw
}
