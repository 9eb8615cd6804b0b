package ie

import (
	"encoding/binary"
	"errors"
)

const (
	// rsnFixedPrefix covers version (2), group cipher suite (4) and the
	// pairwise cipher suite count (2).
	rsnFixedPrefix = 8
	akmSuiteLen    = 4

	// PMKIDLen is the size of one PMKID entry in an RSN element.
	PMKIDLen = 16
)

var (
	ErrRSNTooShort = errors.New("RSN IE too short")
	ErrNoPMKID     = errors.New("RSN IE carries no PMKID")
)

// PMKIDFromRSN returns the first PMKID in an RSN element payload.
//
// The AKM suite count is read directly after the fixed 8-byte prefix; the
// pairwise cipher suite list is not skipped. Elements advertising more than
// one pairwise suite therefore misalign and usually yield ErrRSNTooShort or
// ErrNoPMKID. The returned slice aliases data.
func PMKIDFromRSN(data []byte) ([]byte, error) {
	if len(data) < rsnFixedPrefix {
		return nil, ErrRSNTooShort
	}
	offset := rsnFixedPrefix

	// AKM Suite Count + List
	if offset+2 > len(data) {
		return nil, ErrRSNTooShort
	}
	akmCount := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
	offset += 2 + akmCount*akmSuiteLen

	// RSN Capabilities (2 bytes)
	if offset+2 > len(data) {
		return nil, ErrRSNTooShort
	}
	offset += 2

	// PMKID Count + List
	if offset+2 > len(data) {
		return nil, ErrRSNTooShort
	}
	pmkidCount := binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	if pmkidCount == 0 || offset+PMKIDLen > len(data) {
		return nil, ErrNoPMKID
	}
	return data[offset : offset+PMKIDLen], nil
}
