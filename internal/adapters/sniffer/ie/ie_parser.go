package ie

import (
	"github.com/google/gopacket/layers"
)

// Common IE Tags
const (
	TagSSID           = uint8(layers.Dot11InformationElementIDSSID)
	TagDSParameterSet = uint8(layers.Dot11InformationElementIDDSSet)
	TagRSN            = uint8(layers.Dot11InformationElementIDRSNInfo)
)

// Reader walks a stream of tag/length/value information elements.
// It stops at the first element whose declared length runs past the end of
// the data; that trailing element is dropped. A Reader cannot be rewound.
type Reader struct {
	data    []byte
	offset  int
	id      uint8
	payload []byte
	done    bool
}

// NewReader returns a Reader positioned at offset within data.
func NewReader(data []byte, offset int) *Reader {
	return &Reader{data: data, offset: offset}
}

// Next advances to the next element and reports whether one was read.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	// Needs at least 2 bytes (ID and Length)
	if r.offset < 0 || r.offset+2 > len(r.data) {
		r.done = true
		return false
	}

	id := r.data[r.offset]
	end := r.offset + 2 + int(r.data[r.offset+1])
	if end > len(r.data) {
		r.done = true
		return false
	}

	r.id = id
	r.payload = r.data[r.offset+2 : end : end]
	r.offset = end
	return true
}

// ID is the tag of the current element.
func (r *Reader) ID() uint8 { return r.id }

// Payload is the value of the current element. It aliases the input.
func (r *Reader) Payload() []byte { return r.payload }

// Offset is the position of the element that will be read next.
func (r *Reader) Offset() int { return r.offset }

// FindIE returns the payload of the first element with the given tag at or
// after offset.
func FindIE(data []byte, offset int, tag uint8) ([]byte, bool) {
	r := NewReader(data, offset)
	for r.Next() {
		if r.ID() == tag {
			return r.Payload(), true
		}
	}
	return nil, false
}
