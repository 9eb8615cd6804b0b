package domain

// FrameKind is the result of classifying a raw captured buffer.
type FrameKind int

const (
	FrameUnrecognized FrameKind = iota
	FrameBeacon
	FrameEAPOL
)

func (k FrameKind) String() string {
	switch k {
	case FrameBeacon:
		return "beacon"
	case FrameEAPOL:
		return "eapol"
	default:
		return "unrecognized"
	}
}
