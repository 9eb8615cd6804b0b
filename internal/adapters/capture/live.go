package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
)

// DefaultSnapLen captures whole frames.
const DefaultSnapLen = 65536

// LiveSource captures from network devices through libpcap.
type LiveSource struct {
	SnapLen int32
}

func NewLiveSource() *LiveSource {
	return &LiveSource{SnapLen: DefaultSnapLen}
}

// ListDevices returns every device libpcap can open.
func (s *LiveSource) ListDevices() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("pcap list devices: %w", err)
	}
	names := make([]string, 0, len(devs))
	for _, d := range devs {
		names = append(names, d.Name)
	}
	return names, nil
}

func (s *LiveSource) Open(device string, promiscuous bool, timeout time.Duration) (ports.PacketReader, error) {
	handle, err := pcap.OpenLive(device, s.SnapLen, promiscuous, timeout)
	if err != nil {
		return nil, fmt.Errorf("pcap open %s: %w", device, err)
	}
	return &liveReader{handle: handle, linkType: handle.LinkType()}, nil
}

type liveReader struct {
	handle   *pcap.Handle
	linkType layers.LinkType
}

func (r *liveReader) Next() ([]byte, error) {
	data, _, err := r.handle.ReadPacketData()
	switch {
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return nil, nil
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return nil, ports.ErrSourceExhausted
	case err != nil:
		return nil, err
	}
	return FrameFromLink(data, r.linkType)
}

func (r *liveReader) Close() {
	r.handle.Close()
}
