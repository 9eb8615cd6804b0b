package capture

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
)

// DumpSource wraps a CaptureSource and writes every buffer its readers
// return to a pcap stream with link type IEEE 802.11.
type DumpSource struct {
	inner ports.CaptureSource
	w     *pcapgo.Writer
	mu    sync.Mutex
	now   func() time.Time
}

// NewDumpSource writes the pcap file header to out immediately.
func NewDumpSource(inner ports.CaptureSource, out io.Writer) (*DumpSource, error) {
	w := pcapgo.NewWriter(out)
	if err := w.WriteFileHeader(DefaultSnapLen, layers.LinkTypeIEEE802_11); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &DumpSource{inner: inner, w: w, now: time.Now}, nil
}

func (d *DumpSource) ListDevices() ([]string, error) {
	return d.inner.ListDevices()
}

func (d *DumpSource) Open(device string, promiscuous bool, timeout time.Duration) (ports.PacketReader, error) {
	r, err := d.inner.Open(device, promiscuous, timeout)
	if err != nil {
		return nil, err
	}
	return &dumpReader{inner: r, dump: d}, nil
}

func (d *DumpSource) write(buf []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ci := gopacket.CaptureInfo{
		Timestamp:     d.now(),
		CaptureLength: len(buf),
		Length:        len(buf),
	}
	if err := d.w.WritePacket(ci, buf); err != nil {
		slog.Debug("Dump write failed", "error", err)
	}
}

type dumpReader struct {
	inner ports.PacketReader
	dump  *DumpSource
}

func (r *dumpReader) Next() ([]byte, error) {
	buf, err := r.inner.Next()
	if err == nil && buf != nil {
		r.dump.write(buf)
	}
	return buf, err
}

func (r *dumpReader) Close() {
	r.inner.Close()
}
