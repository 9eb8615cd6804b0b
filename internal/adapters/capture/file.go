package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
)

// FileSource replays a pcap or pcapng file. Its only device is the file
// path itself.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) ListDevices() ([]string, error) {
	return []string{s.path}, nil
}

// Open reads the file from the start. Promiscuous mode and the read
// timeout do not apply to files.
func (s *FileSource) Open(device string, promiscuous bool, timeout time.Duration) (ports.PacketReader, error) {
	if device != s.path {
		return nil, fmt.Errorf("%w: %s", ports.ErrInterfaceNotFound, device)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}

	r, err := newFileReader(f, strings.HasSuffix(s.path, ".pcapng"))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture file %s: %w", s.path, err)
	}
	return r, nil
}

type packetDataReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

type fileReader struct {
	file     io.Closer
	src      packetDataReader
	linkType layers.LinkType
}

func newFileReader(f *os.File, ng bool) (*fileReader, error) {
	var src packetDataReader
	if ng {
		r, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		src = r
	} else {
		r, err := pcapgo.NewReader(f)
		if err != nil {
			return nil, err
		}
		src = r
	}
	return &fileReader{file: f, src: src, linkType: src.LinkType()}, nil
}

func (r *fileReader) Next() ([]byte, error) {
	data, _, err := r.src.ReadPacketData()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, ports.ErrSourceExhausted
	}
	if err != nil {
		return nil, err
	}
	return FrameFromLink(data, r.linkType)
}

func (r *fileReader) Close() {
	r.file.Close()
}
