package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/export"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/sniffertest"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/storage"
	"github.com/lcalzada-xor/pmkscan/internal/config"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mikrotikAP = sniffertest.MustMAC("00:0c:42:11:22:33")
	station    = sniffertest.MustMAC("02:00:00:00:00:01")
)

// correlatedClient is station as seen at the overlapping EAPOL address offset.
const correlatedClient = "02:00:88:8e:01:03"

func writeCapture(t *testing.T, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeIEEE802_11))
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000+int64(i), 0),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		require.NoError(t, w.WritePacket(ci, frame))
	}
	return path
}

func sampleCapture(t *testing.T) string {
	beacon := sniffertest.NewPacketBuilder().
		AddMgmtBeacon(mikrotikAP).
		AddSSID("Cafe").
		AddChannel(6).
		AddRSNIE().
		Bytes()
	body := sniffertest.KeyBody(sniffertest.RSNWithPMKID(sniffertest.PMKID))
	eapol := sniffertest.EAPOLFrame(mikrotikAP, station, layers.EAPOLTypeKey, body)
	return writeCapture(t, beacon, eapol)
}

func testConfig(pcap string) *config.Config {
	return &config.Config{
		Correlate:   true,
		Duration:    time.Second,
		MaxPackets:  config.DefaultMaxPackets,
		ReadTimeout: 10 * time.Millisecond,
		PcapFile:    pcap,
		OUICache:    config.DefaultCacheSize,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *bytes.Buffer) {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	var out bytes.Buffer
	a.Out = &out
	a.Msg = &out
	return a, &out
}

func TestRun_ScanAndPMKIDFromReplay(t *testing.T) {
	pcap := sampleCapture(t)
	cfg := testConfig(pcap)
	cfg.Scan = true
	cfg.PMKID = true

	a, out := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	hashcat := domain.HashcatLine("Cafe", "00:0c:42:11:22:33", correlatedClient, sniffertest.PMKIDHex)
	text := out.String()
	assert.Contains(t, text, "Available interfaces: "+pcap)
	assert.Contains(t, text, "Using interface: "+pcap)
	assert.Contains(t, text, "Found 1 networks:")
	assert.Contains(t, text, "  • Cafe (00:0c:42:11:22:33) - WPA2 [MikroTik]")
	assert.Contains(t, text, "Capturing PMKID for 1 seconds...")
	assert.Contains(t, text, "Captured 1 PMKID(s):")
	assert.Contains(t, text, "  • PMKID: Cafe -> 00:0c:42:11:22:33 (Client: "+correlatedClient+") [MikroTik]")
	assert.Contains(t, text, "    Hashcat format: "+hashcat)
	assert.Contains(t, text, "No interface specified. Use -i to specify interface.")
}

func TestRun_UncorrelatedCaptureIsUnknown(t *testing.T) {
	cfg := testConfig(sampleCapture(t))
	cfg.PMKID = true
	cfg.Correlate = false

	a, out := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "PMKID: Unknown -> 00:0c:42:11:22:33")
}

func TestRun_EmptyCapture(t *testing.T) {
	pcap := writeCapture(t)
	cfg := testConfig(pcap)
	cfg.Interface = pcap
	cfg.Scan = true
	cfg.PMKID = true

	a, out := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "No networks found")
	assert.Contains(t, text, "No PMKID captured")
	assert.NotContains(t, text, "No interface specified")
}

func TestRun_UnknownInterfaceReportsModeFailure(t *testing.T) {
	cfg := testConfig(sampleCapture(t))
	cfg.Interface = "wlan7"
	cfg.Scan = true

	a, out := newTestApp(t, cfg)
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "Using interface: wlan7")
	assert.Contains(t, out.String(), "Scanning failed:")
}

func TestRun_NoMode(t *testing.T) {
	cfg := testConfig(sampleCapture(t))

	a, out := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "No mode selected.")
}

func TestRun_PersistsAndExports(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(sampleCapture(t))
	cfg.Scan = true
	cfg.PMKID = true
	cfg.DBPath = filepath.Join(dir, "db", "results.db")
	cfg.HashcatPath = filepath.Join(dir, "hashes.22000")
	cfg.DumpPath = filepath.Join(dir, "dump.pcap")

	a, out := newTestApp(t, cfg)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Wrote 1 new hashcat line(s) to "+cfg.HashcatPath)
	require.NoError(t, a.Close())

	hashcat := domain.HashcatLine("Cafe", "00:0c:42:11:22:33", correlatedClient, sniffertest.PMKIDHex)
	lines, err := os.ReadFile(cfg.HashcatPath)
	require.NoError(t, err)
	assert.Equal(t, hashcat+"\n", string(lines))

	store, err := storage.NewSQLiteAdapter(cfg.DBPath, nil)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	networks, err := store.ListNetworks(ctx)
	require.NoError(t, err)
	require.Len(t, networks, 1)
	assert.Equal(t, "Cafe", networks[0].SSID)
	assert.Equal(t, "MikroTik", networks[0].Vendor)

	captures, err := store.ListPMKIDs(ctx)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, "Cafe", captures[0].SSID)

	// Both modes replay the file through the dump.
	dump, err := os.Open(cfg.DumpPath)
	require.NoError(t, err)
	defer dump.Close()
	r, err := pcapgo.NewReader(dump)
	require.NoError(t, err)
	frames := 0
	for {
		if _, _, err := r.ReadPacketData(); err != nil {
			break
		}
		frames++
	}
	assert.Equal(t, 4, frames)
}

func TestRun_JSONReport(t *testing.T) {
	cfg := testConfig(sampleCapture(t))
	cfg.Scan = true
	cfg.PMKID = true
	cfg.JSON = true

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	var out, msg bytes.Buffer
	a.Out = &out
	a.Msg = &msg
	require.NoError(t, a.Run(context.Background()))

	var report export.ScanReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Networks, 1)
	require.Len(t, report.PMKIDs, 1)
	assert.Equal(t, "Cafe", report.PMKIDs[0].SSID)
	assert.Equal(t, "MikroTik", report.Vendors["00:0c:42:11:22:33"])
	assert.Contains(t, msg.String(), "Found 1 networks:")
}
