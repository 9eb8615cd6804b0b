package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/sniffertest"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
	"github.com/lcalzada-xor/pmkscan/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is one scripted read result.
type step struct {
	buf []byte
	err error
}

type scriptedReader struct {
	steps  []step
	after  step // returned once the script runs out
	reads  int
	closed bool
}

func (r *scriptedReader) Next() ([]byte, error) {
	r.reads++
	if len(r.steps) == 0 {
		return r.after.buf, r.after.err
	}
	s := r.steps[0]
	r.steps = r.steps[1:]
	return s.buf, s.err
}

func (r *scriptedReader) Close() { r.closed = true }

type scriptedSource struct {
	devices   []string
	listErr   error
	openErr   error
	reader    *scriptedReader
	opened    string
	promisc   bool
	timeout   time.Duration
	openCalls int
}

func (s *scriptedSource) ListDevices() ([]string, error) { return s.devices, s.listErr }

func (s *scriptedSource) Open(device string, promisc bool, timeout time.Duration) (ports.PacketReader, error) {
	s.openCalls++
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opened, s.promisc, s.timeout = device, promisc, timeout
	return s.reader, nil
}

func newSource(steps ...step) *scriptedSource {
	return &scriptedSource{
		devices: []string{"lo", "wlan0"},
		reader:  &scriptedReader{steps: steps, after: step{err: ports.ErrSourceExhausted}},
	}
}

// tickingClock advances by tick on every call.
func tickingClock(tick time.Duration) func() time.Time {
	t := time.Unix(1700000000, 0)
	return func() time.Time {
		now := t
		t = t.Add(tick)
		return now
	}
}

func newScanner(src *scriptedSource) *Scanner {
	s := New(src, nil, DefaultConfig("wlan0"))
	s.now = tickingClock(time.Millisecond)
	return s
}

var (
	homeAP = sniffertest.MustMAC("aa:bb:cc:dd:ee:ff")
	cafeAP = sniffertest.MustMAC("11:22:33:44:55:66")
	client = sniffertest.MustMAC("02:00:00:00:00:01")
)

func beacon(bssid net.HardwareAddr, ssid string) step {
	b := sniffertest.NewPacketBuilder().AddMgmtBeacon(bssid)
	if ssid != "" {
		b.AddSSID(ssid)
	}
	return step{buf: b.AddChannel(11).AddRSNIE().Bytes()}
}

func eapol(bssid net.HardwareAddr) step {
	body := sniffertest.KeyBody(sniffertest.RSNWithPMKID(sniffertest.PMKID))
	return step{buf: sniffertest.EAPOLFrame(bssid, client, layers.EAPOLTypeKey, body)}
}

// beaconEAPOL is an EAPOL step whose frame control also reads as a beacon.
func beaconEAPOL(bssid net.HardwareAddr) step {
	s := eapol(bssid)
	s.buf[0] = 0x80
	return s
}

func TestScan_CollectsBeaconsByBSSID(t *testing.T) {
	src := newSource(
		beacon(homeAP, "Old"),
		eapol(homeAP),
		step{}, // timeout
		beacon(cafeAP, "Cafe"),
		step{buf: []byte{0x01, 0x02}},
		beacon(homeAP, "Home"),
	)
	s := newScanner(src)

	networks, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 2)

	assert.Equal(t, "11:22:33:44:55:66", networks[0].BSSID)
	assert.Equal(t, "Cafe", networks[0].SSID)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", networks[1].BSSID)
	assert.Equal(t, "Home", networks[1].SSID)
	assert.Equal(t, uint8(11), networks[1].Channel)
	assert.Equal(t, domain.EncryptionWPA2, networks[1].Encryption)

	assert.Equal(t, "wlan0", src.opened)
	assert.True(t, src.promisc)
	assert.Equal(t, DefaultReadTimeout, src.timeout)
	assert.True(t, src.reader.closed)
	assert.Empty(t, s.Cache(context.Background()), "discovery does not feed the SSID cache")
}

func TestScan_CountsDistinctNetworks(t *testing.T) {
	discovered := telemetry.NetworksDiscovered.WithLabelValues("wlan0")
	before := testutil.ToFloat64(discovered)

	src := newSource(beacon(homeAP, "Home"), beacon(homeAP, "Home"), beacon(cafeAP, "Cafe"), beacon(homeAP, "Home"))
	networks, err := newScanner(src).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(discovered)-before)
}

func TestScan_RespectsReadBound(t *testing.T) {
	src := newSource()
	src.reader.after = step{}
	for i := 0; i < 250; i++ {
		mac := sniffertest.MustMAC(fmt.Sprintf("00:00:00:00:%02x:%02x", i/256, i%256))
		src.reader.steps = append(src.reader.steps, beacon(mac, "Net"))
	}
	s := newScanner(src)

	networks, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxPackets, src.reader.reads)
	assert.Len(t, networks, DefaultMaxPackets)
}

func TestScan_TimeoutsCountTowardBound(t *testing.T) {
	src := newSource()
	src.reader.after = step{} // never any traffic
	s := New(src, nil, Config{Interface: "wlan0", MaxPackets: 7})

	networks, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, networks)
	assert.Equal(t, 7, src.reader.reads)
}

func TestScan_StopsOnExhaustionAndErrors(t *testing.T) {
	src := newSource(beacon(homeAP, "Home"))
	networks, err := newScanner(src).Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, networks, 1)
	assert.Equal(t, 2, src.reader.reads)

	src = newSource(beacon(homeAP, "Home"), step{err: errors.New("device went away")}, beacon(cafeAP, "Cafe"))
	networks, err = newScanner(src).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 1)
	assert.Equal(t, "Home", networks[0].SSID)
}

func TestScan_SkipsMalformedFrames(t *testing.T) {
	src := newSource(
		step{err: fmt.Errorf("%w: length 255 of 9", ports.ErrMalformedFrame)},
		beacon(homeAP, "Home"),
		step{err: fmt.Errorf("bad header: %w", ports.ErrMalformedFrame)},
		beacon(cafeAP, "Cafe"),
	)
	networks, err := newScanner(src).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 2)
	assert.Equal(t, "Cafe", networks[0].SSID)
	assert.Equal(t, "Home", networks[1].SSID)
	assert.Equal(t, 5, src.reader.reads)
}

func TestScan_MalformedFramesCountTowardBound(t *testing.T) {
	src := newSource()
	src.reader.after = step{err: ports.ErrMalformedFrame}
	s := New(src, nil, Config{Interface: "wlan0", MaxPackets: 4})

	networks, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, networks)
	assert.Equal(t, 4, src.reader.reads)
}

func TestScanner_ConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	src := newSource()
	_, err := New(src, nil, DefaultConfig("")).Scan(ctx)
	assert.ErrorIs(t, err, ErrNoInterface)

	_, err = New(src, nil, DefaultConfig("wlan9")).CapturePMKID(ctx, time.Second)
	assert.ErrorIs(t, err, ports.ErrInterfaceNotFound)
	assert.Contains(t, err.Error(), "wlan9")

	boom := errors.New("permission denied")
	src.listErr = boom
	_, err = newScanner(src).CapturePMKIDCorrelated(ctx, time.Second)
	assert.ErrorIs(t, err, boom)
	src.listErr = nil

	src.openErr = errors.New("monitor mode unsupported")
	_, err = newScanner(src).Scan(ctx)
	assert.ErrorIs(t, err, src.openErr)

	assert.Equal(t, 0, src.reader.reads, "no reads happen after a configuration error")
}

func TestCapturePMKID_Unknown(t *testing.T) {
	src := newSource(beacon(homeAP, "Home"), eapol(homeAP), eapol(homeAP))
	s := newScanner(src)

	captures, err := s.CapturePMKID(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, captures, 2, "every occurrence is kept")

	assert.Equal(t, domain.UnknownSSID, captures[0].SSID)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", captures[0].BSSID)
	assert.Equal(t, sniffertest.PMKIDHex, captures[0].PMKID)
	assert.Empty(t, s.Cache(context.Background()))
}

func TestCapturePMKIDCorrelated_ResolvesSSID(t *testing.T) {
	ctx := context.Background()
	src := newSource(
		eapol(cafeAP), // before its beacon
		beacon(cafeAP, "Cafe"),
		beacon(homeAP, ""), // hidden
		eapol(cafeAP),
		eapol(homeAP),
	)
	s := newScanner(src)

	captures, err := s.CapturePMKIDCorrelated(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, captures, 3)

	assert.Equal(t, domain.UnknownSSID, captures[0].SSID)
	assert.Equal(t, "Cafe", captures[1].SSID)
	assert.Equal(t, "WPA*01*"+sniffertest.PMKIDHex+"*112233445566*0200888e0103*Cafe", captures[1].HashcatFormat)
	assert.Equal(t, domain.UnknownSSID, captures[2].SSID, "hidden networks are not cached")

	assert.Equal(t, map[string]string{"11:22:33:44:55:66": "Cafe"}, s.Cache(ctx))
}

func TestCapturePMKID_BeaconClassifiedEAPOL(t *testing.T) {
	src := newSource(beaconEAPOL(homeAP))

	captures, err := newScanner(src).CapturePMKID(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", captures[0].BSSID)
	assert.Equal(t, sniffertest.PMKIDHex, captures[0].PMKID)
}

func TestCapturePMKIDCorrelated_BeaconClassifiedEAPOL(t *testing.T) {
	src := newSource(beacon(cafeAP, "Cafe"), beaconEAPOL(cafeAP))

	captures, err := newScanner(src).CapturePMKIDCorrelated(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, "Cafe", captures[0].SSID)
	assert.Equal(t, sniffertest.PMKIDHex, captures[0].PMKID)
}

func TestCapturePMKIDCorrelated_CacheOutlivesCalls(t *testing.T) {
	ctx := context.Background()
	src := newSource(beacon(cafeAP, "Cafe"))
	s := newScanner(src)

	_, err := s.CapturePMKIDCorrelated(ctx, time.Hour)
	require.NoError(t, err)

	src.reader.steps = []step{eapol(cafeAP)}
	captures, err := s.CapturePMKIDCorrelated(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, "Cafe", captures[0].SSID)

	s.ClearCache()
	assert.Empty(t, s.Cache(ctx))

	src.reader.steps = []step{eapol(cafeAP)}
	captures, err = s.CapturePMKIDCorrelated(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, domain.UnknownSSID, captures[0].SSID)
}

func TestCapturePMKID_TransientErrorsContinue(t *testing.T) {
	src := newSource(
		step{err: errors.New("read failed")},
		step{},
		step{err: errors.New("read failed")},
		eapol(homeAP),
	)

	captures, err := newScanner(src).CapturePMKID(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Len(t, captures, 1)
}

func TestCapturePMKID_DurationBound(t *testing.T) {
	src := newSource()
	src.reader.after = step{}
	s := newScanner(src)
	s.now = tickingClock(time.Second)

	captures, err := s.CapturePMKID(context.Background(), 3*time.Second)
	require.NoError(t, err)
	assert.Empty(t, captures)
	assert.Equal(t, 2, src.reader.reads)
}

func TestCapturePMKID_ContextCancelled(t *testing.T) {
	src := newSource()
	src.reader.after = step{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	captures, err := newScanner(src).CapturePMKID(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, captures)
	assert.Equal(t, 0, src.reader.reads)
}

type fixedLister []string

func (l fixedLister) ListInterfaces() ([]string, error) { return l, nil }

func TestListInterfaces(t *testing.T) {
	src := newSource()

	got, err := New(src, nil, DefaultConfig("wlan0")).ListInterfaces()
	require.NoError(t, err)
	assert.Equal(t, []string{"lo", "wlan0"}, got)

	got, err = New(src, fixedLister{"wlan0"}, DefaultConfig("wlan0")).ListInterfaces()
	require.NoError(t, err)
	assert.Equal(t, []string{"wlan0"}, got)

	src.listErr = errors.New("no permission")
	_, err = New(src, nil, DefaultConfig("wlan0")).ListInterfaces()
	assert.ErrorIs(t, err, src.listErr)
}
