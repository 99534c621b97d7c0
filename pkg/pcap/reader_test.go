package pcap

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"LteFlowReport/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func writeCapture(t *testing.T, frames [][]byte, start time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create capture: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	for i, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     start.Add(time.Duration(i) * 100 * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("Failed to write packet: %v", err)
		}
	}
	return path
}

func udpFrame(t *testing.T, src, dst net.IP, dport uint16) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: src, DstIP: dst}
	udp := &layers.UDP{SrcPort: 49153, DstPort: layers.UDPPort(dport)}
	udp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(make([]byte, 100))); err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	return buf.Bytes()
}

func TestReader_ReadPackets(t *testing.T) {
	start := time.Unix(1700000000, 0)
	frames := [][]byte{
		udpFrame(t, net.IPv4(1, 0, 0, 2), net.IPv4(7, 0, 0, 2), 1100),
		{0xde, 0xad},
		udpFrame(t, net.IPv4(7, 0, 0, 2), net.IPv4(1, 0, 0, 2), 2001),
	}
	path := writeCapture(t, frames, start)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if reader.LinkType() != layers.LinkTypeEthernet {
		t.Errorf("Unexpected link type %v", reader.LinkType())
	}

	out := make(chan *model.PacketInfo, len(frames))
	skipped, err := reader.ReadPackets(out)
	if err != nil {
		t.Fatalf("ReadPackets failed: %v", err)
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped frame, got %d", skipped)
	}

	var got []*model.PacketInfo
	for info := range out {
		got = append(got, info)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 packets, got %d", len(got))
	}
	if got[0].FiveTuple.DstPort != 1100 || got[1].FiveTuple.DstPort != 2001 {
		t.Errorf("Unexpected packet order: %s, %s", got[0].FiveTuple, got[1].FiveTuple)
	}
	if want := start.Add(200 * time.Millisecond); !got[1].Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %s, got %s", want, got[1].Timestamp)
	}
}

func TestNewReader_Errors(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.pcap")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "garbage.pcap")
	if err := os.WriteFile(path, []byte("not a capture file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(path); err == nil {
		t.Errorf("Expected an error for a bad header")
	}
}
