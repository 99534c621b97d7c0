package capture

import (
	"net"
	"sync"
	"testing"
	"time"

	"LteFlowReport/internal/engine/flowstats"
	"LteFlowReport/internal/model"
)

var (
	remote = net.IPv4(1, 0, 0, 2)
	ue1    = net.IPv4(7, 0, 0, 2)
	ue2    = net.IPv4(7, 0, 0, 3)
)

func packet(src, dst net.IP, dport uint16, at time.Duration, length int) *model.PacketInfo {
	return &model.PacketInfo{
		Timestamp: time.Unix(1000, 0).Add(at),
		FiveTuple: model.FiveTuple{SrcIP: src, DstIP: dst, SrcPort: 49153, DstPort: dport, Protocol: 17},
		Length:    length,
	}
}

func TestMonitor_FirstSeenIDs(t *testing.T) {
	m := NewMonitor()
	m.Observe(packet(remote, ue1, 1100, 0, 100))
	m.Observe(packet(ue1, remote, 2001, 10*time.Millisecond, 100))
	m.Observe(packet(remote, ue1, 1100, 20*time.Millisecond, 100))
	m.Observe(packet(remote, ue2, 1100, 30*time.Millisecond, 100))

	if m.Len() != 3 {
		t.Fatalf("Expected 3 flows, got %d", m.Len())
	}
	result := m.Result()
	for id, want := range map[model.FlowID]net.IP{1: ue1, 2: remote, 3: ue2} {
		rec, ok := result.Classifier.FindFlow(id)
		if !ok {
			t.Fatalf("Flow %d missing from classifier", id)
		}
		if !rec.DstIP.Equal(want) {
			t.Errorf("Flow %d: expected destination %s, got %s", id, want, rec.DstIP)
		}
	}
}

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor()
	// Gaps of 100, 100, 150 and 50 ms give jitter |0| + |50| + |100| = 150 ms.
	for _, at := range []time.Duration{500, 600, 700, 850, 900} {
		m.Observe(packet(remote, ue1, 1100, at*time.Millisecond, 1000))
	}
	// A packet from another flow sets the epoch earlier.
	m.Observe(packet(ue1, remote, 2001, 0, 50))

	c := m.Result().Flows[1]
	if c.TimeFirstTxPacket != 500*time.Millisecond || c.TimeLastRxPacket != 900*time.Millisecond {
		t.Errorf("Unexpected times: first %s last %s", c.TimeFirstTxPacket, c.TimeLastRxPacket)
	}
	if c.JitterSum != 150*time.Millisecond {
		t.Errorf("Expected 150ms jitter, got %s", c.JitterSum)
	}
	if c.RxBytes != 5000 || c.TxPackets != 5 || c.RxPackets != 5 || c.LostPackets != 0 {
		t.Errorf("Unexpected counters: %+v", c)
	}
}

func TestMonitor_OutOfOrder(t *testing.T) {
	m := NewMonitor()
	m.Observe(packet(remote, ue1, 1100, 100*time.Millisecond, 10))
	m.Observe(packet(remote, ue1, 1100, 200*time.Millisecond, 10))
	m.Observe(packet(remote, ue1, 1100, 50*time.Millisecond, 10))

	c := m.Result().Flows[1]
	if c.TimeFirstTxPacket != 0 || c.TimeLastRxPacket != 150*time.Millisecond {
		t.Errorf("Unexpected times: first %s last %s", c.TimeFirstTxPacket, c.TimeLastRxPacket)
	}
	if c.RxPackets != 3 || c.JitterSum != 0 {
		t.Errorf("Unexpected counters: %+v", c)
	}
}

func TestMonitor_ConcurrentObserve(t *testing.T) {
	m := NewMonitor()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(port uint16) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Observe(packet(remote, ue1, port, time.Duration(i)*time.Millisecond, 10))
			}
		}(uint16(1100 + w))
	}
	wg.Wait()

	result := m.Result()
	if len(result.Flows) != 4 {
		t.Fatalf("Expected 4 flows, got %d", len(result.Flows))
	}
	for id, c := range result.Flows {
		if c.RxPackets != 100 {
			t.Errorf("Flow %d: expected 100 packets, got %d", id, c.RxPackets)
		}
	}
}

func TestMonitor_ConsumeFeedsAggregator(t *testing.T) {
	in := make(chan *model.PacketInfo, 16)
	for i := 0; i <= 10; i++ {
		in <- packet(remote, ue1, 1100, time.Duration(i)*100*time.Millisecond, 1280)
	}
	in <- packet(ue1, remote, 2001, 0, 1280)
	close(in)

	m := NewMonitor()
	if n := m.Consume(in); n != 12 {
		t.Fatalf("Expected 12 packets consumed, got %d", n)
	}
	result := m.Result()
	report, err := flowstats.Aggregate(result.Flows, result.Classifier, remote, 1)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	// 11 packets of 1280 bytes over 1s.
	if report.MatchedCount != 1 || report.MeanThroughputKbps != 110 {
		t.Errorf("Unexpected report: matched %d, throughput %v", report.MatchedCount, report.MeanThroughputKbps)
	}
}
