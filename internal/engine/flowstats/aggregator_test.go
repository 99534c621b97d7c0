package flowstats

import (
	"errors"
	"math"
	"net"
	"reflect"
	"testing"
	"time"

	"LteFlowReport/internal/model"
)

var (
	remoteHost = net.ParseIP("1.0.0.2")
	ue1        = net.ParseIP("7.0.0.2")
	ue2        = net.ParseIP("7.0.0.3")
)

func dl(ue net.IP) model.FiveTuple {
	return model.FiveTuple{SrcIP: remoteHost, DstIP: ue, SrcPort: 49153, DstPort: 1100, Protocol: 17}
}

func ul(ue net.IP, port uint16) model.FiveTuple {
	return model.FiveTuple{SrcIP: ue, DstIP: remoteHost, SrcPort: 49153, DstPort: port, Protocol: 17}
}

func counters(rxBytes uint64, first, last time.Duration, jitter time.Duration, lost uint32) model.FlowCounters {
	return model.FlowCounters{
		RxBytes:           rxBytes,
		TimeFirstTxPacket: first,
		TimeLastRxPacket:  last,
		JitterSum:         jitter,
		LostPackets:       lost,
	}
}

func TestAggregate_SingleFlowThroughput(t *testing.T) {
	flows := model.FlowTable{1: counters(102400, 0, time.Second, 0, 0)}
	classifier := model.MapClassifier{1: dl(ue1)}

	report, err := Aggregate(flows, classifier, remoteHost, 1)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(report.Flows) != 1 {
		t.Fatalf("Expected 1 matched flow, got %d", len(report.Flows))
	}
	if report.Flows[0].ThroughputKbps != 800.0 {
		t.Errorf("Expected per-flow throughput 800, got %v", report.Flows[0].ThroughputKbps)
	}
	if report.MeanThroughputKbps != 800.0 {
		t.Errorf("Expected mean throughput 800, got %v", report.MeanThroughputKbps)
	}
}

func TestAggregate_MeanLostPackets(t *testing.T) {
	flows := model.FlowTable{
		1: counters(1000, 0, time.Second, 0, 5),
		2: counters(1000, 0, time.Second, 0, 3),
	}
	classifier := model.MapClassifier{1: dl(ue1), 2: dl(ue2)}

	report, err := Aggregate(flows, classifier, remoteHost, 2)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if report.MeanLostPackets != 4.0 {
		t.Errorf("Expected mean lost packets 4, got %v", report.MeanLostPackets)
	}
}

func TestAggregate_DividesByExpectedCount(t *testing.T) {
	flows := model.FlowTable{
		1: counters(102400, 0, time.Second, 100*time.Millisecond, 5),
		2: counters(51200, 0, time.Second, 300*time.Millisecond, 3),
		3: counters(999, 0, time.Second, time.Second, 100), // uplink, filtered out
	}
	classifier := model.MapClassifier{1: dl(ue1), 2: dl(ue2), 3: ul(ue1, 2001)}

	report, err := Aggregate(flows, classifier, remoteHost, 5)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if report.MatchedCount != 2 {
		t.Fatalf("Expected 2 matched flows, got %d", report.MatchedCount)
	}
	if report.Divisor != 5 {
		t.Errorf("Expected divisor 5, got %d", report.Divisor)
	}

	wantThroughput := (800.0 + 400.0) / 5
	if report.MeanThroughputKbps != wantThroughput {
		t.Errorf("Expected mean throughput %v, got %v", wantThroughput, report.MeanThroughputKbps)
	}
	j1, j2 := 0.1, 0.3
	wantJitter := (j1 + j2) / 5
	if report.MeanJitterSeconds != wantJitter {
		t.Errorf("Expected mean jitter %v, got %v", wantJitter, report.MeanJitterSeconds)
	}
	if report.MeanLostPackets != 8.0/5 {
		t.Errorf("Expected mean lost packets %v, got %v", 8.0/5, report.MeanLostPackets)
	}
}

func TestAggregate_MatchedDivisor(t *testing.T) {
	flows := model.FlowTable{
		1: counters(102400, 0, time.Second, 0, 5),
		2: counters(51200, 0, time.Second, 0, 3),
	}
	classifier := model.MapClassifier{1: dl(ue1), 2: dl(ue2)}

	agg, err := New(remoteHost, 5, model.DivisorMatched)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	report, err := agg.Aggregate(model.SimulationResult{Flows: flows, Classifier: classifier})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if report.Divisor != 2 || report.ExpectedCount != 5 {
		t.Errorf("Expected divisor 2 with expected count 5, got %d and %d", report.Divisor, report.ExpectedCount)
	}
	if report.MeanThroughputKbps != 600.0 {
		t.Errorf("Expected mean throughput 600, got %v", report.MeanThroughputKbps)
	}
	if report.MeanLostPackets != 4.0 {
		t.Errorf("Expected mean lost packets 4, got %v", report.MeanLostPackets)
	}
}

func TestAggregate_NoMatches(t *testing.T) {
	flows := model.FlowTable{
		1: counters(1000, 0, time.Second, time.Second, 1),
		2: counters(1000, 0, time.Second, time.Second, 1),
	}
	classifier := model.MapClassifier{1: ul(ue1, 2001), 2: ul(ue2, 2002)}

	report, err := Aggregate(flows, classifier, remoteHost, 2)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(report.Flows) != 0 {
		t.Errorf("Expected no matched flows, got %d", len(report.Flows))
	}
	if report.MeanThroughputKbps != 0 || report.MeanJitterSeconds != 0 || report.MeanLostPackets != 0 {
		t.Errorf("Expected zero means, got %+v", report)
	}
}

func TestAggregate_EmptyTable(t *testing.T) {
	report, err := Aggregate(model.FlowTable{}, model.MapClassifier{}, remoteHost, 3)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if report.MatchedCount != 0 || report.MeanThroughputKbps != 0 {
		t.Errorf("Expected an empty report, got %+v", report)
	}
}

func TestAggregate_DegenerateTiming(t *testing.T) {
	flows := model.FlowTable{
		1: counters(102400, 0, time.Second, 0, 0),
		2: counters(2048, 2*time.Second, 2*time.Second, 0, 0),
	}
	classifier := model.MapClassifier{1: dl(ue1), 2: dl(ue2)}

	report, err := Aggregate(flows, classifier, remoteHost, 2)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !math.IsInf(report.Flows[1].ThroughputKbps, 1) {
		t.Errorf("Expected +Inf throughput for a zero-length window, got %v", report.Flows[1].ThroughputKbps)
	}
	if !math.IsInf(report.MeanThroughputKbps, 1) {
		t.Errorf("Expected the mean to become +Inf, got %v", report.MeanThroughputKbps)
	}
	if report.Spread.FiniteFlows != 1 || report.Spread.NonFiniteFlows != 1 {
		t.Errorf("Expected 1 finite and 1 non-finite flow, got %+v", report.Spread)
	}
}

func TestAggregate_NothingReceived(t *testing.T) {
	flows := model.FlowTable{1: counters(0, time.Second, time.Second, 0, 10)}
	classifier := model.MapClassifier{1: dl(ue1)}

	report, err := Aggregate(flows, classifier, remoteHost, 1)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !math.IsNaN(report.Flows[0].ThroughputKbps) {
		t.Errorf("Expected NaN throughput, got %v", report.Flows[0].ThroughputKbps)
	}
}

func TestAggregate_ClassifierMismatch(t *testing.T) {
	flows := model.FlowTable{
		1: counters(1000, 0, time.Second, 0, 0),
		2: counters(1000, 0, time.Second, 0, 0),
	}
	classifier := model.MapClassifier{1: dl(ue1)}

	report, err := Aggregate(flows, classifier, remoteHost, 2)
	if !errors.Is(err, ErrClassifierMismatch) {
		t.Fatalf("Expected ErrClassifierMismatch, got %v", err)
	}
	if report != nil {
		t.Errorf("Expected no partial report, got %+v", report)
	}
}

func TestAggregate_MatchOrderAndIndex(t *testing.T) {
	flows := model.FlowTable{
		7: counters(1024, 0, time.Second, 0, 1),
		3: counters(2048, 0, time.Second, 0, 2),
		5: counters(4096, 0, time.Second, 0, 3),
		4: counters(4096, 0, time.Second, 0, 3),
	}
	classifier := model.MapClassifier{7: dl(ue1), 3: dl(ue2), 5: dl(ue1), 4: ul(ue2, 2002)}

	report, err := Aggregate(flows, classifier, remoteHost, 3)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	wantIDs := []model.FlowID{3, 5, 7}
	for i, f := range report.Flows {
		if f.Index != i {
			t.Errorf("Entry %d has index %d", i, f.Index)
		}
		if f.FlowID != wantIDs[i] {
			t.Errorf("Entry %d has flow id %d, want %d", i, f.FlowID, wantIDs[i])
		}
	}
}

func TestAggregate_AcceptsSixteenByteIPv4(t *testing.T) {
	flows := model.FlowTable{1: counters(1024, 0, time.Second, 0, 0)}
	classifier := model.MapClassifier{1: {SrcIP: net.IPv4(1, 0, 0, 2).To4(), DstIP: ue1}}

	report, err := Aggregate(flows, classifier, net.IPv4(1, 0, 0, 2), 1)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if report.MatchedCount != 1 {
		t.Errorf("Expected the flow to match, got %d", report.MatchedCount)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	flows := model.FlowTable{}
	classifier := model.MapClassifier{}
	for i := 1; i <= 50; i++ {
		id := model.FlowID(i)
		flows[id] = counters(uint64(i*1337), time.Duration(i)*time.Millisecond, 20*time.Second, time.Duration(i)*time.Microsecond, uint32(i%7))
		if i%2 == 0 {
			classifier[id] = dl(net.IPv4(7, 0, 0, byte(i)))
		} else {
			classifier[id] = ul(net.IPv4(7, 0, 0, byte(i)), uint16(2000+i))
		}
	}

	first, err := Aggregate(flows, classifier, remoteHost, 25)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	second, err := Aggregate(flows, classifier, remoteHost, 25)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical reports from identical inputs")
	}
	if math.Float64bits(first.MeanThroughputKbps) != math.Float64bits(second.MeanThroughputKbps) {
		t.Errorf("Mean throughput differs between calls")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, 1, ""); err == nil {
		t.Errorf("Expected an error for a missing filter address")
	}
	if _, err := New(remoteHost, 1, "median"); err == nil {
		t.Errorf("Expected an error for an unknown divisor strategy")
	}
}
