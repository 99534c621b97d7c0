package model

import (
	"fmt"
	"net"
	"time"
)

// FlowID identifies a flow inside a single simulation run. It is assigned by
// the classifier that first saw the flow.
type FlowID uint32

// FiveTuple represents the 5-tuple of a unidirectional flow.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// String renders the tuple as "src:port->dst:port/proto".
func (ft FiveTuple) String() string {
	return fmt.Sprintf("%s:%d->%s:%d/%d", ft.SrcIP, ft.SrcPort, ft.DstIP, ft.DstPort, ft.Protocol)
}

// FlowRecord is a classified flow: its identifier plus the five-tuple.
type FlowRecord struct {
	ID FlowID
	FiveTuple
}

// FlowCounters are the per-flow counters accumulated by a flow monitor over the
// lifetime of a run. Times are offsets on the simulation clock.
type FlowCounters struct {
	TimeFirstTxPacket time.Duration
	TimeFirstRxPacket time.Duration
	TimeLastTxPacket  time.Duration
	TimeLastRxPacket  time.Duration
	DelaySum          time.Duration
	JitterSum         time.Duration
	TxBytes           uint64
	RxBytes           uint64
	TxPackets         uint32
	RxPackets         uint32
	LostPackets       uint32
}

// FlowTable maps flow identifiers to their counters. It is frozen once the
// run that produced it has stopped.
type FlowTable map[FlowID]FlowCounters

// SimulationResult is everything a finished run hands over for reporting.
type SimulationResult struct {
	Flows      FlowTable
	Classifier Classifier
}

// PacketInfo holds the metadata extracted from a single captured packet.
type PacketInfo struct {
	Timestamp time.Time
	FiveTuple FiveTuple
	Length    int
}
