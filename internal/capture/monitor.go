package capture

import (
	"fmt"
	"sync"
	"time"

	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
)

type flowState struct {
	id         model.FlowID
	first      time.Time
	last       time.Time
	gap        time.Duration
	jitter     time.Duration
	bytes      uint64
	packets    uint32
	outOfOrder uint32
}

// Monitor builds flow counters from packets seen at a single observation
// point. Each packet is counted as both sent and received, so LostPackets
// stays zero and DelaySum is not measured.
type Monitor struct {
	mu         sync.Mutex
	flows      map[string]*flowState
	classifier model.MapClassifier
	nextID     model.FlowID
	epoch      time.Time
}

// NewMonitor returns an empty monitor. Flow IDs start at 1.
func NewMonitor() *Monitor {
	return &Monitor{
		flows:      make(map[string]*flowState),
		classifier: make(model.MapClassifier),
		nextID:     1,
	}
}

func tupleKey(ft model.FiveTuple) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", ft.SrcIP, ft.DstIP, ft.SrcPort, ft.DstPort, ft.Protocol)
}

// Observe accounts one packet. It is safe for concurrent use, but jitter is
// only meaningful when each flow's packets arrive in timestamp order.
func (m *Monitor) Observe(p *model.PacketInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch.IsZero() || p.Timestamp.Before(m.epoch) {
		m.epoch = p.Timestamp
	}

	key := tupleKey(p.FiveTuple)
	st, ok := m.flows[key]
	if !ok {
		st = &flowState{id: m.nextID, first: p.Timestamp, last: p.Timestamp}
		m.flows[key] = st
		m.classifier[st.id] = p.FiveTuple
		m.nextID++
		logger.CaptureLog.Debugf("New flow %d: %s", st.id, p.FiveTuple)
	} else {
		switch {
		case p.Timestamp.Before(st.last):
			st.outOfOrder++
			if p.Timestamp.Before(st.first) {
				st.first = p.Timestamp
			}
		default:
			gap := p.Timestamp.Sub(st.last)
			if st.packets > 1 {
				st.jitter += absDuration(gap - st.gap)
			}
			st.gap = gap
			st.last = p.Timestamp
		}
	}
	st.bytes += uint64(p.Length)
	st.packets++
}

// Consume observes every packet from in until it is closed.
func (m *Monitor) Consume(in <-chan *model.PacketInfo) int {
	n := 0
	for p := range in {
		m.Observe(p)
		n++
	}
	return n
}

// Result freezes the current state into a SimulationResult. Times are offsets
// from the earliest packet observed.
func (m *Monitor) Result() model.SimulationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := make(model.FlowTable, len(m.flows))
	classifier := make(model.MapClassifier, len(m.classifier))
	for _, st := range m.flows {
		first := st.first.Sub(m.epoch)
		last := st.last.Sub(m.epoch)
		table[st.id] = model.FlowCounters{
			TimeFirstTxPacket: first,
			TimeFirstRxPacket: first,
			TimeLastTxPacket:  last,
			TimeLastRxPacket:  last,
			JitterSum:         st.jitter,
			TxBytes:           st.bytes,
			RxBytes:           st.bytes,
			TxPackets:         st.packets,
			RxPackets:         st.packets,
		}
		if st.outOfOrder > 0 {
			logger.CaptureLog.Warnf("Flow %d had %d out-of-order packets excluded from jitter", st.id, st.outOfOrder)
		}
	}
	for id, ft := range m.classifier {
		classifier[id] = ft
	}
	return model.SimulationResult{Flows: table, Classifier: classifier}
}

// Len returns the number of distinct flows seen so far.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
