package flowstats

import (
	"errors"
	"fmt"
	"net"

	"LteFlowReport/internal/model"

	"golang.org/x/exp/slices"
)

// ErrClassifierMismatch is returned when a flow present in the table cannot be
// resolved by the classifier of the same run.
var ErrClassifierMismatch = errors.New("flow not known to classifier")

// Aggregator computes per-flow and mean metrics over the flows originating
// from one source address.
type Aggregator struct {
	filter        net.IP
	expectedCount int
	divisor       string
}

// New creates an Aggregator. divisor selects the averaging divisor:
// model.DivisorExpected (default) divides by expectedCount whatever the number
// of matched flows, model.DivisorMatched divides by the matched count.
func New(filterSourceAddress net.IP, expectedCount int, divisor string) (*Aggregator, error) {
	if filterSourceAddress == nil {
		return nil, fmt.Errorf("filter source address is required")
	}
	switch divisor {
	case "":
		divisor = model.DivisorExpected
	case model.DivisorExpected, model.DivisorMatched:
	default:
		return nil, fmt.Errorf("unknown divisor strategy: %s", divisor)
	}
	return &Aggregator{filter: filterSourceAddress, expectedCount: expectedCount, divisor: divisor}, nil
}

// Aggregate processes a finished run.
func (a *Aggregator) Aggregate(result model.SimulationResult) (*model.AggregateReport, error) {
	report, err := aggregate(result.Flows, result.Classifier, a.filter, a.expectedCount)
	if err != nil {
		return nil, err
	}
	if a.divisor == model.DivisorMatched {
		report.DivisorStrategy = model.DivisorMatched
		report.Divisor = report.MatchedCount
		setMeans(report)
	}
	return report, nil
}

// Aggregate filters flows to those whose source address equals
// filterSourceAddress and averages their throughput, jitter and loss over
// expectedCount. expectedCount is used even when the number of matched flows
// differs. Callers must not pass an expectedCount of zero; the means would be
// NaN or infinite.
func Aggregate(flows model.FlowTable, classifier model.Classifier, filterSourceAddress net.IP, expectedCount int) (*model.AggregateReport, error) {
	return aggregate(flows, classifier, filterSourceAddress, expectedCount)
}

func aggregate(flows model.FlowTable, classifier model.Classifier, filter net.IP, expectedCount int) (*model.AggregateReport, error) {
	ids := make([]model.FlowID, 0, len(flows))
	for id := range flows {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	report := &model.AggregateReport{
		FilterSourceAddress: filter.String(),
		ExpectedCount:       expectedCount,
		DivisorStrategy:     model.DivisorExpected,
		Divisor:             expectedCount,
	}

	index := 0
	for _, id := range ids {
		record, ok := classifier.FindFlow(id)
		if !ok {
			return nil, fmt.Errorf("%w: flowId=%d", ErrClassifierMismatch, id)
		}
		if !record.SrcIP.Equal(filter) {
			continue
		}

		counters := flows[id]
		entry := model.FlowReport{
			Index:          index,
			FlowID:         id,
			FiveTuple:      record.FiveTuple,
			ThroughputKbps: Throughput(counters),
			JitterSeconds:  counters.JitterSum.Seconds(),
			LostPackets:    counters.LostPackets,
		}
		report.Flows = append(report.Flows, entry)
		index++

		report.SumThroughputKbps += entry.ThroughputKbps
		report.SumJitterSeconds += entry.JitterSeconds
		report.SumLostPackets += float64(entry.LostPackets)
	}

	report.MatchedCount = index
	setMeans(report)
	report.Spread = ComputeSpread(report.Flows)
	return report, nil
}

// Throughput returns the receive throughput of a flow in Kbit/s over the
// window from its first transmitted to its last received packet. A zero-length
// window yields +Inf, or NaN when nothing was received.
func Throughput(c model.FlowCounters) float64 {
	elapsed := c.TimeLastRxPacket.Seconds() - c.TimeFirstTxPacket.Seconds()
	return float64(c.RxBytes) * 8.0 / elapsed / 1024
}

func setMeans(r *model.AggregateReport) {
	d := float64(r.Divisor)
	r.MeanThroughputKbps = r.SumThroughputKbps / d
	r.MeanJitterSeconds = r.SumJitterSeconds / d
	r.MeanLostPackets = r.SumLostPackets / d
}
