package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"LteFlowReport/internal/model"
)

// Metric selects which per-flow value a listing prints.
type Metric int

const (
	Throughput Metric = iota
	Jitter
	LostPackets
)

// Metrics lists every metric in report order.
var Metrics = []Metric{Throughput, Jitter, LostPackets}

// Tag returns the attribute name used in listings.
func (m Metric) Tag() string {
	switch m {
	case Throughput:
		return "Throughput"
	case Jitter:
		return "Jitter"
	case LostPackets:
		return "lostPackets"
	}
	return "unknown"
}

func (m Metric) String() string {
	switch m {
	case Throughput:
		return "throughput"
	case Jitter:
		return "jitter"
	case LostPackets:
		return "lost"
	}
	return "unknown"
}

// ParseMetric accepts the metric names used in URLs and flags.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "throughput", "thro":
		return Throughput, nil
	case "jitter", "jitt":
		return Jitter, nil
	case "lost", "lostpackets", "loss":
		return LostPackets, nil
	}
	return 0, fmt.Errorf("unknown metric: %s", name)
}

// Value extracts the metric from a per-flow entry.
func (m Metric) Value(f model.FlowReport) float64 {
	switch m {
	case Throughput:
		return f.ThroughputKbps
	case Jitter:
		return f.JitterSeconds
	case LostPackets:
		return float64(f.LostPackets)
	}
	return 0
}

// Mean extracts the averaged metric from a report.
func (m Metric) Mean(r *model.AggregateReport) float64 {
	switch m {
	case Throughput:
		return r.MeanThroughputKbps
	case Jitter:
		return r.MeanJitterSeconds
	case LostPackets:
		return r.MeanLostPackets
	}
	return 0
}

// WriteListing writes one "<Flow flowId=i  Tag=value>" entry per flow with
// 1-based indices and no separators. Exactly count entries are written:
// indices beyond the matched flows carry a zero value and matched flows past
// count are left out.
func WriteListing(w io.Writer, entries []model.FlowReport, metric Metric, count int) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < count; i++ {
		var v float64
		if i < len(entries) {
			v = metric.Value(entries[i])
		}
		if _, err := fmt.Fprintf(bw, "<Flow flowId=%d  %s=%s>", i+1, metric.Tag(), FormatFixed(v)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Dropped returns how many matched flows a count-entry listing leaves out.
func Dropped(entries []model.FlowReport, count int) int {
	return max(len(entries)-max(count, 0), 0)
}

// FormatListing is WriteListing into a string.
func FormatListing(entries []model.FlowReport, metric Metric, count int) string {
	var sb strings.Builder
	_ = WriteListing(&sb, entries, metric, count)
	return sb.String()
}

// WriteSummary writes the "<expectedCount> <mean>" console lines for
// throughput, jitter and loss.
func WriteSummary(w io.Writer, r *model.AggregateReport) error {
	for _, m := range Metrics {
		if _, err := fmt.Fprintf(w, "%d %s\n", r.ExpectedCount, FormatGeneral(m.Mean(r))); err != nil {
			return err
		}
	}
	return nil
}

// FormatFixed formats like C's "%f".
func FormatFixed(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// FormatGeneral formats like a default C++ ostream: six significant digits.
func FormatGeneral(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "nan", true
	case math.IsInf(v, 1):
		return "inf", true
	case math.IsInf(v, -1):
		return "-inf", true
	}
	return "", false
}
