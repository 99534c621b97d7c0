package flowstats

import (
	"math"

	"LteFlowReport/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ComputeSpread summarises the distribution of per-flow throughput. Flows
// with a non-finite throughput are counted but left out of the statistics.
func ComputeSpread(flows []model.FlowReport) model.Spread {
	values := make([]float64, 0, len(flows))
	var spread model.Spread
	for _, f := range flows {
		if math.IsInf(f.ThroughputKbps, 0) || math.IsNaN(f.ThroughputKbps) {
			spread.NonFiniteFlows++
			continue
		}
		values = append(values, f.ThroughputKbps)
	}
	spread.FiniteFlows = len(values)
	if len(values) == 0 {
		return spread
	}

	spread.MinKbps = floats.Min(values)
	spread.MaxKbps = floats.Max(values)
	if len(values) == 1 {
		spread.MeanKbps = values[0]
	} else {
		spread.MeanKbps, spread.StdDevKbps = stat.MeanStdDev(values, nil)
	}

	// Jain's index: (sum x)^2 / (n * sum x^2)
	if sq := floats.Dot(values, values); sq > 0 {
		sum := floats.Sum(values)
		spread.Fairness = sum * sum / (float64(len(values)) * sq)
	}
	return spread
}
