package flowstats

import (
	"math"
	"testing"

	"LteFlowReport/internal/model"
)

func TestComputeSpread(t *testing.T) {
	flows := []model.FlowReport{
		{ThroughputKbps: 100},
		{ThroughputKbps: 300},
		{ThroughputKbps: math.Inf(1)},
	}

	spread := ComputeSpread(flows)
	if spread.FiniteFlows != 2 || spread.NonFiniteFlows != 1 {
		t.Fatalf("Unexpected flow counts: %+v", spread)
	}
	if spread.MinKbps != 100 || spread.MaxKbps != 300 || spread.MeanKbps != 200 {
		t.Errorf("Unexpected min/max/mean: %+v", spread)
	}
	if math.Abs(spread.StdDevKbps-math.Sqrt(20000)) > 1e-9 {
		t.Errorf("Expected sample std dev %v, got %v", math.Sqrt(20000), spread.StdDevKbps)
	}
	// (400^2) / (2 * (100^2 + 300^2)) = 0.8
	if math.Abs(spread.Fairness-0.8) > 1e-12 {
		t.Errorf("Expected fairness 0.8, got %v", spread.Fairness)
	}
}

func TestComputeSpread_Equal(t *testing.T) {
	spread := ComputeSpread([]model.FlowReport{{ThroughputKbps: 42}})
	if spread.MeanKbps != 42 || spread.StdDevKbps != 0 || spread.Fairness != 1 {
		t.Errorf("Unexpected spread for a single flow: %+v", spread)
	}
}

func TestComputeSpread_Empty(t *testing.T) {
	spread := ComputeSpread(nil)
	if spread != (model.Spread{}) {
		t.Errorf("Expected a zero spread, got %+v", spread)
	}
}
