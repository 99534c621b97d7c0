package main

import (
	"fmt"
	"log"
	"os"

	"LteFlowReport/internal/engine/report"
	"LteFlowReport/internal/model"
	"LteFlowReport/internal/snapshot"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <snapshot_root | snapshot_dir>")
		os.Exit(1)
	}
	path := os.Args[1]

	// A run directory holds report.gob directly; otherwise take the newest run.
	r, err := snapshot.Load(path)
	runID := path
	if err != nil {
		r, runID, err = snapshot.LoadLatest(path)
	}
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	fmt.Printf("Run %s: %d/%d flows from %s, divisor %s=%d\n",
		runID, r.MatchedCount, r.ExpectedCount, r.FilterSourceAddress, r.DivisorStrategy, r.Divisor)
	report.WriteSummary(os.Stdout, r)
	printSpread(r.Spread)
	for _, m := range report.Metrics {
		fmt.Println(report.FormatListing(r.Flows, m, r.ExpectedCount))
	}
}

func printSpread(s model.Spread) {
	fmt.Printf("Spread: %d finite, %d non-finite, min %s max %s mean %s stddev %s fairness %s\n",
		s.FiniteFlows, s.NonFiniteFlows,
		report.FormatGeneral(s.MinKbps), report.FormatGeneral(s.MaxKbps), report.FormatGeneral(s.MeanKbps),
		report.FormatGeneral(s.StdDevKbps), report.FormatGeneral(s.Fairness))
}
