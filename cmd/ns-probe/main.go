package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/engine/report"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
	"LteFlowReport/internal/probe"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	natsURL := flag.String("nats", "", "NATS server URL (default: probe.nats_url)")
	flows := flag.Bool("flows", false, "also print the per-flow throughput listing")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.CfgLog.Fatalf("Failed to load config: %v", err)
	}
	if *natsURL != "" {
		cfg.Probe.NATSURL = *natsURL
	}
	logger.ProbeLog.Info("Starting ns-probe in SUBSCRIBER mode...")

	// Create a new subscriber
	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		logger.ProbeLog.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(r *model.AggregateReport, ts string) {
		printReport(os.Stdout, r, ts, *flows)
	}
	if err := sub.Start(handler); err != nil {
		logger.ProbeLog.Fatalf("Subscriber failed to start: %v", err)
	}

	// Set up a channel to handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.ProbeLog.Info("Shutdown signal received, cleaning up...")
}

func printReport(w io.Writer, r *model.AggregateReport, ts string, flows bool) {
	fmt.Fprintf(w, "== report %s: %d/%d flows from %s (divisor %d)\n",
		ts, r.MatchedCount, r.ExpectedCount, r.FilterSourceAddress, r.Divisor)
	report.WriteSummary(w, r)
	if flows {
		report.WriteListing(w, r.Flows, report.Throughput, r.ExpectedCount)
		fmt.Fprintln(w)
	}
}
