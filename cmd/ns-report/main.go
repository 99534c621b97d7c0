package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"LteFlowReport/internal/capture"
	"LteFlowReport/internal/config"
	"LteFlowReport/internal/engine/flowstats"
	"LteFlowReport/internal/engine/manager"
	"LteFlowReport/internal/flowmon"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
	"LteFlowReport/internal/scenario"
	"LteFlowReport/pkg/pcap"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitPartial  = 2
	exitBadUsage = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

type options struct {
	configPath string
	flowmon    string
	pcap       string
	simulate   bool
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("ns-report", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the YAML configuration")
	fs.StringVar(&opts.flowmon, "flowmon", "", "FlowMonitor XML to report on (default: runner.flowmon_file)")
	fs.StringVar(&opts.pcap, "pcap", "", "build flow statistics from a pcap trace instead of FlowMonitor XML")
	fs.BoolVar(&opts.simulate, "run", false, "run the simulator before reporting")

	// Scenario overrides, named like the simulator's own flags.
	numNodePairs := fs.Int("numNodePairs", 0, "number of eNodeBs")
	numberOfUes := fs.Int("numberOfUes", 0, "number of user entities")
	simTime := fs.String("simTime", "", "total duration of the simulation")
	distance := fs.Float64("distance", 0, "distance between eNBs [m]")
	interval := fs.String("interPacketInterval", "", "inter packet interval")
	useCa := fs.Bool("useCa", false, "whether to use carrier aggregation")
	disableDl := fs.Bool("disableDl", false, "disable downlink data flows")
	disableUl := fs.Bool("disableUl", false, "disable uplink data flows")
	disablePl := fs.Bool("disablePl", false, "disable data flows between peer UEs")
	if err := fs.Parse(args); err != nil {
		return exitBadUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		logger.CfgLog.Errorf("Failed to load config: %v", err)
		return exitFailure
	}
	fs.Visit(func(f *flag.Flag) {
		s := &cfg.Scenario
		switch f.Name {
		case "numNodePairs":
			s.NumNodePairs = *numNodePairs
		case "numberOfUes":
			s.NumberOfUes = *numberOfUes
		case "simTime":
			s.SimTime = *simTime
		case "distance":
			s.Distance = *distance
		case "interPacketInterval":
			s.InterPacketInterval = *interval
		case "useCa":
			s.UseCa = *useCa
		case "disableDl":
			s.DisableDl = *disableDl
		case "disableUl":
			s.DisableUl = *disableUl
		case "disablePl":
			s.DisablePl = *disablePl
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.CfgLog.Errorf("Invalid configuration: %v", err)
		return exitBadUsage
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.CfgLog.Warnf("Ignoring log_level %q: %v", cfg.LogLevel, err)
	}
	logger.CfgLog.Infof("Configuration loaded: %d eNBs, %d UEs, expecting %d flows from %s",
		cfg.Scenario.NumNodePairs, cfg.Scenario.NumberOfUes, cfg.ExpectedCount(), cfg.Aggregator.FilterSourceAddress)

	result, err := loadResult(ctx, cfg, opts)
	if err != nil {
		logger.MainLog.Errorf("%v", err)
		return exitFailure
	}

	m, err := manager.NewManager(cfg, manager.WithOutput(stdout))
	if err != nil {
		logger.MainLog.Errorf("Failed to create manager: %v", err)
		return exitFailure
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.MainLog.Warnf("Shutdown: %v", err)
		}
	}()

	if _, err := m.Process(ctx, result); err != nil {
		if errors.Is(err, flowstats.ErrClassifierMismatch) {
			logger.AggLog.Errorf("%v", err)
			return exitFailure
		}
		logger.MainLog.Errorf("Report produced with errors: %v", err)
		return exitPartial
	}
	return exitOK
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.LoadConfig(path)
}

func loadResult(ctx context.Context, cfg *config.Config, opts options) (model.SimulationResult, error) {
	if opts.pcap != "" {
		return readCapture(opts.pcap)
	}

	path := opts.flowmon
	if opts.simulate {
		out, err := scenario.NewRunner(cfg).Run(ctx)
		if err != nil {
			return model.SimulationResult{}, err
		}
		path = out
	}
	if path == "" {
		path = scenario.NewRunner(cfg).FlowmonPath()
	}

	logger.FlowmonLog.Infof("Loading flow monitor output from '%s'", path)
	result, err := flowmon.Load(path)
	if err != nil {
		return model.SimulationResult{}, fmt.Errorf("failed to load flow monitor output: %w", err)
	}
	logger.FlowmonLog.Infof("Loaded %d flows", len(result.Flows))
	return result, nil
}

func readCapture(path string) (model.SimulationResult, error) {
	reader, err := pcap.NewReader(path)
	if err != nil {
		return model.SimulationResult{}, fmt.Errorf("failed to open pcap file: %w", err)
	}
	defer reader.Close()
	logger.CaptureLog.Infof("Reading packets from '%s' (link type %s)...", path, reader.LinkType())

	monitor := capture.NewMonitor()
	packets := make(chan *model.PacketInfo, 1024)
	done := make(chan int)
	go func() { done <- monitor.Consume(packets) }()

	skipped, err := reader.ReadPackets(packets)
	observed := <-done
	if err != nil {
		return model.SimulationResult{}, err
	}
	logger.CaptureLog.Infof("Finished reading %d packets (%d skipped) into %d flows", observed, skipped, monitor.Len())
	return monitor.Result(), nil
}
