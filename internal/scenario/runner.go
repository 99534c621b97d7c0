package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/logger"
)

// ErrNoCommand is returned when no simulator command is configured.
var ErrNoCommand = errors.New("runner.command is empty")

// Runner launches the external simulator for one scenario.
type Runner struct {
	scenario config.ScenarioConfig
	runner   config.RunnerConfig
}

// NewRunner creates a runner from the application config.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{scenario: cfg.Scenario, runner: cfg.Runner}
}

// FlowmonPath is where the simulator is expected to serialize its flow
// monitor.
func (r *Runner) FlowmonPath() string {
	if filepath.IsAbs(r.runner.FlowmonFile) {
		return r.runner.FlowmonFile
	}
	return filepath.Join(r.runner.WorkDir, r.runner.FlowmonFile)
}

// Run executes the simulator to completion and returns the path of the
// FlowMonitor XML it produced.
func (r *Runner) Run(ctx context.Context) (string, error) {
	if len(r.runner.Command) == 0 {
		return "", ErrNoCommand
	}
	if r.runner.Timeout != "" {
		timeout, err := time.ParseDuration(r.runner.Timeout)
		if err != nil {
			return "", fmt.Errorf("invalid runner timeout: %w", err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out := r.FlowmonPath()
	// A stale file from an earlier run must not be mistaken for this one.
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to remove stale %s: %w", out, err)
	}

	args := append(append([]string{}, r.runner.Command[1:]...), Args(r.scenario)...)
	cmd := exec.CommandContext(ctx, r.runner.Command[0], args...)
	cmd.Dir = r.runner.WorkDir
	cmd.Stdin = strings.NewReader(strconv.Itoa(r.scenario.NumberOfUes) + "\n")

	logWriter := logger.RunLog.Writer()
	defer logWriter.Close()
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter

	logger.RunLog.Infof("Starting simulator: %s %v (UEs: %d)", r.runner.Command[0], args, r.scenario.NumberOfUes)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("simulator aborted: %w", ctx.Err())
		}
		return "", fmt.Errorf("simulator failed: %w", err)
	}
	logger.RunLog.Infof("Simulator finished in %s", time.Since(start).Round(time.Millisecond))

	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("simulator produced no flow monitor output: %w", err)
	}
	return out, nil
}
