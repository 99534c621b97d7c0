package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"LteFlowReport/internal/alerter"
	"LteFlowReport/internal/config"
	"LteFlowReport/internal/engine/flowstats"
	"LteFlowReport/internal/engine/report" // Registers the text and clickhouse writers
	"LteFlowReport/internal/factory"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
	"LteFlowReport/internal/notification"
	"LteFlowReport/internal/probe"
	_ "LteFlowReport/internal/snapshot" // Registers the gob writer
)

// Publisher sends a finished report to subscribers.
type Publisher interface {
	Publish(r *model.AggregateReport, timestamp string) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithOutput sets where the summary lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(m *Manager) { m.out = w }
}

// WithNotifier overrides the notifier built from the SMTP settings.
func WithNotifier(n model.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithPublisher overrides the NATS publisher.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithClock sets the clock report timestamps are taken from.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager runs the reporting phase: aggregation, console summary, writers,
// alerts and publishing.
type Manager struct {
	aggregator *flowstats.Aggregator
	writers    []model.ReportWriter
	alerter    *alerter.Alerter
	notifier   model.Notifier
	publisher  Publisher
	out        io.Writer
	now        func() time.Time
}

// NewManager creates a new Manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	filter := net.ParseIP(cfg.Aggregator.FilterSourceAddress)
	agg, err := flowstats.New(filter, cfg.ExpectedCount(), cfg.Aggregator.Divisor)
	if err != nil {
		return nil, fmt.Errorf("invalid aggregator settings: %w", err)
	}

	m := &Manager{aggregator: agg, out: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	writers, err := factory.CreateWriters(cfg)
	if err != nil {
		return nil, err
	}
	m.writers = writers

	if cfg.Alerter.Enabled {
		if m.notifier == nil && cfg.SMTP.Host != "" {
			n, err := notification.NewEmailNotifier(cfg.SMTP)
			if err != nil {
				m.closeWriters()
				return nil, fmt.Errorf("failed to create email notifier: %w", err)
			}
			m.notifier = n
		}
		if m.notifier == nil {
			logger.AlertLog.Warn("Alerter is enabled in config, but no notifiers are configured. Alerts will only be logged.")
		}
		m.alerter, err = alerter.NewAlerter(&cfg.Alerter, m.notifier)
		if err != nil {
			m.closeWriters()
			return nil, fmt.Errorf("failed to create alerter: %w", err)
		}
		logger.AlertLog.Infof("Alerter enabled with %d rule(s).", len(cfg.Alerter.Rules))
	}

	if cfg.Probe.Enabled && m.publisher == nil {
		pub, err := probe.NewPublisher(cfg.Probe)
		if err != nil {
			m.closeWriters()
			return nil, err
		}
		m.publisher = pub
	}

	return m, nil
}

// Process aggregates a finished run and fans the report out. A classifier
// mismatch aborts before anything is printed or written. Writer, alert and
// publish failures are joined into the returned error alongside the report.
func (m *Manager) Process(ctx context.Context, result model.SimulationResult) (*model.AggregateReport, error) {
	r, err := m.aggregator.Aggregate(result)
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}
	if r.MatchedCount != r.ExpectedCount {
		logger.AggLog.Warnf("Matched %d flows from %s, expected %d; means are divided by %d",
			r.MatchedCount, r.FilterSourceAddress, r.ExpectedCount, r.Divisor)
	}

	if err := report.WriteSummary(m.out, r); err != nil {
		return r, fmt.Errorf("failed to print summary: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return r, err
	}

	timestamp := m.now().Format(report.TimestampLayout)
	var errs []error
	if err := m.runWriters(r, timestamp); err != nil {
		errs = append(errs, err)
	}

	if m.alerter != nil {
		if _, err := m.alerter.Run(r, timestamp); err != nil {
			logger.AlertLog.Errorf("%v", err)
			errs = append(errs, err)
		}
	}

	if m.publisher != nil {
		if err := m.publisher.Publish(r, timestamp); err != nil {
			logger.ProbeLog.Errorf("Failed to publish report: %v", err)
			errs = append(errs, fmt.Errorf("publish: %w", err))
		} else {
			logger.ProbeLog.Infof("Published report %s", timestamp)
		}
	}

	return r, errors.Join(errs...)
}

// runWriters runs every writer concurrently. One failing writer does not stop
// the others.
func (m *Manager) runWriters(r *model.AggregateReport, timestamp string) error {
	errs := make([]error, len(m.writers))
	var wg sync.WaitGroup
	wg.Add(len(m.writers))
	for i, w := range m.writers {
		go func(i int, w model.ReportWriter) {
			defer wg.Done()
			if err := w.Write(r, timestamp); err != nil {
				logger.ReportLog.Errorf("Error writing report with %s writer: %v", w.Name(), err)
				errs[i] = fmt.Errorf("%s writer: %w", w.Name(), err)
				return
			}
			logger.ReportLog.Infof("Report %s written by %s writer", timestamp, w.Name())
		}(i, w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Close releases writers and the publisher.
func (m *Manager) Close() error {
	err := m.closeWriters()
	if c, ok := m.publisher.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (m *Manager) closeWriters() error {
	var errs []error
	for _, w := range m.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s writer: %w", w.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
