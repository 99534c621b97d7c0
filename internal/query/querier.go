package query

import (
	"context"
	"errors"
	"fmt"
	"net"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/model"
	"LteFlowReport/internal/snapshot"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ErrNoReport is returned when no report has been stored yet.
var ErrNoReport = errors.New("no report available")

// Querier defines the interface for reading stored reports.
type Querier interface {
	// LatestReport returns the most recent report and its run identifier.
	LatestReport(ctx context.Context) (*model.AggregateReport, string, error)
	Close() error
}

// New builds the querier selected by cfg.API.Source.
func New(ctx context.Context, cfg *config.Config) (Querier, error) {
	switch cfg.API.Source {
	case "gob":
		for _, def := range cfg.Writers {
			if def.Type == "gob" {
				return NewGobQuerier(def.Gob.RootPath), nil
			}
		}
		return nil, fmt.Errorf("api source 'gob' needs a gob writer entry")
	case "clickhouse":
		for _, def := range cfg.Writers {
			if def.Type == "clickhouse" {
				return NewClickHouseQuerier(ctx, def.ClickHouse)
			}
		}
		return nil, fmt.Errorf("api source 'clickhouse' needs a clickhouse writer entry")
	}
	return nil, fmt.Errorf("unknown api source: %s", cfg.API.Source)
}

// gobQuerier reads the newest snapshot from a gob snapshot directory.
type gobQuerier struct {
	rootPath string
}

// NewGobQuerier creates a querier over a gob snapshot root.
func NewGobQuerier(rootPath string) Querier {
	return &gobQuerier{rootPath: rootPath}
}

func (q *gobQuerier) LatestReport(ctx context.Context) (*model.AggregateReport, string, error) {
	report, runID, err := snapshot.LoadLatest(q.rootPath)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil, "", ErrNoReport
	}
	return report, runID, err
}

func (q *gobQuerier) Close() error {
	return nil
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn driver.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(ctx context.Context, cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func (q *clickhouseQuerier) LatestReport(ctx context.Context) (*model.AggregateReport, string, error) {
	var (
		runID                      string
		expected, matched, divisor uint32
		finite, nonFinite          uint32
		report                     model.AggregateReport
	)

	row := q.conn.QueryRow(ctx, `
		SELECT RunID, FilterSourceAddress, ExpectedCount, MatchedCount, DivisorStrategy, Divisor,
		       SumThroughputKbps, SumJitterSeconds, SumLostPackets,
		       MeanThroughputKbps, MeanJitterSeconds, MeanLostPackets,
		       FiniteFlows, NonFiniteFlows, MinKbps, MaxKbps, StdDevKbps, Fairness
		FROM report_summaries
		ORDER BY Timestamp DESC, RunID DESC
		LIMIT 1
	`)
	err := row.Scan(&runID, &report.FilterSourceAddress, &expected, &matched, &report.DivisorStrategy, &divisor,
		&report.SumThroughputKbps, &report.SumJitterSeconds, &report.SumLostPackets,
		&report.MeanThroughputKbps, &report.MeanJitterSeconds, &report.MeanLostPackets,
		&finite, &nonFinite, &report.Spread.MinKbps, &report.Spread.MaxKbps, &report.Spread.StdDevKbps, &report.Spread.Fairness)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoReport, err)
	}
	report.ExpectedCount = int(expected)
	report.MatchedCount = int(matched)
	report.Divisor = int(divisor)
	report.Spread.FiniteFlows = int(finite)
	report.Spread.NonFiniteFlows = int(nonFinite)

	rows, err := q.conn.Query(ctx, `
		SELECT FlowIndex, FlowID, SrcIP, DstIP, SrcPort, DstPort, Protocol, ThroughputKbps, JitterSeconds, LostPackets
		FROM flow_reports
		WHERE RunID = ?
		ORDER BY FlowIndex
	`, runID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			index, id uint32
			src, dst  string
			entry     model.FlowReport
		)
		if err := rows.Scan(&index, &id, &src, &dst, &entry.FiveTuple.SrcPort, &entry.FiveTuple.DstPort,
			&entry.FiveTuple.Protocol, &entry.ThroughputKbps, &entry.JitterSeconds, &entry.LostPackets); err != nil {
			return nil, "", fmt.Errorf("failed to scan flow report: %w", err)
		}
		entry.Index = int(index)
		entry.FlowID = model.FlowID(id)
		entry.FiveTuple.SrcIP = net.ParseIP(src)
		entry.FiveTuple.DstIP = net.ParseIP(dst)
		report.Flows = append(report.Flows, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read flow reports: %w", err)
	}

	return &report, runID, nil
}

func (q *clickhouseQuerier) Close() error {
	return q.conn.Close()
}
