package report

import (
	"context"
	"fmt"
	"time"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/factory"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
	"LteFlowReport/internal/query"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// TimestampLayout is the run identifier format shared by all writers.
const TimestampLayout = "2006-01-02_15-04-05"

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef) (model.ReportWriter, error) {
		return NewClickHouseWriter(def.ClickHouse)
	})
}

// ClickHouseWriter stores reports in the report_summaries and flow_reports tables.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := query.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	for _, stmt := range []string{query.CreateSummaryTable, query.CreateFlowTable} {
		if err := conn.Exec(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	logger.ReportLog.Info("Connected to ClickHouse and ensured report tables exist.")

	return &ClickHouseWriter{conn: conn}, nil
}

// Name implements model.ReportWriter.
func (w *ClickHouseWriter) Name() string {
	return "clickhouse"
}

// Write implements model.ReportWriter.
func (w *ClickHouseWriter) Write(r *model.AggregateReport, timestamp string) error {
	ctx := context.Background()
	runTime, err := time.ParseInLocation(TimestampLayout, timestamp, time.Local)
	if err != nil {
		runTime = time.Now()
	}

	if len(r.Flows) > 0 {
		batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO flow_reports")
		if err != nil {
			return fmt.Errorf("%w: failed to prepare batch: %v", ErrOutputSink, err)
		}
		for _, f := range r.Flows {
			err := batch.Append(
				runTime,
				timestamp,
				uint32(f.Index),
				uint32(f.FlowID),
				f.FiveTuple.SrcIP.String(),
				f.FiveTuple.DstIP.String(),
				f.FiveTuple.SrcPort,
				f.FiveTuple.DstPort,
				f.FiveTuple.Protocol,
				f.ThroughputKbps,
				f.JitterSeconds,
				f.LostPackets,
			)
			if err != nil {
				return fmt.Errorf("%w: failed to append flow to batch: %v", ErrOutputSink, err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("%w: failed to send batch: %v", ErrOutputSink, err)
		}
	}

	summary, err := w.conn.PrepareBatch(ctx, "INSERT INTO report_summaries")
	if err != nil {
		return fmt.Errorf("%w: failed to prepare batch: %v", ErrOutputSink, err)
	}
	err = summary.Append(
		runTime,
		timestamp,
		r.FilterSourceAddress,
		uint32(r.ExpectedCount),
		uint32(r.MatchedCount),
		r.DivisorStrategy,
		uint32(r.Divisor),
		r.SumThroughputKbps,
		r.SumJitterSeconds,
		r.SumLostPackets,
		r.MeanThroughputKbps,
		r.MeanJitterSeconds,
		r.MeanLostPackets,
		uint32(r.Spread.FiniteFlows),
		uint32(r.Spread.NonFiniteFlows),
		r.Spread.MinKbps,
		r.Spread.MaxKbps,
		r.Spread.StdDevKbps,
		r.Spread.Fairness,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to append summary: %v", ErrOutputSink, err)
	}
	if err := summary.Send(); err != nil {
		return fmt.Errorf("%w: failed to send summary: %v", ErrOutputSink, err)
	}

	logger.ReportLog.Infof("Wrote %d flow reports to ClickHouse for run '%s'", len(r.Flows), timestamp)
	return nil
}

// Close releases the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
