package query

import (
	"context"
	"fmt"

	"LteFlowReport/internal/config"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Schema for the report tables. Both are keyed by RunID, the reporting
// timestamp of the run.
const (
	CreateSummaryTable = `
CREATE TABLE IF NOT EXISTS report_summaries (
    Timestamp           DateTime,
    RunID               String,
    FilterSourceAddress String,
    ExpectedCount       UInt32,
    MatchedCount        UInt32,
    DivisorStrategy     String,
    Divisor             UInt32,
    SumThroughputKbps   Float64,
    SumJitterSeconds    Float64,
    SumLostPackets      Float64,
    MeanThroughputKbps  Float64,
    MeanJitterSeconds   Float64,
    MeanLostPackets     Float64,
    FiniteFlows         UInt32,
    NonFiniteFlows      UInt32,
    MinKbps             Float64,
    MaxKbps             Float64,
    StdDevKbps          Float64,
    Fairness            Float64
) ENGINE = MergeTree()
ORDER BY (Timestamp, RunID);
`

	CreateFlowTable = `
CREATE TABLE IF NOT EXISTS flow_reports (
    Timestamp      DateTime,
    RunID          String,
    FlowIndex      UInt32,
    FlowID         UInt32,
    SrcIP          String,
    DstIP          String,
    SrcPort        UInt16,
    DstPort        UInt16,
    Protocol       UInt8,
    ThroughputKbps Float64,
    JitterSeconds  Float64,
    LostPackets    UInt32
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (RunID, FlowIndex);
`
)

// Connect opens and pings a ClickHouse connection.
func Connect(ctx context.Context, cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}
