package model

// Divisor strategies used when averaging per-flow metrics.
const (
	DivisorExpected = "expected"
	DivisorMatched  = "matched"
)

// FlowReport holds the derived metrics for one matched flow.
type FlowReport struct {
	// Index is the 0-based position of the flow among the matched flows.
	Index          int
	FlowID         FlowID
	FiveTuple      FiveTuple
	ThroughputKbps float64
	JitterSeconds  float64
	LostPackets    uint32
}

// Spread describes how throughput is distributed over the matched flows
// whose throughput is finite.
type Spread struct {
	FiniteFlows    int
	NonFiniteFlows int
	MinKbps        float64
	MaxKbps        float64
	MeanKbps       float64
	StdDevKbps     float64
	// Fairness is Jain's fairness index in (0, 1].
	Fairness float64
}

// AggregateReport is the result of aggregating a flow table.
type AggregateReport struct {
	FilterSourceAddress string
	ExpectedCount       int
	MatchedCount        int
	DivisorStrategy     string
	Divisor             int

	SumThroughputKbps float64
	SumJitterSeconds  float64
	SumLostPackets    float64

	MeanThroughputKbps float64
	MeanJitterSeconds  float64
	MeanLostPackets    float64

	Flows  []FlowReport
	Spread Spread
}
