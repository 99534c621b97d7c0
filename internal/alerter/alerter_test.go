package alerter

import (
	"errors"
	"strings"
	"testing"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/model"
)

type fakeNotifier struct {
	subject string
	body    string
	calls   int
	err     error
}

func (n *fakeNotifier) Send(subject, body string) error {
	n.calls++
	n.subject = subject
	n.body = body
	return n.err
}

func testReport() *model.AggregateReport {
	return &model.AggregateReport{
		FilterSourceAddress: "1.0.0.2",
		ExpectedCount:       5,
		MatchedCount:        2,
		MeanThroughputKbps:  240,
		MeanJitterSeconds:   0.004,
		MeanLostPackets:     1.2,
		Flows: []model.FlowReport{
			{Index: 0, FlowID: 1, ThroughputKbps: 800, JitterSeconds: 0.01, LostPackets: 5},
			{Index: 1, FlowID: 3, ThroughputKbps: 400, JitterSeconds: 0.01, LostPackets: 1},
		},
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		value, threshold float64
		op               string
		want             bool
	}{
		{10, 5, ">", true},
		{5, 5, ">", false},
		{5, 5, ">=", true},
		{4, 5, "<", true},
		{5, 5, "<=", true},
		{5, 5, "=", true},
		{6, 5, "=", false},
		{6, 5, "!=", false},
	}
	for _, tt := range tests {
		if got := check(tt.value, tt.threshold, tt.op); got != tt.want {
			t.Errorf("check(%v %s %v) = %v, want %v", tt.value, tt.op, tt.threshold, got, tt.want)
		}
	}
}

func TestNewAlerter_UnknownMetric(t *testing.T) {
	cfg := &config.AlerterConfig{Rules: []config.AlerterRule{{Name: "bad", Metric: "p99_latency", Operator: ">"}}}
	if _, err := NewAlerter(cfg, nil); err == nil {
		t.Errorf("Expected an error for an unknown metric")
	}
}

func TestEvaluate(t *testing.T) {
	cfg := &config.AlerterConfig{Rules: []config.AlerterRule{
		{Name: "low-throughput", Metric: MetricThroughput, Operator: "<", Threshold: 500},
		{Name: "high-jitter", Metric: MetricJitter, Operator: ">", Threshold: 0.1},
		{Name: "missing-flows", Metric: MetricMatchedFlows, Operator: "<", Threshold: 5},
	}}
	a, err := NewAlerter(cfg, nil)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}

	alerts := a.Evaluate(testReport())
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Rule.Name != "low-throughput" || alerts[0].Value != 240 {
		t.Errorf("Unexpected first alert: %+v", alerts[0])
	}
	if alerts[1].Rule.Name != "missing-flows" || alerts[1].Value != 2 {
		t.Errorf("Unexpected second alert: %+v", alerts[1])
	}
}

func TestRun_SendsHTML(t *testing.T) {
	cfg := &config.AlerterConfig{Rules: []config.AlerterRule{
		{Name: "lossy", Metric: MetricLostPackets, Operator: ">=", Threshold: 1},
	}}
	n := &fakeNotifier{}
	a, err := NewAlerter(cfg, n)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}

	alerts, err := a.Run(testReport(), "2024-01-01_00-00-00")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(alerts) != 1 || n.calls != 1 {
		t.Fatalf("Expected one alert and one notification, got %d and %d", len(alerts), n.calls)
	}
	if !strings.Contains(n.subject, "1 Triggered") {
		t.Errorf("Unexpected subject %q", n.subject)
	}
	for _, want := range []string{"<h2", "Alert: lossy", "<table>", "lostPackets", "5.000000"} {
		if !strings.Contains(n.body, want) {
			t.Errorf("Body is missing %q:\n%s", want, n.body)
		}
	}
}

func TestRun_Quiet(t *testing.T) {
	cfg := &config.AlerterConfig{Rules: []config.AlerterRule{
		{Name: "never", Metric: MetricThroughput, Operator: ">", Threshold: 1e9},
	}}
	n := &fakeNotifier{}
	a, _ := NewAlerter(cfg, n)
	alerts, err := a.Run(testReport(), "ts")
	if err != nil || alerts != nil || n.calls != 0 {
		t.Errorf("Expected no alerts and no notification, got %v, %v, %d calls", alerts, err, n.calls)
	}
}

func TestRun_NotifierFailure(t *testing.T) {
	cfg := &config.AlerterConfig{Rules: []config.AlerterRule{
		{Name: "any", Metric: MetricMatchedFlows, Operator: ">", Threshold: 0},
	}}
	sendErr := errors.New("connection refused")
	a, _ := NewAlerter(cfg, &fakeNotifier{err: sendErr})
	if _, err := a.Run(testReport(), "ts"); !errors.Is(err, sendErr) {
		t.Errorf("Expected the send error to be wrapped, got %v", err)
	}
}
