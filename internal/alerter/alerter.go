package alerter

import (
	"fmt"
	"strings"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/engine/report"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"

	"github.com/gomarkdown/markdown"
)

// Metrics a rule can be written against.
const (
	MetricThroughput   = "mean_throughput_kbps"
	MetricJitter       = "mean_jitter_seconds"
	MetricLostPackets  = "mean_lost_packets"
	MetricMatchedFlows = "matched_flows"
)

// Alert is a rule that fired for a report.
type Alert struct {
	Rule  config.AlerterRule
	Value float64
}

// Alerter evaluates aggregate reports against predefined rules and triggers
// notifications if rules are violated.
type Alerter struct {
	rules    []config.AlerterRule
	notifier model.Notifier
}

// NewAlerter creates a new Alerter instance. A nil notifier only logs.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier) (*Alerter, error) {
	for _, rule := range cfg.Rules {
		if _, ok := metricValue(&model.AggregateReport{}, rule.Metric); !ok {
			return nil, fmt.Errorf("alerter rule %q: unknown metric %q", rule.Name, rule.Metric)
		}
	}
	return &Alerter{rules: cfg.Rules, notifier: notifier}, nil
}

// Evaluate returns the rules the report violates, in rule order.
func (a *Alerter) Evaluate(r *model.AggregateReport) []Alert {
	var alerts []Alert
	for _, rule := range a.rules {
		value, _ := metricValue(r, rule.Metric)
		if check(value, rule.Threshold, rule.Operator) {
			alerts = append(alerts, Alert{Rule: rule, Value: value})
		}
	}
	return alerts
}

// Run evaluates the report and sends one consolidated notification when any
// rule fired. It returns the alerts that fired.
func (a *Alerter) Run(r *model.AggregateReport, timestamp string) ([]Alert, error) {
	alerts := a.Evaluate(r)
	if len(alerts) == 0 {
		return nil, nil
	}
	logger.AlertLog.Infof("Alerter evaluation completed. %d alert(s) triggered.", len(alerts))

	if a.notifier == nil {
		for _, alert := range alerts {
			logger.AlertLog.Warnf("Alert %s: %s = %s (%s %g)", alert.Rule.Name, alert.Rule.Metric,
				report.FormatGeneral(alert.Value), alert.Rule.Operator, alert.Rule.Threshold)
		}
		return alerts, nil
	}

	subject := fmt.Sprintf("LteFlowReport Alert Summary (%d Triggered)", len(alerts))
	body := string(markdown.ToHTML([]byte(Render(r, alerts, timestamp)), nil, nil))
	if err := a.notifier.Send(subject, body); err != nil {
		return alerts, fmt.Errorf("failed to send alert notification: %w", err)
	}
	logger.AlertLog.Info("Consolidated alert notification sent successfully.")
	return alerts, nil
}

// Render builds the markdown body of an alert notification.
func Render(r *model.AggregateReport, alerts []Alert, timestamp string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# LteFlowReport Alert Summary\n\n")
	fmt.Fprintf(&b, "Report `%s` for source `%s`: %d of %d expected flows matched.\n\n",
		timestamp, r.FilterSourceAddress, r.MatchedCount, r.ExpectedCount)

	for _, alert := range alerts {
		rule := alert.Rule
		fmt.Fprintf(&b, "## Alert: %s\n\n", rule.Name)
		fmt.Fprintf(&b, "- **Metric:** `%s`\n", rule.Metric)
		fmt.Fprintf(&b, "- **Condition:** `%s %g`\n", rule.Operator, rule.Threshold)
		fmt.Fprintf(&b, "- **Value:** `%s`\n\n", report.FormatGeneral(alert.Value))

		metric, ok := flowMetric(rule.Metric)
		if !ok || len(r.Flows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "| Flow | Five-tuple | %s |\n|---|---|---|\n", metric.Tag())
		for _, f := range r.Flows {
			fmt.Fprintf(&b, "| %d | `%s` | %s |\n", f.FlowID, f.FiveTuple, report.FormatFixed(metric.Value(f)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func metricValue(r *model.AggregateReport, metric string) (float64, bool) {
	switch metric {
	case MetricThroughput:
		return r.MeanThroughputKbps, true
	case MetricJitter:
		return r.MeanJitterSeconds, true
	case MetricLostPackets:
		return r.MeanLostPackets, true
	case MetricMatchedFlows:
		return float64(r.MatchedCount), true
	}
	return 0, false
}

func flowMetric(metric string) (report.Metric, bool) {
	switch metric {
	case MetricThroughput:
		return report.Throughput, true
	case MetricJitter:
		return report.Jitter, true
	case MetricLostPackets:
		return report.LostPackets, true
	}
	return 0, false
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		logger.AlertLog.Warnf("Unknown operator '%s' in alerter rule", operator)
		return false
	}
}
