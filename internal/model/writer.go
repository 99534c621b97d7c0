package model

// ReportWriter defines a generic interface for persisting an aggregate report.
type ReportWriter interface {
	// Name returns the writer type, e.g. "text" or "gob".
	Name() string

	// Write persists the report. The timestamp identifies the reporting run.
	Write(report *AggregateReport, timestamp string) error
}
