package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/factory"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
)

// ErrOutputSink marks a report that could not be persisted. The report itself
// is unaffected.
var ErrOutputSink = errors.New("output sink failure")

func init() {
	factory.RegisterWriter("text", func(def config.WriterDef) (model.ReportWriter, error) {
		return NewTextWriter(def.Text), nil
	})
}

// TextWriter writes the throughput, jitter and loss listings to three files.
type TextWriter struct {
	rootPath string
	files    map[Metric]string
}

// NewTextWriter creates a new text writer.
func NewTextWriter(cfg config.TextWriterConfig) *TextWriter {
	return &TextWriter{
		rootPath: cfg.RootPath,
		files: map[Metric]string{
			Throughput:  cfg.ThroughputFile,
			Jitter:      cfg.JitterFile,
			LostPackets: cfg.LostPacketsFile,
		},
	}
}

// Name implements model.ReportWriter.
func (w *TextWriter) Name() string {
	return "text"
}

// Write implements model.ReportWriter. Each listing holds ExpectedCount
// entries, or more when more flows matched.
func (w *TextWriter) Write(r *model.AggregateReport, timestamp string) error {
	if err := os.MkdirAll(w.rootPath, 0755); err != nil {
		return fmt.Errorf("%w: failed to create report directory: %v", ErrOutputSink, err)
	}

	if n := Dropped(r.Flows, r.ExpectedCount); n > 0 {
		logger.ReportLog.Warnf("%d matched flows past expected count %d are left out of the listings", n, r.ExpectedCount)
	}

	var errs []error
	for _, metric := range Metrics {
		path := filepath.Join(w.rootPath, w.files[metric])
		if err := writeListingFile(path, r, metric); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.ReportLog.Debugf("Wrote %s listing to %s", metric, path)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.ReportLog.Infof("Wrote %d flow entries per listing to %s (run %s)", r.ExpectedCount, w.rootPath, timestamp)
	return nil
}

func writeListingFile(path string, r *model.AggregateReport, metric Metric) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create listing file '%s': %v", ErrOutputSink, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close listing file '%s': %v", ErrOutputSink, path, cerr)
		}
	}()

	if err := WriteListing(file, r.Flows, metric, r.ExpectedCount); err != nil {
		return fmt.Errorf("%w: failed to write listing file '%s': %v", ErrOutputSink, path, err)
	}
	return nil
}
