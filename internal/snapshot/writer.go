package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"LteFlowReport/internal/codec"
	"LteFlowReport/internal/config"
	"LteFlowReport/internal/factory"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
)

const (
	reportFileName  = "report.gob"
	summaryFileName = "summary.json"
)

func init() {
	factory.RegisterWriter("gob", func(def config.WriterDef) (model.ReportWriter, error) {
		return NewWriter(def.Gob.RootPath), nil
	})
}

// Writer handles writing report snapshots to disk.
type Writer struct {
	rootPath string
}

// NewWriter creates a new snapshot writer.
func NewWriter(rootPath string) *Writer {
	return &Writer{rootPath: rootPath}
}

// Name implements model.ReportWriter.
func (w *Writer) Name() string {
	return "gob"
}

// Write serializes the report into a timestamped directory: the full report
// as gob and a JSON summary next to it.
func (w *Writer) Write(r *model.AggregateReport, timestamp string) error {
	snapshotDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := writeGob(filepath.Join(snapshotDir, reportFileName), r); err != nil {
		return err
	}

	summary, err := codec.MarshalJSON(r)
	if err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(snapshotDir, summaryFileName), summary, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	logger.ReportLog.Infof("Wrote snapshot with %d flows to %s", len(r.Flows), snapshotDir)
	return nil
}

func writeGob(path string, r *model.AggregateReport) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close snapshot file '%s': %w", path, cerr)
		}
	}()

	if err := gob.NewEncoder(file).Encode(r); err != nil {
		return fmt.Errorf("failed to encode report to gob for file '%s': %w", path, err)
	}
	return nil
}
