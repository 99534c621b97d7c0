package factory

import (
	"errors"
	"strings"
	"testing"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/model"
)

type closingWriter struct {
	closed bool
}

func (w *closingWriter) Name() string { return "closing" }
func (w *closingWriter) Write(*model.AggregateReport, string) error { return nil }
func (w *closingWriter) Close() error {
	w.closed = true
	return nil
}

var built []*closingWriter

func init() {
	RegisterWriter("test-closing", func(config.WriterDef) (model.ReportWriter, error) {
		w := &closingWriter{}
		built = append(built, w)
		return w, nil
	})
	RegisterWriter("test-failing", func(config.WriterDef) (model.ReportWriter, error) {
		return nil, errors.New("connection refused")
	})
}

func TestCreateWriters(t *testing.T) {
	cfg := &config.Config{Writers: []config.WriterDef{
		{Type: "test-closing", Enabled: true},
		{Type: "test-failing", Enabled: false},
	}}
	writers, err := CreateWriters(cfg)
	if err != nil {
		t.Fatalf("CreateWriters failed: %v", err)
	}
	if len(writers) != 1 || writers[0].Name() != "closing" {
		t.Errorf("Expected only the enabled writer, got %d writers", len(writers))
	}
}

func TestCreateWriters_ClosesBuiltOnError(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want string
	}{
		{"factory error", "test-failing", "connection refused"},
		{"unknown type", "bogus", "unknown writer type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built = nil
			cfg := &config.Config{Writers: []config.WriterDef{
				{Type: "test-closing", Enabled: true},
				{Type: "test-closing", Enabled: true},
				{Type: tt.typ, Enabled: true},
			}}
			writers, err := CreateWriters(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Expected error mentioning %q, got %v", tt.want, err)
			}
			if writers != nil {
				t.Errorf("Expected no writers on error")
			}
			if len(built) != 2 {
				t.Fatalf("Expected 2 writers built, got %d", len(built))
			}
			for i, w := range built {
				if !w.closed {
					t.Errorf("Writer %d was not closed", i)
				}
			}
		})
	}
}
