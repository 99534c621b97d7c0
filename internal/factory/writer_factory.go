package factory

import (
	"fmt"
	"io"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/model"
)

// WriterFactory builds a report writer from its configuration entry.
type WriterFactory func(def config.WriterDef) (model.ReportWriter, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered reports whether a writer type is known.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}

// CreateWriters builds every enabled writer listed in the config.
func CreateWriters(cfg *config.Config) ([]model.ReportWriter, error) {
	var writers []model.ReportWriter

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		logger.CfgLog.Infof("Creating report writer of type '%s'", def.Type)

		factory, ok := registry[def.Type]
		if !ok {
			closeWriters(writers)
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}

		writer, err := factory(def)
		if err != nil {
			closeWriters(writers)
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		writers = append(writers, writer)
	}

	return writers, nil
}

func closeWriters(writers []model.ReportWriter) {
	for _, w := range writers {
		c, ok := w.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			logger.CfgLog.Warnf("Failed to close writer '%s': %v", w.Name(), err)
		}
	}
}
