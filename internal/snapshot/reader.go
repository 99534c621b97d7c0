package snapshot

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"LteFlowReport/internal/model"

	"golang.org/x/exp/slices"
)

// ErrNoSnapshot is returned when the root holds no snapshot.
var ErrNoSnapshot = errors.New("no snapshot found")

// Load decodes the report stored in a single snapshot directory.
func Load(dir string) (*model.AggregateReport, error) {
	file, err := os.Open(filepath.Join(dir, reportFileName))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r model.AggregateReport
	if err := gob.NewDecoder(file).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot in '%s': %w", dir, err)
	}
	return &r, nil
}

// LoadLatest returns the newest snapshot under root together with its run
// identifier (the directory name).
func LoadLatest(root string) (*model.AggregateReport, string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNoSnapshot
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to list snapshots: %w", err)
	}

	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	// Run identifiers are timestamps in a lexically ordered layout.
	slices.Sort(runs)

	for i := len(runs) - 1; i >= 0; i-- {
		r, err := Load(filepath.Join(root, runs[i]))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return r, runs[i], nil
	}
	return nil, "", ErrNoSnapshot
}
