// Package output persists unified ensemble records as a CSV table and as
// pretty-printed JSON. Both writers create parent directories on demand and
// tag the result set with a run identifier.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mlipens/internal/common/fsutil"
	"mlipens/internal/ensemble"
	"mlipens/pkg/types"
)

// WriteCSV writes one row per record: index, structure label, one energy
// column per model in configured order, then the ground-truth energy when
// any record carries one. A failed model prediction puts its error message
// in the cell, so a partially-erroring batch still yields a full table.
func WriteCSV(path string, records []types.UnifiedRecord, modelNames []string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)

	withTruth := false
	for _, rec := range records {
		if rec.TrueEnergy != nil {
			withTruth = true
			break
		}
	}

	header := append([]string{"index", "structure"}, modelNames...)
	if withTruth {
		header = append(header, "true_energy")
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("output: write header: %w", err)
	}

	for _, rec := range records {
		row := []string{strconv.Itoa(rec.Index), rec.Label}
		for _, name := range modelNames {
			row = append(row, energyCell(rec.Models[name]))
		}
		if withTruth {
			cell := ""
			if rec.TrueEnergy != nil {
				cell = formatFloat(*rec.TrueEnergy)
			}
			row = append(row, cell)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("output: write row %d: %w", rec.Index, err)
		}
	}
	w.Flush()
	return w.Error()
}

func energyCell(res types.PredictionResult) string {
	switch {
	case res.Failed():
		return "ERROR: " + res.Err
	case res.Energy != nil:
		return formatFloat(*res.Energy)
	default:
		return ""
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// resultSet is the JSON document shape.
type resultSet struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Models    []string         `json:"models"`
	Results   []map[string]any `json:"results"`
}

// WriteJSON serializes the records into JSON-safe mappings and writes them
// pretty-printed, wrapped with run metadata.
func WriteJSON(path string, records []types.UnifiedRecord, modelNames []string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	doc := resultSet{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Models:    modelNames,
		Results:   ensemble.Serialize(records),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("output: create dir %s: %w", dir, err)
	}
	return nil
}
