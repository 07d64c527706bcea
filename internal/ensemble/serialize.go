package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"mlipens/pkg/types"
)

// Serialize flattens unified records into JSON-safe plain mappings:
// gonum matrices become nested float slices, scalar wrapper widths are
// normalized, nested mappings are handled recursively. The transformation
// preserves key sets and nesting shape, and is idempotent.
func Serialize(records []types.UnifiedRecord) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		m := map[string]any{
			"index":     rec.Index,
			"structure": rec.Label,
		}
		if rec.TrueEnergy != nil {
			m["true_energy"] = *rec.TrueEnergy
		}
		for name, res := range rec.Models {
			m[name] = resultMap(res)
		}
		out[i] = Normalize(m).(map[string]any)
	}
	return out
}

func resultMap(res types.PredictionResult) map[string]any {
	if res.Failed() {
		return map[string]any{"error": res.Err}
	}
	m := map[string]any{}
	if res.Energy != nil {
		m["energy"] = *res.Energy
	}
	if res.Forces != nil {
		m["forces"] = res.Forces
	}
	return m
}

// Normalize recursively converts a value into one a generic JSON encoder
// can represent. Already-normalized values pass through unchanged, so
// Normalize(Normalize(v)) == Normalize(v).
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case mat.Matrix:
		r, c := x.Dims()
		rows := make([][]float64, r)
		for i := 0; i < r; i++ {
			row := make([]float64, c)
			for j := 0; j < c; j++ {
				row[j] = x.At(i, j)
			}
			rows[i] = row
		}
		return rows
	case float32:
		return float64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Normalize(val)
		}
		return out
	default:
		// ints, float64, strings, bools, plain float slices: already safe.
		return x
	}
}
