package ensemble

import (
	"encoding/json"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"mlipens/pkg/types"
)

func sampleRecords(t *testing.T) []types.UnifiedRecord {
	t.Helper()
	e := -14.3
	truth := -14.1
	return []types.UnifiedRecord{
		{
			Index: 0,
			Label: "H2O",
			Models: map[string]types.PredictionResult{
				"good": {Energy: &e, Forces: mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})},
				"bad":  {Err: "weights diverged"},
			},
			TrueEnergy: &truth,
		},
		{
			Index:  1,
			Label:  "ClNa",
			Models: map[string]types.PredictionResult{"good": {Energy: &e}},
		},
	}
}

func TestSerializeShape(t *testing.T) {
	out := Serialize(sampleRecords(t))
	if len(out) != 2 {
		t.Fatalf("got %d rows, want 2", len(out))
	}

	first := out[0]
	if first["index"] != 0 || first["structure"] != "H2O" {
		t.Fatalf("row identity fields wrong: %v", first)
	}
	if first["true_energy"] != -14.1 {
		t.Fatalf("true_energy = %v", first["true_energy"])
	}
	good, ok := first["good"].(map[string]any)
	if !ok {
		t.Fatalf("good entry is %T", first["good"])
	}
	if good["energy"] != -14.3 {
		t.Fatalf("energy = %v", good["energy"])
	}
	forces, ok := good["forces"].([][]float64)
	if !ok {
		t.Fatalf("forces entry is %T, want [][]float64", good["forces"])
	}
	if len(forces) != 2 || forces[1][2] != 6 {
		t.Fatalf("forces values wrong: %v", forces)
	}
	bad, ok := first["bad"].(map[string]any)
	if !ok || bad["error"] != "weights diverged" {
		t.Fatalf("error entry wrong: %v", first["bad"])
	}
	if _, ok := bad["energy"]; ok {
		t.Fatalf("error entry should carry only the error message")
	}

	if _, ok := out[1]["true_energy"]; ok {
		t.Fatalf("unlabeled row should have no true_energy key")
	}
}

func TestSerializeIsJSONEncodable(t *testing.T) {
	out := Serialize(sampleRecords(t))
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("serialized rows are not JSON-encodable: %v", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	v := map[string]any{
		"matrix": mat.NewDense(1, 3, []float64{1, 2, 3}),
		"narrow": float32(1.5),
		"wide":   uint8(7),
		"nested": []any{map[string]any{"x": int32(-4)}},
		"plain":  "label",
	}
	once := Normalize(v)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Normalize is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestNormalizeConversions(t *testing.T) {
	if got := Normalize(float32(2.5)); got != float64(2.5) {
		t.Fatalf("float32 -> %T %v", got, got)
	}
	if got := Normalize(uint64(9)); got != int64(9) {
		t.Fatalf("uint64 -> %T %v", got, got)
	}
	if got := Normalize(nil); got != nil {
		t.Fatalf("nil -> %v", got)
	}
	rows, ok := Normalize(mat.NewDense(2, 2, []float64{1, 2, 3, 4})).([][]float64)
	if !ok || rows[1][0] != 3 {
		t.Fatalf("matrix conversion wrong: %v", rows)
	}
	// unknown-but-safe values pass through untouched
	s := []float64{1, 2}
	if got := Normalize(s); !reflect.DeepEqual(got, s) {
		t.Fatalf("plain slice changed: %v", got)
	}
}
