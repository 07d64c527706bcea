package structure

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"mlipens/pkg/types"
)

// helper: a small periodic water-like structure in atoms form
func testAtoms(t *testing.T) *Atoms {
	t.Helper()
	return &Atoms{
		Symbols: []string{"O", "H", "H"},
		Positions: mat.NewDense(3, 3, []float64{
			0, 0, 0,
			0.757, 0.586, 0,
			-0.757, 0.586, 0,
		}),
		Cell: mat.NewDense(3, 3, []float64{
			10, 0, 0,
			0, 10, 0,
			0, 0, 10,
		}),
	}
}

func TestRoundTripLosslessness(t *testing.T) {
	a := testAtoms(t)
	l, err := ToLattice(a)
	if err != nil {
		t.Fatalf("ToLattice: %v", err)
	}
	back, err := ToAtoms(l)
	if err != nil {
		t.Fatalf("ToAtoms: %v", err)
	}
	if len(back.Symbols) != len(a.Symbols) {
		t.Fatalf("atom count changed: %d -> %d", len(a.Symbols), len(back.Symbols))
	}
	for i, s := range a.Symbols {
		if back.Symbols[i] != s {
			t.Fatalf("species order changed at %d: %s -> %s", i, s, back.Symbols[i])
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if d := math.Abs(back.Positions.At(i, j) - a.Positions.At(i, j)); d > 1e-6 {
				t.Fatalf("coordinate (%d,%d) drifted by %g", i, j, d)
			}
			if d := math.Abs(back.Cell.At(i, j) - a.Cell.At(i, j)); d > 1e-6 {
				t.Fatalf("cell (%d,%d) drifted by %g", i, j, d)
			}
		}
	}
}

func TestConversionIsACopy(t *testing.T) {
	a := testAtoms(t)
	l, err := ToLattice(a)
	if err != nil {
		t.Fatalf("ToLattice: %v", err)
	}
	l.Coords.Set(0, 0, 99)
	l.Species[0] = "Xx"
	if a.Positions.At(0, 0) == 99 || a.Symbols[0] == "Xx" {
		t.Fatalf("conversion output aliases the input")
	}
}

func TestConversionErrors(t *testing.T) {
	cases := map[string]*Atoms{
		"nil cell":       {Symbols: []string{"H"}, Positions: mat.NewDense(1, 3, nil)},
		"empty species":  {Cell: mat.NewDense(3, 3, nil), Positions: mat.NewDense(1, 3, nil)},
		"nil coords":     {Symbols: []string{"H"}, Cell: mat.NewDense(3, 3, nil)},
		"count mismatch": {Symbols: []string{"H", "O"}, Cell: mat.NewDense(3, 3, nil), Positions: mat.NewDense(1, 3, nil)},
	}
	for name, a := range cases {
		if _, err := ToLattice(a); err == nil {
			t.Errorf("%s: expected conversion error", name)
		} else if !IsConversionError(err) {
			t.Errorf("%s: expected IsConversionError, got %v", name, err)
		}
	}
	if _, err := ToAtoms(nil); !IsConversionError(err) {
		t.Errorf("nil lattice: expected conversion error, got %v", err)
	}
}

func TestReducedFormula(t *testing.T) {
	cases := []struct {
		symbols []string
		want    string
	}{
		{[]string{"O", "H", "H"}, "H2O"},
		{[]string{"Fe", "Fe", "O", "O", "O", "O"}, "FeO2"},
		{[]string{"Na", "Cl"}, "ClNa"},
		{[]string{"Si", "Si"}, "Si"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := ReducedFormula(c.symbols); got != c.want {
			t.Errorf("ReducedFormula(%v) = %q, want %q", c.symbols, got, c.want)
		}
	}
}

func TestRecordRepresentation(t *testing.T) {
	rec := FromAtoms(testAtoms(t))
	if rec.Lattice == nil {
		t.Fatalf("expected derived lattice form")
	}
	if rec.Representation(types.FormatAtoms) == nil {
		t.Fatalf("atoms form missing")
	}
	if rec.Representation(types.FormatLattice) == nil {
		t.Fatalf("lattice form missing")
	}
	if rec.Label() != "H2O" {
		t.Fatalf("label = %q, want H2O", rec.Label())
	}

	// no cell: atoms form only, lattice not derivable
	bare := FromAtoms(&Atoms{Symbols: []string{"H"}, Positions: mat.NewDense(1, 3, nil)})
	if bare.Lattice != nil {
		t.Fatalf("lattice should not be derivable without a cell")
	}
	if bare.Representation(types.FormatLattice) != nil {
		t.Fatalf("missing representation should be nil")
	}
}
