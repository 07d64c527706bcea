package calc

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"mlipens/internal/structure"
)

// Stub is a deterministic in-process calculator used for tests and dry
// runs. It produces composition-dependent pseudo energies and
// centroid-directed pseudo forces; no real physics, but stable output for
// identical input.
type Stub struct {
	// Bias is added to every energy, letting tests distinguish models.
	Bias float64
}

// rough per-element reference energies in eV, enough to make different
// compositions produce different stub energies.
var stubElementEnergy = map[string]float64{
	"H": -3.4, "Li": -1.9, "C": -9.2, "N": -8.3, "O": -7.5,
	"F": -1.9, "Na": -1.3, "Mg": -1.6, "Al": -3.7, "Si": -5.4,
	"P": -5.4, "S": -4.1, "Cl": -1.8, "K": -1.1, "Ca": -2.0,
	"Ti": -7.8, "Fe": -8.5, "Ni": -5.8, "Cu": -3.7, "Zn": -1.3,
}

const stubDefaultEnergy = -5.0

func (s *Stub) Calculate(_ context.Context, atoms *structure.Atoms, req Request) (Result, error) {
	if atoms == nil || atoms.Count() == 0 {
		return Result{}, fmt.Errorf("calc: stub: empty structure")
	}
	var out Result
	if req.Energy {
		e := s.Bias
		for _, sym := range atoms.Symbols {
			if v, ok := stubElementEnergy[sym]; ok {
				e += v
			} else {
				e += stubDefaultEnergy
			}
		}
		out.Energy = e
		out.HasEnergy = true
	}
	if req.Forces {
		n := atoms.Count()
		centroid := make([]float64, 3)
		for i := 0; i < n; i++ {
			for j := 0; j < 3; j++ {
				centroid[j] += atoms.Positions.At(i, j) / float64(n)
			}
		}
		f := mat.NewDense(n, 3, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < 3; j++ {
				// pull every atom gently toward the centroid
				f.Set(i, j, 0.01*(centroid[j]-atoms.Positions.At(i, j)))
			}
		}
		out.Forces = f
	}
	return out, nil
}

func (s *Stub) Close() error { return nil }
