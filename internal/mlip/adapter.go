// Package mlip wraps pretrained interatomic-potential runtimes behind a
// uniform adapter contract: every model declares which structure
// representation it requires, and exposes single and batch prediction with
// per-item failure containment.
package mlip

import (
	"context"

	"mlipens/internal/calc"
	"mlipens/internal/correction"
	"mlipens/internal/structure"
	"mlipens/pkg/types"
)

// Adapter is a configured, stateful handle to one pretrained potential.
// The calculator is loaded once at construction and owned exclusively by
// the adapter; the required input format is fixed for its lifetime.
type Adapter struct {
	name    string
	format  types.Format
	calc    calc.Calculator
	correct bool
}

// NewAdapter builds an adapter over an already-loaded calculator.
// Energy correction is enabled by default.
func NewAdapter(name string, format types.Format, c calc.Calculator) *Adapter {
	return &Adapter{name: name, format: format, calc: c, correct: true}
}

// Name returns the model's unique identifier within an ensemble run.
func (a *Adapter) Name() string { return a.name }

// RequiredFormat returns the structure representation this model consumes.
func (a *Adapter) RequiredFormat() types.Format { return a.format }

// SetCorrection toggles the post-hoc energy correction. Datasets whose
// reference energies are already corrected should disable it.
func (a *Adapter) SetCorrection(enabled bool) { a.correct = enabled }

// Close releases the underlying calculator.
func (a *Adapter) Close() error { return a.calc.Close() }

// Predict evaluates one structure, already in the adapter's required
// format. When energy is requested the raw calculator energy is passed
// through the correction scheme against a lattice-form view derived from
// the structure being predicted; forces are returned uncorrected. Any
// internal failure is wrapped as a PredictionError carrying the model name.
func (a *Adapter) Predict(ctx context.Context, form structure.Form, ptype types.PredictionType) (types.PredictionResult, error) {
	atoms, err := form.AsAtoms()
	if err != nil {
		return types.PredictionResult{}, ErrPrediction(a.name, err)
	}
	req := calc.Request{Energy: ptype.WantsEnergy(), Forces: ptype.WantsForces()}
	res, err := a.calc.Calculate(ctx, atoms, req)
	if err != nil {
		return types.PredictionResult{}, ErrPrediction(a.name, err)
	}

	var out types.PredictionResult
	if req.Energy {
		if !res.HasEnergy {
			return types.PredictionResult{}, ErrPrediction(a.name, errNoEnergy)
		}
		energy := res.Energy
		if a.correct {
			lat, err := form.AsLattice()
			if err != nil {
				return types.PredictionResult{}, ErrPrediction(a.name, err)
			}
			energy = correction.Correct(energy, lat)
		}
		out.Energy = &energy
	}
	if req.Forces {
		if res.Forces == nil {
			return types.PredictionResult{}, ErrPrediction(a.name, errNoForces)
		}
		out.Forces = res.Forces
	}
	return out, nil
}

// PredictBatch evaluates structures independently and in order. A failure
// on one structure becomes that entry's error result and never aborts the
// remaining items.
func (a *Adapter) PredictBatch(ctx context.Context, forms []structure.Form, ptype types.PredictionType) []types.PredictionResult {
	out := make([]types.PredictionResult, len(forms))
	for i, form := range forms {
		res, err := a.Predict(ctx, form, ptype)
		if err != nil {
			out[i] = types.ErrorResult(err)
			continue
		}
		out[i] = res
	}
	return out
}
