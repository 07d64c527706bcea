// Package calibrate fits a linear correction over ensemble predictions:
// reference energy as a weighted sum of per-model energies plus an
// intercept. Rows where any model failed are skipped, not imputed.
package calibrate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"mlipens/pkg/types"
)

// Kind selects the solver.
type Kind string

const (
	// Linear is ordinary least squares.
	Linear Kind = "linear"
	// Ridge adds an L2 penalty on the model weights (not the intercept),
	// standing in for a Bayesian shrinkage prior.
	Ridge Kind = "ridge"
)

// DefaultLambda is the ridge penalty used when none is configured.
const DefaultLambda = 1e-3

// Model is a fitted calibration.
type Model struct {
	// ModelNames gives the column order of Weights.
	ModelNames []string  `json:"model_names"`
	Weights    []float64 `json:"weights"`
	Intercept  float64   `json:"intercept"`

	RMSE     float64 `json:"rmse"`
	RSquared float64 `json:"r_squared"`
	// Rows is the number of fully-successful labeled rows used for the fit;
	// Skipped counts rows dropped for missing labels or model errors.
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// Fit solves for weights and intercept over the given records. Only rows
// carrying a ground-truth energy and a successful energy from every named
// model participate.
func Fit(records []types.UnifiedRecord, modelNames []string, kind Kind, lambda float64) (*Model, error) {
	if len(modelNames) == 0 {
		return nil, fmt.Errorf("calibrate: no model columns given")
	}
	var rows [][]float64
	var targets []float64
	skipped := 0
	for _, rec := range records {
		row, ok := featureRow(rec, modelNames)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
		targets = append(targets, *rec.TrueEnergy)
	}
	k := len(modelNames)
	if len(rows) <= k {
		return nil, fmt.Errorf("calibrate: %d usable rows for %d coefficients (skipped %d)", len(rows), k+1, skipped)
	}

	n := len(rows)
	x := mat.NewDense(n, k+1, nil)
	y := mat.NewVecDense(n, targets)
	for i, row := range rows {
		x.SetRow(i, append(append([]float64(nil), row...), 1)) // trailing intercept column
	}

	theta, err := solve(x, y, kind, lambda)
	if err != nil {
		return nil, err
	}

	m := &Model{
		ModelNames: append([]string(nil), modelNames...),
		Weights:    theta[:k],
		Intercept:  theta[k],
		Rows:       n,
		Skipped:    skipped,
	}

	pred := make([]float64, n)
	sumSq := 0.0
	for i, row := range rows {
		p := m.Intercept
		for j, v := range row {
			p += m.Weights[j] * v
		}
		pred[i] = p
		d := p - targets[i]
		sumSq += d * d
	}
	m.RMSE = math.Sqrt(sumSq / float64(n))
	m.RSquared = stat.RSquaredFrom(pred, targets, nil)
	return m, nil
}

func solve(x *mat.Dense, y *mat.VecDense, kind Kind, lambda float64) ([]float64, error) {
	_, cols := x.Dims()
	var theta mat.VecDense
	switch kind {
	case Linear, "":
		if err := theta.SolveVec(x, y); err != nil {
			return nil, fmt.Errorf("calibrate: least squares: %w", err)
		}
	case Ridge:
		if lambda <= 0 {
			lambda = DefaultLambda
		}
		var xtx mat.Dense
		xtx.Mul(x.T(), x)
		for j := 0; j < cols-1; j++ { // leave the intercept unpenalized
			xtx.Set(j, j, xtx.At(j, j)+lambda)
		}
		var xty mat.VecDense
		xty.MulVec(x.T(), y)
		if err := theta.SolveVec(&xtx, &xty); err != nil {
			return nil, fmt.Errorf("calibrate: ridge solve: %w", err)
		}
	default:
		return nil, fmt.Errorf("calibrate: unsupported kind %q", kind)
	}
	out := make([]float64, cols)
	for i := range out {
		out[i] = theta.AtVec(i)
	}
	return out, nil
}

// Apply evaluates the calibration for one prediction row. Every fitted
// model must be present.
func (m *Model) Apply(energies map[string]float64) (float64, error) {
	p := m.Intercept
	for i, name := range m.ModelNames {
		v, ok := energies[name]
		if !ok {
			return 0, fmt.Errorf("calibrate: missing energy for model %s", name)
		}
		p += m.Weights[i] * v
	}
	return p, nil
}

func featureRow(rec types.UnifiedRecord, modelNames []string) ([]float64, bool) {
	if rec.TrueEnergy == nil {
		return nil, false
	}
	row := make([]float64, len(modelNames))
	for i, name := range modelNames {
		res, ok := rec.Models[name]
		if !ok || res.Failed() || res.Energy == nil {
			return nil, false
		}
		row[i] = *res.Energy
	}
	return row, true
}
