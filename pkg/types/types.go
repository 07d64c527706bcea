package types

import (
	"gonum.org/v1/gonum/mat"
)

// Format identifies which structure representation a model consumes.
type Format int

const (
	// FormatLattice is the lattice-vectors + species + cartesian-coordinates form.
	FormatLattice Format = iota
	// FormatAtoms is the simulation-ready atoms form.
	FormatAtoms
)

func (f Format) String() string {
	switch f {
	case FormatLattice:
		return "lattice"
	case FormatAtoms:
		return "atoms"
	default:
		return "unknown"
	}
}

// PredictionType filters which properties a prediction computes.
// The zero value requests everything.
type PredictionType string

const (
	PredictAll    PredictionType = ""
	PredictEnergy PredictionType = "energy"
	PredictForce  PredictionType = "force"
)

// WantsEnergy reports whether the filter includes total energy.
func (p PredictionType) WantsEnergy() bool { return p == PredictAll || p == PredictEnergy }

// WantsForces reports whether the filter includes per-atom forces.
func (p PredictionType) WantsForces() bool { return p == PredictAll || p == PredictForce }

// ModelConfig is one entry of the ordered ensemble configuration.
// Params are model-specific and validated only by the model's factory;
// unrecognized keys are passed through, not rejected.
type ModelConfig struct {
	Name   string         `json:"name" yaml:"name" toml:"name"`
	Params map[string]any `json:"params,omitempty" yaml:"params" toml:"params"`
}

// PredictionResult is the outcome of one model on one structure.
// Energy/Forces and Err are mutually exclusive: a failed prediction carries
// only the error message, a successful one only the requested properties.
type PredictionResult struct {
	// Energy is the corrected total energy in eV, nil when not requested or failed.
	Energy *float64
	// Forces is an N x 3 matrix of per-atom forces in eV/Å, nil when not requested or failed.
	Forces *mat.Dense
	// Err is the failure message for this model on this structure.
	Err string
}

// Failed reports whether the prediction ended in an error entry.
func (r PredictionResult) Failed() bool { return r.Err != "" }

// ErrorResult builds the error variant of a PredictionResult.
func ErrorResult(err error) PredictionResult { return PredictionResult{Err: err.Error()} }

// UnifiedRecord is one row of ensemble output: every configured model's
// result for a single input structure. Immutable after creation.
type UnifiedRecord struct {
	// Index is the position in the input batch.
	Index int
	// Label is a human-readable structure tag (reduced chemical formula).
	Label string
	// Models maps model name to that model's result. Every configured model
	// name is present, error or success.
	Models map[string]PredictionResult
	// TrueEnergy carries the dataset ground truth when the input was labeled.
	TrueEnergy *float64
}
