// Package calc abstracts the external MLIP runtimes that evaluate raw
// energies and forces. Concrete backends (subprocess runners, in-process
// stubs) satisfy the Calculator interface; everything above this package
// treats the calculator as an opaque, exclusively-owned handle.
package calc

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"mlipens/internal/structure"
)

// Request names the properties a single evaluation should compute.
type Request struct {
	Energy bool
	Forces bool
}

// Result carries the raw (uncorrected) output of one evaluation.
type Result struct {
	// Energy is the raw total energy in eV, valid only when HasEnergy is set.
	Energy    float64
	HasEnergy bool
	// Forces is an N x 3 matrix in eV/Å, nil when not requested.
	Forces *mat.Dense
}

// Calculator evaluates one structure at a time. Calls are blocking and may
// be long-running; implementations must return promptly once ctx is
// canceled. A Calculator is exclusively owned by one model adapter and is
// never shared across concurrent in-flight calls.
type Calculator interface {
	Calculate(ctx context.Context, atoms *structure.Atoms, req Request) (Result, error)
	Close() error
}
