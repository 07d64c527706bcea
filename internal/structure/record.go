package structure

import (
	"gonum.org/v1/gonum/mat"

	"mlipens/pkg/types"
)

// Record is the canonical input unit: one physical structure carrying at
// least one of the two representations, plus optional ground-truth labels
// when drawn from a labeled dataset. Records are immutable once built.
type Record struct {
	// Path is the source file, when the record was parsed from disk.
	Path string

	Lattice *Lattice
	Atoms   *Atoms

	// Ground truth, present only for labeled datasets.
	TotalEnergy *float64
	Forces      *mat.Dense
	Stress      []float64
}

// FromAtoms builds a Record from the atoms form, deriving the lattice form
// as well. A failed derivation leaves Lattice nil rather than failing the
// record; models that require the lattice form will then report a
// per-model error instead of aborting ingestion.
func FromAtoms(a *Atoms) *Record {
	rec := &Record{Atoms: a}
	if l, err := ToLattice(a); err == nil {
		rec.Lattice = l
	}
	return rec
}

// FromLattice builds a Record from the lattice form, deriving the atoms form.
func FromLattice(l *Lattice) *Record {
	rec := &Record{Lattice: l}
	if a, err := ToAtoms(l); err == nil {
		rec.Atoms = a
	}
	return rec
}

// Representation returns the requested form of the record, or nil when that
// form is absent.
func (r *Record) Representation(f types.Format) Form {
	switch f {
	case types.FormatLattice:
		if r.Lattice == nil {
			return nil
		}
		return r.Lattice
	case types.FormatAtoms:
		if r.Atoms == nil {
			return nil
		}
		return r.Atoms
	}
	return nil
}

// Label returns a human-readable tag for the record: the reduced chemical
// formula of whichever representation is present.
func (r *Record) Label() string {
	switch {
	case r.Atoms != nil:
		return ReducedFormula(r.Atoms.Symbols)
	case r.Lattice != nil:
		return ReducedFormula(r.Lattice.Species)
	default:
		return ""
	}
}
