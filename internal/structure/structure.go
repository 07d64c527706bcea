// Package structure holds the two representations of a periodic atomic
// structure used across the ensemble: the lattice form (lattice vectors +
// species + cartesian coordinates) and the simulation-ready atoms form.
// Conversions between the two are lossless: atom count, species order and
// cartesian coordinates transfer unchanged.
package structure

import (
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Lattice is the lattice-vectors + species + cartesian-coordinates form.
type Lattice struct {
	// Cell rows are the three lattice vectors, in Å.
	Cell *mat.Dense
	// Species is the ordered list of element symbols, one per atom.
	Species []string
	// Coords is the N x 3 matrix of cartesian coordinates, in Å.
	Coords *mat.Dense
}

// Atoms is the simulation-ready form of the same physical structure.
type Atoms struct {
	// Symbols is the ordered list of element symbols, one per atom.
	Symbols []string
	// Positions is the N x 3 matrix of cartesian coordinates, in Å.
	Positions *mat.Dense
	// Cell rows are the three lattice vectors, in Å.
	Cell *mat.Dense
}

// Form is a structure representation that can produce either canonical form.
// Both *Lattice and *Atoms satisfy it, so consumers that need a specific
// form can derive it from whatever representation they were handed.
type Form interface {
	AsLattice() (*Lattice, error)
	AsAtoms() (*Atoms, error)
	Count() int
}

// Count returns the number of atoms.
func (l *Lattice) Count() int { return len(l.Species) }

// Count returns the number of atoms.
func (a *Atoms) Count() int { return len(a.Symbols) }

// AsLattice returns the lattice form itself.
func (l *Lattice) AsLattice() (*Lattice, error) { return l, nil }

// AsAtoms converts to the atoms form.
func (l *Lattice) AsAtoms() (*Atoms, error) { return ToAtoms(l) }

// AsLattice converts to the lattice form.
func (a *Atoms) AsLattice() (*Lattice, error) { return ToLattice(a) }

// AsAtoms returns the atoms form itself.
func (a *Atoms) AsAtoms() (*Atoms, error) { return a, nil }

// ToLattice converts the atoms form into the lattice form. The output has
// identical atom count, identical species order and coordinates transferred
// as cartesian values. Missing or inconsistent fields yield a ConversionError.
func ToLattice(a *Atoms) (*Lattice, error) {
	if a == nil {
		return nil, conversionError{field: "atoms", reason: "nil structure"}
	}
	if err := validate(a.Cell, a.Symbols, a.Positions); err != nil {
		return nil, err
	}
	return &Lattice{
		Cell:    mat.DenseCopyOf(a.Cell),
		Species: append([]string(nil), a.Symbols...),
		Coords:  mat.DenseCopyOf(a.Positions),
	}, nil
}

// ToAtoms converts the lattice form into the atoms form, with the same
// lossless guarantees as ToLattice.
func ToAtoms(l *Lattice) (*Atoms, error) {
	if l == nil {
		return nil, conversionError{field: "lattice", reason: "nil structure"}
	}
	if err := validate(l.Cell, l.Species, l.Coords); err != nil {
		return nil, err
	}
	return &Atoms{
		Symbols:   append([]string(nil), l.Species...),
		Positions: mat.DenseCopyOf(l.Coords),
		Cell:      mat.DenseCopyOf(l.Cell),
	}, nil
}

func validate(cell *mat.Dense, species []string, coords *mat.Dense) error {
	if cell == nil {
		return conversionError{field: "cell", reason: "missing"}
	}
	if r, c := cell.Dims(); r != 3 || c != 3 {
		return conversionError{field: "cell", reason: "not 3x3"}
	}
	if len(species) == 0 {
		return conversionError{field: "species", reason: "empty"}
	}
	if coords == nil {
		return conversionError{field: "coordinates", reason: "missing"}
	}
	r, c := coords.Dims()
	if c != 3 {
		return conversionError{field: "coordinates", reason: "not N x 3"}
	}
	if r != len(species) {
		return conversionError{field: "coordinates", reason: "row count does not match species count"}
	}
	return nil
}

// ReducedFormula returns the reduced chemical formula for an ordered symbol
// list, e.g. ["Fe","Fe","O","O","O","O"] -> "Fe1O2" reduced to "FeO2".
// Symbols are ordered alphabetically; unit counts are omitted.
func ReducedFormula(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	counts := map[string]int{}
	for _, s := range symbols {
		counts[s]++
	}
	elems := make([]string, 0, len(counts))
	g := 0
	for e, n := range counts {
		elems = append(elems, e)
		g = gcd(g, n)
	}
	sort.Strings(elems)
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(e)
		if n := counts[e] / g; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
