package dataset

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"mlipens/internal/structure"
)

// readPoscar parses VASP POSCAR/CONTCAR input: comment, scale factor,
// three lattice vectors, species names, species counts, an optional
// selective-dynamics line, a Direct/Cartesian switch and one coordinate
// line per atom. Fractional coordinates are converted to cartesian.
func readPoscar(r *bufio.Reader) (*structure.Lattice, error) {
	if _, err := nextNonEmptyLine(r); err != nil { // comment line
		return nil, fmt.Errorf("poscar: empty file: %w", err)
	}
	scaleLine, err := nextNonEmptyLine(r)
	if err != nil {
		return nil, fmt.Errorf("poscar: missing scale factor: %w", err)
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(scaleLine), 64)
	if err != nil {
		return nil, fmt.Errorf("poscar: bad scale factor %q", strings.TrimSpace(scaleLine))
	}

	cell := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		line, err := nextNonEmptyLine(r)
		if err != nil {
			return nil, fmt.Errorf("poscar: missing lattice vector %d: %w", i+1, err)
		}
		vec, err := parseFloats(line)
		if err != nil || len(vec) < 3 {
			return nil, fmt.Errorf("poscar: bad lattice vector %q", strings.TrimSpace(line))
		}
		for j := 0; j < 3; j++ {
			cell.Set(i, j, vec[j]*scale)
		}
	}

	namesLine, err := nextNonEmptyLine(r)
	if err != nil {
		return nil, fmt.Errorf("poscar: missing species names: %w", err)
	}
	names := strings.Fields(namesLine)
	countsLine, err := nextNonEmptyLine(r)
	if err != nil {
		return nil, fmt.Errorf("poscar: missing species counts: %w", err)
	}
	countFields := strings.Fields(countsLine)
	if len(countFields) != len(names) {
		return nil, fmt.Errorf("poscar: %d species names but %d counts", len(names), len(countFields))
	}
	var species []string
	for i, cf := range countFields {
		n, err := strconv.Atoi(cf)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("poscar: bad species count %q", cf)
		}
		for j := 0; j < n; j++ {
			species = append(species, names[i])
		}
	}

	modeLine, err := nextNonEmptyLine(r)
	if err != nil {
		return nil, fmt.Errorf("poscar: missing coordinate mode: %w", err)
	}
	mode := strings.ToLower(strings.TrimSpace(modeLine))
	if strings.HasPrefix(mode, "s") { // selective dynamics, real mode follows
		modeLine, err = nextNonEmptyLine(r)
		if err != nil {
			return nil, fmt.Errorf("poscar: missing coordinate mode: %w", err)
		}
		mode = strings.ToLower(strings.TrimSpace(modeLine))
	}
	cartesian := strings.HasPrefix(mode, "c") || strings.HasPrefix(mode, "k")

	coords := mat.NewDense(len(species), 3, nil)
	for i := range species {
		line, err := nextNonEmptyLine(r)
		if err != nil {
			return nil, fmt.Errorf("poscar: truncated coordinates at atom %d: %w", i, err)
		}
		vec, err := parseFloats3(line)
		if err != nil {
			return nil, fmt.Errorf("poscar: bad coordinate line %q", strings.TrimSpace(line))
		}
		coords.SetRow(i, vec)
	}
	if cartesian {
		coords.Scale(scale, coords)
	} else {
		cart := mat.NewDense(len(species), 3, nil)
		cart.Mul(coords, cell) // fractional rows times cell rows
		coords = cart
	}
	return &structure.Lattice{Cell: cell, Species: species, Coords: coords}, nil
}

// parseFloats3 parses the first three float fields of a line, tolerating
// trailing selective-dynamics flags.
func parseFloats3(line string) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
