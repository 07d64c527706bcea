package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"mlipens/internal/structure"
)

// readCif parses the subset of CIF this system needs: the six cell
// parameters and one atom_site loop with a type symbol and fractional
// coordinates. The cell is built in the standard setting (a along x, b in
// the xy plane); fractional coordinates become cartesian.
func readCif(r *bufio.Reader) (*structure.Lattice, error) {
	cellParams := map[string]float64{}
	var species []string
	var frac [][]float64

	for {
		line, err := r.ReadString('\n')
		text := strings.TrimSpace(line)
		if text != "" && !strings.HasPrefix(text, "#") {
			switch {
			case strings.HasPrefix(text, "_cell_"):
				fields := strings.Fields(text)
				if len(fields) >= 2 {
					if v, perr := parseCifNumber(fields[1]); perr == nil {
						cellParams[fields[0]] = v
					}
				}
			case text == "loop_":
				if err := readAtomSiteLoop(r, &species, &frac); err != nil {
					return nil, err
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cif: %w", err)
		}
	}

	cell, err := cellFromParams(cellParams)
	if err != nil {
		return nil, err
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("cif: no atom_site loop found")
	}
	coords := mat.NewDense(len(species), 3, nil)
	for i, f := range frac {
		for j := 0; j < 3; j++ {
			// fractional row times cell rows
			coords.Set(i, j, f[0]*cell.At(0, j)+f[1]*cell.At(1, j)+f[2]*cell.At(2, j))
		}
	}
	return &structure.Lattice{Cell: cell, Species: species, Coords: coords}, nil
}

// readAtomSiteLoop consumes a loop_ block. Non-atom_site loops are skipped;
// an atom_site loop must carry a symbol column and the three fract columns.
func readAtomSiteLoop(r *bufio.Reader, species *[]string, frac *[][]float64) error {
	var headers []string
	for {
		peek, err := r.Peek(1)
		if err != nil || peek[0] != '_' {
			// lookahead only; data rows follow
			if err != nil && err != io.EOF {
				return fmt.Errorf("cif: %w", err)
			}
			break
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("cif: %w", err)
		}
		headers = append(headers, strings.TrimSpace(line))
	}

	symCol, xCol, yCol, zCol := -1, -1, -1, -1
	for i, h := range headers {
		switch h {
		case "_atom_site_type_symbol", "_atom_site_label":
			if symCol < 0 {
				symCol = i
			}
		case "_atom_site_fract_x":
			xCol = i
		case "_atom_site_fract_y":
			yCol = i
		case "_atom_site_fract_z":
			zCol = i
		}
	}
	isAtomSite := symCol >= 0 && xCol >= 0 && yCol >= 0 && zCol >= 0

	for {
		peek, err := r.Peek(1)
		if err != nil {
			return nil
		}
		if peek[0] == '_' || peek[0] == 'l' { // next header or loop_
			return nil
		}
		line, err := r.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			return nil
		}
		if isAtomSite {
			fields := strings.Fields(text)
			if len(fields) <= max3(xCol, yCol, zCol) || len(fields) <= symCol {
				return fmt.Errorf("cif: short atom_site row %q", text)
			}
			x, ex := parseCifNumber(fields[xCol])
			y, ey := parseCifNumber(fields[yCol])
			z, ez := parseCifNumber(fields[zCol])
			if ex != nil || ey != nil || ez != nil {
				return fmt.Errorf("cif: bad fractional coordinates in %q", text)
			}
			*species = append(*species, stripLabelDigits(fields[symCol]))
			*frac = append(*frac, []float64{x, y, z})
		}
		if err == io.EOF {
			return nil
		}
	}
}

// parseCifNumber handles CIF numeric values with uncertainty suffixes like
// "1.2345(6)".
func parseCifNumber(s string) (float64, error) {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseFloat(s, 64)
}

// stripLabelDigits reduces an atom_site label like "Fe1" to its symbol.
func stripLabelDigits(s string) string {
	return strings.TrimRight(s, "0123456789+-")
}

func cellFromParams(p map[string]float64) (*mat.Dense, error) {
	a, okA := p["_cell_length_a"]
	b, okB := p["_cell_length_b"]
	c, okC := p["_cell_length_c"]
	if !okA || !okB || !okC {
		return nil, fmt.Errorf("cif: missing cell lengths")
	}
	alpha := radians(p, "_cell_angle_alpha")
	beta := radians(p, "_cell_angle_beta")
	gamma := radians(p, "_cell_angle_gamma")

	cosA, cosB, cosG := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)
	sinG := math.Sin(gamma)
	cx := c * cosB
	cy := c * (cosA - cosB*cosG) / sinG
	cz := math.Sqrt(c*c - cx*cx - cy*cy)
	return mat.NewDense(3, 3, []float64{
		a, 0, 0,
		b * cosG, b * sinG, 0,
		cx, cy, cz,
	}), nil
}

func radians(p map[string]float64, key string) float64 {
	deg, ok := p[key]
	if !ok {
		deg = 90
	}
	return deg * math.Pi / 180
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
