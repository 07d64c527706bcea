package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"mlipens/internal/structure"
)

// frame is one structure read from an (extended) XYZ stream, with whatever
// labels the comment line carried.
type frame struct {
	atoms  *structure.Atoms
	energy *float64
	forces *mat.Dense
	stress []float64
}

// readFrame parses one XYZ frame: an atom-count line, a comment line
// (extended-XYZ key=value fields when present) and one line per atom.
// Returns io.EOF at a clean end of stream.
func readFrame(r *bufio.Reader) (*frame, error) {
	countLine, err := nextNonEmptyLine(r)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("xyz: bad atom count line %q", strings.TrimSpace(countLine))
	}
	comment, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("xyz: reading comment line: %w", err)
	}
	keys := parseExtxyzComment(comment)

	forceCol := forcesColumn(keys["Properties"])
	symbols := make([]string, n)
	positions := mat.NewDense(n, 3, nil)
	var forces *mat.Dense
	for i := 0; i < n; i++ {
		line, err := nextNonEmptyLine(r)
		if err != nil {
			return nil, fmt.Errorf("xyz: truncated frame at atom %d: %w", i, err)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("xyz: atom line %d has %d fields, want at least 4", i, len(fields))
		}
		symbols[i] = fields[0]
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[1+j], 64)
			if err != nil {
				return nil, fmt.Errorf("xyz: atom line %d: bad coordinate %q", i, fields[1+j])
			}
			positions.Set(i, j, v)
		}
		if forceCol >= 0 && len(fields) >= forceCol+3 {
			if forces == nil {
				forces = mat.NewDense(n, 3, nil)
			}
			for j := 0; j < 3; j++ {
				v, err := strconv.ParseFloat(fields[forceCol+j], 64)
				if err != nil {
					return nil, fmt.Errorf("xyz: atom line %d: bad force %q", i, fields[forceCol+j])
				}
				forces.Set(i, j, v)
			}
		}
	}

	f := &frame{
		atoms:  &structure.Atoms{Symbols: symbols, Positions: positions},
		forces: forces,
	}
	if lat, ok := keys["Lattice"]; ok {
		cell, err := parseCell(lat)
		if err != nil {
			return nil, err
		}
		f.atoms.Cell = cell
	}
	if v, ok := keys["energy"]; ok {
		e, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("xyz: bad energy %q", v)
		}
		f.energy = &e
	}
	if v, ok := keys["stress"]; ok {
		f.stress, err = parseFloats(v)
		if err != nil {
			return nil, fmt.Errorf("xyz: bad stress %q", v)
		}
	}
	return f, nil
}

func nextNonEmptyLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// parseExtxyzComment splits an extended-XYZ comment line into key=value
// pairs, honoring double-quoted values with embedded spaces. Plain XYZ
// comments yield no pairs.
func parseExtxyzComment(comment string) map[string]string {
	out := map[string]string{}
	s := strings.TrimSpace(comment)
	for len(s) > 0 {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(s[:eq])
		if sp := strings.LastIndexByte(key, ' '); sp >= 0 {
			key = key[sp+1:]
		}
		s = s[eq+1:]
		var val string
		if strings.HasPrefix(s, `"`) {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				break
			}
			val = s[1 : 1+end]
			s = s[end+2:]
		} else {
			end := strings.IndexByte(s, ' ')
			if end < 0 {
				val, s = s, ""
			} else {
				val, s = s[:end], s[end+1:]
			}
		}
		s = strings.TrimSpace(s)
		if key != "" {
			out[key] = val
		}
	}
	return out
}

// forcesColumn returns the first field index of the per-atom force triplet
// declared by an extended-XYZ Properties string, or -1 when absent.
func forcesColumn(properties string) int {
	if properties == "" {
		return -1
	}
	parts := strings.Split(properties, ":")
	col := 0
	for i := 0; i+2 < len(parts); i += 3 {
		name := parts[i]
		ncols, err := strconv.Atoi(parts[i+2])
		if err != nil {
			return -1
		}
		if name == "forces" || name == "force" {
			return col
		}
		col += ncols
	}
	return -1
}

func parseCell(s string) (*mat.Dense, error) {
	vals, err := parseFloats(s)
	if err != nil || len(vals) != 9 {
		return nil, fmt.Errorf("xyz: lattice needs 9 numbers, got %q", s)
	}
	return mat.NewDense(3, 3, vals), nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
