package dataset

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"mlipens/internal/structure"
)

const waterExtxyz = `3
Lattice="10.0 0.0 0.0 0.0 10.0 0.0 0.0 0.0 10.0" Properties=species:S:1:pos:R:3:forces:R:3 energy=-14.2 stress="0 0 0 0 0 0 0 0 0"
O 0.0 0.0 0.0 0.01 0.0 0.0
H 0.757 0.586 0.0 0.0 0.01 0.0
H -0.757 0.586 0.0 0.0 0.0 0.01
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseExtxyz(t *testing.T) {
	path := writeFile(t, t.TempDir(), "water.extxyz", waterExtxyz)
	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if rec.Atoms == nil || rec.Lattice == nil {
		t.Fatalf("both representations should be present")
	}
	if got := rec.Atoms.Symbols; len(got) != 3 || got[0] != "O" {
		t.Fatalf("symbols = %v", got)
	}
	if rec.Atoms.Cell.At(1, 1) != 10.0 {
		t.Fatalf("cell not read from Lattice field")
	}
	if rec.TotalEnergy == nil || *rec.TotalEnergy != -14.2 {
		t.Fatalf("energy = %v", rec.TotalEnergy)
	}
	if rec.Forces == nil || rec.Forces.At(2, 2) != 0.01 {
		t.Fatalf("forces not read from Properties columns")
	}
	if len(rec.Stress) != 9 {
		t.Fatalf("stress = %v", rec.Stress)
	}
}

func TestParsePlainXyz(t *testing.T) {
	content := "2\nwater fragment comment\nO 0.0 0.0 0.0\nH 0.9 0.0 0.0\n"
	path := writeFile(t, t.TempDir(), "frag.xyz", content)
	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if rec.Atoms == nil || rec.Atoms.Count() != 2 {
		t.Fatalf("atoms not parsed: %+v", rec.Atoms)
	}
	// no cell line means the lattice form cannot be derived
	if rec.Lattice != nil {
		t.Fatalf("lattice form should be absent without a cell")
	}
	if rec.TotalEnergy != nil {
		t.Fatalf("plain xyz carries no energy label")
	}
}

func TestParseGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "water.extxyz.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(waterExtxyz)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if rec.TotalEnergy == nil || *rec.TotalEnergy != -14.2 {
		t.Fatalf("gzip-compressed frame not parsed: %+v", rec)
	}
}

func TestParsePoscarDirect(t *testing.T) {
	content := `rocksalt NaCl
1.0
4.0 0.0 0.0
0.0 4.0 0.0
0.0 0.0 4.0
Na Cl
1 1
Direct
0.0 0.0 0.0
0.5 0.5 0.5
`
	path := writeFile(t, t.TempDir(), "POSCAR", content)
	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	lat := rec.Lattice
	if lat == nil {
		t.Fatalf("lattice form missing")
	}
	if got := lat.Species; len(got) != 2 || got[0] != "Na" || got[1] != "Cl" {
		t.Fatalf("species = %v", got)
	}
	// fractional (0.5,0.5,0.5) in a 4 Å cubic cell is cartesian (2,2,2)
	for j := 0; j < 3; j++ {
		if d := math.Abs(lat.Coords.At(1, j) - 2.0); d > 1e-9 {
			t.Fatalf("fractional conversion off by %g in column %d", d, j)
		}
	}
}

func TestParsePoscarSelectiveCartesian(t *testing.T) {
	content := `slab
2.0
1.0 0.0 0.0
0.0 1.0 0.0
0.0 0.0 1.0
Si
1
Selective dynamics
Cartesian
0.5 0.5 0.5 T T F
`
	path := writeFile(t, t.TempDir(), "slab.vasp", content)
	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	// cartesian coordinates scale with the lattice constant
	if got := rec.Lattice.Coords.At(0, 0); got != 1.0 {
		t.Fatalf("scaled coordinate = %v, want 1.0", got)
	}
	if rec.Lattice.Cell.At(0, 0) != 2.0 {
		t.Fatalf("scaled cell = %v, want 2.0", rec.Lattice.Cell.At(0, 0))
	}
}

func TestParseCif(t *testing.T) {
	content := `data_NaCl
_cell_length_a 4.0
_cell_length_b 4.0
_cell_length_c 4.0
_cell_angle_alpha 90.0
_cell_angle_beta 90.0
_cell_angle_gamma 90.0
loop_
_atom_site_type_symbol
_atom_site_fract_x
_atom_site_fract_y
_atom_site_fract_z
Na 0.0 0.0 0.0
Cl 0.5 0.5 0.5
`
	path := writeFile(t, t.TempDir(), "nacl.cif", content)
	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	lat := rec.Lattice
	if got := lat.Species; len(got) != 2 || got[0] != "Na" || got[1] != "Cl" {
		t.Fatalf("species = %v", got)
	}
	if d := math.Abs(lat.Cell.At(0, 0) - 4.0); d > 1e-9 {
		t.Fatalf("cell a = %v", lat.Cell.At(0, 0))
	}
	for j := 0; j < 3; j++ {
		if d := math.Abs(lat.Coords.At(1, j) - 2.0); d > 1e-6 {
			t.Fatalf("Cl cartesian coordinate off by %g in column %d", d, j)
		}
	}
	if rec.Atoms == nil {
		t.Fatalf("atoms form should be derived")
	}
}

func TestParseCifUncertaintyAndLabels(t *testing.T) {
	content := `data_q
_cell_length_a 5.4310(5)
_cell_length_b 5.4310(5)
_cell_length_c 5.4310(5)
loop_
_atom_site_label
_atom_site_fract_x
_atom_site_fract_y
_atom_site_fract_z
Si1 0.0 0.0 0.0
Si2 0.25(1) 0.25 0.25
`
	path := writeFile(t, t.TempDir(), "si.cif", content)
	rec, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got := rec.Lattice.Species; got[0] != "Si" || got[1] != "Si" {
		t.Fatalf("label digits not stripped: %v", got)
	}
	if d := math.Abs(rec.Lattice.Coords.At(1, 0) - 0.25*5.4310); d > 1e-9 {
		t.Fatalf("uncertainty suffix mishandled, off by %g", d)
	}
}

func TestParseDirSkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.extxyz", waterExtxyz)
	writeFile(t, dir, "bad.xyz", "not a structure\n")
	writeFile(t, dir, "notes.txt", "ignored extension\n")

	records, err := ParseDir(dir, nil)
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (bad and non-structure files skipped)", len(records))
	}
	if records[0].Label() != "H2O" {
		t.Fatalf("wrong record survived: %s", records[0].Label())
	}
}

func TestParseDirMissingRoot(t *testing.T) {
	if _, err := ParseDir(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func trajContent(frames int) string {
	out := ""
	for i := 0; i < frames; i++ {
		out += fmt.Sprintf(`2
Lattice="4.0 0.0 0.0 0.0 4.0 0.0 0.0 0.0 4.0" Properties=species:S:1:pos:R:3 energy=%g
Na 0.0 0.0 0.0
Cl 2.0 2.0 2.0
`, -1.0*float64(i+1))
	}
	return out
}

func TestLoadTrajectory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.extxyz", trajContent(4))
	records, err := LoadTrajectory(path)
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d frames, want 4", len(records))
	}
	for i, rec := range records {
		if rec.TotalEnergy == nil || *rec.TotalEnergy != -1.0*float64(i+1) {
			t.Fatalf("frame %d energy = %v", i, rec.TotalEnergy)
		}
	}
}

func TestLoadTrajectoryEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.extxyz", "\n")
	if _, err := LoadTrajectory(path); err == nil {
		t.Fatalf("expected error for empty trajectory")
	}
}

func labeledRecords(n int) []*structure.Record {
	out := make([]*structure.Record, n)
	for i := range out {
		out[i] = &structure.Record{Path: fmt.Sprintf("frame-%d", i)}
	}
	return out
}

func TestSplitFraction(t *testing.T) {
	recs := labeledRecords(10)
	train, test, err := Split(recs, 0.3, DefaultSeed)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(test) != 3 || len(train) != 7 {
		t.Fatalf("partition sizes %d/%d, want 7/3", len(train), len(test))
	}
	seen := map[string]bool{}
	for _, r := range append(append([]*structure.Record{}, train...), test...) {
		if seen[r.Path] {
			t.Fatalf("record %s duplicated across partitions", r.Path)
		}
		seen[r.Path] = true
	}
	if len(seen) != 10 {
		t.Fatalf("records lost in the split: %d", len(seen))
	}
}

func TestSplitAbsoluteCount(t *testing.T) {
	_, test, err := Split(labeledRecords(10), 2, DefaultSeed)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(test) != 2 {
		t.Fatalf("test size = %d, want 2", len(test))
	}
}

func TestSplitDeterministic(t *testing.T) {
	recs := labeledRecords(20)
	_, first, err := Split(recs, 0.25, DefaultSeed)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	_, second, err := Split(recs, 0.25, DefaultSeed)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i := range first {
		if first[i].Path != second[i].Path {
			t.Fatalf("same seed produced different partitions at %d", i)
		}
	}
}

func TestSplitErrors(t *testing.T) {
	if _, _, err := Split(nil, 0.2, DefaultSeed); err == nil {
		t.Errorf("empty input should fail")
	}
	if _, _, err := Split(labeledRecords(5), 0, DefaultSeed); err == nil {
		t.Errorf("zero test size should fail")
	}
	if _, _, err := Split(labeledRecords(5), 5, DefaultSeed); err == nil {
		t.Errorf("test size consuming all records should fail")
	}
}

func TestForcesColumn(t *testing.T) {
	cases := []struct {
		properties string
		want       int
	}{
		{"species:S:1:pos:R:3:forces:R:3", 4},
		{"species:S:1:pos:R:3:energies:R:1:forces:R:3", 5},
		{"forces:R:3:species:S:1:pos:R:3", 0},
		{"species:S:1:pos:R:3", -1},
		{"", -1},
		{"species:S:bogus", -1},
	}
	for _, c := range cases {
		if got := forcesColumn(c.properties); got != c.want {
			t.Errorf("forcesColumn(%q) = %d, want %d", c.properties, got, c.want)
		}
	}
}

func TestFormatOf(t *testing.T) {
	cases := map[string]string{
		"a/b/water.xyz":   "xyz",
		"water.extxyz.gz": "extxyz",
		"POSCAR":          "poscar",
		"run/CONTCAR":     "poscar",
		"slab.vasp":       "vasp",
		"structure.CIF":   "cif",
		"archive.tar":     "tar",
	}
	for path, want := range cases {
		if got := formatOf(path); got != want {
			t.Errorf("formatOf(%q) = %q, want %q", path, got, want)
		}
	}
}
