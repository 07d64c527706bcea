// Package dataset ingests structure files and labeled trajectories into
// canonical records. Supported structure formats: xyz/extxyz, POSCAR/vasp
// and cif, each optionally gzip-compressed.
package dataset

import (
	"bufio"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"mlipens/internal/structure"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger for ingestion diagnostics.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logSkip(path string, err error) {
	if zlog != nil {
		zlog.Warn().Str("file", path).Err(err).Msg("skipping unparseable file")
		return
	}
	log.Printf("skipping unparseable file %s: %v", path, err)
}

// SupportedExtensions are the structure-file extensions ParseDir accepts by
// default.
var SupportedExtensions = []string{"cif", "xyz", "extxyz", "poscar", "vasp"}

// ParseFile reads a single structure file into a record. The format is
// chosen by extension (a trailing .gz is transparent); POSCAR and CONTCAR
// basenames are treated as vasp input.
func ParseFile(path string) (*structure.Record, error) {
	r, closeFn, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	rec, err := parseReader(r, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Path = path
	return rec, nil
}

func parseReader(r *bufio.Reader, format string) (*structure.Record, error) {
	switch format {
	case "xyz", "extxyz":
		f, err := readFrame(r)
		if err != nil {
			return nil, err
		}
		rec := structure.FromAtoms(f.atoms)
		rec.TotalEnergy = f.energy
		rec.Forces = f.forces
		rec.Stress = f.stress
		return rec, nil
	case "poscar", "vasp":
		lat, err := readPoscar(r)
		if err != nil {
			return nil, err
		}
		return structure.FromLattice(lat), nil
	case "cif":
		lat, err := readCif(r)
		if err != nil {
			return nil, err
		}
		return structure.FromLattice(lat), nil
	default:
		return nil, fmt.Errorf("unsupported file format %q", format)
	}
}

// ParseDir walks a directory tree and parses every file whose extension is
// in exts (SupportedExtensions when nil). Per-file parse failures are
// logged and skipped; only an unreadable root is fatal.
func ParseDir(dir string, exts []string) ([]*structure.Record, error) {
	if exts == nil {
		exts = SupportedExtensions
	}
	allowed := map[string]bool{}
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	var records []*structure.Record
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logSkip(path, err)
			return nil
		}
		if d.IsDir() || !allowed[formatOf(path)] {
			return nil
		}
		rec, err := ParseFile(path)
		if err != nil {
			logSkip(path, err)
			return nil
		}
		records = append(records, rec)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("dataset: walking %s: %w", dir, walkErr)
	}
	return records, nil
}

// formatOf maps a path to its structure format name, unwrapping a .gz
// suffix and recognizing bare POSCAR/CONTCAR filenames.
func formatOf(path string) string {
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(name), ".gz") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch strings.ToUpper(name) {
	case "POSCAR", "CONTCAR":
		return "poscar"
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func openMaybeGzip(path string) (*bufio.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".gz") {
		return bufio.NewReader(f), func() { _ = f.Close() }, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return bufio.NewReader(gz), func() { _ = gz.Close(); _ = f.Close() }, nil
}
