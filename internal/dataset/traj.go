package dataset

import (
	"fmt"
	"io"

	"mlipens/internal/structure"
)

// LoadTrajectory reads every frame of a multi-frame extended-XYZ
// trajectory (optionally gzip-compressed) into labeled records. Frames
// carry ground-truth energy, forces and stress when the file provides
// them.
func LoadTrajectory(path string) ([]*structure.Record, error) {
	r, closeFn, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var records []*structure.Record
	for {
		f, err := readFrame(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: frame %d: %w", path, len(records), err)
		}
		rec := structure.FromAtoms(f.atoms)
		rec.Path = path
		rec.TotalEnergy = f.energy
		rec.Forces = f.forces
		rec.Stress = f.stress
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: trajectory holds no frames", path)
	}
	return records, nil
}

// Dataset is a train/test partition of labeled records.
type Dataset struct {
	Train []*structure.Record
	Test  []*structure.Record
}

// LoadAndSplit loads a trajectory and splits it at the given test ratio
// with a seeded shuffle.
func LoadAndSplit(path string, testSize float64, seed int64) (*Dataset, error) {
	records, err := LoadTrajectory(path)
	if err != nil {
		return nil, err
	}
	train, test, err := Split(records, testSize, seed)
	if err != nil {
		return nil, err
	}
	return &Dataset{Train: train, Test: test}, nil
}
