// Package correction applies a standardized post-hoc compatibility
// adjustment to raw predicted total energies, in the style of the Materials
// Project 2020 scheme: a per-atom correction for the anion species of the
// composition, assuming an uncorrected GGA run without Hubbard U.
//
// Correction is a pure function of (energy, structure). When the scheme
// cannot process a structure the failure is logged and the raw energy is
// returned unchanged; the caller would rather have an uncorrected number
// than no number.
package correction

import (
	"fmt"
	"log"

	"github.com/rs/zerolog"

	"mlipens/internal/structure"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger for correction-failure reports.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logFailure(err error) {
	if zlog != nil {
		zlog.Warn().Err(err).Msg("energy correction failed, returning raw energy")
		return
	}
	log.Printf("energy correction failed, returning raw energy: %v", err)
}

// Entry is a computed structure entry handed to the scheme.
type Entry struct {
	// Energy is the raw total energy in eV.
	Energy float64
	// Structure is the lattice-form view of the predicted structure.
	Structure *structure.Lattice
	// RunType is the assumed level of theory; only "GGA" is processable.
	RunType string
	// IsHubbard marks Hubbard-U runs, which this scheme does not handle.
	IsHubbard bool
}

// Correct applies the scheme to a raw energy and returns the corrected
// value, or the raw value unchanged when the scheme cannot process the
// structure. It never mutates the structure and holds no state across calls.
func Correct(raw float64, lat *structure.Lattice) float64 {
	corrected, err := Process(Entry{Energy: raw, Structure: lat, RunType: "GGA"})
	if err != nil {
		logFailure(err)
		return raw
	}
	return corrected
}

// Process applies the scheme and surfaces failures as errors. Correct is
// the degrade-gracefully wrapper most callers want.
func Process(e Entry) (float64, error) {
	if e.Structure == nil {
		return 0, fmt.Errorf("correction: no lattice-form structure")
	}
	if len(e.Structure.Species) == 0 {
		return 0, fmt.Errorf("correction: structure has no species")
	}
	if e.RunType != "GGA" {
		return 0, fmt.Errorf("correction: unsupported run type %q", e.RunType)
	}
	if e.IsHubbard {
		return 0, fmt.Errorf("correction: Hubbard-U runs are not processable")
	}

	counts := map[string]int{}
	for _, sym := range e.Structure.Species {
		if _, ok := electronegativity[sym]; !ok {
			return 0, fmt.Errorf("correction: unsupported element %q", sym)
		}
		counts[sym]++
	}
	// Elemental phases are reference states; nothing to correct.
	if len(counts) < 2 {
		return e.Energy, nil
	}

	anion := mostElectronegative(counts)
	corr, ok := anionCorrection[anion]
	if !ok {
		// Composition has no correctable anion; the scheme applies a zero
		// correction rather than failing.
		return e.Energy, nil
	}
	return e.Energy + corr*float64(counts[anion]), nil
}

func mostElectronegative(counts map[string]int) string {
	best := ""
	bestEN := -1.0
	for sym := range counts {
		if en := electronegativity[sym]; en > bestEN {
			best, bestEN = sym, en
		}
	}
	return best
}
