package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"mlipens/internal/structure"
)

// DefaultSeed is the fixed split seed used when none is configured,
// keeping partitions reproducible across runs.
const DefaultSeed int64 = 42

// Split shuffles records with the seeded source and cuts them into train
// and test partitions. testSize in (0,1) is a fraction of the input;
// testSize >= 1 is an absolute test count. The input slice is not mutated.
func Split(records []*structure.Record, testSize float64, seed int64) (train, test []*structure.Record, err error) {
	n := len(records)
	if n == 0 {
		return nil, nil, fmt.Errorf("dataset: nothing to split")
	}
	var nTest int
	switch {
	case testSize <= 0:
		return nil, nil, fmt.Errorf("dataset: test size %v must be positive", testSize)
	case testSize < 1:
		nTest = int(math.Round(testSize * float64(n)))
		if nTest == 0 {
			nTest = 1
		}
	default:
		nTest = int(testSize)
	}
	if nTest >= n {
		return nil, nil, fmt.Errorf("dataset: test size %v leaves no training data for %d records", testSize, n)
	}

	shuffled := append([]*structure.Record(nil), records...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[nTest:], shuffled[:nTest], nil
}
