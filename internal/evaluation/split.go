package evaluation

import (
	"math"

	apperrors "stflow/internal/errors"
)

// Indices holds contiguous sample index ranges
type Indices struct {
	Train      []int `json:"train"`
	Validation []int `json:"validation"`
	Test       []int `json:"test"`
}

// Range is a half-open index interval
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of indices in r
func (r Range) Len() int { return r.End - r.Start }

// Split partitions [0, n) in time order. The validation part starts at
// floor((1-(validationRatio+testRatio))*n) and the test part at
// floor((1-testRatio)*n).
func Split(n int, validationRatio, testRatio float64) (Indices, error) {
	train, validation, test, err := SplitRanges(n, validationRatio, testRatio)
	if err != nil {
		return Indices{}, err
	}
	return Indices{
		Train:      train.indices(),
		Validation: validation.indices(),
		Test:       test.indices(),
	}, nil
}

// SplitRanges is Split without materializing the index slices
func SplitRanges(n int, validationRatio, testRatio float64) (train, validation, test Range, err error) {
	if n < 0 {
		return Range{}, Range{}, Range{}, apperrors.NewInvalidConfigurationError("sample count must be >= 0, got %d", n)
	}
	if validationRatio < 0 || testRatio < 0 || validationRatio+testRatio > 1 {
		return Range{}, Range{}, Range{}, apperrors.NewInvalidConfigurationError(
			"validation_ratio %g and test_ratio %g must be >= 0 and sum to at most 1", validationRatio, testRatio)
	}

	valSplit := int(math.Floor((1 - (validationRatio + testRatio)) * float64(n)))
	testSplit := int(math.Floor((1 - testRatio) * float64(n)))

	return Range{0, valSplit}, Range{valSplit, testSplit}, Range{testSplit, n}, nil
}

func (r Range) indices() []int {
	out := make([]int, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		out = append(out, i)
	}
	return out
}
