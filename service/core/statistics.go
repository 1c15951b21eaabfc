package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
)

// MinPairedPoints is the least number of pairs a coefficient is computed from
const MinPairedPoints = 2

// Outcome tells whether an offset carries a coefficient or one of the markers that replace it
type Outcome uint8

const (
	OutcomeComputed Outcome = iota
	OutcomeInsufficientData
	OutcomeUndefined
)

func (o Outcome) Name() string {
	switch o {
	case OutcomeComputed:
		return "computed"
	case OutcomeInsufficientData:
		return "insufficientData"
	case OutcomeUndefined:
		return "undefined"
	default:
		return ""
	}
}

// PearsonCorrelation computes r = sum(dx*dy) / sqrt(sum(dx^2) * sum(dy^2)) over the deviations from the means.
// Too few pairs and zero variance are outcomes, not errors; only mismatched lengths are an error.
func PearsonCorrelation(x, y []float64) (float64, Outcome, error) {
	if len(x) != len(y) {
		return 0, OutcomeUndefined, fmt.Errorf("error in pearson correlation, lengths of vectors are not equal (%d != %d)", len(x), len(y))
	}

	if len(x) < MinPairedPoints {
		return 0, OutcomeInsufficientData, nil
	}

	// a constant vector has zero variance, checked exactly since a float mean can leave tiny residuals
	if ex.AreAllEqual(x) || ex.AreAllEqual(y) {
		return 0, OutcomeUndefined, nil
	}

	dx := deviations(x)
	dy := deviations(y)

	// lengths are equal, dot product can not error here
	sxy, _ := ex.DotProduct(dx, dy)
	sxx, _ := ex.DotProduct(dx, dx)
	syy, _ := ex.DotProduct(dy, dy)

	denominator := math.Sqrt(sxx * syy)
	if denominator == 0 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return 0, OutcomeUndefined, nil
	}

	r := sxy / denominator
	return math.Max(-1, math.Min(1, r)), OutcomeComputed, nil
}

func deviations(values []float64) []float64 {
	mean := stat.Mean(values, nil)
	res := make([]float64, len(values))
	for i, v := range values {
		res[i] = v - mean
	}
	return res
}
