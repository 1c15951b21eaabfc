package core

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
)

const correlationTolerance = 1e-9

// TestPearsonCorrelation_MatchesGonum cross checks the coefficient against gonum on noisy correlated samples
func Test_PearsonCorrelation_MatchesGonum(t *testing.T) {
	src := rand.NewPCG(42, 0)
	normalDist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	for _, rho := range []float64{-0.9, -0.5, 0, 0.3, 0.8} {
		x, y := generateCorrelatedSamples(t, normalDist, rho, 500)

		r, outcome, err := PearsonCorrelation(x, y)
		require.NoError(t, err)
		ex.AssertAreEqual(t, "outcome", OutcomeComputed, outcome)

		expected := stat.Correlation(x, y, nil)
		if math.Abs(r-expected) > correlationTolerance {
			t.Errorf("rho %.2f: expected %.10f, got %.10f", rho, expected, r)
		}
	}
}

func Test_PearsonCorrelation_IsSymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))

	for range 200 {
		n := 2 + rng.IntN(30)
		x := make([]float64, n)
		y := make([]float64, n)
		for i := range n {
			x[i] = float64(rng.IntN(5) - 2)
			y[i] = rng.NormFloat64() * 3
		}

		rxy, oxy, err := PearsonCorrelation(x, y)
		require.NoError(t, err)
		ryx, oyx, err := PearsonCorrelation(y, x)
		require.NoError(t, err)

		ex.AssertAreEqual(t, "outcome symmetry", oxy, oyx)
		if oxy != OutcomeComputed {
			continue
		}

		ex.AssertAlmostEqual(t, "symmetry", rxy, ryx, correlationTolerance)
		if rxy < -1 || rxy > 1 {
			t.Errorf("coefficient %v outside [-1, 1]", rxy)
		}
	}
}

func Test_PearsonCorrelation_AffineTransformsArePerfect(t *testing.T) {
	x := []float64{-2, -1, 0, 1, 2, 2, -1}

	positive := make([]float64, len(x))
	negative := make([]float64, len(x))
	for i, v := range x {
		positive[i] = 3.5*v + 10
		negative[i] = -0.25*v + 1
	}

	r, outcome, err := PearsonCorrelation(x, positive)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "outcome", OutcomeComputed, outcome)
	ex.AssertAlmostEqual(t, "positive slope", 1.0, r, correlationTolerance)

	r, outcome, err = PearsonCorrelation(x, negative)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "outcome", OutcomeComputed, outcome)
	ex.AssertAlmostEqual(t, "negative slope", -1.0, r, correlationTolerance)
}

func Test_PearsonCorrelation_TwoDistinctPointsArePerfect(t *testing.T) {
	r, outcome, err := PearsonCorrelation([]float64{1, 2}, []float64{-3, 0.5})
	require.NoError(t, err)
	ex.AssertAreEqual(t, "outcome", OutcomeComputed, outcome)
	ex.AssertAlmostEqual(t, "r", 1.0, r, correlationTolerance)
}

func Test_PearsonCorrelation_InsufficientData(t *testing.T) {
	for _, x := range [][]float64{nil, {}, {1.5}} {
		_, outcome, err := PearsonCorrelation(x, x)
		require.NoError(t, err)
		ex.AssertAreEqual(t, "outcome", OutcomeInsufficientData, outcome)
	}
}

func Test_PearsonCorrelation_ZeroVarianceIsUndefined(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
	}{
		{"constant scores", []float64{2, 2, 2}, []float64{1, -1, 0.5}},
		{"constant variations", []float64{-2, 0, 1}, []float64{0.3, 0.3, 0.3}},
		{"identical pairs", []float64{1, 1}, []float64{-0.7, -0.7}},
		// 0.1 cannot be represented exactly, the mean would leave a residual
		{"constant inexact float", []float64{-1, 0, 2}, []float64{0.1, 0.1, 0.1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, outcome, err := PearsonCorrelation(c.x, c.y)
			require.NoError(t, err)
			ex.AssertAreEqual(t, "outcome", OutcomeUndefined, outcome)
			ex.AssertAreEqual(t, "r", 0.0, r)
		})
	}
}

func Test_PearsonCorrelation_LengthMismatchErrors(t *testing.T) {
	_, _, err := PearsonCorrelation([]float64{1, 2, 3}, []float64{1, 2})
	require.Error(t, err)
}

func Test_Outcome_Name(t *testing.T) {
	ex.AssertAreEqual(t, "computed", "computed", OutcomeComputed.Name())
	ex.AssertAreEqual(t, "insufficient", "insufficientData", OutcomeInsufficientData.Name())
	ex.AssertAreEqual(t, "undefined", "undefined", OutcomeUndefined.Name())
}

// Helper: y = rho*x + sqrt(1-rho^2)*z for independent standard normals x and z
func generateCorrelatedSamples(t *testing.T, dist distuv.Normal, rho float64, n int) ([]float64, []float64) {
	t.Helper()

	x := make([]float64, n)
	y := make([]float64, n)
	scale := math.Sqrt(1 - rho*rho)
	for i := range n {
		x[i] = dist.Rand()
		y[i] = rho*x[i] + scale*dist.Rand()
	}

	return x, y
}
