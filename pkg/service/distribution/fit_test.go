package distribution_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/distribution"
)

func TestFitHistoricalRequiresMinimumSamples(t *testing.T) {
	m := distribution.New()

	_, err := m.FitHistorical([]float64{1.0, 2.0})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, model.ErrInsufficientData)).True()

	_, err = m.FitHistorical(nil)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, model.ErrInsufficientData)).True()
}

func TestFitHistoricalRejectsDegenerateSamples(t *testing.T) {
	m := distribution.New()

	_, err := m.FitHistorical([]float64{5, 5, 5, 5})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, model.ErrValidation)).True()

	_, err = m.FitHistorical([]float64{1, 2, math.NaN()})
	gt.Error(t, err)
}

func TestFitHistoricalRecoversNormal(t *testing.T) {
	m := distribution.New()

	// Draw a large normal sample and fit it back
	src := rand.NewPCG(11, 11)
	gen := rand.New(src)
	samples := make([]float64, 2000)
	for i := range samples {
		samples[i] = 100 + 10*gen.NormFloat64()
	}

	d, err := m.FitHistorical(samples)
	gt.NoError(t, err).Required()
	gt.Value(t, d.Type).Equal(types.DistNormal)
	gt.Bool(t, math.Abs(d.Mean-100) < 1).True()
	gt.Bool(t, math.Abs(d.StdDev-10) < 1).True()
}

func TestFitHistoricalRecoversLogNormal(t *testing.T) {
	m := distribution.New()

	src := rand.NewPCG(13, 13)
	gen := rand.New(src)
	samples := make([]float64, 2000)
	for i := range samples {
		samples[i] = math.Exp(2 + 0.5*gen.NormFloat64())
	}

	d, err := m.FitHistorical(samples)
	gt.NoError(t, err).Required()
	gt.Value(t, d.Type).Equal(types.DistLogNormal)
	gt.Bool(t, math.Abs(d.Mu-2) < 0.1).True()
	gt.Bool(t, math.Abs(d.Sigma-0.5) < 0.1).True()
}

func TestFitHistoricalIsDeterministic(t *testing.T) {
	m := distribution.New()
	samples := []float64{10, 12, 15, 11, 13, 14, 12, 16}

	a, err := m.FitHistorical(samples)
	gt.NoError(t, err).Required()
	b, err := m.FitHistorical(samples)
	gt.NoError(t, err).Required()

	gt.Bool(t, a.Equal(b)).True()
}
