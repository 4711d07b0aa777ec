package calibrate

import (
	"math"
	"testing"
)

func TestFitNormalRecoversKnownParameters(t *testing.T) {
	data := []float64{98, 101, 99, 102, 100, 97, 103, 100, 99, 101}
	fit := FitNormal(data)

	if math.Abs(fit.Parameters["mean"]-100) > 1 {
		t.Errorf("mean = %v, want close to 100", fit.Parameters["mean"])
	}
	if fit.Parameters["std"] <= 0 {
		t.Errorf("std = %v, want positive", fit.Parameters["std"])
	}
	ciMean := fit.ConfidenceIntervals["mean"]
	if ciMean[0] > fit.Parameters["mean"] || ciMean[1] < fit.Parameters["mean"] {
		t.Errorf("mean CI %v does not contain point estimate %v", ciMean, fit.Parameters["mean"])
	}
	if fit.KSPValue < 0 || fit.KSPValue > 1 {
		t.Errorf("KS p-value out of range: %v", fit.KSPValue)
	}
}

func TestFitLogNormalRejectsNonPositiveData(t *testing.T) {
	_, err := FitLogNormal([]float64{1, 2, -1, 3})
	if err == nil {
		t.Fatal("expected an error for non-positive data")
	}
}

func TestFitLogNormalRecoversKnownParameters(t *testing.T) {
	// exp(Normal(mu=0, sigma=0.2)) samples, hand-picked to cluster near 1.0.
	data := []float64{0.95, 1.02, 0.98, 1.10, 0.90, 1.05, 1.00, 0.97, 1.08, 0.93}
	fit, err := FitLogNormal(data)
	if err != nil {
		t.Fatalf("FitLogNormal: %v", err)
	}
	if math.Abs(fit.Parameters["mu"]) > 0.2 {
		t.Errorf("mu = %v, want close to 0", fit.Parameters["mu"])
	}
	if fit.Parameters["sigma"] <= 0 {
		t.Errorf("sigma = %v, want positive", fit.Parameters["sigma"])
	}
}

func TestFitBetaRejectsOutOfRangeData(t *testing.T) {
	_, err := FitBeta([]float64{0.1, 0.5, 1.2})
	if err == nil {
		t.Fatal("expected an error for data outside (0, 1)")
	}
}

func TestFitBetaProducesPositiveShapeParameters(t *testing.T) {
	data := []float64{0.2, 0.3, 0.25, 0.35, 0.28, 0.22, 0.31, 0.27, 0.29, 0.24}
	fit, err := FitBeta(data)
	if err != nil {
		t.Fatalf("FitBeta: %v", err)
	}
	if fit.Parameters["alpha"] <= 0 || fit.Parameters["beta"] <= 0 {
		t.Errorf("alpha/beta must be positive, got %v", fit.Parameters)
	}
	// mean of a Beta(a,b) is a/(a+b); the fitted shape should roughly
	// reproduce the sample mean.
	sampleMean := meanOf(data)
	betaMean := fit.Parameters["alpha"] / (fit.Parameters["alpha"] + fit.Parameters["beta"])
	if math.Abs(sampleMean-betaMean) > 0.05 {
		t.Errorf("beta mean %v too far from sample mean %v", betaMean, sampleMean)
	}
}

func TestAkaikeBayesInfoPenalizesMoreParameters(t *testing.T) {
	aic1, bic1 := akaikeBayesInfo(-100, 2, 50)
	aic2, bic2 := akaikeBayesInfo(-100, 4, 50)
	if aic2 <= aic1 {
		t.Errorf("AIC with more parameters should be larger: %v vs %v", aic2, aic1)
	}
	if bic2 <= bic1 {
		t.Errorf("BIC with more parameters should be larger: %v vs %v", bic2, bic1)
	}
}

func TestKSTestAgainstTrueDistributionHasHighPValue(t *testing.T) {
	data := []float64{-1.5, -0.5, 0, 0.5, 1.5, -1, 1, 0.2, -0.2, 0.8}
	mean := meanOf(data)
	std := sampleStd(data, mean)
	stat, p := ksTest(data, func(x float64) float64 { return normalCDF(x, mean, std) })
	if stat < 0 || stat > 1 {
		t.Errorf("KS statistic out of range: %v", stat)
	}
	if p < 0 || p > 1 {
		t.Errorf("KS p-value out of range: %v", p)
	}
}

func TestBootstrapCIBracketsPointEstimate(t *testing.T) {
	data := []float64{10, 12, 9, 11, 10, 13, 8, 12, 11, 9}
	fit := FitNormal(data)
	src := &fixedSequence{values: []float64{0.1, 0.9, 0.3, 0.7, 0.5, 0.2, 0.8, 0.4, 0.6, 0.05}}
	ci := BootstrapCI(data, FitNormal, 200, src)
	mean := ci["mean"]
	if mean[0] > fit.Parameters["mean"]+5 || mean[1] < fit.Parameters["mean"]-5 {
		t.Errorf("bootstrap mean CI %v implausible vs point estimate %v", mean, fit.Parameters["mean"])
	}
}

// fixedSequence cycles through a fixed list of "random" floats, enough to
// drive BootstrapCI deterministically without depending on runtime.RNG.
type fixedSequence struct {
	values []float64
	i      int
}

func (f *fixedSequence) Float64() float64 {
	v := f.values[f.i%len(f.values)]
	f.i++
	return v
}
