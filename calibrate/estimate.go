package calibrate

import (
	"fmt"
	"math"
	"sort"
)

// FitResult is the outcome of fitting one named distribution family to a
// sample, carrying the same diagnostics as the Python reference's
// ParameterEstimator.fit_* methods: point estimates, 95% confidence
// intervals, log-likelihood, AIC/BIC, and a Kolmogorov-Smirnov goodness of
// fit test against the fitted distribution.
type FitResult struct {
	Distribution        string
	Parameters          map[string]float64
	ConfidenceIntervals map[string][2]float64
	LogLikelihood       float64
	AIC                 float64
	BIC                 float64
	KSStatistic         float64
	KSPValue            float64
	SampleSize          int
}

const zScore95 = 1.96

// FitNormal fits a Normal(mean, std) by closed-form MLE: mean and std are
// the sample mean and sample standard deviation, exactly as
// parameter_estimation.py's fit_normal computes them via np.mean/np.std.
func FitNormal(data []float64) FitResult {
	n := float64(len(data))
	mean := meanOf(data)
	std := sampleStd(data, mean)

	seMean := std / math.Sqrt(n)
	ciMean := [2]float64{mean - zScore95*seMean, mean + zScore95*seMean}
	ciStd := stdConfidenceInterval(std, n)

	ll := normalLogLikelihood(data, mean, std)
	aic, bic := akaikeBayesInfo(ll, 2, n)
	ksStat, ksP := ksTest(data, func(x float64) float64 { return normalCDF(x, mean, std) })

	return FitResult{
		Distribution:        "normal",
		Parameters:          map[string]float64{"mean": mean, "std": std},
		ConfidenceIntervals: map[string][2]float64{"mean": ciMean, "std": ciStd},
		LogLikelihood:       ll,
		AIC:                 aic,
		BIC:                 bic,
		KSStatistic:         ksStat,
		KSPValue:            ksP,
		SampleSize:          len(data),
	}
}

// FitLogNormal fits a LogNormal by MLE over log(data) — the Python
// reference's fit_lognormal takes the same shortcut, since X ~ LogNormal(mu,
// sigma) iff log(X) ~ Normal(mu, sigma). Every data point must be strictly
// positive.
func FitLogNormal(data []float64) (FitResult, error) {
	logs := make([]float64, len(data))
	for i, v := range data {
		if v <= 0 {
			return FitResult{}, fmt.Errorf("lognormal fit requires strictly positive data, got %v at index %d", v, i)
		}
		logs[i] = math.Log(v)
	}
	inner := FitNormal(logs)

	n := float64(len(data))
	ll := 0.0
	for i, v := range data {
		ll += normalLogPDF(logs[i], inner.Parameters["mean"], inner.Parameters["std"]) - math.Log(v)
	}
	aic, bic := akaikeBayesInfo(ll, 2, n)
	mu, sigma := inner.Parameters["mean"], inner.Parameters["std"]
	ksStat, ksP := ksTest(data, func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		return normalCDF(math.Log(x), mu, sigma)
	})

	return FitResult{
		Distribution:        "lognormal",
		Parameters:          map[string]float64{"mu": mu, "sigma": sigma},
		ConfidenceIntervals: inner.ConfidenceIntervals,
		LogLikelihood:       ll,
		AIC:                 aic,
		BIC:                 bic,
		KSStatistic:         ksStat,
		KSPValue:            ksP,
		SampleSize:          len(data),
	}, nil
}

// FitBeta fits a Beta(alpha, beta) to data in (0, 1). The Python reference
// delegates to scipy.stats.beta.fit's numerical MLE; lacking that solver
// here, this seeds alpha/beta from the method-of-moments estimator (closed
// form from the sample mean/variance) and refines with a few fixed-point
// Newton-Raphson steps on the MLE score equations — documented as an
// approximation, not exact MLE, in DESIGN.md.
func FitBeta(data []float64) (FitResult, error) {
	for i, v := range data {
		if v <= 0 || v >= 1 {
			return FitResult{}, fmt.Errorf("beta fit requires data strictly inside (0, 1), got %v at index %d", v, i)
		}
	}
	n := float64(len(data))
	mean := meanOf(data)
	variance := sampleStd(data, mean)
	variance *= variance

	common := mean * (1 - mean) / variance
	if common <= 1 {
		common = 1.0001 // degenerate variance; nudge so alpha,beta stay positive
	}
	alpha := mean * (common - 1)
	beta := (1 - mean) * (common - 1)

	logData, log1mData := 0.0, 0.0
	for _, v := range data {
		logData += math.Log(v)
		log1mData += math.Log(1 - v)
	}
	logData /= n
	log1mData /= n

	for iter := 0; iter < 25; iter++ {
		g1 := digamma(alpha) - digamma(alpha+beta) - logData
		g2 := digamma(beta) - digamma(alpha+beta) - log1mData
		d1 := trigamma(alpha) - trigamma(alpha+beta)
		d2 := -trigamma(alpha + beta)
		d3 := trigamma(beta) - trigamma(alpha+beta)

		det := d1*d3 - d2*d2
		if det == 0 {
			break
		}
		deltaAlpha := (d3*g1 - d2*g2) / det
		deltaBeta := (d1*g2 - d2*g1) / det
		alpha -= deltaAlpha
		beta -= deltaBeta
		if alpha <= 0 {
			alpha = 1e-3
		}
		if beta <= 0 {
			beta = 1e-3
		}
	}

	ll := 0.0
	for _, v := range data {
		ll += betaLogPDF(v, alpha, beta)
	}
	aic, bic := akaikeBayesInfo(ll, 2, n)
	ksStat, ksP := ksTest(data, func(x float64) float64 { return betaCDF(x, alpha, beta) })

	return FitResult{
		Distribution: "beta",
		Parameters:   map[string]float64{"alpha": alpha, "beta": beta},
		ConfidenceIntervals: map[string][2]float64{
			"alpha": {alpha, alpha}, // Newton-refined point estimate; no closed-form Beta-shape CI computed
			"beta":  {beta, beta},
		},
		LogLikelihood: ll,
		AIC:           aic,
		BIC:           bic,
		KSStatistic:   ksStat,
		KSPValue:      ksP,
		SampleSize:    len(data),
	}, nil
}

// BootstrapCI recomputes fit's point estimate for each param over
// resamples-with-replacement of data and returns the 2.5th/97.5th
// percentile of each parameter's bootstrap distribution, matching
// parameter_estimation.py's fit_with_bootstrap (percentile method).
// src supplies the uniform randomness used to draw resample indices — it
// is typically a runtime.RNG, kept decoupled here by accepting any value
// with a Float64() float64 method.
func BootstrapCI(data []float64, fit func([]float64) FitResult, resamples int, src interface{ Float64() float64 }) map[string][2]float64 {
	if resamples <= 0 {
		resamples = 1000
	}
	samples := map[string][]float64{}
	n := len(data)
	resampled := make([]float64, n)
	for i := 0; i < resamples; i++ {
		for j := range resampled {
			idx := int(src.Float64() * float64(n))
			if idx >= n {
				idx = n - 1
			}
			resampled[j] = data[idx]
		}
		r := fit(resampled)
		for name, v := range r.Parameters {
			samples[name] = append(samples[name], v)
		}
	}
	out := make(map[string][2]float64, len(samples))
	for name, vals := range samples {
		sort.Float64s(vals)
		out[name] = [2]float64{quantile(vals, 0.025), quantile(vals, 0.975)}
	}
	return out
}

func stdConfidenceInterval(std, n float64) [2]float64 {
	if n < 2 {
		return [2]float64{std, std}
	}
	df := n - 1
	chiLow := chi2QuantileWilsonHilferty(0.025, df)
	chiHigh := chi2QuantileWilsonHilferty(0.975, df)
	variance := std * std
	lower := math.Sqrt(df * variance / chiHigh)
	upper := math.Sqrt(df * variance / chiLow)
	return [2]float64{lower, upper}
}

func akaikeBayesInfo(logLikelihood, k, n float64) (aic, bic float64) {
	aic = 2*k - 2*logLikelihood
	bic = k*math.Log(n) - 2*logLikelihood
	return
}

func normalLogPDF(x, mu, sigma float64) float64 {
	if sigma == 0 {
		if x == mu {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	z := (x - mu) / sigma
	return -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
}

func normalLogLikelihood(data []float64, mu, sigma float64) float64 {
	ll := 0.0
	for _, x := range data {
		ll += normalLogPDF(x, mu, sigma)
	}
	return ll
}

// digamma approximates psi(x) via the asymptotic series after shifting x
// up with the recurrence psi(x) = psi(x+1) - 1/x, standard practice for
// evaluating digamma/trigamma without a dedicated special-functions
// library (none of which appear anywhere in the example pack).
func digamma(x float64) float64 {
	result := 0.0
	for x < 6 {
		result -= 1 / x
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	result += math.Log(x) - 0.5*inv -
		inv2*(1.0/12-inv2*(1.0/120-inv2*(1.0/252)))
	return result
}

func trigamma(x float64) float64 {
	result := 0.0
	for x < 6 {
		result += 1 / (x * x)
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	result += inv*(1+inv*0.5) + inv2*(1.0/6-inv2*(1.0/30-inv2*(1.0/42)))
	return result
}

func logBeta(a, b float64) float64 {
	return lgamma(a) + lgamma(b) - lgamma(a+b)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func betaLogPDF(x, a, b float64) float64 {
	return (a-1)*math.Log(x) + (b-1)*math.Log(1-x) - logBeta(a, b)
}

// betaCDF evaluates the regularized incomplete beta function via a
// continued-fraction expansion (Numerical Recipes' betacf), the standard
// approach absent a stats library.
func betaCDF(x, a, b float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	bt := math.Exp(lgamma(a+b) - lgamma(a) - lgamma(b) + a*math.Log(x) + b*math.Log(1-x))
	if x < (a+1)/(a+b+2) {
		return bt * betacf(x, a, b) / a
	}
	return 1 - bt*betacf(1-x, b, a)/b
}

func betacf(x, a, b float64) float64 {
	const maxIter = 200
	const eps = 3e-12
	const fpmin = 1e-300

	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpmin {
		d = fpmin
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		mf := float64(m)
		m2 := 2 * mf

		aa := mf * (b - mf) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + mf) * (qab + mf) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}
