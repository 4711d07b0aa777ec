// Package dist implements the probability distributions PEL programs may
// sample from (spec.md §4.2/§4.6): Normal, LogNormal, Beta, Triangular,
// Uniform, and PERT. Each exposes its closed-form mean (used by the
// deterministic evaluation mode, which never samples) and a Sample method
// (used by Monte Carlo mode).
//
// Arithmetic here is float64 (only math is imported); the runtime converts
// results to decimal. Grounded on the Python reference's parameter_estimation.py for which two parameters
// name each family and how Beta's shape parameters relate to its mean.
package dist

import "math"

// Source is anything that can produce a uniform float64 in [0, 1). PEL's
// runtime.RNG satisfies this without dist importing runtime, so Monte
// Carlo replication can hand each distribution its own replication-scoped
// generator (spec.md §4.6).
type Source interface {
	Float64() float64
}

// Dist is a sampleable distribution with a closed-form mean.
type Dist interface {
	Mean() float64
	Sample(src Source) float64
}

// Normal is a Gaussian distribution, sampled via Box-Muller.
type Normal struct {
	Mu, Sigma float64
}

func (n Normal) Mean() float64 { return n.Mu }

func (n Normal) Sample(src Source) float64 {
	return n.Mu + n.Sigma*standardNormal(src)
}

// standardNormal draws one N(0,1) sample via the Box-Muller transform.
func standardNormal(src Source) float64 {
	u1 := src.Float64()
	for u1 == 0 {
		u1 = src.Float64() // avoid log(0)
	}
	u2 := src.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// LogNormal is the distribution of exp(X) for X ~ Normal(Mu, Sigma), where
// Mu and Sigma are the underlying normal's parameters (not the lognormal's
// own mean/stddev).
type LogNormal struct {
	Mu, Sigma float64
}

func (l LogNormal) Mean() float64 {
	return math.Exp(l.Mu + l.Sigma*l.Sigma/2)
}

func (l LogNormal) Sample(src Source) float64 {
	return math.Exp(l.Mu + l.Sigma*standardNormal(src))
}

// Beta is parameterized by its two shape parameters, sampled via the
// ratio-of-Gammas construction: X = G(a) / (G(a) + G(b)).
type Beta struct {
	Alpha, Beta float64
}

func (b Beta) Mean() float64 {
	return b.Alpha / (b.Alpha + b.Beta)
}

func (b Beta) Sample(src Source) float64 {
	x := sampleGamma(src, b.Alpha)
	y := sampleGamma(src, b.Beta)
	return x / (x + y)
}

// sampleGamma implements Marsaglia and Tsang's method for shape >= 1, and
// the Ahrens-Dieter boost (Gamma(a) = Gamma(a+1) * U^(1/a)) for shape < 1.
func sampleGamma(src Source, shape float64) float64 {
	if shape < 1 {
		u := src.Float64()
		for u == 0 {
			u = src.Float64()
		}
		return sampleGamma(src, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := standardNormal(src)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := src.Float64()
		if u == 0 {
			continue
		}
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Triangular is parameterized by its support and mode.
type Triangular struct {
	Min, Mode, Max float64
}

func (t Triangular) Mean() float64 {
	return (t.Min + t.Mode + t.Max) / 3
}

func (t Triangular) Sample(src Source) float64 {
	u := src.Float64()
	fc := (t.Mode - t.Min) / (t.Max - t.Min)
	if u < fc {
		return t.Min + math.Sqrt(u*(t.Max-t.Min)*(t.Mode-t.Min))
	}
	return t.Max - math.Sqrt((1-u)*(t.Max-t.Min)*(t.Max-t.Mode))
}

// Uniform is the continuous uniform distribution over [Min, Max].
type Uniform struct {
	Min, Max float64
}

func (u Uniform) Mean() float64 { return (u.Min + u.Max) / 2 }

func (u Uniform) Sample(src Source) float64 {
	return u.Min + src.Float64()*(u.Max-u.Min)
}

// PERT is a reshaped Beta distribution over [Min, Max] peaked at Mode,
// with the standard PERT shape constant lambda = 4.
type PERT struct {
	Min, Mode, Max float64
}

const pertLambda = 4.0

func (p PERT) alphaBeta() (alpha, beta float64) {
	span := p.Max - p.Min
	alpha = 1 + pertLambda*(p.Mode-p.Min)/span
	beta = 1 + pertLambda*(p.Max-p.Mode)/span
	return
}

func (p PERT) Mean() float64 {
	return (p.Min + pertLambda*p.Mode + p.Max) / (pertLambda + 2)
}

func (p PERT) Sample(src Source) float64 {
	alpha, beta := p.alphaBeta()
	b := Beta{Alpha: alpha, Beta: beta}
	return p.Min + b.Sample(src)*(p.Max-p.Min)
}
