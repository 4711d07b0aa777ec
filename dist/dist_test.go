package dist

import (
	"math"
	"math/rand"
	"testing"
)

// goRandSource adapts math/rand.Rand to dist.Source for tests; production
// code uses runtime.RNG instead.
type goRandSource struct{ r *rand.Rand }

func (g goRandSource) Float64() float64 { return g.r.Float64() }

func TestMeans(t *testing.T) {
	tests := []struct {
		name string
		d    Dist
		want float64
	}{
		{"Normal", Normal{Mu: 10, Sigma: 2}, 10},
		{"Uniform", Uniform{Min: 0, Max: 10}, 5},
		{"Triangular", Triangular{Min: 0, Mode: 5, Max: 10}, 5},
		{"Beta", Beta{Alpha: 2, Beta: 2}, 0.5},
		{"PERT", PERT{Min: 0, Mode: 5, Max: 10}, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.Mean(); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("%s.Mean() = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestSampleStaysWithinSupport(t *testing.T) {
	src := goRandSource{rand.New(rand.NewSource(1))}
	tri := Triangular{Min: 0, Mode: 5, Max: 10}
	for i := 0; i < 1000; i++ {
		v := tri.Sample(src)
		if v < 0 || v > 10 {
			t.Fatalf("Triangular sample %v out of [0,10]", v)
		}
	}
	uni := Uniform{Min: -5, Max: 5}
	for i := 0; i < 1000; i++ {
		v := uni.Sample(src)
		if v < -5 || v > 5 {
			t.Fatalf("Uniform sample %v out of [-5,5]", v)
		}
	}
	b := Beta{Alpha: 2, Beta: 5}
	for i := 0; i < 1000; i++ {
		v := b.Sample(src)
		if v < 0 || v > 1 {
			t.Fatalf("Beta sample %v out of [0,1]", v)
		}
	}
}

func TestSampleMeanConvergesApproximately(t *testing.T) {
	src := goRandSource{rand.New(rand.NewSource(42))}
	n := Normal{Mu: 100, Sigma: 10}
	sum := 0.0
	const trials = 20000
	for i := 0; i < trials; i++ {
		sum += n.Sample(src)
	}
	mean := sum / trials
	if math.Abs(mean-100) > 1 {
		t.Errorf("sample mean %v too far from 100", mean)
	}
}
