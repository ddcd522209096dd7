package analytics

import (
	"math"
	"testing"
)

func TestSampleVariance(t *testing.T) {
	t.Parallel()

	if v := sampleVariance([]float64{4}); v != 0 {
		t.Fatalf("single observation variance = %f", v)
	}
	// Sample variance of {1,5} with n-1 denominator is 8.
	if v := sampleVariance([]float64{1, 5}); !almostEqual(v, 8) {
		t.Fatalf("variance of {1,5} = %f, want 8", v)
	}
}

func TestMedian(t *testing.T) {
	t.Parallel()

	if _, ok := median(nil); ok {
		t.Fatal("median of empty input must report false")
	}
	if m, _ := median([]float64{3, 1, 2}); !almostEqual(m, 2) {
		t.Fatalf("odd median = %f", m)
	}
	if m, _ := median([]float64{4, 1, 2, 3}); !almostEqual(m, 2.5) {
		t.Fatalf("even median = %f", m)
	}
}

func TestPearson(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	if r, ok := pearson(xs, []float64{2, 4, 6, 8}); !ok || !almostEqual(r, 1) {
		t.Fatalf("perfect positive correlation: r=%f ok=%v", r, ok)
	}
	if r, ok := pearson(xs, []float64{8, 6, 4, 2}); !ok || !almostEqual(r, -1) {
		t.Fatalf("perfect negative correlation: r=%f ok=%v", r, ok)
	}
	if _, ok := pearson(xs, []float64{5, 5, 5, 5}); ok {
		t.Fatal("zero-variance side must be degenerate")
	}
	if _, ok := pearson([]float64{1}, []float64{2}); ok {
		t.Fatal("single pair must be degenerate")
	}
}

func TestMinMaxNormalize(t *testing.T) {
	t.Parallel()

	out := minMaxNormalize([]float64{2, 4, 6})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if !almostEqual(out[i], want[i]) {
			t.Fatalf("normalize[%d] = %f, want %f", i, out[i], want[i])
		}
	}

	flat := minMaxNormalize([]float64{3, 3, 3})
	for _, v := range flat {
		if v != 0 {
			t.Fatalf("flat series must collapse to zeros: %v", flat)
		}
	}

	bad := minMaxNormalize([]float64{math.NaN(), 1, 2})
	for _, v := range bad {
		if v != 0 {
			t.Fatalf("non-finite bounds must collapse to zeros: %v", bad)
		}
	}
}
