package estimate

import (
	"errors"
	"math"
	"testing"
	"time"

	"quantlab/internal/market"
	"quantlab/internal/process"
	"quantlab/internal/rng"
)

func TestFromPrices_KnownValues(t *testing.T) {
	prices := []float64{100, 110, 99, 120}
	got, err := FromPrices(prices)
	if err != nil {
		t.Fatalf("FromPrices returned error: %v", err)
	}

	r := []float64{math.Log(110.0 / 100), math.Log(99.0 / 110), math.Log(120.0 / 99)}
	mean := (r[0] + r[1] + r[2]) / 3
	var ss float64
	for _, v := range r {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / 2)

	if math.Abs(got.Drift-mean) > 1e-12 {
		t.Errorf("drift: got %v want %v", got.Drift, mean)
	}
	if math.Abs(got.Volatility-std) > 1e-12 {
		t.Errorf("volatility: got %v want %v", got.Volatility, std)
	}
	if got.Samples != 3 {
		t.Errorf("expected 3 samples, got %d", got.Samples)
	}
}

func TestFromPrices_TwoPointsZeroVolatility(t *testing.T) {
	got, err := FromPrices([]float64{100, 105})
	if err != nil {
		t.Fatalf("FromPrices returned error: %v", err)
	}
	if got.Volatility != 0 {
		t.Errorf("expected volatility 0, got %v", got.Volatility)
	}
	if math.Abs(got.Drift-math.Log(1.05)) > 1e-12 {
		t.Errorf("unexpected drift %v", got.Drift)
	}
}

func TestFromPrices_Errors(t *testing.T) {
	if _, err := FromPrices(nil); !errors.Is(err, market.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for empty input, got %v", err)
	}
	if _, err := FromPrices([]float64{100}); !errors.Is(err, market.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for single price, got %v", err)
	}
	if _, err := FromPrices([]float64{100, 0, 101}); !errors.Is(err, market.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero price, got %v", err)
	}
}

func TestFromSeries_RecoversGeneratingParameters(t *testing.T) {
	params := process.Params{StartPrice: 100, Drift: 0.0008, Volatility: 0.015}
	gen := process.NewGenerator(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), nil)
	series, err := gen.Generate(process.ModelGBM, params, 20000, rng.New(42))
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	got, err := FromSeries(series)
	if err != nil {
		t.Fatalf("FromSeries returned error: %v", err)
	}

	// 对数收益率均值为 drift - σ²/2，标准误约 σ/sqrt(n)
	wantDrift := params.Drift - 0.5*params.Volatility*params.Volatility
	if diff := math.Abs(got.Drift - wantDrift); diff > 5*params.Volatility/math.Sqrt(20000) {
		t.Errorf("drift too far: got %v want %v", got.Drift, wantDrift)
	}
	if diff := math.Abs(got.Volatility - params.Volatility); diff > 0.05*params.Volatility {
		t.Errorf("volatility too far: got %v want %v", got.Volatility, params.Volatility)
	}
}
