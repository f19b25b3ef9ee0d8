package indicator

import (
	"errors"
	"testing"
	"time"

	"quantlab/internal/backtest"
	"quantlab/internal/market"
)

func series(t *testing.T, prices ...float64) market.PriceSeries {
	t.Helper()
	s, err := market.NewPriceSeries(market.BusinessDays(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), len(prices)), prices)
	if err != nil {
		t.Fatalf("NewPriceSeries returned error: %v", err)
	}
	return s
}

func TestMovingAverageCross_SMA(t *testing.T) {
	cross, err := NewMovingAverageCross(3, AverageSMA)
	if err != nil {
		t.Fatalf("NewMovingAverageCross returned error: %v", err)
	}
	prices := series(t, 10, 11, 12, 9, 10, 10)
	got, err := cross.Signals(prices)
	if err != nil {
		t.Fatalf("Signals returned error: %v", err)
	}

	// SMA3: -, -, 11, 10.67, 10.33, 9.67
	want := []float64{0, 0, 1, -1, -1, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d signals, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Value != want[i] {
			t.Errorf("signal %d: got %v want %v", i, got[i].Value, want[i])
		}
		if !got[i].Date.Equal(prices[i].Date) {
			t.Errorf("signal %d has wrong date", i)
		}
	}
}

func TestMovingAverageCross_ShortSeriesHolds(t *testing.T) {
	cross, _ := NewMovingAverageCross(20, AverageEMA)
	got, err := cross.Signals(series(t, 1, 2, 3))
	if err != nil {
		t.Fatalf("Signals returned error: %v", err)
	}
	for i, s := range got {
		if s.Value != 0 {
			t.Errorf("signal %d: expected hold, got %v", i, s.Value)
		}
	}
}

func TestMovingAverageCross_FlatPriceHolds(t *testing.T) {
	cross, _ := NewMovingAverageCross(2, "")
	got, _ := cross.Signals(series(t, 5, 5, 5))
	for _, s := range got {
		if s.Value != 0 {
			t.Fatalf("expected hold on flat prices, got %v", s.Value)
		}
	}
}

func TestNewMovingAverageCross_Invalid(t *testing.T) {
	if _, err := NewMovingAverageCross(1, AverageSMA); !errors.Is(err, market.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for window 1, got %v", err)
	}
	if _, err := NewMovingAverageCross(5, "wma"); !errors.Is(err, market.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for unknown kind, got %v", err)
	}
}

func TestMovingAverageCross_ImplementsSignalSource(t *testing.T) {
	var source backtest.SignalSource
	cross, _ := NewMovingAverageCross(2, AverageSMA)
	source = cross
	if _, err := source.Signals(nil); err != nil {
		t.Fatalf("Signals on empty series returned error: %v", err)
	}
}
