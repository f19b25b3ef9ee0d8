package regime

import (
	"encoding/json"
	"errors"
	"testing"

	"quantlab/internal/market"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]int{0, 0, 1, 1, 1, 0, 1})
	if s.TotalDays != 7 {
		t.Fatalf("expected 7 days, got %d", s.TotalDays)
	}
	if s.Days[0] != 3 || s.Days[1] != 4 {
		t.Errorf("unexpected day counts %v", s.Days)
	}
	// 状态0的连续段: 2,1；状态1: 3,1
	if s.AvgRun[0] != 1.5 || s.AvgRun[1] != 2 {
		t.Errorf("unexpected average runs %v", s.AvgRun)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var flat map[string]float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if flat["total_days"] != 7 || flat["state_1_days"] != 4 || flat["state_0_avg_run"] != 1.5 {
		t.Errorf("unexpected json %s", raw)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalDays != 0 || len(s.Days) != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}

func TestVolatilityClassifier(t *testing.T) {
	returns := []float64{0.001, -0.001, 0.001, -0.001, 0.05, -0.05, 0.05, -0.05}
	states, err := VolatilityClassifier{Window: 2}.Classify(returns)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(states) != len(returns) {
		t.Fatalf("expected %d states, got %d", len(returns), len(states))
	}
	if states[0] != 0 || states[2] != 0 {
		t.Errorf("calm period classified as turbulent: %v", states)
	}
	if states[6] != 1 || states[7] != 1 {
		t.Errorf("turbulent period classified as calm: %v", states)
	}
}

func TestVolatilityClassifier_Errors(t *testing.T) {
	if _, err := (VolatilityClassifier{Window: 1}).Classify([]float64{1, 2}); !errors.Is(err, market.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := (VolatilityClassifier{Window: 5}).Classify([]float64{1, 2}); !errors.Is(err, market.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
