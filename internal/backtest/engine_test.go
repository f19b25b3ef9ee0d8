package backtest

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"quantlab/internal/market"
	"quantlab/internal/process"
	"quantlab/internal/rng"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func makeSeries(t *testing.T, prices ...float64) market.PriceSeries {
	t.Helper()
	series, err := market.NewPriceSeries(market.BusinessDays(day0, len(prices)), prices)
	if err != nil {
		t.Fatalf("NewPriceSeries returned error: %v", err)
	}
	return series
}

func makeSignals(prices market.PriceSeries, values ...market.Signal) market.SignalSeries {
	return market.NewSignalSeries(prices.Dates(), values)
}

func newTestEngine(t *testing.T, cash float64) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{InitialCash: cash}, nil)
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	return engine
}

func TestRun_ConcreteScenario(t *testing.T) {
	prices := makeSeries(t, 100, 105, 95, 110)
	signals := makeSignals(prices, 1, 0, -1, 1)

	result, err := newTestEngine(t, 1000).Run(prices, signals)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	wantTrades := []TradeEvent{
		{Date: prices[0].Date, Kind: TradeBuy, Price: 100, Quantity: 10},
		{Date: prices[2].Date, Kind: TradeSell, Price: 95, Quantity: 10},
		{Date: prices[3].Date, Kind: TradeBuy, Price: 110, Quantity: 8},
	}
	if len(result.History) != len(wantTrades) {
		t.Fatalf("unexpected trade count: got %d want %d", len(result.History), len(wantTrades))
	}
	for i, want := range wantTrades {
		if result.History[i] != want {
			t.Errorf("trade %d: got %+v want %+v", i, result.History[i], want)
		}
	}

	wantNAV := []float64{1000, 1050, 950, 950}
	for i, want := range wantNAV {
		if result.NAVHistory[i].NAV != want {
			t.Errorf("nav %d: got %v want %v", i, result.NAVHistory[i].NAV, want)
		}
		if !result.NAVHistory[i].Date.Equal(prices[i].Date) {
			t.Errorf("nav %d keyed by wrong date", i)
		}
	}
	if result.FinalNAV != 950 || result.PnL != -50 || result.InitialCash != 1000 {
		t.Errorf("unexpected summary: final=%v pnl=%v initial=%v", result.FinalNAV, result.PnL, result.InitialCash)
	}
	if math.Abs(result.Metrics.TotalReturn-(-0.05)) > 1e-12 {
		t.Errorf("unexpected total return %v", result.Metrics.TotalReturn)
	}
	if math.Abs(result.Metrics.MaxDrawdown-100.0/1050) > 1e-12 {
		t.Errorf("unexpected max drawdown %v", result.Metrics.MaxDrawdown)
	}
}

func TestRun_EmptySeries(t *testing.T) {
	result, err := newTestEngine(t, 1000).Run(nil, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.FinalNAV != 1000 || result.PnL != 0 {
		t.Errorf("unexpected summary: final=%v pnl=%v", result.FinalNAV, result.PnL)
	}
	if len(result.History) != 0 || len(result.NAVHistory) != 0 {
		t.Errorf("expected empty histories")
	}
}

func TestRun_NoOpTransitions(t *testing.T) {
	prices := makeSeries(t, 100, 100, 100, 100, 100)
	// 空仓卖出、持仓重复买入都不产生成交
	signals := makeSignals(prices, -1, 1, 1, 0, -1)

	result, err := newTestEngine(t, 1000).Run(prices, signals)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.History) != 2 {
		t.Fatalf("expected BUY then SELL, got %+v", result.History)
	}
	if result.History[0].Kind != TradeBuy || result.History[1].Kind != TradeSell {
		t.Errorf("unexpected kinds %+v", result.History)
	}
	if result.History[0].Date != prices[1].Date {
		t.Errorf("buy should happen on the first buy signal")
	}
}

func TestRun_UnaffordableBuyRecordsNothing(t *testing.T) {
	prices := makeSeries(t, 500, 600)
	signals := makeSignals(prices, 1, 1)

	result, err := newTestEngine(t, 400).Run(prices, signals)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.History) != 0 {
		t.Fatalf("expected no trades, got %+v", result.History)
	}
	for _, p := range result.NAVHistory {
		if p.NAV != 400 {
			t.Errorf("nav should stay at cash, got %v", p.NAV)
		}
	}
}

func TestRun_AlignmentFillsAndCoerces(t *testing.T) {
	prices := makeSeries(t, 100, 101, 102, 103, 104)
	signals := market.SignalSeries{
		{Date: prices[0].Date, Value: 1.7},       // 截断为 1
		{Date: prices[2].Date, Value: math.NaN()}, // 持有
		{Date: prices[3].Date, Value: -2},         // 越界，持有
		{Date: prices[4].Date, Value: -1},
		{Date: prices[4].Date.AddDate(0, 0, 7), Value: 1}, // 没有价格
	}

	result, err := newTestEngine(t, 1000).Run(prices, signals)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.History) != 2 || result.History[1].Date != prices[4].Date {
		t.Fatalf("unexpected trades %+v", result.History)
	}
	want := Diagnostics{Missing: 1, Coerced: 3, Unmatched: 1}
	if result.Diagnostics != want {
		t.Errorf("diagnostics: got %+v want %+v", result.Diagnostics, want)
	}
	if len(result.NAVHistory) != len(prices) {
		t.Errorf("expected nav per price day")
	}
}

func TestRun_InvalidPrices(t *testing.T) {
	engine := newTestEngine(t, 1000)
	dates := market.BusinessDays(day0, 3)
	cases := map[string]market.PriceSeries{
		"zero":       {{dates[0], 100}, {dates[1], 0}, {dates[2], 100}},
		"negative":   {{dates[0], -1}},
		"nan":        {{dates[0], 100}, {dates[1], math.NaN()}},
		"inf":        {{dates[0], math.Inf(1)}},
		"duplicates": {{dates[0], 100}, {dates[0], 101}},
		"same day":   {{dates[0].Add(9 * time.Hour), 100}, {dates[0].Add(15 * time.Hour), 101}},
	}
	for name, prices := range cases {
		result, err := engine.Run(prices, nil)
		if !errors.Is(err, market.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
		if result.NAVHistory != nil || result.History != nil {
			t.Errorf("%s: expected no partial result", name)
		}
	}
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	prices := makeSeries(t, 100, 90)
	signals := makeSignals(prices, 1, -1)
	before := prices.Clone()

	if _, err := newTestEngine(t, 1000).Run(prices, signals); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i := range prices {
		if prices[i] != before[i] {
			t.Fatalf("prices mutated at %d", i)
		}
	}
	if signals[0].Value != 1 || signals[1].Value != -1 {
		t.Fatalf("signals mutated")
	}
}

func TestRun_InvariantsOnRandomSignals(t *testing.T) {
	gen := process.NewGenerator(day0, nil)
	params := process.Params{StartPrice: 100, Drift: 0.0005, Volatility: 0.03}
	engine := newTestEngine(t, 10000)

	for seed := uint64(1); seed <= 20; seed++ {
		stream := rng.New(seed)
		prices, err := gen.Generate(process.ModelGBM, params, 200, stream)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		values := make([]market.Signal, len(prices))
		for i := range values {
			values[i] = market.Signal(int(stream.Uniform()*3) - 1)
		}

		result, err := engine.Run(prices, makeSignals(prices, values...))
		if err != nil {
			t.Fatalf("seed %d: Run returned error: %v", seed, err)
		}

		cash, qty := 10000.0, int64(0)
		next := 0
		for i, p := range prices {
			if next < len(result.History) && result.History[next].Date.Equal(p.Date) {
				ev := result.History[next]
				if next > 0 && result.History[next-1].Kind == ev.Kind {
					t.Fatalf("seed %d: consecutive %s events", seed, ev.Kind)
				}
				switch ev.Kind {
				case TradeBuy:
					if next%2 != 0 {
						t.Fatalf("seed %d: BUY at odd position %d", seed, next)
					}
					if float64(ev.Quantity)*ev.Price > cash {
						t.Fatalf("seed %d: leverage used on %s", seed, market.DayKey(p.Date))
					}
					cash -= float64(ev.Quantity) * ev.Price
					qty = ev.Quantity
				case TradeSell:
					if ev.Quantity != qty {
						t.Fatalf("seed %d: partial sell", seed)
					}
					cash += float64(ev.Quantity) * ev.Price
					qty = 0
				}
				next++
			}
			if cash < 0 || qty < 0 {
				t.Fatalf("seed %d: negative state cash=%v qty=%d", seed, cash, qty)
			}
			if want := cash + float64(qty)*p.Price; result.NAVHistory[i].NAV != want {
				t.Fatalf("seed %d day %d: nav %v != %v", seed, i, result.NAVHistory[i].NAV, want)
			}
		}
		if next != len(result.History) {
			t.Fatalf("seed %d: unreplayed trades", seed)
		}
	}
}

func TestResult_JSONShape(t *testing.T) {
	prices := makeSeries(t, 100, 95)
	result, err := newTestEngine(t, 1000).Run(prices, makeSignals(prices, 1, -1))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	body := string(raw)
	for _, want := range []string{
		`"initial_cash":1000`,
		`"final_nav":950`,
		`"pnl":-50`,
		`"history":[["2024-03-04","BUY",100,10],["2024-03-05","SELL",95,10]]`,
		`"nav_history":[["2024-03-04",1000],["2024-03-05",950]]`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in %s", want, body)
		}
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(Config{}, nil)
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	if engine.InitialCash() != 0 {
		t.Errorf("zero cash must be kept, got %v", engine.InitialCash())
	}
	if _, err := NewEngine(Config{InitialCash: -1}, nil); !errors.Is(err, market.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRun_ZeroCash(t *testing.T) {
	prices := makeSeries(t, 100, 110)
	result, err := newTestEngine(t, 0).Run(prices, makeSignals(prices, 1, 0))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.InitialCash != 0 || result.FinalNAV != 0 || result.PnL != 0 {
		t.Errorf("unexpected summary: initial=%v final=%v pnl=%v", result.InitialCash, result.FinalNAV, result.PnL)
	}
	if len(result.History) != 0 {
		t.Errorf("expected no trades, got %+v", result.History)
	}
	for _, p := range result.NAVHistory {
		if p.NAV != 0 {
			t.Errorf("expected zero nav, got %v", p.NAV)
		}
	}
}

func TestCoerceSignal(t *testing.T) {
	cases := []struct {
		in      float64
		want    market.Signal
		coerced bool
	}{
		{1, market.SignalBuy, false},
		{-1, market.SignalSell, false},
		{0, market.SignalHold, false},
		{0.9, market.SignalHold, true},
		{-1.5, market.SignalSell, true},
		{2, market.SignalHold, true},
		{math.Inf(-1), market.SignalHold, true},
	}
	for _, tc := range cases {
		got, coerced := CoerceSignal(tc.in)
		if got != tc.want || coerced != tc.coerced {
			t.Errorf("CoerceSignal(%v) = %v,%v; want %v,%v", tc.in, got, coerced, tc.want, tc.coerced)
		}
	}
}
