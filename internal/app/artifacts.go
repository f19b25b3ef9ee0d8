package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/multierr"

	"quantlab/internal/backtest"
	"quantlab/internal/market"
)

type backtestSummary struct {
	Initial  float64          `json:"initial"`
	FinalNAV float64          `json:"final_nav"`
	PnL      float64          `json:"pnl"`
	Metrics  backtest.Metrics `json:"metrics"`
}

func writeJSON(path string, v interface{}) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件 %q 失败: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("写入 %q 失败: %w", path, err)
	}
	return nil
}

func writeSeries(path string, series market.PriceSeries) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件 %q 失败: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if err := market.WritePriceCSV(f, series); err != nil {
		return fmt.Errorf("写入 %q 失败: %w", path, err)
	}
	return nil
}

func readSeries(path string) (market.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件 %q 失败: %w", path, err)
	}
	defer f.Close()

	series, err := market.ReadPriceCSV(f)
	if err != nil {
		return nil, fmt.Errorf("读取 %q 失败: %w", path, err)
	}
	return series, nil
}

// writeHistoryCSV 输出成交明细，列为 date,type,price,quantity。
func writeHistoryCSV(path string, history []backtest.TradeEvent) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件 %q 失败: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "type", "price", "quantity"}); err != nil {
		return fmt.Errorf("写入 %q 失败: %w", path, err)
	}
	for _, ev := range history {
		row := []string{
			market.DayKey(ev.Date),
			string(ev.Kind),
			strconv.FormatFloat(ev.Price, 'f', -1, 64),
			strconv.FormatInt(ev.Quantity, 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("写入 %q 失败: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("写入 %q 失败: %w", path, err)
	}
	return nil
}
