package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

var priceHeader = []string{"date", "price"}

// WritePriceCSV 以 date,price 两列写出价格序列。
func WritePriceCSV(w io.Writer, series PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(priceHeader); err != nil {
		return fmt.Errorf("market: 写入表头失败: %w", err)
	}
	for _, p := range series {
		record := []string{DayKey(p.Date), strconv.FormatFloat(p.Price, 'g', -1, 64)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("market: 写入 %s 失败: %w", DayKey(p.Date), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPriceCSV 读取 date,price 两列，按日期排序后返回并校验。
func ReadPriceCSV(r io.Reader) (PriceSeries, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("market: CSV 为空: %w", ErrInsufficientData)
		}
		return nil, fmt.Errorf("market: 读取表头失败: %w", err)
	}
	dateCol, priceCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "price":
			priceCol = i
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("market: CSV 缺少 date 或 price 列: %w", ErrInvalidInput)
	}

	var series PriceSeries
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market: 读取第 %d 行失败: %w", line, err)
		}
		date, err := time.Parse(DateLayout, strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("market: 第 %d 行日期非法: %w", line, ErrInvalidInput)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("market: 第 %d 行价格非法: %w", line, ErrInvalidInput)
		}
		series = append(series, Point{Date: Day(date), Price: price})
	}

	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}
