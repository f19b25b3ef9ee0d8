// Package monitor 将流水线各阶段的结果以事件形式写入 SQLite，供 /events 查询。
package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quantlab/internal/backtest"
	"quantlab/internal/estimate"
	"quantlab/internal/market"
	"quantlab/internal/montecarlo"
	"quantlab/internal/regime"
	"quantlab/internal/store"
)

// Service 负责持久化监控事件。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 初始化监控服务，创建所需表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("monitor: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     store.DB(),
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS monitor_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	run_id TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_monitor_events_type ON monitor_events(event_type);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("monitor: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单个事件。
func (s *Service) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("monitor: 序列化事件失败: %w", err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO monitor_events (event_type, run_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		string(event.Type), event.RunID, string(payload), event.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("monitor: 写入事件失败: %w", err)
	}

	return nil
}

func (s *Service) record(ctx context.Context, typ EventType, runID string, payload interface{}) {
	if err := s.Record(ctx, Event{
		Type:      typ,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("记录监控事件失败", zap.String("type", string(typ)), zap.Error(err))
	}
}

// RecordSeries 记录生成的价格序列。
func (s *Service) RecordSeries(ctx context.Context, runID, model string, series market.PriceSeries) {
	payload := SeriesPayload{Model: model, Days: series.Len()}
	if n := series.Len(); n > 0 {
		payload.FirstDate = market.DayKey(series[0].Date)
		payload.LastDate = market.DayKey(series[n-1].Date)
		payload.First = series[0].Price
		payload.Last = series[n-1].Price
	}
	s.record(ctx, EventSeriesGenerated, runID, payload)
}

// RecordEstimate 记录参数估计。
func (s *Service) RecordEstimate(ctx context.Context, runID string, est estimate.Estimate) {
	s.record(ctx, EventEstimate, runID, EstimatePayload{Estimate: est})
}

// RecordRegime 记录状态摘要。
func (s *Service) RecordRegime(ctx context.Context, runID string, summary regime.Summary) {
	s.record(ctx, EventRegime, runID, RegimePayload{Summary: summary})
}

// RecordMonteCarlo 记录路径模拟结果。
func (s *Service) RecordMonteCarlo(ctx context.Context, runID string, seed uint64, summary montecarlo.Summary) {
	s.record(ctx, EventMonteCarlo, runID, NewMonteCarloPayload(seed, summary))
}

// RecordBacktest 记录回测结果。
func (s *Service) RecordBacktest(ctx context.Context, runID string, result backtest.Result) {
	s.record(ctx, EventBacktest, runID, NewBacktestPayload(result))
}

// RecordError 记录异常。
func (s *Service) RecordError(ctx context.Context, runID, msg string, err error, ctxMap map[string]interface{}) {
	payload := ErrorPayload{
		Message: msg,
		Context: ctxMap,
	}
	if err != nil {
		payload.Error = err.Error()
	}
	s.record(ctx, EventError, runID, payload)
}

// ListEvents 按类型检索最近事件，eventType 为空时返回全部类型。
func (s *Service) ListEvents(ctx context.Context, eventType EventType, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT event_type, run_id, payload, created_at FROM monitor_events`
	args := make([]interface{}, 0, 2)
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, string(eventType))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monitor: 查询事件失败: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			typ     string
			runID   string
			payload string
			created string
		)
		if scanErr := rows.Scan(&typ, &runID, &payload, &created); scanErr != nil {
			return nil, fmt.Errorf("monitor: 解析事件失败: %w", scanErr)
		}

		ts, parseErr := time.Parse(time.RFC3339Nano, created)
		if parseErr != nil {
			ts = time.Now().UTC()
		}

		events = append(events, Event{
			Type:      EventType(typ),
			RunID:     runID,
			Timestamp: ts,
			Payload:   json.RawMessage(payload),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monitor: 读取事件失败: %w", err)
	}

	return events, nil
}
