package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"quantlab/internal/backtest"
	"quantlab/internal/estimate"
	"quantlab/internal/market"
)

// ErrRunNotFound 表示指定的运行记录不存在。
var ErrRunNotFound = errors.New("store: run not found")

// RunRecord 为一次完整流水线运行的持久化视图。
type RunRecord struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Seed      *uint64           `json:"seed,omitempty"`
	Estimate  estimate.Estimate `json:"estimate"`
	EOQ       float64           `json:"eoq_trade_size"`
	Backtest  backtest.Result   `json:"backtest"`
}

// RunSummary 为运行列表中的单行。
type RunSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	InitialCash float64   `json:"initial_cash"`
	FinalNAV    float64   `json:"final_nav"`
	PnL         float64   `json:"pnl"`
	Trades      int       `json:"trades"`
}

// Runs 负责运行记录的读写。
type Runs struct {
	db *sql.DB
}

// NewRuns 初始化运行记录表。
func NewRuns(s *Store) (*Runs, error) {
	if s == nil || s.DB() == nil {
		return nil, errors.New("store: 数据库实例不能为空")
	}
	r := &Runs{db: s.DB()}
	if err := r.initSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runs) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			seed TEXT,
			drift REAL NOT NULL,
			volatility REAL NOT NULL,
			samples INTEGER NOT NULL,
			eoq REAL NOT NULL,
			initial_cash REAL NOT NULL,
			final_nav REAL NOT NULL,
			pnl REAL NOT NULL,
			metrics TEXT NOT NULL,
			diagnostics TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_trades (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			trade_date TEXT NOT NULL,
			kind TEXT NOT NULL,
			price REAL NOT NULL,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS run_nav (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			nav_date TEXT NOT NULL,
			nav REAL NOT NULL,
			PRIMARY KEY (run_id, nav_date)
		);`,
	}
	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: 初始化运行表失败: %w", err)
		}
	}
	return nil
}

// Save 在单个事务内写入运行摘要、成交与净值，ID 为空时自动生成。
func (r *Runs) Save(ctx context.Context, rec *RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	metrics, err := json.Marshal(rec.Backtest.Metrics)
	if err != nil {
		return fmt.Errorf("store: 序列化指标失败: %w", err)
	}
	diagnostics, err := json.Marshal(rec.Backtest.Diagnostics)
	if err != nil {
		return fmt.Errorf("store: 序列化诊断信息失败: %w", err)
	}

	var seed sql.NullString
	if rec.Seed != nil {
		seed = sql.NullString{String: strconv.FormatUint(*rec.Seed, 10), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, seed, drift, volatility, samples, eoq, initial_cash, final_nav, pnl, metrics, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.Format(time.RFC3339Nano), seed,
		rec.Estimate.Drift, rec.Estimate.Volatility, rec.Estimate.Samples, rec.EOQ,
		rec.Backtest.InitialCash, rec.Backtest.FinalNAV, rec.Backtest.PnL,
		string(metrics), string(diagnostics),
	)
	if err != nil {
		return fmt.Errorf("store: 写入运行记录失败: %w", err)
	}

	for i, ev := range rec.Backtest.History {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_trades (run_id, seq, trade_date, kind, price, quantity) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, i, market.DayKey(ev.Date), string(ev.Kind), ev.Price, ev.Quantity,
		)
		if err != nil {
			return fmt.Errorf("store: 写入成交失败: %w", err)
		}
	}

	for _, p := range rec.Backtest.NAVHistory {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_nav (run_id, nav_date, nav) VALUES (?, ?, ?)`,
			rec.ID, market.DayKey(p.Date), p.NAV,
		)
		if err != nil {
			return fmt.Errorf("store: 写入净值失败: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: 提交事务失败: %w", err)
	}
	return nil
}

// Get 读取完整运行记录。
func (r *Runs) Get(ctx context.Context, id string) (RunRecord, error) {
	var (
		rec         RunRecord
		created     string
		seed        sql.NullString
		metrics     string
		diagnostics string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, seed, drift, volatility, samples, eoq, initial_cash, final_nav, pnl, metrics, diagnostics
		 FROM runs WHERE id = ?`, id,
	).Scan(&rec.ID, &created, &seed, &rec.Estimate.Drift, &rec.Estimate.Volatility, &rec.Estimate.Samples,
		&rec.EOQ, &rec.Backtest.InitialCash, &rec.Backtest.FinalNAV, &rec.Backtest.PnL, &metrics, &diagnostics)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("store: 查询运行记录失败: %w", err)
	}

	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return RunRecord{}, fmt.Errorf("store: 解析时间失败: %w", err)
	}
	if seed.Valid {
		v, parseErr := strconv.ParseUint(seed.String, 10, 64)
		if parseErr != nil {
			return RunRecord{}, fmt.Errorf("store: 解析种子失败: %w", parseErr)
		}
		rec.Seed = &v
	}
	if err := json.Unmarshal([]byte(metrics), &rec.Backtest.Metrics); err != nil {
		return RunRecord{}, fmt.Errorf("store: 解析指标失败: %w", err)
	}
	if err := json.Unmarshal([]byte(diagnostics), &rec.Backtest.Diagnostics); err != nil {
		return RunRecord{}, fmt.Errorf("store: 解析诊断信息失败: %w", err)
	}

	if rec.Backtest.History, err = r.trades(ctx, id); err != nil {
		return RunRecord{}, err
	}
	if rec.Backtest.NAVHistory, err = r.navs(ctx, id); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

func (r *Runs) trades(ctx context.Context, id string) ([]backtest.TradeEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT trade_date, kind, price, quantity FROM run_trades WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("store: 查询成交失败: %w", err)
	}
	defer rows.Close()

	history := make([]backtest.TradeEvent, 0)
	for rows.Next() {
		var (
			date string
			kind string
			ev   backtest.TradeEvent
		)
		if err := rows.Scan(&date, &kind, &ev.Price, &ev.Quantity); err != nil {
			return nil, fmt.Errorf("store: 解析成交失败: %w", err)
		}
		if ev.Date, err = time.Parse(market.DateLayout, date); err != nil {
			return nil, fmt.Errorf("store: 解析成交日期失败: %w", err)
		}
		ev.Kind = backtest.TradeKind(kind)
		history = append(history, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: 读取成交失败: %w", err)
	}
	return history, nil
}

func (r *Runs) navs(ctx context.Context, id string) ([]backtest.NAVPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT nav_date, nav FROM run_nav WHERE run_id = ? ORDER BY nav_date`, id)
	if err != nil {
		return nil, fmt.Errorf("store: 查询净值失败: %w", err)
	}
	defer rows.Close()

	navs := make([]backtest.NAVPoint, 0)
	for rows.Next() {
		var (
			date string
			p    backtest.NAVPoint
		)
		if err := rows.Scan(&date, &p.NAV); err != nil {
			return nil, fmt.Errorf("store: 解析净值失败: %w", err)
		}
		if p.Date, err = time.Parse(market.DateLayout, date); err != nil {
			return nil, fmt.Errorf("store: 解析净值日期失败: %w", err)
		}
		navs = append(navs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: 读取净值失败: %w", err)
	}
	return navs, nil
}

// List 按时间倒序列出最近的运行。
func (r *Runs) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, r.initial_cash, r.final_nav, r.pnl,
		        (SELECT COUNT(*) FROM run_trades t WHERE t.run_id = r.id)
		 FROM runs r ORDER BY r.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: 查询运行列表失败: %w", err)
	}
	defer rows.Close()

	out := make([]RunSummary, 0, limit)
	for rows.Next() {
		var (
			s       RunSummary
			created string
		)
		if err := rows.Scan(&s.ID, &created, &s.InitialCash, &s.FinalNAV, &s.PnL, &s.Trades); err != nil {
			return nil, fmt.Errorf("store: 解析运行列表失败: %w", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("store: 解析时间失败: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: 读取运行列表失败: %w", err)
	}
	return out, nil
}
