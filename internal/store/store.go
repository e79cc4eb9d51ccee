// 包 store: 提供与 PostgreSQL 的数据访问层，包含参考数据读取与查询统计读写
package store

import (
	"context"
	"database/sql"

	"center-lookup/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供加载/统计接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// CenterCount: 中心表行数，用于判断是否需要首次导入与就绪探测
func (s *Store) CenterCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM centers").Scan(&n)
	return n, err
}

// IncrStats: 成功查询后递增总计与当日分类计数；newVisitor 为真时同时递增访客计数
// 约束：统计失败不影响查询结果，错误只记日志
func (s *Store) IncrStats(ctx context.Context, kind string, newVisitor bool) error {
	l := logger.L()
	if _, err := s.db.ExecContext(ctx, "UPDATE _center_stats_total SET total_queries=total_queries+1 WHERE id=1"); err != nil {
		l.Debug("stats_incr_error", "err", err)
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO _center_stats_daily(day, kind, queries) VALUES(current_date, $1, 1) ON CONFLICT (day, kind) DO UPDATE SET queries=_center_stats_daily.queries+1", kind); err != nil {
		l.Debug("stats_incr_error", "err", err)
	}
	if newVisitor {
		if _, err := s.db.ExecContext(ctx, "UPDATE _center_stats_total SET total_visitors=total_visitors+1 WHERE id=1"); err != nil {
			l.Debug("stats_incr_error", "err", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO _center_stats_daily(day, kind, visitors) VALUES(current_date, $1, 1) ON CONFLICT (day, kind) DO UPDATE SET visitors=_center_stats_daily.visitors+1", kind); err != nil {
			l.Debug("stats_incr_error", "err", err)
		}
	}
	l.Debug("stats_incr", "kind", kind, "visitor", newVisitor)
	return nil
}

// Totals: 统计返回结构，包含累计、当日查询次数与累计访客
type Totals struct {
	Total    int64            `json:"total"`
	Today    int64            `json:"today"`
	Visitors int64            `json:"visitors"`
	ByKind   map[string]int64 `json:"by_kind"`
}

// GetTotals: 读取累计与当日查询次数，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	t := Totals{ByKind: map[string]int64{}}
	row := s.db.QueryRowContext(ctx, "SELECT total_queries, total_visitors FROM _center_stats_total WHERE id=1")
	if err := row.Scan(&t.Total, &t.Visitors); err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT kind, queries FROM _center_stats_daily WHERE day=current_date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		t.ByKind[kind] = n
		t.Today += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}
