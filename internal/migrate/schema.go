// 包 migrate：首次运行时创建参考数据表与统计表
package migrate

import (
	"database/sql"

	"center-lookup/internal/logger"
)

// 背景：DATA_SOURCE=postgres 时参考数据从这些表加载；统计表在 STATS_ENABLED=true 时写入
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；不声明外键，父级 id 为 0 表示未归属
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS divisions (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            name_en TEXT NOT NULL DEFAULT ''
        )`,
	`CREATE TABLE IF NOT EXISTS districts (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            name_en TEXT NOT NULL DEFAULT '',
            division_id INT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS upazilas (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            name_en TEXT NOT NULL DEFAULT '',
            district_id INT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS constituencies (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            name_en TEXT NOT NULL DEFAULT '',
            code INT NOT NULL DEFAULT 0,
            district_id INT NOT NULL DEFAULT 0,
            slug TEXT NOT NULL DEFAULT '',
            map_url TEXT NOT NULL DEFAULT '',
            total_voters INT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS unions (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            name_en TEXT NOT NULL DEFAULT '',
            upazila_id INT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS centers (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            name_en TEXT NOT NULL DEFAULT '',
            slug TEXT NOT NULL DEFAULT '',
            division_id INT NOT NULL DEFAULT 0,
            district_id INT NOT NULL DEFAULT 0,
            upazila_id INT NOT NULL DEFAULT 0,
            union_id INT NOT NULL DEFAULT 0,
            constituency_id INT NOT NULL DEFAULT 0,
            voter_type TEXT NOT NULL DEFAULT '',
            serial INT NOT NULL DEFAULT 0,
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            voter_area_codes TEXT NOT NULL DEFAULT '',
            ord INT NOT NULL DEFAULT 0
        )`,
	`ALTER TABLE centers ADD COLUMN IF NOT EXISTS ord INT NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_centers_order ON centers(district_id, upazila_id, serial)`,
	`CREATE INDEX IF NOT EXISTS idx_centers_ord ON centers(ord)`,
	`CREATE TABLE IF NOT EXISTS parties (
            id INT PRIMARY KEY,
            name TEXT NOT NULL,
            symbol_url TEXT NOT NULL DEFAULT '',
            symbol_name TEXT NOT NULL DEFAULT ''
        )`,
	`CREATE TABLE IF NOT EXISTS map_assets (
            slug TEXT PRIMARY KEY
        )`,
	`CREATE TABLE IF NOT EXISTS _center_stats_total (
            id INT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS _center_stats_daily (
            day DATE NOT NULL,
            kind TEXT NOT NULL,
            queries BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0,
            PRIMARY KEY (day, kind)
        )`,
	`INSERT INTO _center_stats_total(id, total_queries, total_visitors)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema：顺序执行建表语句，任一失败即返回
func EnsureSchema(db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done", "stmts", len(stmts))
	return nil
}
