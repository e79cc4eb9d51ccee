// 包 ingest：把参考数据快照批量导入 PostgreSQL，并提供后台定期刷新
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"center-lookup/internal/dataset"
	"center-lookup/internal/logger"
)

// batchSize：中心表每批提交的行数
const batchSize = 5000

// importTables：清空顺序（子表在前）
var importTables = []string{"centers", "unions", "constituencies", "upazilas", "districts", "divisions", "parties", "map_assets"}

// 文档注释：整库替换导入
// 背景：先清空全部参考表再逐表写入；中心表按 5000 行一批提交，降低锁持有与 WAL 压力。
// 异常：任一语句失败直接返回，不做重试；已提交的批次保留（由再次导入覆盖）。
func ImportDataset(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	l := logger.For("ingest")
	l.Info("ingest_start", "centers", len(ds.Centers))
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "TRUNCATE "+strings.Join(importTables, ", ")); err != nil {
		return fmt.Errorf("ingest: truncate: %w", err)
	}
	if err := insertHierarchy(ctx, tx, ds); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, centerInsert)
	if err != nil {
		return err
	}
	count := 0
	for i, c := range ds.Centers {
		if _, err := stmt.ExecContext(ctx, centerArgs(c, i)...); err != nil {
			return fmt.Errorf("ingest: center %d: %w", c.ID, err)
		}
		count++
		if count%batchSize == 0 {
			l.Info("ingest_progress", "count", count)
			if err = tx.Commit(); err != nil {
				return err
			}
			tx, err = db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			stmt, err = tx.PrepareContext(ctx, centerInsert)
			if err != nil {
				return err
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	l.Info("ingest_done", "count", count)
	return nil
}

// centerInsert：ord 记录源文件中的位置，加载时按 ord 还原顺序；同 id 重复出现时整行以后者为准
const centerInsert = `INSERT INTO centers(id, name, name_en, slug, division_id, district_id, upazila_id, union_id,
            constituency_id, voter_type, serial, latitude, longitude, voter_area_codes, ord)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, name_en=EXCLUDED.name_en, slug=EXCLUDED.slug,
            division_id=EXCLUDED.division_id, district_id=EXCLUDED.district_id, upazila_id=EXCLUDED.upazila_id,
            union_id=EXCLUDED.union_id, constituency_id=EXCLUDED.constituency_id, voter_type=EXCLUDED.voter_type,
            serial=EXCLUDED.serial, latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude,
            voter_area_codes=EXCLUDED.voter_area_codes, ord=EXCLUDED.ord`

func centerArgs(c dataset.Center, ord int) []any {
	var lat, lon any
	if c.Latitude != nil {
		lat = *c.Latitude
	}
	if c.Longitude != nil {
		lon = *c.Longitude
	}
	return []any{c.ID, c.Name, c.NameEn, c.Slug, c.DivisionID, c.DistrictID, c.UpazilaID, c.UnionID,
		c.ConstituencyID, string(c.VoterType), c.Serial, lat, lon, string(c.VoterAreaCodes), ord}
}

// insertHierarchy：层级表、政党与地图资源，数量小，同一事务内逐行写入
func insertHierarchy(ctx context.Context, tx *sql.Tx, ds *dataset.Dataset) error {
	exec := func(table, q string, args ...any) error {
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("ingest: %s: %w", table, err)
		}
		return nil
	}
	for _, d := range ds.Divisions {
		if err := exec("divisions", "INSERT INTO divisions(id, name, name_en) VALUES($1,$2,$3) ON CONFLICT (id) DO NOTHING", d.ID, d.Name, d.NameEn); err != nil {
			return err
		}
	}
	for _, d := range ds.Districts {
		if err := exec("districts", "INSERT INTO districts(id, name, name_en, division_id) VALUES($1,$2,$3,$4) ON CONFLICT (id) DO NOTHING", d.ID, d.Name, d.NameEn, d.DivisionID); err != nil {
			return err
		}
	}
	for _, u := range ds.Upazilas {
		if err := exec("upazilas", "INSERT INTO upazilas(id, name, name_en, district_id) VALUES($1,$2,$3,$4) ON CONFLICT (id) DO NOTHING", u.ID, u.Name, u.NameEn, u.DistrictID); err != nil {
			return err
		}
	}
	for _, c := range ds.Constituencies {
		if err := exec("constituencies", "INSERT INTO constituencies(id, name, name_en, code, district_id, slug, map_url, total_voters) VALUES($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (id) DO NOTHING",
			c.ID, c.Name, c.NameEn, c.Code, c.DistrictID, c.Slug, c.MapURL, c.TotalVoters); err != nil {
			return err
		}
	}
	for _, u := range ds.Unions {
		if err := exec("unions", "INSERT INTO unions(id, name, name_en, upazila_id) VALUES($1,$2,$3,$4) ON CONFLICT (id) DO NOTHING", u.ID, u.Name, u.NameEn, u.UpazilaID); err != nil {
			return err
		}
	}
	for _, p := range ds.Parties {
		if err := exec("parties", "INSERT INTO parties(id, name, symbol_url, symbol_name) VALUES($1,$2,$3,$4) ON CONFLICT (id) DO NOTHING", p.ID, p.Name, p.SymbolURL, p.SymbolName); err != nil {
			return err
		}
	}
	for _, s := range ds.MapSlugs {
		if err := exec("map_assets", "INSERT INTO map_assets(slug) VALUES($1) ON CONFLICT (slug) DO NOTHING", s); err != nil {
			return err
		}
	}
	return nil
}

// EnsureInitialized：中心表为空时从数据目录执行一次导入
// 背景：首次部署时无需单独执行 centerctl import
func EnsureInitialized(ctx context.Context, db *sql.DB, dataDir string) error {
	var c int64
	_ = db.QueryRowContext(ctx, "SELECT COUNT(1) FROM centers").Scan(&c)
	if c > 0 {
		return nil
	}
	ds, err := dataset.LoadDir(dataDir)
	if err != nil {
		return err
	}
	return ImportDataset(ctx, db, ds)
}
