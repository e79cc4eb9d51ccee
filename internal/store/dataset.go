package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/logger"
)

// 文档注释：从数据库读取完整参考数据快照
// 背景：DATA_SOURCE=postgres 时替代数据目录；结果与 dataset.LoadDir 等价，交给同一套索引构建。
// 约束：任一表读取失败即整体失败；行按 id 升序返回，中心表的坐标列可为 NULL。
func (s *Store) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	ds := &dataset.Dataset{}
	steps := []struct {
		name string
		fn   func(context.Context, *dataset.Dataset) error
	}{
		{"divisions", s.loadDivisions},
		{"districts", s.loadDistricts},
		{"upazilas", s.loadUpazilas},
		{"constituencies", s.loadConstituencies},
		{"unions", s.loadUnions},
		{"centers", s.loadCenters},
		{"parties", s.loadParties},
		{"map_assets", s.loadMapSlugs},
	}
	for _, st := range steps {
		if err := st.fn(ctx, ds); err != nil {
			return nil, fmt.Errorf("store: load %s: %w", st.name, err)
		}
	}
	ds.LoadedAt = time.Now()
	logger.L().Info("db_dataset_load_ok", "centers", len(ds.Centers), "constituencies", len(ds.Constituencies))
	return ds, nil
}

// scanAll：执行查询并逐行回调
func (s *Store) scanAll(ctx context.Context, q string, each func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadDivisions(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT id, name, name_en FROM divisions ORDER BY id", func(r *sql.Rows) error {
		var d dataset.Division
		if err := r.Scan(&d.ID, &d.Name, &d.NameEn); err != nil {
			return err
		}
		ds.Divisions = append(ds.Divisions, d)
		return nil
	})
}

func (s *Store) loadDistricts(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT id, name, name_en, division_id FROM districts ORDER BY id", func(r *sql.Rows) error {
		var d dataset.District
		if err := r.Scan(&d.ID, &d.Name, &d.NameEn, &d.DivisionID); err != nil {
			return err
		}
		ds.Districts = append(ds.Districts, d)
		return nil
	})
}

func (s *Store) loadUpazilas(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT id, name, name_en, district_id FROM upazilas ORDER BY id", func(r *sql.Rows) error {
		var u dataset.Upazila
		if err := r.Scan(&u.ID, &u.Name, &u.NameEn, &u.DistrictID); err != nil {
			return err
		}
		ds.Upazilas = append(ds.Upazilas, u)
		return nil
	})
}

func (s *Store) loadConstituencies(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT id, name, name_en, code, district_id, slug, map_url, total_voters FROM constituencies ORDER BY id", func(r *sql.Rows) error {
		var c dataset.Constituency
		if err := r.Scan(&c.ID, &c.Name, &c.NameEn, &c.Code, &c.DistrictID, &c.Slug, &c.MapURL, &c.TotalVoters); err != nil {
			return err
		}
		ds.Constituencies = append(ds.Constituencies, c)
		return nil
	})
}

func (s *Store) loadUnions(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT id, name, name_en, upazila_id FROM unions ORDER BY id", func(r *sql.Rows) error {
		var u dataset.Union
		if err := r.Scan(&u.ID, &u.Name, &u.NameEn, &u.UpazilaID); err != nil {
			return err
		}
		ds.Unions = append(ds.Unions, u)
		return nil
	})
}

func (s *Store) loadCenters(ctx context.Context, ds *dataset.Dataset) error {
	q := `SELECT id, name, name_en, slug, division_id, district_id, upazila_id, union_id, constituency_id,
            voter_type, serial, latitude, longitude, voter_area_codes FROM centers ORDER BY ord, id`
	return s.scanAll(ctx, q, func(r *sql.Rows) error {
		var c dataset.Center
		var vt, codes string
		var lat, lon sql.NullFloat64
		if err := r.Scan(&c.ID, &c.Name, &c.NameEn, &c.Slug, &c.DivisionID, &c.DistrictID, &c.UpazilaID, &c.UnionID,
			&c.ConstituencyID, &vt, &c.Serial, &lat, &lon, &codes); err != nil {
			return err
		}
		c.VoterType = dataset.VoterType(vt)
		c.VoterAreaCodes = dataset.EncodedCodes(codes)
		if lat.Valid {
			v := lat.Float64
			c.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			c.Longitude = &v
		}
		ds.Centers = append(ds.Centers, c)
		return nil
	})
}

func (s *Store) loadParties(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT id, name, symbol_url, symbol_name FROM parties ORDER BY id", func(r *sql.Rows) error {
		var p dataset.Party
		if err := r.Scan(&p.ID, &p.Name, &p.SymbolURL, &p.SymbolName); err != nil {
			return err
		}
		ds.Parties = append(ds.Parties, p)
		return nil
	})
}

func (s *Store) loadMapSlugs(ctx context.Context, ds *dataset.Dataset) error {
	return s.scanAll(ctx, "SELECT slug FROM map_assets ORDER BY slug", func(r *sql.Rows) error {
		var slug string
		if err := r.Scan(&slug); err != nil {
			return err
		}
		ds.MapSlugs = append(ds.MapSlugs, slug)
		return nil
	})
}
