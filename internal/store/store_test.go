package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return AttachDB(db), mock
}

func TestLoadDataset_ReadsEveryTable(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("FROM divisions").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_en"}).AddRow(1, "ঢাকা", "Dhaka"))
	mock.ExpectQuery("FROM districts").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_en", "division_id"}).AddRow(10, "ঢাকা", "", 1))
	mock.ExpectQuery("FROM upazilas").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_en", "district_id"}))
	mock.ExpectQuery("FROM constituencies").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_en", "code", "district_id", "slug", "map_url", "total_voters"}).
		AddRow(5, "ঢাকা-১", "", 174, 10, "dhaka-1", "", 1000))
	mock.ExpectQuery("FROM unions").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_en", "upazila_id"}))
	mock.ExpectQuery("FROM centers ORDER BY ord, id").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_en", "slug", "division_id", "district_id",
		"upazila_id", "union_id", "constituency_id", "voter_type", "serial", "latitude", "longitude", "voter_area_codes"}).
		AddRow(1, "a", "", "", 1, 10, 0, 0, 5, "MALE", 2, 23.8, 90.4, `["101202"]`).
		AddRow(2, "b", "", "", 1, 10, 0, 0, 5, "BOTH", 1, nil, nil, ""))
	mock.ExpectQuery("FROM parties").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "symbol_url", "symbol_name"}).AddRow(1, "দল", "", ""))
	mock.ExpectQuery("FROM map_assets").WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("dhaka-1"))

	ds, err := s.LoadDataset(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ds.Centers) != 2 || !ds.Centers[0].HasCoords() || ds.Centers[1].HasCoords() {
		t.Fatalf("centers %#v", ds.Centers)
	}
	if ds.Centers[0].VoterType != "MALE" || string(ds.Centers[0].VoterAreaCodes) != `["101202"]` {
		t.Fatalf("center 1 %#v", ds.Centers[0])
	}
	if len(ds.MapSlugs) != 1 || ds.Constituencies[0].Code != 174 {
		t.Fatalf("dataset %#v", ds)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDataset_WrapsTableError(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("FROM divisions").WillReturnError(errors.New("relation does not exist"))
	_, err := s.LoadDataset(context.Background())
	if err == nil || err.Error() != "store: load divisions: relation does not exist" {
		t.Fatalf("got %v", err)
	}
}

func TestIncrStats_VisitorWritesFourStatements(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE _center_stats_total SET total_queries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO _center_stats_daily\\(day, kind, queries\\)").WithArgs("centers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE _center_stats_total SET total_visitors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO _center_stats_daily\\(day, kind, visitors\\)").WithArgs("centers").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.IncrStats(context.Background(), "centers", true); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIncrStats_ErrorsSwallowed(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE _center_stats_total").WillReturnError(errors.New("down"))
	mock.ExpectExec("INSERT INTO _center_stats_daily").WillReturnError(errors.New("down"))
	if err := s.IncrStats(context.Background(), "nid", false); err != nil {
		t.Fatalf("stats errors must not surface: %v", err)
	}
}

func TestGetTotals(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT total_queries, total_visitors").WillReturnRows(sqlmock.NewRows([]string{"total_queries", "total_visitors"}).AddRow(100, 7))
	mock.ExpectQuery("SELECT kind, queries").WillReturnRows(sqlmock.NewRows([]string{"kind", "queries"}).AddRow("centers", 3).AddRow("nearest", 2))
	tot, err := s.GetTotals(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tot.Total != 100 || tot.Visitors != 7 || tot.Today != 5 || tot.ByKind["nearest"] != 2 {
		t.Fatalf("totals %#v", tot)
	}
}

func TestCenterCount(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT\\(1\\) FROM centers").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	n, err := s.CenterCount(context.Background())
	if err != nil || n != 12 {
		t.Fatalf("got %d %v", n, err)
	}
}
