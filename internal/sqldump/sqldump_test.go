package sqldump

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"center-lookup/internal/dataset"
)

func TestSplitValues(t *testing.T) {
	got := SplitValues(`1, 'a, b', 'it''s', NULL, 2.5`)
	want := []string{"1", "'a, b'", "'it''s'", "NULL", "2.5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"NULL", nil},
		{"null", nil},
		{"'it''s'", "it's"},
		{"''", ""},
		{"-42", int64(-42)},
		{"23.81", 23.81},
		{"1e5", "1e5"},
		{"TRUE", "TRUE"},
	}
	for _, tc := range cases {
		if got := ParseValue(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%q: got %#v want %#v", tc.in, got, tc.want)
		}
	}
}

func TestParseTable_SkipsForeignAndMalformedLines(t *testing.T) {
	dump := strings.Join([]string{
		"-- comment",
		"INSERT INTO centers (id, name, voter_area_codes) VALUES (1, 'স্কুল, মাঠ', '[\"101202\"]');",
		"INSERT INTO parties (id, name) VALUES (9, 'x');",
		"INSERT INTO centers (id, name) VALUES (2, 'a', 'extra');",
		"insert into centers (id) values (3);",
		"INSERT INTO CENTERS (id, latitude) VALUES (4, 23.5);",
	}, "\n")
	rows, err := ParseTable(strings.NewReader(dump), "centers")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows %#v", rows)
	}
	if rows[0]["name"] != "স্কুল, মাঠ" || rows[0]["voter_area_codes"] != `["101202"]` || rows[1]["latitude"] != 23.5 {
		t.Fatalf("rows %#v", rows)
	}
}

func TestBuild_WritesLoadableDataDir(t *testing.T) {
	sqlDir, mapsDir, out := t.TempDir(), t.TempDir(), t.TempDir()
	files := map[string]string{
		"001_divisions.sql":      "INSERT INTO divisions (id, name, name_en) VALUES (1, 'ঢাকা', 'Dhaka');",
		"002_districts.sql":      "INSERT INTO districts (id, name, division_id) VALUES (10, 'ঢাকা', 1);",
		"003_upazilas.sql":       "INSERT INTO upazilas (id, name, district_id) VALUES (100, 'সাভার', 10);",
		"004_constituencies.sql": "INSERT INTO constituencies (id, name, code, district_id, slug, total_voters) VALUES (5, 'ঢাকা-১', 174, 10, 'dhaka-1', 1000);",
		"005_unions.sql":         "",
		"006_centers.sql":        "INSERT INTO centers (id, name, district_id, voter_type, serial, latitude, longitude, voter_area_codes) VALUES (1, 'স্কুল', 10, 'BOTH', 3, 23.8, 90.4, '[\"101202\"]');",
		"007_parties.sql":        "INSERT INTO parties (id, name, symbol_url) VALUES (1, 'দল', NULL);",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(sqlDir, name), []byte(body+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"Dhaka-1.svg", "readme.txt", "khulna-2.SVG"} {
		if err := os.WriteFile(filepath.Join(mapsDir, name), []byte("<svg/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	summary, err := Build(sqlDir, mapsDir, out)
	if err != nil {
		t.Fatal(err)
	}
	if summary["centers"] != 1 || summary["unions"] != 0 || summary["maps"] != 2 {
		t.Fatalf("summary %#v", summary)
	}
	b, err := os.ReadFile(filepath.Join(out, dataset.FileMapsIndex))
	if err != nil {
		t.Fatal(err)
	}
	var slugs []string
	if err := json.Unmarshal(b, &slugs); err != nil || !reflect.DeepEqual(slugs, []string{"dhaka-1", "khulna-2"}) {
		t.Fatalf("slugs %v %v", slugs, err)
	}
	ds, err := dataset.LoadDir(out)
	if err != nil {
		t.Fatalf("built dir not loadable: %v", err)
	}
	c := ds.Centers[0]
	if c.VoterType != dataset.VoterBoth || c.Serial != 3 || !c.HasCoords() || string(c.VoterAreaCodes) != `["101202"]` {
		t.Fatalf("center %#v", c)
	}
}

func TestBuild_MissingDumpFails(t *testing.T) {
	if _, err := Build(t.TempDir(), "", t.TempDir()); err == nil {
		t.Fatalf("expected error")
	}
}
