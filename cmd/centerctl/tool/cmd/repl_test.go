package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/refindex"
	"center-lookup/internal/session"
)

func f64(v float64) *float64 { return &v }

func testIndex() *refindex.Index {
	return refindex.FromDataset(&dataset.Dataset{
		Divisions:      []dataset.Division{{ID: 1, Name: "ঢাকা"}},
		Districts:      []dataset.District{{ID: 10, Name: "ঢাকা", DivisionID: 1}, {ID: 20, Name: "গাজীপুর", DivisionID: 1}},
		Upazilas:       []dataset.Upazila{{ID: 100, Name: "সাভার", DistrictID: 10}},
		Constituencies: []dataset.Constituency{{ID: 500, Name: "ঢাকা-১৯", Code: 192, DistrictID: 10, Slug: "dhaka-19"}},
		Centers: []dataset.Center{
			{ID: 1, Name: "Savar Pilot School", DivisionID: 1, DistrictID: 10, UpazilaID: 100, ConstituencyID: 500, Serial: 2,
				Latitude: f64(23.85), Longitude: f64(90.26), VoterAreaCodes: `["101202"]`},
			{ID: 2, Name: "Savar Girls College", DivisionID: 1, DistrictID: 10, UpazilaID: 100, ConstituencyID: 500, Serial: 1,
				Latitude: f64(23.90), Longitude: f64(90.30), VoterAreaCodes: `["101204"]`},
			{ID: 3, Name: "Kaliakair High School", DivisionID: 1, DistrictID: 20, Serial: 1},
		},
		MapSlugs: []string{"dhaka-19"},
	})
}

func runScript(t *testing.T, script string) string {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.Debounce = time.Hour
	var out bytes.Buffer
	if err := runREPL(context.Background(), testIndex(), nil, cfg, strings.NewReader(script), &out); err != nil {
		t.Fatalf("repl: %v", err)
	}
	return out.String()
}

func TestREPL_SuggestFocusAndSelect(t *testing.T) {
	out := runScript(t, "district 10\nq savar\nsuggest\ndown\nenter\nquit\nsearch\n")
	for _, want := range []string{
		"total=3 remaining=0",
		">1. Savar Pilot School (সাভার, ঢাকা | 101202)",
		"#1 Savar Pilot School | সাভার, ঢাকা | 101202 | map ঢাকা-১৯\ntotal=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "total=") != 3 {
		t.Fatalf("commands after quit must not run:\n%s", out)
	}
}

func TestREPL_NearbyNIDAndErrors(t *testing.T) {
	out := runScript(t, "near 23.90 90.30\nnid 1995-101204\nnid 123\nnear-ip 1.2.3.4\nbogus\ndistrict x\n")
	for _, want := range []string{
		"#2 Savar Girls College | সাভার, ঢাকা | 101204 | 0.00 km | map ঢাকা-১৯",
		"total=2 remaining=0 nearby=true",
		"area code 101204",
		"error: nid: too few digits",
		"error: usage: near-ip",
		`error: unknown command "bogus"`,
		"error: strconv.Atoi",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestREPL_NearbyWithoutGeocodedCenters(t *testing.T) {
	out := runScript(t, "district 20\nnear 23.9 90.3\n")
	if !strings.Contains(out, "no geocoded centers in the current results") {
		t.Fatalf("output:\n%s", out)
	}
}
