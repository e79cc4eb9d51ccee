package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/geoloc"
	"center-lookup/internal/proximity"
	"center-lookup/internal/refindex"
)

func fp(v float64) *float64 { return &v }

// testIndex：2 个县、每县 1 个选区；中心 1..n 轮流落在两个县
func testIndex(n int) *refindex.Index {
	ds := &dataset.Dataset{
		Divisions: []dataset.Division{{ID: 1, Name: "ঢাকা"}, {ID: 2, Name: "খুলনা"}},
		Districts: []dataset.District{{ID: 10, Name: "ঢাকা", DivisionID: 1}, {ID: 20, Name: "খুলনা", DivisionID: 2}},
		Upazilas:  []dataset.Upazila{{ID: 100, Name: "সাভার", DistrictID: 10}, {ID: 200, Name: "ডুমুরিয়া", DistrictID: 20}},
		Unions:    []dataset.Union{{ID: 1000, Name: "আশুলিয়া", UpazilaID: 100}},
		Constituencies: []dataset.Constituency{
			{ID: 501, Name: "ঢাকা-১", Code: 174, DistrictID: 10, Slug: "dhaka-1"},
			{ID: 601, Name: "খুলনা-১", Code: 99, DistrictID: 20, Slug: "khulna-1"},
		},
		MapSlugs: []string{"dhaka-1", "khulna-1"},
	}
	for i := 1; i <= n; i++ {
		c := dataset.Center{ID: i, Name: fmt.Sprintf("center %d", i), Serial: i, VoterType: dataset.VoterBoth,
			VoterAreaCodes: dataset.EncodedCodes(fmt.Sprintf(`["%06d"]`, 100000+i))}
		if i%2 == 0 {
			c.DivisionID, c.DistrictID, c.UpazilaID, c.UnionID, c.ConstituencyID = 2, 20, 200, 0, 601
		} else {
			c.DivisionID, c.DistrictID, c.UpazilaID, c.UnionID, c.ConstituencyID = 1, 10, 100, 1000, 501
			c.Latitude, c.Longitude = fp(23.8+float64(i)*0.01), fp(90.4)
		}
		ds.Centers = append(ds.Centers, c)
	}
	return refindex.FromDataset(ds)
}

func newSession(t *testing.T, n int) *Session {
	t.Helper()
	// 防抖期足够长，测试中由 RefreshSuggestions 显式刷新
	s := New(testIndex(n), Config{Debounce: time.Hour, ShowMaps: true})
	t.Cleanup(s.Close)
	return s
}

func TestNew_FirstPageOfEverything(t *testing.T) {
	s := newSession(t, 85)
	p := s.Search()
	if p.Total != 85 || len(p.Rows) != 40 || p.Remaining != 45 {
		t.Fatalf("total=%d rows=%d remaining=%d", p.Total, len(p.Rows), p.Remaining)
	}
	if n := len(s.LoadMore().Rows); n != 40 {
		t.Fatalf("second page %d", n)
	}
	if n := len(s.LoadMore().Rows); n != 5 {
		t.Fatalf("third page %d", n)
	}
	if p := s.LoadMore(); len(p.Rows) != 0 || p.Remaining != 0 {
		t.Fatalf("expected exhausted, got %d rows", len(p.Rows))
	}
}

func TestShowMap_FirstOccurrenceAcrossPages(t *testing.T) {
	s := newSession(t, 85)
	shown := 0
	for p := s.Search(); len(p.Rows) > 0; p = s.LoadMore() {
		for _, r := range p.Rows {
			if r.ShowMap {
				shown++
			}
		}
	}
	if shown != 2 {
		t.Fatalf("expected one map per constituency, got %d", shown)
	}
	p := s.ToggleMap()
	if s.MapsEnabled() || p.Total != 85 || len(p.Rows) != 40 {
		t.Fatalf("toggle must restart paging with maps off")
	}
	for _, r := range p.Rows {
		if r.ShowMap {
			t.Fatalf("maps disabled but row %d shows map", r.Center.ID)
		}
	}
}

func TestCascadeReset(t *testing.T) {
	s := newSession(t, 4)
	s.SetDivision(1)
	s.SetDistrict(10)
	s.SetUpazila(100)
	s.SetUnion(1000)
	s.SetConstituency(501)
	p := s.SetDistrict(20)
	f := s.Facets()
	if f.DivisionID != 1 || f.DistrictID != 20 || f.UpazilaID != 0 || f.UnionID != 0 || f.ConstituencyID != 0 {
		t.Fatalf("facets %#v", f)
	}
	if p.Total != 0 {
		t.Fatalf("division 1 has no centers in district 20, got %d", p.Total)
	}
	s.SetDivision(2)
	if f := s.Facets(); f.DistrictID != 0 {
		t.Fatalf("division change must clear district")
	}
	c := s.Cascade()
	if len(c.Divisions) != 2 || len(c.Districts) != 1 || len(c.Upazilas) != 0 {
		t.Fatalf("cascade %#v", c)
	}
}

func TestInput_DebouncedRefresh(t *testing.T) {
	done := make(chan Refresh, 4)
	s := New(testIndex(20), Config{Debounce: 15 * time.Millisecond, OnRefresh: func(r Refresh) { done <- r }})
	defer s.Close()
	s.Input("c")
	s.Input("ce")
	s.Input("center 1")
	var r Refresh
	select {
	case r = <-done:
	case <-time.After(time.Second):
		t.Fatalf("refresh never ran")
	}
	select {
	case extra := <-done:
		t.Fatalf("superseded refresh ran: %#v", extra)
	case <-time.After(50 * time.Millisecond):
	}
	// "center 1" 命中 1, 10..19 中的前 8 个（按输入顺序）
	if len(r.Suggestions) != 8 || r.Suggestions[0].ID != 1 || r.Suggestions[1].ID != 10 {
		t.Fatalf("suggestions %d", len(r.Suggestions))
	}
	if r.Page.Total != 11 {
		t.Fatalf("filtered %d", r.Page.Total)
	}
}

func TestKeyboardFlow_SelectPinsCenter(t *testing.T) {
	s := newSession(t, 20)
	s.Input("center 1")
	s.RefreshSuggestions()
	if f := s.MoveFocus(1); f != 0 {
		t.Fatalf("focus %d", f)
	}
	s.MoveFocus(1)
	p := s.Enter()
	if p.Total != 1 || p.Rows[0].Center.ID != 10 {
		t.Fatalf("expected pinned center 10, got %#v", p)
	}
	if s.Query() != "center 10" || s.Facets().PinnedCenterID != 10 {
		t.Fatalf("query %q pin %d", s.Query(), s.Facets().PinnedCenterID)
	}
	if len(s.Suggestions().Items) != 0 {
		t.Fatalf("suggestions must be cleared")
	}
	s.Input("center 1")
	if s.Facets().PinnedCenterID != 0 {
		t.Fatalf("typing must clear pin")
	}
}

func TestEnter_WithoutFocusFilters(t *testing.T) {
	s := newSession(t, 19)
	s.Input("x")
	s.RefreshSuggestions()
	if len(s.Suggestions().Items) != 0 {
		t.Fatalf("single character must not suggest")
	}
	s.Input("center 2")
	p := s.Enter()
	if p.Total != 1 || p.Rows[0].Center.ID != 2 {
		t.Fatalf("got total %d", p.Total)
	}
	s.Escape()
	if s.Suggestions().Focus != -1 {
		t.Fatalf("escape must reset focus")
	}
}

func TestNearby_UsesFilteredSetAndInvalidatesOnFacetChange(t *testing.T) {
	s := newSession(t, 10)
	s.SetDistrict(10)
	p, err := s.Nearby(context.Background(), geoloc.Static{Lat: 23.8, Lon: 90.4})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Nearby || p.Total != 5 || p.Rows[0].Center.ID != 1 || p.Rows[0].DistanceKm == nil {
		t.Fatalf("nearby page %#v", p)
	}
	if !s.NearbyActive() {
		t.Fatalf("expected nearby active")
	}
	p = s.SetVoterType(dataset.VoterBoth)
	if p.Nearby || s.NearbyActive() || p.Rows[0].DistanceKm != nil {
		t.Fatalf("facet change must discard nearby results")
	}
}

func TestNearby_Errors(t *testing.T) {
	s := newSession(t, 10)
	s.SetDistrict(20)
	if _, err := s.Nearby(context.Background(), geoloc.Static{Lat: 23.8, Lon: 90.4}); !errors.Is(err, proximity.ErrNoGeocoded) {
		t.Fatalf("want ErrNoGeocoded, got %v", err)
	}
	if p := s.LoadMore(); p.Nearby {
		t.Fatalf("failed nearby must keep standard results")
	}
	_, err := s.Nearby(context.Background(), geoloc.Denied{})
	if !errors.Is(err, geoloc.ErrDenied) || !errors.Is(err, proximity.ErrNoOrigin) {
		t.Fatalf("got %v", err)
	}
}

func TestNearby_EmptyFilterFallsBackToAll(t *testing.T) {
	s := newSession(t, 10)
	s.Input("nothing matches")
	s.Enter()
	p, err := s.Nearby(context.Background(), geoloc.Static{Lat: 23.8, Lon: 90.4})
	if err != nil || p.Total != 5 {
		t.Fatalf("got %d %v", p.Total, err)
	}
}

func TestNearby_SupersededByFacetChange(t *testing.T) {
	s := newSession(t, 10)
	release := make(chan struct{})
	started := make(chan struct{})
	slow := geoloc.LocatorFunc(func(ctx context.Context) (proximity.Point, error) {
		close(started)
		<-release
		return proximity.Point{Lat: 23.8, Lon: 90.4}, nil
	})
	errc := make(chan error, 1)
	go func() {
		_, err := s.Nearby(context.Background(), slow)
		errc <- err
	}()
	<-started
	if _, err := s.Nearby(context.Background(), slow); !errors.Is(err, ErrLocating) {
		t.Fatalf("want ErrLocating, got %v", err)
	}
	s.SetDivision(1)
	close(release)
	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("want ErrSuperseded, got %v", err)
	}
}

func TestNIDLookup(t *testing.T) {
	s := newSession(t, 10)
	s.SetDistrict(20)
	res, p, err := s.NIDLookup("19901234100003", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.AreaCode != "100003" || p.Total != 1 || p.Rows[0].Center.ID != 3 {
		t.Fatalf("res %#v page %#v", res, p)
	}
	if s.Facets().DistrictID != 20 {
		t.Fatalf("nid lookup must not change facets")
	}
}

func TestReset(t *testing.T) {
	s := newSession(t, 10)
	s.SetDivision(1)
	s.Input("center")
	p := s.Reset()
	if !s.Facets().IsZero() || s.Query() != "" || p.Total != 10 {
		t.Fatalf("reset incomplete")
	}
}
