package proximity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/refindex"
)

func geoCenter(id int, lat, lon *float64) *refindex.IndexedCenter {
	return refindex.IndexCenter(dataset.Center{ID: id, Name: "c", Latitude: lat, Longitude: lon})
}

func f(v float64) *float64 { return &v }

func TestNearest_SkipsCentersWithoutCoords(t *testing.T) {
	// 场景：起点 (23.8103, 90.4125)，3 个候选中 1 个无坐标 → 只排 2 个，近者在前
	origin := &Point{Lat: 23.8103, Lon: 90.4125}
	cands := []*refindex.IndexedCenter{
		geoCenter(1, f(24.3636), f(88.6241)),
		geoCenter(2, nil, nil),
		geoCenter(3, f(23.7806), f(90.2794)),
	}
	got, err := Nearest(origin, cands, 20)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].Center.ID != 3 || got[1].Center.ID != 1 {
		t.Fatalf("got %#v", got)
	}
	if got[0].DistanceKm >= got[1].DistanceKm {
		t.Fatalf("not ascending: %v %v", got[0].DistanceKm, got[1].DistanceKm)
	}
}

func TestNearest_Errors(t *testing.T) {
	cands := []*refindex.IndexedCenter{geoCenter(1, nil, f(90)), geoCenter(2, nil, nil)}
	if _, err := Nearest(nil, cands, 5); !errors.Is(err, ErrNoOrigin) {
		t.Fatalf("want ErrNoOrigin, got %v", err)
	}
	got, err := Nearest(&Point{Lat: 23, Lon: 90}, cands, 5)
	if !errors.Is(err, ErrNoGeocoded) || len(got) != 0 {
		t.Fatalf("want ErrNoGeocoded, got %v %v", got, err)
	}
	if _, err := Nearest(&Point{Lat: math.NaN(), Lon: 0}, cands, 5); !errors.Is(err, ErrNoOrigin) {
		t.Fatalf("NaN origin must be rejected, got %v", err)
	}
}

func TestNearest_CapsAtKAndKeepsTieOrder(t *testing.T) {
	var cands []*refindex.IndexedCenter
	for i := 1; i <= 30; i++ {
		cands = append(cands, geoCenter(i, f(23.8), f(90.4)))
	}
	got, err := Nearest(&Point{Lat: 23.8, Lon: 90.4}, cands, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultK {
		t.Fatalf("want %d, got %d", DefaultK, len(got))
	}
	for i, r := range got {
		if r.Center.ID != i+1 || r.DistanceKm != 0 {
			t.Fatalf("position %d: %#v", i, r)
		}
	}
}

func TestHaversine_Properties(t *testing.T) {
	a := Point{Lat: 23.8103, Lon: 90.4125}
	b := Point{Lat: 22.3569, Lon: 91.7832}
	c := Point{Lat: 24.8949, Lon: 91.8687}
	if Haversine(a, a) != 0 {
		t.Fatalf("distance to self must be zero")
	}
	if math.Abs(Haversine(a, b)-Haversine(b, a)) > 1e-9 {
		t.Fatalf("not symmetric")
	}
	if Haversine(a, c) > Haversine(a, b)+Haversine(b, c)+1e-9 {
		t.Fatalf("triangle inequality violated")
	}
	// 达卡到吉大港约 213km
	if d := Haversine(a, b); d < 200 || d > 225 {
		t.Fatalf("unexpected distance %v", d)
	}
}

func TestGeohash_KnownValue(t *testing.T) {
	if got := Geohash(Point{Lat: 57.64911, Lon: 10.40744}, 11); got != "u4pruydqqvj" {
		t.Fatalf("got %s", got)
	}
}

func TestLRU_EvictsAndExpires(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a missing")
	}
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should be evicted as least recently used")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be expired")
	}
	if c.Len() != 1 {
		t.Fatalf("len %d", c.Len())
	}
}

func TestRanker_CacheHitRecomputesDistance(t *testing.T) {
	cache := NewLRU[[]*refindex.IndexedCenter](8, time.Minute)
	r := NewRanker(2, cache)
	cands := []*refindex.IndexedCenter{
		geoCenter(1, f(23.81), f(90.41)),
		geoCenter(2, f(23.90), f(90.50)),
		geoCenter(3, f(25.00), f(91.00)),
	}
	origin := &Point{Lat: 23.8103, Lon: 90.4125}
	first, err := r.Rank(context.Background(), origin, "all", cands)
	if err != nil || len(first) != 2 {
		t.Fatalf("first: %v %v", first, err)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected cached entry")
	}
	second, err := r.Rank(context.Background(), origin, "all", nil)
	if err != nil || len(second) != 2 || second[0].Center.ID != first[0].Center.ID {
		t.Fatalf("second: %v %v", second, err)
	}
	if second[0].DistanceKm != first[0].DistanceKm {
		t.Fatalf("distance drift %v vs %v", second[0].DistanceKm, first[0].DistanceKm)
	}
	if _, err := r.Rank(context.Background(), nil, "all", cands); !errors.Is(err, ErrNoOrigin) {
		t.Fatalf("want ErrNoOrigin, got %v", err)
	}
}

func TestRanker_CacheHitKeepsCandidatesBeyondK(t *testing.T) {
	// 场景：K=1；两个起点落在同一 geohash(9) 单元，但最近中心不同 → 命中后仍须从全部候选中重排
	cache := NewLRU[[]*refindex.IndexedCenter](8, time.Minute)
	r := NewRanker(1, cache)
	o1 := &Point{Lat: 23.8103, Lon: 90.4125}
	o2 := &Point{Lat: 23.8103 + 0.000001, Lon: 90.4125 + 0.000001}
	if Geohash(*o1, cacheGeohashPrecision) != Geohash(*o2, cacheGeohashPrecision) {
		t.Fatalf("origins must share a cache cell")
	}
	cands := []*refindex.IndexedCenter{
		geoCenter(1, f(o1.Lat-0.000003), f(o1.Lon-0.000003)),
		geoCenter(2, f(o1.Lat+0.0000035), f(o1.Lon+0.0000035)),
		geoCenter(3, nil, nil),
		geoCenter(4, f(25.00), f(91.00)),
	}
	first, err := r.Rank(context.Background(), o1, "all", cands)
	if err != nil || len(first) != 1 || first[0].Center.ID != 1 {
		t.Fatalf("first: %v %v", first, err)
	}
	cached, ok := cache.Get("all|" + Geohash(*o1, cacheGeohashPrecision))
	if !ok || len(cached) != 3 {
		t.Fatalf("cache must hold every geocoded candidate, got %d", len(cached))
	}
	second, err := r.Rank(context.Background(), o2, "all", cands)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Nearest(o2, cands, 1)
	if len(second) != 1 || second[0].Center.ID != 2 || second[0].Center.ID != want[0].Center.ID {
		t.Fatalf("second: %v want %v", second, want)
	}
}
