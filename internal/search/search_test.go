package search

import (
	"reflect"
	"strings"
	"testing"

	"center-lookup/internal/dataset"
	"center-lookup/internal/refindex"
)

func TestNormalize_MapsBengaliDigitsAndLowers(t *testing.T) {
	got := Normalize("  ১০১২০২ AbC ")
	if got != "101202 abc" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"", "  X ", "০১২৩৪৫৬৭৮৯", "ঢাকা Dhaka 12", "\tMiXeD ৯\n"} {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q vs %q", s, once, twice)
		}
	}
}

func TestNormalize_DigitMappingIsBijective(t *testing.T) {
	seen := map[string]bool{}
	for r := '০'; r <= '৯'; r++ {
		got := Normalize(string(r))
		if len(got) != 1 || got[0] < '0' || got[0] > '9' {
			t.Fatalf("%q mapped to %q", r, got)
		}
		if seen[got] {
			t.Fatalf("digit %q mapped twice", got)
		}
		seen[got] = true
	}
}

func TestFilter_FacetAndSortOrder(t *testing.T) {
	// 场景：district=5, voter_type=BOTH, 无查询 → 按 (district, upazila, serial) 排序
	centers := []*refindex.IndexedCenter{
		center(1, 5, 12, 3, "a", ""),
		center(2, 5, 11, 9, "b", ""),
		center(3, 6, 1, 1, "c", ""),
		center(4, 5, 12, 1, "d", ""),
	}
	got := Filter(centers, Facets{DistrictID: 5, VoterType: dataset.VoterBoth}, "")
	if want := []int{2, 4, 1}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	centers := []*refindex.IndexedCenter{
		center(1, 9, 1, 1, "a", ""),
		center(2, 1, 1, 1, "b", ""),
	}
	_ = Filter(centers, Facets{}, "")
	if centers[0].ID != 1 || centers[1].ID != 2 {
		t.Fatalf("input reordered: %v", ids(centers))
	}
}

func TestFilter_StableForEqualKeys(t *testing.T) {
	centers := []*refindex.IndexedCenter{
		center(7, 1, 1, 1, "a", ""),
		center(3, 1, 1, 1, "b", ""),
		center(5, 1, 1, 1, "c", ""),
	}
	got := Filter(centers, Facets{}, "")
	if want := []int{7, 3, 5}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestFilter_BengaliDigitQueryMatchesAreaCode(t *testing.T) {
	centers := []*refindex.IndexedCenter{
		center(1, 1, 1, 1, "x", `["101202","9"]`),
		center(2, 1, 1, 2, "y", `["555555"]`),
		center(3, 1, 1, 3, "z", `[101202]`),
	}
	got := Filter(centers, Facets{}, "১০১২০২")
	if want := []int{1, 3}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestFilter_PinnedCenter(t *testing.T) {
	centers := []*refindex.IndexedCenter{
		center(1, 1, 1, 1, "alpha", ""),
		center(2, 1, 1, 2, "alpha", ""),
	}
	got := Filter(centers, Facets{PinnedCenterID: 2}, "alpha")
	if want := []int{2}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestMatch_EveryResultSatisfiesPredicate(t *testing.T) {
	centers := []*refindex.IndexedCenter{
		center(1, 1, 1, 1, "north", ""),
		center(2, 2, 3, 1, "south", ""),
		center(3, 2, 4, 1, "northeast", ""),
	}
	f := Facets{DistrictID: 2}
	for _, c := range Filter(centers, f, "NORTH") {
		if c.DistrictID != 2 || !strings.Contains(c.SearchBlob, "north") {
			t.Fatalf("unexpected result %d", c.ID)
		}
	}
	if got := Filter(centers, f, "NORTH"); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSuggest_ShortQueryReturnsEmpty(t *testing.T) {
	centers := []*refindex.IndexedCenter{center(1, 1, 1, 1, "a", "")}
	for _, q := range []string{"", "a", "  a  ", "১"} {
		if got := Suggest(centers, Facets{}, q, 8); len(got) != 0 {
			t.Fatalf("query %q: expected empty, got %v", q, ids(got))
		}
	}
}

func TestSuggest_CapsAtLimitInInputOrder(t *testing.T) {
	var centers []*refindex.IndexedCenter
	// 场景：20 个匹配 "dh" 的中心只返回前 8 个
	for i := 20; i >= 1; i-- {
		centers = append(centers, center(i, i, 1, 1, "dhaka", ""))
	}
	got := Suggest(centers, Facets{}, "dh", 8)
	if len(got) != 8 {
		t.Fatalf("expected 8, got %d", len(got))
	}
	if want := []int{20, 19, 18, 17, 16, 15, 14, 13}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v want %v", ids(got), want)
	}
}

func TestSuggest_IgnoresPinnedCenter(t *testing.T) {
	centers := []*refindex.IndexedCenter{
		center(1, 1, 1, 1, "dhaka", ""),
		center(2, 1, 1, 1, "dhaka", ""),
	}
	got := Suggest(centers, Facets{PinnedCenterID: 2}, "dhaka", 0)
	if len(got) != 2 {
		t.Fatalf("expected pin to be ignored, got %v", ids(got))
	}
}

func TestSuggestions_MoveWrapsBothWays(t *testing.T) {
	s := NewSuggestions()
	s.Move(1)
	if s.Focus != -1 {
		t.Fatalf("empty list must keep focus -1, got %d", s.Focus)
	}
	s.Set([]*refindex.IndexedCenter{center(1, 1, 1, 1, "a", ""), center(2, 1, 1, 1, "b", ""), center(3, 1, 1, 1, "c", "")})
	steps := []struct {
		dir  int
		want int
	}{{1, 0}, {1, 1}, {1, 2}, {1, 0}, {-1, 2}, {-1, 1}}
	for i, st := range steps {
		s.Move(st.dir)
		if s.Focus != st.want {
			t.Fatalf("step %d: got %d want %d", i, s.Focus, st.want)
		}
	}
	if c, ok := s.Focused(); !ok || c.ID != 2 {
		t.Fatalf("focused mismatch")
	}
	s.Clear()
	if s.Focus != -1 || len(s.Items) != 0 {
		t.Fatalf("clear must reset")
	}
}

func TestSuggestions_UpFromNoFocusLandsOnLast(t *testing.T) {
	s := NewSuggestions()
	s.Set([]*refindex.IndexedCenter{center(1, 1, 1, 1, "a", ""), center(2, 1, 1, 1, "b", "")})
	s.Move(-1)
	if s.Focus != 1 {
		t.Fatalf("got %d", s.Focus)
	}
	s.Set(s.Items)
	if s.Focus != -1 {
		t.Fatalf("set must reset focus")
	}
}
