package proximity

import (
	"cmp"
	"slices"

	"center-lookup/internal/refindex"
)

// 文档注释：就近排序
// 背景：候选集通常是当前筛选结果；没有坐标的候选被排除而不是报错。
// 约束：origin 为 nil 返回 ErrNoOrigin；没有任何可用坐标返回 ErrNoGeocoded；距离相同保持输入顺序；k<=0 使用 DefaultK。
func Nearest(origin *Point, candidates []*refindex.IndexedCenter, k int) ([]Ranked, error) {
	if origin == nil || !origin.Valid() {
		return nil, ErrNoOrigin
	}
	if k <= 0 {
		k = DefaultK
	}
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		p, ok := PointOf(c)
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked{Center: c, DistanceKm: Haversine(*origin, p)})
	}
	if len(ranked) == 0 {
		return []Ranked{}, ErrNoGeocoded
	}
	sortByDistance(ranked)
	if len(ranked) > k {
		ranked = ranked[:k:k]
	}
	return ranked, nil
}

func sortByDistance(r []Ranked) {
	slices.SortStableFunc(r, func(a, b Ranked) int { return cmp.Compare(a.DistanceKm, b.DistanceKm) })
}

// Centers：去掉距离，只保留中心列表
func Centers(r []Ranked) []*refindex.IndexedCenter {
	out := make([]*refindex.IndexedCenter, 0, len(r))
	for _, it := range r {
		out = append(out, it.Center)
	}
	return out
}
