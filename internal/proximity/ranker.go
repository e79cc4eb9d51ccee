package proximity

import (
	"context"

	"center-lookup/internal/logger"
	"center-lookup/internal/refindex"
)

// cacheGeohashPrecision：缓存键精度（约 5m）
const cacheGeohashPrecision = 9

// 文档注释：带缓存的就近排序器
// 背景：HTTP 层同一候选范围（scope，由筛选条件构成）下同一位置的重复请求直接复用排序结果。
// 约束：缓存保存全部有坐标候选的排序（不截断到 K），命中后按真实起点重算距离并重新稳定排序再取前 K；
// cache 为 nil 时等价于 Nearest。
type Ranker struct {
	K     int
	cache *LRU[[]*refindex.IndexedCenter]
}

func NewRanker(k int, cache *LRU[[]*refindex.IndexedCenter]) *Ranker {
	if k <= 0 {
		k = DefaultK
	}
	return &Ranker{K: k, cache: cache}
}

// Rank：对候选集做就近排序；scope 区分不同候选集
func (r *Ranker) Rank(ctx context.Context, origin *Point, scope string, candidates []*refindex.IndexedCenter) ([]Ranked, error) {
	if origin == nil || !origin.Valid() {
		return nil, ErrNoOrigin
	}
	l := logger.For("proximity")
	key := scope + "|" + Geohash(*origin, cacheGeohashPrecision)
	if r.cache != nil {
		if ids, ok := r.cache.Get(key); ok {
			l.DebugContext(ctx, "nearest_cache_hit", "area", Geohash(*origin, 5), "n", len(ids))
			return Nearest(origin, ids, r.K)
		}
	}
	all, err := Nearest(origin, candidates, max(len(candidates), 1))
	if err != nil {
		l.InfoContext(ctx, "nearest_empty", "area", Geohash(*origin, 5), "candidates", len(candidates), "err", err)
		return all, err
	}
	if r.cache != nil {
		r.cache.Set(key, Centers(all))
	}
	out := all[:min(len(all), r.K)]
	l.DebugContext(ctx, "nearest_ok", "area", Geohash(*origin, 5), "candidates", len(candidates), "n", len(out))
	return out, nil
}
