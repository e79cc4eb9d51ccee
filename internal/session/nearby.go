package session

import (
	"context"
	"errors"

	"center-lookup/internal/geoloc"
	"center-lookup/internal/logger"
	"center-lookup/internal/nid"
	"center-lookup/internal/proximity"
)

// 文档注释：附近的中心
// 背景：先解析起点（可能被拒绝或超时），再对当前筛选结果排序；筛选结果为空时对全部中心排序。
// 约束：定位期间不持锁；同一时刻只允许一个定位请求；定位期间条件变化则丢弃结果并返回 ErrSuperseded。
// 没有任何带坐标的候选时返回 proximity.ErrNoGeocoded，当前展示保持不变。
func (s *Session) Nearby(ctx context.Context, loc geoloc.Locator) (Page, error) {
	s.mu.Lock()
	if s.locating {
		s.mu.Unlock()
		return Page{}, ErrLocating
	}
	s.locating = true
	gen := s.gen
	base := s.filtered
	if len(base) == 0 {
		base = s.ix.Centers
	}
	timeout := s.cfg.GeolocateTimeout
	s.mu.Unlock()

	origin, err := geoloc.Resolve(ctx, loc, timeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locating = false
	l := logger.For("session")
	if err != nil {
		l.Info("nearby_locate_failed", "err", err)
		return Page{}, errors.Join(proximity.ErrNoOrigin, err)
	}
	if gen != s.gen {
		return Page{}, ErrSuperseded
	}
	ranked, err := proximity.Nearest(&origin, base, s.cfg.NearestK)
	if err != nil {
		return Page{}, err
	}
	entries := make([]entry, len(ranked))
	for i := range ranked {
		d := ranked[i].DistanceKm
		entries[i] = entry{c: ranked[i].Center, dist: &d}
	}
	s.nearby = true
	l.Debug("nearby_ok", "candidates", len(base), "n", len(entries))
	return s.restartLocked(entries), nil
}

// NIDLookup：按 NID 末 6 位在全部中心内查找并从第一页展示；不改动筛选条件
func (s *Session) NIDLookup(rawNID, rawDOB string) (nid.Result, Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := nid.Lookup(s.ix.Centers, rawNID, rawDOB)
	if err != nil {
		return nid.Result{}, Page{}, err
	}
	s.gen++
	s.nearby = false
	s.filtered = res.Centers
	entries := make([]entry, len(res.Centers))
	for i, c := range res.Centers {
		entries[i] = entry{c: c}
	}
	return res, s.restartLocked(entries), nil
}
