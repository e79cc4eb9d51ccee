package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"center-lookup/internal/dataset"
	"center-lookup/internal/geoloc"
	"center-lookup/internal/logger"
	"center-lookup/internal/metrics"
	"center-lookup/internal/nid"
	"center-lookup/internal/pager"
	"center-lookup/internal/proximity"
	"center-lookup/internal/refindex"
	"center-lookup/internal/search"
)

// centerItem：结果列表中的一条中心
type centerItem struct {
	ID             int               `json:"id"`
	Name           string            `json:"name"`
	NameEn         string            `json:"name_en,omitempty"`
	Slug           string            `json:"slug,omitempty"`
	VoterType      dataset.VoterType `json:"voter_type"`
	Serial         int               `json:"serial"`
	Latitude       *float64          `json:"latitude,omitempty"`
	Longitude      *float64          `json:"longitude,omitempty"`
	AreaCodes      []string          `json:"area_codes"`
	ConstituencyID int               `json:"constituency_id"`
	Location       refindex.Location `json:"location"`
	ShowMap        bool              `json:"show_map"`
	MapSlug        string            `json:"map_slug,omitempty"`
	MapURL         string            `json:"map_url,omitempty"`
	DistanceKm     *float64          `json:"distance_km,omitempty"`
}

type pageResponse struct {
	Total     int          `json:"total"`
	Offset    int          `json:"offset"`
	Items     []centerItem `json:"items"`
	Remaining int          `json:"remaining"`
	Reason    string       `json:"reason,omitempty"`
}

func newItem(ix *refindex.Index, c *refindex.IndexedCenter, showMap bool) centerItem {
	it := centerItem{
		ID:             c.ID,
		Name:           dataset.DisplayName(c.Name, c.NameEn),
		NameEn:         dataset.EnglishName(c.NameEn),
		Slug:           c.Slug,
		VoterType:      c.VoterType,
		Serial:         c.Serial,
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
		AreaCodes:      c.AreaCodes,
		ConstituencyID: c.ConstituencyID,
		Location:       ix.Locate(c),
		ShowMap:        showMap,
	}
	if showMap {
		if k := ix.ConstituencyByID[c.ConstituencyID]; k != nil {
			it.MapSlug = strings.ToLower(k.Slug)
			it.MapURL = k.MapURL
		}
	}
	return it
}

// 文档注释：按 offset/limit 取一页并计算地图展示标记
// 背景：客户端逐页请求时，选区地图只在整个有序结果中首次出现的位置展示；因此从结果开头重放一次首现规则，而不是只看本页。
// 约束：dists 为 nil 表示非就近结果；否则与 list 等长。
func buildPage(ix *refindex.Index, list []*refindex.IndexedCenter, dists []float64, offset, limit int, maps bool) pageResponse {
	p := pager.New(list)
	win := p.Window(offset, limit)
	resp := pageResponse{Total: p.Total(), Offset: offset, Items: make([]centerItem, 0, len(win))}
	tr := pager.NewMapTracker(maps)
	// offset 越界时窗口为空，end 收敛到 len(list)
	end := min(offset, len(list)) + len(win)
	for i := 0; i < end; i++ {
		c := list[i]
		show := tr.Show(c.ConstituencyID, ix.HasMap(ix.ConstituencyByID[c.ConstituencyID]))
		if i < offset {
			continue
		}
		it := newItem(ix, c, show)
		if dists != nil {
			d := dists[i]
			it.DistanceKm = &d
		}
		resp.Items = append(resp.Items, it)
	}
	resp.Remaining = max(resp.Total-end, 0)
	return resp
}

func mapsParam(r *http.Request) bool {
	v := strings.ToLower(r.URL.Query().Get("maps"))
	return v != "off" && v != "false" && v != "0"
}

func badParam(w http.ResponseWriter, err error) bool {
	var pe *paramError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, "invalid_param", pe.Error())
		return true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_param", err.Error())
		return true
	}
	return false
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	writeJSON(w, http.StatusOK, sn.Summary)
}

type optionsResponse struct {
	Level   string            `json:"level"`
	Parent  int               `json:"parent"`
	Options []refindex.Option `json:"options"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	q := r.URL.Query()
	parent, err := intParam(q, "parent", 0)
	if badParam(w, err) {
		return
	}
	ix := sn.Index
	level := strings.ToLower(strings.TrimSpace(q.Get("level")))
	var opts []refindex.Option
	switch level {
	case "division":
		opts = ix.DivisionOptions()
	case "district":
		opts = ix.DistrictOptions(parent)
	case "upazila":
		opts = ix.UpazilaOptions(parent)
	case "constituency":
		opts = ix.ConstituencyOptions(parent)
	case "union":
		opts = ix.UnionOptions(parent)
	default:
		writeError(w, http.StatusBadRequest, "invalid_param", fmt.Sprintf("unknown level %q", level))
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{Level: level, Parent: parent, Options: opts})
}

func (s *Server) handleCenters(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	q := r.URL.Query()
	f, err := parseFacets(q)
	if badParam(w, err) {
		return
	}
	offset, limit, err := s.pageParams(q)
	if badParam(w, err) {
		return
	}
	s.serveCached(w, r, sn, func() (int, any) {
		list := search.Filter(sn.Index.Centers, f, q.Get("q"))
		if len(list) == 0 {
			metrics.EmptyResultsTotal.WithLabelValues("centers").Inc()
		}
		logger.L().Debug("filter_done", "facets", !f.IsZero(), "query_len", len(q.Get("q")), "n", len(list))
		return http.StatusOK, buildPage(sn.Index, list, nil, offset, limit, mapsParam(r))
	})
	s.recordQuery(r, "centers")
}

type suggestItem struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	q := r.URL.Query()
	f, err := parseFacets(q)
	if badParam(w, err) {
		return
	}
	s.serveCached(w, r, sn, func() (int, any) {
		found := search.Suggest(sn.Index.Centers, f, q.Get("q"), s.cfg.SuggestLimit)
		items := make([]suggestItem, 0, len(found))
		for _, c := range found {
			items = append(items, suggestItem{
				ID:    c.ID,
				Name:  dataset.DisplayName(c.Name, c.NameEn),
				Label: sn.Index.SuggestionLabel(c),
			})
		}
		return http.StatusOK, map[string]any{"items": items}
	})
}

// originLocator：lat/lon 同时给出时使用显式坐标，都缺失时按客户端 IP 走 GeoIP
func (s *Server) originLocator(r *http.Request) (geoloc.Locator, error) {
	q := r.URL.Query()
	lat, hasLat, err := floatParam(q, "lat")
	if err != nil {
		return nil, err
	}
	lon, hasLon, err := floatParam(q, "lon")
	if err != nil {
		return nil, err
	}
	switch {
	case hasLat && hasLon:
		return geoloc.Static(proximity.Point{Lat: lat, Lon: lon}), nil
	case hasLat || hasLon:
		return nil, errors.New("lat and lon must be given together")
	case s.geo == nil:
		return nil, nil
	}
	ip := net.ParseIP(getClientIP(r))
	if ip == nil {
		return nil, nil
	}
	inner := s.geo.ForIP(ip)
	return geoloc.LocatorFunc(func(ctx context.Context) (proximity.Point, error) {
		p, err := inner.Locate(ctx)
		if err != nil {
			metrics.GeoIPLookupsTotal.WithLabelValues("miss").Inc()
			return p, err
		}
		metrics.GeoIPLookupsTotal.WithLabelValues("ok").Inc()
		return p, nil
	}), nil
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	q := r.URL.Query()
	f, err := parseFacets(q)
	if badParam(w, err) {
		return
	}
	k, err := intParam(q, "k", s.cfg.NearestK)
	if badParam(w, err) {
		return
	}
	if k == 0 {
		k = s.cfg.NearestK
	}
	k = min(k, maxNearestK)
	loc, err := s.originLocator(r)
	if badParam(w, err) {
		return
	}
	ctx := r.Context()
	origin, err := geoloc.Resolve(ctx, loc, s.cfg.GeolocateTimeout)
	if err != nil {
		metrics.NearestOutcomesTotal.WithLabelValues("no_origin").Inc()
		writeError(w, http.StatusUnprocessableEntity, "no_origin", err.Error())
		return
	}

	ix := sn.Index
	candidates := search.Filter(ix.Centers, f, q.Get("q"))
	scope := sn.Version + "|" + fmt.Sprint(f) + "|" + search.Normalize(q.Get("q"))
	if len(candidates) == 0 {
		candidates = ix.Centers
		scope = sn.Version + "|all"
	}
	var ranked []proximity.Ranked
	if k == s.ranker.K {
		ranked, err = s.ranker.Rank(ctx, &origin, scope, candidates)
	} else {
		ranked, err = proximity.Nearest(&origin, candidates, k)
	}
	if errors.Is(err, proximity.ErrNoGeocoded) {
		metrics.NearestOutcomesTotal.WithLabelValues("no_geocoded_data").Inc()
		writeJSON(w, http.StatusOK, pageResponse{Items: []centerItem{}, Reason: "no_geocoded_data"})
		return
	}
	if err != nil {
		metrics.NearestOutcomesTotal.WithLabelValues("no_origin").Inc()
		writeError(w, http.StatusUnprocessableEntity, "no_origin", err.Error())
		return
	}
	metrics.NearestOutcomesTotal.WithLabelValues("ok").Inc()
	list := proximity.Centers(ranked)
	dists := make([]float64, len(ranked))
	for i, rk := range ranked {
		dists[i] = rk.DistanceKm
	}
	writeJSON(w, http.StatusOK, buildPage(ix, list, dists, 0, len(list), mapsParam(r)))
	s.recordQuery(r, "nearest")
}

type nidResponse struct {
	AreaCode  string `json:"area_code"`
	BirthDate string `json:"birth_date,omitempty"`
	pageResponse
}

func (s *Server) handleNID(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	q := r.URL.Query()
	offset, limit, err := s.pageParams(q)
	if badParam(w, err) {
		return
	}
	res, err := nid.Lookup(sn.Index.Centers, q.Get("nid"), q.Get("dob"))
	switch {
	case errors.Is(err, nid.ErrInvalidNID):
		metrics.NIDLookupsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid_nid", err.Error())
		return
	case errors.Is(err, nid.ErrInvalidDOB):
		metrics.NIDLookupsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid_dob", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "nid_failed", err.Error())
		return
	}
	outcome := "match"
	if len(res.Centers) == 0 {
		outcome = "empty"
		metrics.EmptyResultsTotal.WithLabelValues("nid").Inc()
	}
	metrics.NIDLookupsTotal.WithLabelValues(outcome).Inc()
	out := nidResponse{AreaCode: res.AreaCode, pageResponse: buildPage(sn.Index, res.Centers, nil, offset, limit, mapsParam(r))}
	if res.BirthDate != nil {
		out.BirthDate = res.BirthDate.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, out)
	s.recordQuery(r, "nid")
}

func (s *Server) handleParties(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	writeJSON(w, http.StatusOK, map[string]any{"items": sn.Index.ListedParties(listedParties)})
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request, sn *Snapshot) {
	items := sn.Index.FeaturedConstituencies(featuredConstituency)
	if items == nil {
		items = []*dataset.Constituency{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.StatsEnabled || s.st == nil {
		writeError(w, http.StatusNotFound, "stats_disabled", "")
		return
	}
	t, err := s.st.GetTotals(r.Context())
	if err != nil {
		logger.L().Error("stats_read_error", "err", err)
		writeError(w, http.StatusInternalServerError, "stats_unavailable", "")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
