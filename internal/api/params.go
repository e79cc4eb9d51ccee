package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"center-lookup/internal/dataset"
	"center-lookup/internal/search"
)

// paramError：查询参数非法，统一映射为 400
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string { return fmt.Sprintf("invalid %s: %v", e.name, e.err) }

func (e *paramError) Unwrap() error { return e.err }

// intParam：缺失或空串返回 def；负数视为非法
func intParam(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(search.NormalizeDigits(q.Get(name)))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &paramError{name, err}
	}
	if n < 0 {
		return 0, &paramError{name, fmt.Errorf("negative value %d", n)}
	}
	return n, nil
}

// floatParam：ok 为 false 表示参数缺失
func floatParam(q url.Values, name string) (v float64, ok bool, err error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, &paramError{name, err}
	}
	return v, true, nil
}

// parseFacets：division/district/upazila/constituency/union/voter_type/center
func parseFacets(q url.Values) (search.Facets, error) {
	var f search.Facets
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"division", &f.DivisionID},
		{"district", &f.DistrictID},
		{"upazila", &f.UpazilaID},
		{"constituency", &f.ConstituencyID},
		{"union", &f.UnionID},
		{"center", &f.PinnedCenterID},
	} {
		n, err := intParam(q, p.name, 0)
		if err != nil {
			return f, err
		}
		*p.dst = n
	}
	if vt := strings.ToUpper(strings.TrimSpace(q.Get("voter_type"))); vt != "" {
		f.VoterType = dataset.VoterType(vt)
		if !f.VoterType.Valid() {
			return f, &paramError{"voter_type", fmt.Errorf("unknown value %q", vt)}
		}
	}
	return f, nil
}

// pageParams：offset 默认 0，limit 默认页大小并限制上限
func (s *Server) pageParams(q url.Values) (offset, limit int, err error) {
	if offset, err = intParam(q, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = intParam(q, "limit", s.cfg.PageSize); err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = s.cfg.PageSize
	}
	return offset, min(limit, maxPageSize), nil
}
