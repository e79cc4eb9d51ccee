package search

import (
	"cmp"
	"slices"
	"strings"

	"center-lookup/internal/dataset"
	"center-lookup/internal/refindex"
)

// Facets：各独立筛选维度，零值表示不约束
type Facets struct {
	DivisionID     int               `json:"division_id,omitempty"`
	DistrictID     int               `json:"district_id,omitempty"`
	UpazilaID      int               `json:"upazila_id,omitempty"`
	ConstituencyID int               `json:"constituency_id,omitempty"`
	UnionID        int               `json:"union_id,omitempty"`
	VoterType      dataset.VoterType `json:"voter_type,omitempty"`
	// PinnedCenterID：联想选中后把结果固定为单个中心
	PinnedCenterID int `json:"pinned_center_id,omitempty"`
}

// IsZero：没有任何维度被设置
func (f Facets) IsZero() bool { return f == Facets{} }

// 文档注释：统一匹配谓词
// 背景：筛选引擎与联想引擎共用同一判定，避免两处逻辑漂移。
// 约束：合取判定，遇到第一个不满足即返回；query 需已归一化（SearchBlob 已全小写），空串表示不做文本约束。
func Match(c *refindex.IndexedCenter, f Facets, query string) bool {
	if f.PinnedCenterID != 0 && c.ID != f.PinnedCenterID {
		return false
	}
	if f.DivisionID != 0 && c.DivisionID != f.DivisionID {
		return false
	}
	if f.DistrictID != 0 && c.DistrictID != f.DistrictID {
		return false
	}
	if f.UpazilaID != 0 && c.UpazilaID != f.UpazilaID {
		return false
	}
	if f.ConstituencyID != 0 && c.ConstituencyID != f.ConstituencyID {
		return false
	}
	if f.UnionID != 0 && c.UnionID != f.UnionID {
		return false
	}
	if f.VoterType != "" && c.VoterType != f.VoterType {
		return false
	}
	if query != "" && !strings.Contains(c.SearchBlob, query) {
		return false
	}
	return true
}

// compareCenters：(district_id, upazila_id, serial) 升序
func compareCenters(a, b *refindex.IndexedCenter) int {
	if c := cmp.Compare(a.DistrictID, b.DistrictID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.UpazilaID, b.UpazilaID); c != 0 {
		return c
	}
	return cmp.Compare(a.Serial, b.Serial)
}

// SortStable：按标准顺序原地稳定排序；调用方需自行保证切片归自己所有
func SortStable(list []*refindex.IndexedCenter) {
	slices.SortStableFunc(list, compareCenters)
}

// 文档注释：筛选引擎
// 背景：线性扫描全部中心，保留满足谓词者并按标准顺序稳定排序；每次返回新切片，不改动输入。
// 约束：rawQuery 在此归一化；无筛选条件时返回完整但已排序的集合。
func Filter(centers []*refindex.IndexedCenter, f Facets, rawQuery string) []*refindex.IndexedCenter {
	q := Normalize(rawQuery)
	out := make([]*refindex.IndexedCenter, 0, len(centers))
	for _, c := range centers {
		if Match(c, f, q) {
			out = append(out, c)
		}
	}
	SortStable(out)
	return out
}
