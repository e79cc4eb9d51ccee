package refindex

import (
	"cmp"
	"fmt"
	"slices"

	"center-lookup/internal/dataset"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Option：级联下拉框的一项
type Option struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// 文档注释：孟加拉语排序器
// 约束：collate.Collator 内部带缓冲，不可并发共享，每次排序新建一个。
func newCollator() *collate.Collator {
	return collate.New(language.Bengali)
}

// sortByLabel：按展示名做孟加拉语排序，稳定排序保证同名项保持输入顺序
func sortByLabel(out []Option) []Option {
	col := newCollator()
	slices.SortStableFunc(out, func(a, b Option) int { return col.CompareString(a.Label, b.Label) })
	return out
}

// DivisionOptions：全部行政区
func (ix *Index) DivisionOptions() []Option {
	out := make([]Option, 0, len(ix.Divisions))
	for _, d := range ix.Divisions {
		out = append(out, Option{ID: d.ID, Label: dataset.DisplayName(d.Name, d.NameEn)})
	}
	return sortByLabel(out)
}

// DistrictOptions：某行政区下的县，divisionID 为 0 时返回空
func (ix *Index) DistrictOptions(divisionID int) []Option {
	out := []Option{}
	if divisionID == 0 {
		return out
	}
	for _, d := range ix.DistrictsByDivision[divisionID] {
		out = append(out, Option{ID: d.ID, Label: dataset.DisplayName(d.Name, d.NameEn)})
	}
	return sortByLabel(out)
}

// UpazilaOptions：某县下的乡
func (ix *Index) UpazilaOptions(districtID int) []Option {
	out := []Option{}
	if districtID == 0 {
		return out
	}
	for _, u := range ix.UpazilasByDistrict[districtID] {
		out = append(out, Option{ID: u.ID, Label: dataset.DisplayName(u.Name, u.NameEn)})
	}
	return sortByLabel(out)
}

// UnionOptions：某乡下的 union/ward
func (ix *Index) UnionOptions(upazilaID int) []Option {
	out := []Option{}
	if upazilaID == 0 {
		return out
	}
	for _, u := range ix.UnionsByUpazila[upazilaID] {
		out = append(out, Option{ID: u.ID, Label: dataset.DisplayName(u.Name, u.NameEn)})
	}
	return sortByLabel(out)
}

// ConstituencyOptions：某县下的选区，按 code 升序，标签为 "名称 (code)"
func (ix *Index) ConstituencyOptions(districtID int) []Option {
	if districtID == 0 {
		return []Option{}
	}
	items := slices.Clone(ix.ConstituenciesByDistrict[districtID])
	slices.SortStableFunc(items, func(a, b *dataset.Constituency) int { return cmp.Compare(a.Code, b.Code) })
	out := make([]Option, 0, len(items))
	for _, c := range items {
		out = append(out, Option{ID: c.ID, Label: fmt.Sprintf("%s (%d)", dataset.DisplayName(c.Name, c.NameEn), c.Code)})
	}
	return out
}

// FeaturedConstituencies：有地图资源的选区，按选民总数降序取前 n 个
func (ix *Index) FeaturedConstituencies(n int) []*dataset.Constituency {
	var out []*dataset.Constituency
	for _, c := range ix.Constituencies {
		if ix.HasMap(c) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *dataset.Constituency) int { return cmp.Compare(b.TotalVoters, a.TotalVoters) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ListedParties：去掉占位名称（空、"-"、"---"）后的前 n 个政党
func (ix *Index) ListedParties(n int) []dataset.Party {
	out := make([]dataset.Party, 0, len(ix.Parties))
	for _, p := range ix.Parties {
		if p.Name == "" || p.Name == "-" || p.Name == "---" {
			continue
		}
		out = append(out, p)
		if n >= 0 && len(out) >= n {
			break
		}
	}
	return out
}
