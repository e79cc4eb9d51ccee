// 包 refindex：参考数据索引（按 id 查找、按父级分组、派生中心字段）
package refindex

import (
	"strings"

	"center-lookup/internal/dataset"
	"center-lookup/internal/logger"
)

// 文档注释：参考索引
// 背景：数据加载完成后构建一次，供筛选、联想、分页与界面层读取；构建后不再修改，可被多个会话并发只读共享。
// 约束：父级 id 为 0 的实体不进入分组（视为未归属）；分组内顺序与输入一致，不承诺排序。
type Index struct {
	DivisionByID     map[int]*dataset.Division
	DistrictByID     map[int]*dataset.District
	UpazilaByID      map[int]*dataset.Upazila
	ConstituencyByID map[int]*dataset.Constituency
	UnionByID        map[int]*dataset.Union

	DistrictsByDivision      map[int][]*dataset.District
	UpazilasByDistrict       map[int][]*dataset.Upazila
	ConstituenciesByDistrict map[int][]*dataset.Constituency
	UnionsByUpazila          map[int][]*dataset.Union

	Divisions      []*dataset.Division
	Constituencies []*dataset.Constituency

	// Centers：输入顺序的派生中心；CenterByID 指向同一批值
	Centers    []*IndexedCenter
	CenterByID map[int]*IndexedCenter
	Parties    []dataset.Party

	mapSlugs map[string]struct{}
}

// Build：由层级实体构建查找表与分组
func Build(divisions []dataset.Division, districts []dataset.District, upazilas []dataset.Upazila,
	constituencies []dataset.Constituency, unions []dataset.Union) *Index {
	ix := &Index{
		DivisionByID:             make(map[int]*dataset.Division, len(divisions)),
		DistrictByID:             make(map[int]*dataset.District, len(districts)),
		UpazilaByID:              make(map[int]*dataset.Upazila, len(upazilas)),
		ConstituencyByID:         make(map[int]*dataset.Constituency, len(constituencies)),
		UnionByID:                make(map[int]*dataset.Union, len(unions)),
		DistrictsByDivision:      make(map[int][]*dataset.District),
		UpazilasByDistrict:       make(map[int][]*dataset.Upazila),
		ConstituenciesByDistrict: make(map[int][]*dataset.Constituency),
		UnionsByUpazila:          make(map[int][]*dataset.Union),
		CenterByID:               make(map[int]*IndexedCenter),
		mapSlugs:                 make(map[string]struct{}),
	}
	for i := range divisions {
		d := &divisions[i]
		ix.DivisionByID[d.ID] = d
		ix.Divisions = append(ix.Divisions, d)
	}
	for i := range districts {
		d := &districts[i]
		ix.DistrictByID[d.ID] = d
		if d.DivisionID != 0 {
			ix.DistrictsByDivision[d.DivisionID] = append(ix.DistrictsByDivision[d.DivisionID], d)
		}
	}
	for i := range upazilas {
		u := &upazilas[i]
		ix.UpazilaByID[u.ID] = u
		if u.DistrictID != 0 {
			ix.UpazilasByDistrict[u.DistrictID] = append(ix.UpazilasByDistrict[u.DistrictID], u)
		}
	}
	for i := range constituencies {
		c := &constituencies[i]
		ix.ConstituencyByID[c.ID] = c
		ix.Constituencies = append(ix.Constituencies, c)
		if c.DistrictID != 0 {
			ix.ConstituenciesByDistrict[c.DistrictID] = append(ix.ConstituenciesByDistrict[c.DistrictID], c)
		}
	}
	for i := range unions {
		u := &unions[i]
		ix.UnionByID[u.ID] = u
		if u.UpazilaID != 0 {
			ix.UnionsByUpazila[u.UpazilaID] = append(ix.UnionsByUpazila[u.UpazilaID], u)
		}
	}
	return ix
}

// FromDataset：构建完整索引（层级 + 中心派生字段 + 政党 + 地图资源）
func FromDataset(ds *dataset.Dataset) *Index {
	ix := Build(ds.Divisions, ds.Districts, ds.Upazilas, ds.Constituencies, ds.Unions)
	ix.AddCenters(ds.Centers)
	ix.Parties = ds.Parties
	for _, s := range ds.MapSlugs {
		ix.mapSlugs[strings.ToLower(s)] = struct{}{}
	}
	logger.L().Debug("refindex_build_done",
		"divisions", len(ix.DivisionByID),
		"districts", len(ix.DistrictByID),
		"upazilas", len(ix.UpazilaByID),
		"unions", len(ix.UnionByID),
		"centers", len(ix.Centers),
	)
	return ix
}

// AddCenters：派生并登记中心；重复 id 以后者为准，但两条记录都保留在输入顺序中
func (ix *Index) AddCenters(centers []dataset.Center) {
	for _, c := range centers {
		ic := IndexCenter(c)
		ix.Centers = append(ix.Centers, ic)
		ix.CenterByID[ic.ID] = ic
	}
}

// Orphans：父级 id 非零但父实体不存在的记录数（数据完整性自检，仅记日志）
func (ix *Index) Orphans() int {
	n := 0
	for _, d := range ix.DistrictByID {
		if d.DivisionID != 0 && ix.DivisionByID[d.DivisionID] == nil {
			n++
		}
	}
	for _, u := range ix.UpazilaByID {
		if u.DistrictID != 0 && ix.DistrictByID[u.DistrictID] == nil {
			n++
		}
	}
	for _, c := range ix.ConstituencyByID {
		if c.DistrictID != 0 && ix.DistrictByID[c.DistrictID] == nil {
			n++
		}
	}
	for _, u := range ix.UnionByID {
		if u.UpazilaID != 0 && ix.UpazilaByID[u.UpazilaID] == nil {
			n++
		}
	}
	return n
}

// Location：中心所在各级名称
type Location struct {
	Division     string `json:"division"`
	District     string `json:"district"`
	Upazila      string `json:"upazila"`
	Union        string `json:"union"`
	Constituency string `json:"constituency"`
	// ConstituencyCode 为 0 表示未知
	ConstituencyCode int `json:"constituency_code"`
}

// Locate：解析中心各级展示名，未知实体回退为 "-"
func (ix *Index) Locate(c *IndexedCenter) Location {
	var loc Location
	loc.Division, loc.District, loc.Upazila, loc.Union, loc.Constituency = "-", "-", "-", "-", "-"
	if d := ix.DivisionByID[c.DivisionID]; d != nil {
		loc.Division = dataset.DisplayName(d.Name, d.NameEn)
	}
	if d := ix.DistrictByID[c.DistrictID]; d != nil {
		loc.District = dataset.DisplayName(d.Name, d.NameEn)
	}
	if u := ix.UpazilaByID[c.UpazilaID]; u != nil {
		loc.Upazila = dataset.DisplayName(u.Name, u.NameEn)
	}
	if u := ix.UnionByID[c.UnionID]; u != nil {
		loc.Union = dataset.DisplayName(u.Name, u.NameEn)
	}
	if k := ix.ConstituencyByID[c.ConstituencyID]; k != nil {
		loc.Constituency = dataset.DisplayName(k.Name, k.NameEn)
		loc.ConstituencyCode = k.Code
	}
	return loc
}

// HasMap：选区是否有可展示的地图资源（本地 slug 命中或给出了 map_url）
func (ix *Index) HasMap(c *dataset.Constituency) bool {
	if c == nil {
		return false
	}
	slug := strings.ToLower(strings.TrimSpace(c.Slug))
	if slug != "" {
		if _, ok := ix.mapSlugs[slug]; ok {
			return true
		}
	}
	return c.MapURL != ""
}

// SuggestionLabel：联想项副标题 "乡, 县 | 首个区域代码"
func (ix *Index) SuggestionLabel(c *IndexedCenter) string {
	loc := ix.Locate(c)
	return loc.Upazila + ", " + loc.District + " | " + c.FirstAreaCode()
}
