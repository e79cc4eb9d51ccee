package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// 文档注释：参考数据实体
// 背景：由外部构建脚本从 SQL 转储导出为 JSON，字段名与导出文件一致；加载后整个快照只读。
// 约束：父级 id 为 0 表示未归属；可选文本字段缺失时为空串，坐标缺失时为 nil。
type Division struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en,omitempty"`
}

type District struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	NameEn     string `json:"name_en,omitempty"`
	DivisionID int    `json:"division_id"`
}

type Upazila struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	NameEn     string `json:"name_en,omitempty"`
	DistrictID int    `json:"district_id"`
}

type Union struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	NameEn    string `json:"name_en,omitempty"`
	UpazilaID int    `json:"upazila_id"`
}

// Constituency：选区，Code 为展示排序键，Slug 用于关联地图资源
type Constituency struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	NameEn      string `json:"name_en,omitempty"`
	Code        int    `json:"code"`
	DistrictID  int    `json:"district_id"`
	Slug        string `json:"slug,omitempty"`
	MapURL      string `json:"map_url,omitempty"`
	TotalVoters int    `json:"total_voters"`
}

// VoterType：投票中心的选民类别
type VoterType string

const (
	VoterMale   VoterType = "MALE"
	VoterFemale VoterType = "FEMALE"
	VoterBoth   VoterType = "BOTH"
)

// Valid：是否为已知类别
func (v VoterType) Valid() bool {
	return v == VoterMale || v == VoterFemale || v == VoterBoth
}

// Center：投票中心（主检索实体）
type Center struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	NameEn         string       `json:"name_en,omitempty"`
	Slug           string       `json:"slug,omitempty"`
	DivisionID     int          `json:"division_id"`
	DistrictID     int          `json:"district_id"`
	UpazilaID      int          `json:"upazila_id"`
	UnionID        int          `json:"union_id"`
	ConstituencyID int          `json:"constituency_id"`
	VoterType      VoterType    `json:"voter_type"`
	Serial         int          `json:"serial"`
	Latitude       *float64     `json:"latitude,omitempty"`
	Longitude      *float64     `json:"longitude,omitempty"`
	VoterAreaCodes EncodedCodes `json:"voter_area_codes"`
}

// HasCoords：经纬度均存在
func (c *Center) HasCoords() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// UnmarshalJSON：坐标字段宽松解码
// 背景：部分导出把经纬度写成字符串（含空串），或写入无法解析的占位值。
// 约束：数字与数字字符串照常取值；null、空串、非数字、非有限值一律视为缺失（nil），不使整个加载失败。
func (c *Center) UnmarshalJSON(b []byte) error {
	type plain Center
	aux := struct {
		*plain
		Latitude  json.RawMessage `json:"latitude"`
		Longitude json.RawMessage `json:"longitude"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.Latitude = decodeCoord(aux.Latitude)
	c.Longitude = decodeCoord(aux.Longitude)
	return nil
}

func decodeCoord(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
	} else {
		s = string(raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type Party struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	SymbolURL  string `json:"symbol_url,omitempty"`
	SymbolName string `json:"symbol_name,omitempty"`
}

// EncodedCodes：原始的区域代码编码串（JSON 数组的文本形式，如 `["101202"]`）
// 背景：导出文件里通常是字符串；个别数据源直接给出数组，这里统一保存为数组文本，解码留给索引构建。
type EncodedCodes string

func (e *EncodedCodes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = EncodedCodes(s)
		return nil
	}
	// 数组或其它字面量：原样保留，解码失败时由索引阶段静默置空
	*e = EncodedCodes(b)
	return nil
}

// DisplayName：展示名回退链 name → name_en → "-"
func DisplayName(name, nameEn string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if strings.TrimSpace(nameEn) != "" {
		return nameEn
	}
	return "-"
}

// EnglishName：仅返回有意义的英文名，"-" 视为缺失
func EnglishName(nameEn string) string {
	s := strings.TrimSpace(nameEn)
	if s == "" || s == "-" {
		return ""
	}
	return nameEn
}
