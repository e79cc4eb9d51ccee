package refindex

import (
	"encoding/json"
	"strconv"
	"strings"

	"center-lookup/internal/dataset"
)

// 文档注释：带派生字段的只读中心
// 背景：区域代码解码与检索串拼接只在构建索引时做一次，之后各引擎只读共享；不回写原始记录。
// 约束：SearchBlob 全小写，字段间以单个空格连接，顺序为 name、name_en、slug、各区域代码。
type IndexedCenter struct {
	dataset.Center
	AreaCodes  []string
	SearchBlob string
}

// IndexCenter：对单条原始记录计算派生字段
func IndexCenter(c dataset.Center) *IndexedCenter {
	codes := ParseAreaCodes(string(c.VoterAreaCodes))
	parts := make([]string, 0, 3+len(codes))
	parts = append(parts, c.Name, c.NameEn, c.Slug)
	parts = append(parts, codes...)
	return &IndexedCenter{
		Center:     c,
		AreaCodes:  codes,
		SearchBlob: strings.ToLower(strings.Join(parts, " ")),
	}
}

// ParseAreaCodes：解码区域代码列表
// 约束：空串、"[]"、非法 JSON、非数组均返回空列表而非错误；数组内的数字元素按十进制文本保留。
func ParseAreaCodes(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return []string{}
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return out
}

// FirstAreaCode：首个区域代码，缺失时返回 "-"
func (c *IndexedCenter) FirstAreaCode() string {
	if len(c.AreaCodes) == 0 {
		return "-"
	}
	return c.AreaCodes[0]
}

// HasAreaCode：精确包含（NID 查询使用）
func (c *IndexedCenter) HasAreaCode(code string) bool {
	for _, a := range c.AreaCodes {
		if a == code {
			return true
		}
	}
	return false
}
