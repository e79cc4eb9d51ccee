package search

import (
	"center-lookup/internal/refindex"
)

// 联想默认参数
const (
	DefaultSuggestLimit = 8
	MinSuggestQueryLen  = 2
)

// 文档注释：联想引擎
// 背景：输入过程中给出少量候选；按输入顺序扫描，命中数达到上限立即停止，不做相关度排序。
// 约束：归一化后不足两个字符时不给建议；固定中心维度在此忽略（尚未选中任何中心）；limit<=0 使用默认值。
func Suggest(centers []*refindex.IndexedCenter, f Facets, rawQuery string, limit int) []*refindex.IndexedCenter {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	q := Normalize(rawQuery)
	if queryLen(q) < MinSuggestQueryLen {
		return []*refindex.IndexedCenter{}
	}
	f.PinnedCenterID = 0
	out := make([]*refindex.IndexedCenter, 0, limit)
	for _, c := range centers {
		if !Match(c, f, q) {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Suggestions：联想候选与键盘焦点
// 约束：Focus 取值 -1（无焦点）或 [0, len(Items))；替换候选或清空都会把焦点复位为 -1。
type Suggestions struct {
	Items []*refindex.IndexedCenter
	Focus int
}

func NewSuggestions() Suggestions { return Suggestions{Focus: -1} }

// Set：替换候选并复位焦点
func (s *Suggestions) Set(items []*refindex.IndexedCenter) {
	s.Items = items
	s.Focus = -1
}

// Clear：清空候选与焦点
func (s *Suggestions) Clear() {
	s.Items = nil
	s.Focus = -1
}

// Move：焦点按方向移动，两端回绕；无焦点时向下落到首项、向上落到末项；无候选时不动
func (s *Suggestions) Move(dir int) {
	n := len(s.Items)
	if n == 0 || dir == 0 {
		return
	}
	if s.Focus < 0 {
		if dir > 0 {
			s.Focus = 0
		} else {
			s.Focus = n - 1
		}
		return
	}
	s.Focus = ((s.Focus+dir)%n + n) % n
}

// Focused：当前焦点项
func (s *Suggestions) Focused() (*refindex.IndexedCenter, bool) {
	if s.Focus < 0 || s.Focus >= len(s.Items) {
		return nil, false
	}
	return s.Items[s.Focus], true
}
