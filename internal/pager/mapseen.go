package pager

// MapTracker：记录在整段已展示历史中出现过地图的选区
// 约束：每个选区的地图在一个结果集内只在首次出现时展示；结果集重置时必须一并 Reset；关闭时一律不展示。
type MapTracker struct {
	enabled bool
	seen    map[int]struct{}
}

func NewMapTracker(enabled bool) *MapTracker {
	return &MapTracker{enabled: enabled, seen: make(map[int]struct{})}
}

// Enabled：地图展示开关
func (m *MapTracker) Enabled() bool { return m.enabled }

// SetEnabled：切换开关并清空记录
func (m *MapTracker) SetEnabled(on bool) {
	m.enabled = on
	m.Reset()
}

// Reset：清空已展示记录
func (m *MapTracker) Reset() {
	clear(m.seen)
}

// Show：该选区此刻是否应展示地图；返回 true 时记为已展示。未知选区（id 为 0）与不可展示的选区不记录
func (m *MapTracker) Show(constituencyID int, hasMap bool) bool {
	if !m.enabled || constituencyID == 0 || !hasMap {
		return false
	}
	if _, ok := m.seen[constituencyID]; ok {
		return false
	}
	m.seen[constituencyID] = struct{}{}
	return true
}
