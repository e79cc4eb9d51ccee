// 包 pager：对单个结果集做增量分页（“加载更多”）
package pager

// DefaultPageSize：每次加载更多追加的条数
const DefaultPageSize = 40

// 文档注释：增量分页器
// 背景：结果集由筛选或就近排序一次性算出，界面逐页追加展示；上游条件变化时整体 Reset，从 0 重新开始而不是保留滚动位置。
// 约束：NextPage 只返回本次新增的切片；耗尽后返回空切片；不做并发保护，由持有者串行驱动。
type Pager[T any] struct {
	items []T
	shown int
}

// New：以给定结果集创建分页器，已展示数为 0
func New[T any](items []T) *Pager[T] {
	return &Pager[T]{items: items}
}

// Reset：替换结果集并把已展示数归零
func (p *Pager[T]) Reset(items []T) {
	p.items = items
	p.shown = 0
}

// NextPage：再展示最多 size 条；size<=0 时使用默认页大小
func (p *Pager[T]) NextPage(size int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	end := min(p.shown+size, len(p.items))
	page := p.items[p.shown:end:end]
	p.shown = end
	return page
}

// Remaining：尚未展示的条数
func (p *Pager[T]) Remaining() int { return len(p.items) - p.shown }

// Total：结果集总数
func (p *Pager[T]) Total() int { return len(p.items) }

// Shown：已展示条数
func (p *Pager[T]) Shown() int { return p.shown }

// Materialized：已展示的全部历史（按结果集顺序）
func (p *Pager[T]) Materialized() []T { return p.items[:p.shown:p.shown] }

// Window：结果集任意区间的只读视图（HTTP 的 offset/limit 查询使用），越界时截断
func (p *Pager[T]) Window(offset, limit int) []T {
	offset = max(offset, 0)
	if offset >= len(p.items) || limit <= 0 {
		return []T{}
	}
	end := min(offset+limit, len(p.items))
	return p.items[offset:end:end]
}
