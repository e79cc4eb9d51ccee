// 包 debounce：取消并重启的单次延迟任务
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay：联想刷新的静默期
const DefaultDelay = 120 * time.Millisecond

// 文档注释：防抖器
// 背景：每次按键都重新计时，只有静默期内最后一次输入真正触发联想计算。
// 约束：同一时刻至多一个待执行任务；Trigger 会取消尚未执行的旧任务；Stop 之后的 Trigger 被忽略。
// 已经开始执行的回调不会被取消，由回调自身负责检查输入是否仍然有效。
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger：安排 fn 在静默期后执行，取代任何尚未执行的旧任务
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// Stop 返回 false 时旧回调可能已在排队，按代号丢弃
		current := gen == d.gen && !d.stopped
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel：取消待执行任务；返回是否确实取消了一个任务
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending：是否有尚未执行的任务
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop：取消待执行任务并永久停用
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
