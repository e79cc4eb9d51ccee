// 包 ingest：后台定期重载参考数据，运行在服务进程内的协程
package ingest

import (
	"context"
	"time"

	"center-lookup/internal/logger"
)

// 文档注释：按固定间隔执行重载
// 背景：数据源（目录或数据库）被离线更新后，服务无需重启即可切换到新快照；错误由日志记录，任务继续调度。
// 约束：interval<=0 不启动；ctx 取消后退出；fn 在后台协程中串行执行。
func StartPeriodic(ctx context.Context, interval time.Duration, fn func(context.Context) error) {
	if interval <= 0 {
		return
	}
	l := logger.For("ingest")
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Info("reload_start")
				if err := fn(ctx); err != nil {
					l.Error("reload_error", "err", err)
				} else {
					l.Info("reload_done")
				}
			}
		}
	}()
}
