// 包 geoloc：起点坐标的获取（设备上报、GeoIP 推断）与超时控制
package geoloc

import (
	"context"
	"errors"
	"time"

	"center-lookup/internal/proximity"
)

// DefaultTimeout：定位请求超时，超时按失败处理
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnavailable：没有可用的定位来源（未配置 GeoIP、私网地址、库中无记录）
	ErrUnavailable = errors.New("geoloc: location unavailable")
	// ErrDenied：用户拒绝提供位置
	ErrDenied = errors.New("geoloc: permission denied")
	// ErrTimeout：定位在超时内未返回
	ErrTimeout = errors.New("geoloc: timed out")
)

// Locator：一次性解析起点坐标
type Locator interface {
	Locate(ctx context.Context) (proximity.Point, error)
}

// LocatorFunc：函数适配器
type LocatorFunc func(ctx context.Context) (proximity.Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (proximity.Point, error) { return f(ctx) }

// Static：调用方已经给出的坐标（HTTP 查询参数中的 lat/lon）
type Static proximity.Point

func (s Static) Locate(context.Context) (proximity.Point, error) {
	p := proximity.Point(s)
	if !p.Valid() {
		return proximity.Point{}, ErrUnavailable
	}
	return p, nil
}

// Denied：始终拒绝的定位来源（用户关闭定位授权）
type Denied struct{}

func (Denied) Locate(context.Context) (proximity.Point, error) { return proximity.Point{}, ErrDenied }

// 文档注释：带超时的定位
// 背景：定位来源可能长时间无响应；超时后立即返回 ErrTimeout，来源的迟到结果被丢弃。
// 约束：d<=0 使用 DefaultTimeout；父 ctx 取消时返回 ctx.Err()。
func Resolve(ctx context.Context, loc Locator, d time.Duration) (proximity.Point, error) {
	if loc == nil {
		return proximity.Point{}, ErrUnavailable
	}
	if d <= 0 {
		d = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	type result struct {
		p   proximity.Point
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := loc.Locate(ctx)
		ch <- result{p, err}
	}()
	select {
	case r := <-ch:
		return r.p, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return proximity.Point{}, ErrTimeout
		}
		return proximity.Point{}, ctx.Err()
	}
}
