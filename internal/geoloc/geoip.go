package geoloc

import (
	"context"
	"net"

	"center-lookup/internal/logger"
	"center-lookup/internal/proximity"

	"github.com/oschwald/geoip2-golang"
)

// 文档注释：基于 GeoIP 城市库的粗定位
// 背景：浏览器不提供坐标时，用请求来源 IP 推断大致位置作为“附近”的起点；精度为城市级。
// 约束：只读 mmdb，打开后可并发查询；私网、回环地址与库中坐标为 (0,0) 的记录视为不可用。
type GeoIP struct {
	r *geoip2.Reader
}

// OpenGeoIP：打开 mmdb 文件
func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logger.L().Info("geoip_open_ok", "path", path, "type", r.Metadata().DatabaseType)
	return &GeoIP{r: r}, nil
}

func (g *GeoIP) Close() error {
	if g == nil || g.r == nil {
		return nil
	}
	return g.r.Close()
}

// Lookup：查询 IP 对应的城市坐标
func (g *GeoIP) Lookup(ip net.IP) (proximity.Point, error) {
	if g == nil || g.r == nil || ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return proximity.Point{}, ErrUnavailable
	}
	rec, err := g.r.City(ip)
	if err != nil {
		return proximity.Point{}, err
	}
	p := proximity.Point{Lat: rec.Location.Latitude, Lon: rec.Location.Longitude}
	if (p.Lat == 0 && p.Lon == 0) || !p.Valid() {
		return proximity.Point{}, ErrUnavailable
	}
	return p, nil
}

// ForIP：绑定某个来源 IP 的定位器
func (g *GeoIP) ForIP(ip net.IP) Locator {
	return LocatorFunc(func(context.Context) (proximity.Point, error) { return g.Lookup(ip) })
}
