// 包 proximity：按大圆距离对投票中心做就近排序
package proximity

import (
	"errors"
	"math"

	"center-lookup/internal/refindex"
)

// DefaultK：就近结果条数上限
const DefaultK = 20

var (
	// ErrNoOrigin：调用方没有提供起点坐标（定位被拒绝、超时或未请求）
	ErrNoOrigin = errors.New("proximity: no origin supplied")
	// ErrNoGeocoded：候选集中没有任何带坐标的中心；与“零结果”区分，便于界面给出专门提示
	ErrNoGeocoded = errors.New("proximity: no geocoded candidates")
)

// Point：WGS84 坐标（度）
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid：数值有限且在经纬度取值范围内
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Ranked：带距离的结果项；距离只存在于本次排序的结果中，不回写中心
type Ranked struct {
	Center     *refindex.IndexedCenter
	DistanceKm float64
}

// PointOf：中心坐标，缺失或非法时 ok 为 false
func PointOf(c *refindex.IndexedCenter) (Point, bool) {
	if !c.HasCoords() {
		return Point{}, false
	}
	p := Point{Lat: *c.Latitude, Lon: *c.Longitude}
	return p, p.Valid()
}
