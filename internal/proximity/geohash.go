package proximity

// 文档注释：轻量 geohash 编码（base32）
// 背景：用作就近缓存键与日志中的粗粒度位置；日志只记录 5 位（约 5km）而不记录原始坐标。
// 约束：精度 9 位约 5m，缓存命中后仍以原始坐标重算距离。
const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Geohash：把坐标编码为 precision 位 geohash
func Geohash(p Point, precision int) string {
	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0
	out := make([]byte, 0, precision)
	bit, ch := 0, 0
	even := true
	for len(out) < precision {
		if even {
			mid := (lonLo + lonHi) / 2
			if p.Lon >= mid {
				ch |= 16 >> bit
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if p.Lat >= mid {
				ch |= 16 >> bit
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			out = append(out, geohashAlphabet[ch])
			bit, ch = 0, 0
		}
	}
	return string(out)
}
