package api

import (
	"context"
	"hash/fnv"
	"net/http"
	"time"

	"center-lookup/internal/logger"

	"github.com/redis/go-redis/v9"
)

// 访客去重位图参数：每日一个键，m=2^20 位、k=4 次哈希，两天后过期
const (
	visitorBloomBits   = 1 << 20
	visitorBloomHashes = 4
	visitorBloomTTL    = 48 * time.Hour
)

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数。
// 背景：使用 FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：检查并写入布隆过滤器位图
// 返回：true 表示首次见到（已写入位图）；false 表示已存在。
// 异常：Redis 交互错误时返回 error；当 rc 为 nil 时视为首次见到。
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return true, nil
	}
	seen := true
	for _, p := range positions {
		b, err := rc.GetBit(ctx, key, p).Result()
		if err != nil {
			return true, err
		}
		if b == 0 {
			seen = false
		}
	}
	if seen {
		return false, nil
	}
	pipe := rc.Pipeline()
	for _, p := range positions {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return true, err
}

// recordQuery：统计开启时递增查询计数；有 Redis 时按访客 IP 每日去重计访客数
func (s *Server) recordQuery(r *http.Request, kind string) {
	if !s.cfg.StatsEnabled || s.st == nil {
		return
	}
	ctx := r.Context()
	newVisitor := false
	if s.rc != nil {
		key := "centers:visitors:" + time.Now().UTC().Format("20060102")
		ip := getVisitorIP(r)
		first, err := bloomCheckAndSet(ctx, s.rc, key, bloomPositions([]byte(ip), visitorBloomBits, visitorBloomHashes), visitorBloomTTL)
		if err != nil {
			logger.L().Debug("visitor_bloom_error", "err", err)
		}
		newVisitor = first && err == nil
	}
	_ = s.st.IncrStats(ctx, kind, newVisitor)
}
