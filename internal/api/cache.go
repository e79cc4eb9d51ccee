package api

import (
	"encoding/json"
	"net/http"

	"center-lookup/internal/logger"
	"center-lookup/internal/metrics"
)

// cacheKey：快照版本 + 路径 + 规范化查询串（url.Values.Encode 按键排序）
func cacheKey(sn *Snapshot, r *http.Request) string {
	return "centers:resp:" + sn.Version + ":" + r.URL.Path + "?" + r.URL.Query().Encode()
}

// 文档注释：Redis 读穿缓存
// 背景：筛选与联想的结果只取决于查询参数与数据快照，命中时直接回写缓存的 JSON，不再扫描全部中心。
// 约束：只缓存 200 响应；Redis 不可用或 TTL 为 0 时退化为直接计算；缓存读写错误不影响响应。
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, sn *Snapshot, build func() (int, any)) {
	if s.rc == nil || s.cfg.ResultCacheTTL <= 0 {
		status, v := build()
		writeJSON(w, status, v)
		return
	}
	ctx := r.Context()
	key := cacheKey(sn, r)
	if b, err := s.rc.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		metrics.RedisHitsTotal.Inc()
		setJSONHeaders(w)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
		return
	}
	metrics.RedisMissesTotal.Inc()
	status, v := build()
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	b = append(b, '\n')
	if status == http.StatusOK {
		if err := s.rc.Set(ctx, key, b, s.cfg.ResultCacheTTL).Err(); err != nil {
			logger.L().Debug("result_cache_set_error", "err", err)
		}
	}
	setJSONHeaders(w)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
