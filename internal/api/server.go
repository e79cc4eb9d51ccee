// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"center-lookup/internal/dataset"
	"center-lookup/internal/geoloc"
	"center-lookup/internal/logger"
	"center-lookup/internal/metrics"
	"center-lookup/internal/pager"
	"center-lookup/internal/proximity"
	"center-lookup/internal/refindex"
	"center-lookup/internal/search"
	"center-lookup/internal/store"

	"github.com/redis/go-redis/v9"
)

// 展示相关的固定数量
const (
	listedParties        = 24
	featuredConstituency = 4
	maxPageSize          = 200
	maxNearestK          = 100
)

// Config：接口参数
type Config struct {
	PageSize         int
	SuggestLimit     int
	NearestK         int
	GeolocateTimeout time.Duration
	// ResultCacheTTL 为 0 时不写 Redis 响应缓存
	ResultCacheTTL time.Duration
	StatsEnabled   bool
}

func DefaultConfig() Config {
	return Config{
		PageSize:         pager.DefaultPageSize,
		SuggestLimit:     search.DefaultSuggestLimit,
		NearestK:         proximity.DefaultK,
		GeolocateTimeout: geoloc.DefaultTimeout,
		ResultCacheTTL:   5 * time.Minute,
	}
}

// IPLocator：按来源 IP 给出定位器（GeoIP 库）
type IPLocator interface {
	ForIP(ip net.IP) geoloc.Locator
}

// Snapshot：一次数据加载对应的只读索引；Version 进入缓存键，换数据后旧缓存自然失效
type Snapshot struct {
	Index   *refindex.Index
	Summary dataset.Summary
	Version string
}

// 文档注释：HTTP 接口服务
// 背景：所有会话状态都在客户端，服务端每次请求按参数重新筛选；索引快照通过原子指针整体替换，周期重载不阻塞请求。
// 约束：rc、st、geo 均可为 nil，分别表示无响应缓存、无统计、无 GeoIP 推断。
type Server struct {
	cfg    Config
	snap   atomic.Pointer[Snapshot]
	rc     *redis.Client
	st     *store.Store
	geo    IPLocator
	ranker *proximity.Ranker
}

func NewServer(cfg Config, st *store.Store, rc *redis.Client, geo IPLocator, ranker *proximity.Ranker) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = pager.DefaultPageSize
	}
	if cfg.SuggestLimit <= 0 {
		cfg.SuggestLimit = search.DefaultSuggestLimit
	}
	if cfg.NearestK <= 0 {
		cfg.NearestK = proximity.DefaultK
	}
	if ranker == nil {
		ranker = proximity.NewRanker(cfg.NearestK, nil)
	}
	return &Server{cfg: cfg, st: st, rc: rc, geo: geo, ranker: ranker}
}

// Swap：用新数据集构建索引并替换当前快照
func (s *Server) Swap(ds *dataset.Dataset) {
	ix := refindex.FromDataset(ds)
	sn := &Snapshot{
		Index:   ix,
		Summary: ds.Summary(),
		Version: strconv.FormatInt(ds.LoadedAt.UnixNano(), 36),
	}
	s.snap.Store(sn)
	metrics.DatasetCenters.Set(float64(len(ix.Centers)))
	logger.L().Info("dataset_swap", "version", sn.Version, "centers", sn.Summary.Centers, "orphans", ix.Orphans())
}

// Snapshot：当前快照，尚未加载时为 nil
func (s *Server) Snapshot() *Snapshot { return s.snap.Load() }

// BuildRoutes：构建并返回 API 路由；独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func (s *Server) BuildRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/summary", s.instrument("summary", s.handleSummary))
	mux.Handle("/options", s.instrument("options", s.handleOptions))
	mux.Handle("/centers", s.instrument("centers", s.handleCenters))
	mux.Handle("/suggest", s.instrument("suggest", s.handleSuggest))
	mux.Handle("/nearest", s.instrument("nearest", s.handleNearest))
	mux.Handle("/nid", s.instrument("nid", s.handleNID))
	mux.Handle("/parties", s.instrument("parties", s.handleParties))
	mux.Handle("/constituencies/featured", s.instrument("featured", s.handleFeatured))
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

type snapHandler func(w http.ResponseWriter, r *http.Request, sn *Snapshot)

// instrument：计数、耗时与快照就绪检查
func (s *Server) instrument(name string, h snapHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(name).Inc()
		defer func() {
			metrics.RequestDurationMs.WithLabelValues(name).Observe(float64(time.Since(start).Microseconds()) / 1000)
		}()
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method)
			return
		}
		sn := s.snap.Load()
		if sn == nil {
			writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", "dataset not loaded")
			return
		}
		h(w, r, sn)
	})
}

func setJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	setJSONHeaders(w)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
