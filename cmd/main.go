// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"center-lookup/internal/api"
	"center-lookup/internal/dataset"
	"center-lookup/internal/geoloc"
	"center-lookup/internal/ingest"
	"center-lookup/internal/logger"
	"center-lookup/internal/metrics"
	"center-lookup/internal/middleware"
	"center-lookup/internal/migrate"
	"center-lookup/internal/proximity"
	"center-lookup/internal/refindex"
	"center-lookup/internal/store"
	"center-lookup/internal/utils"
	"center-lookup/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	ctx := context.Background()

	apiBase := utils.EnvString("API_BASE", "/api")
	ui := utils.EnvString("UI_DIST", filepath.Join("ui", "dist"))
	dataDir := utils.EnvString("DATA_DIR", "data")
	source := strings.ToLower(utils.EnvString("DATA_SOURCE", "file"))
	statsEnabled := utils.EnvBool("STATS_ENABLED")
	l.Debug("config", "api_base", apiBase, "ui_dir", ui, "data_dir", dataDir, "source", source, "stats", statsEnabled)

	// 数据库：DATA_SOURCE=postgres 或开启统计时才需要
	var st *store.Store
	if source == "postgres" || statsEnabled {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		l.Info("db_open_ok")
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
		if source == "postgres" {
			initDatabase(ctx, db, dataDir)
		}
	}

	load := func(ctx context.Context) (*dataset.Dataset, error) { return dataset.LoadDir(dataDir) }
	if source == "postgres" {
		load = st.LoadDataset
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	// 背景：GeoIP 库可选；缺失时“附近”只接受显式坐标
	var geo api.IPLocator
	if p := os.Getenv("GEOIP_DB_PATH"); p != "" {
		g, err := geoloc.OpenGeoIP(p)
		if err != nil {
			l.Error("geoip_open_error", "path", p, "err", err)
		} else {
			defer g.Close()
			geo = g
		}
	}

	cfg := api.Config{
		PageSize:         utils.EnvInt("PAGE_SIZE", 40),
		SuggestLimit:     utils.EnvInt("SUGGEST_LIMIT", 8),
		NearestK:         utils.EnvInt("NEAREST_K", proximity.DefaultK),
		GeolocateTimeout: time.Duration(utils.EnvInt("GEOLOCATE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ResultCacheTTL:   time.Duration(utils.EnvInt("RESULT_CACHE_TTL_S", 300)) * time.Second,
		StatsEnabled:     statsEnabled && st != nil,
	}
	nearCache := proximity.NewLRU[[]*refindex.IndexedCenter](
		utils.EnvInt("NEAREST_CACHE_SIZE", 4096),
		time.Duration(utils.EnvInt("NEAREST_CACHE_TTL_S", 3600))*time.Second,
	)
	srv := api.NewServer(cfg, st, rc, geo, proximity.NewRanker(cfg.NearestK, nearCache))

	reload := func(ctx context.Context) error {
		ds, err := load(ctx)
		if err != nil {
			metrics.DatasetReloadsTotal.WithLabelValues("error").Inc()
			return err
		}
		srv.Swap(ds)
		metrics.DatasetReloadsTotal.WithLabelValues("ok").Inc()
		return nil
	}
	if err := reload(ctx); err != nil {
		l.Error("dataset_load_error", "source", source, "err", err)
		os.Exit(1)
	}
	l.Info("dataset_load_ok", "source", source, "centers", srv.Snapshot().Summary.Centers)
	ingest.StartPeriodic(ctx, time.Duration(utils.EnvInt("DATA_RELOAD_INTERVAL_S", 0))*time.Second, reload)

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, srv.BuildRoutes()))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	fs := http.FileServer(http.Dir(ui))
	mux.Handle("/", fs)

	// NOTE: 向前端暴露 API 基础路径与分页参数，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'\n"))
		_, _ = w.Write([]byte("window.__PAGE_SIZE__=" + strconv.Itoa(cfg.PageSize) + "\n"))
		_, _ = w.Write([]byte("window.__SUGGEST_DEBOUNCE_MS__=" + strconv.Itoa(utils.EnvInt("SUGGEST_DEBOUNCE_MS", 120)) + "\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	addr := utils.EnvString("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	if utils.EnvBool("TLS_ENABLE") {
		certPath := utils.EnvString("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvString("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "center-lookup.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		// 可选：启动 HTTP 重定向到 HTTPS（不改变 HTTPS 运行端口）
		if utils.EnvBool("TLS_REDIRECT_ENABLE") {
			redirAddr := utils.EnvString("TLS_REDIRECT_ADDR", ":80")
			go func() {
				l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
				_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(redirectToHTTPS(addr)))
			}()
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}

// initDatabase：首次启动时把数据目录导入空库；失败只记日志，后续加载会给出明确错误
func initDatabase(ctx context.Context, db *sql.DB, dataDir string) {
	l := logger.L()
	if err := ingest.EnsureInitialized(ctx, db, dataDir); err != nil {
		l.Error("dataset_import_error", "dir", dataDir, "err", err)
		return
	}
	l.Debug("dataset_import_checked", "dir", dataDir)
}

// redirectToHTTPS：替换目标端口为 HTTPS 服务端口
func redirectToHTTPS(addr string) http.Handler {
	httpsPort := strings.TrimPrefix(addr, ":")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		baseHost := r.Host
		if i := strings.LastIndex(baseHost, ":"); i != -1 {
			baseHost = baseHost[:i]
		}
		targetHost := baseHost
		if httpsPort != "" && httpsPort != "443" {
			targetHost = baseHost + ":" + httpsPort
		}
		http.Redirect(w, r, "https://"+targetHost+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
}
