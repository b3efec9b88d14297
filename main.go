package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metaplaza/server"
)

// MetaPlaza 入口：加载配置、启动 HTTP + WebSocket 服务与全量广播调度器
func main() {
	var addr, cfgPath string
	flag.StringVar(&addr, "addr", "", "listen address override, e.g. :8080")
	flag.StringVar(&cfgPath, "config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := server.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	// 使用第三方 zap 日志库写入文件（带滚动）
	log := server.NewLogger(cfg.LogFile)
	defer func() { _ = log.Sync() }()

	metrics := &server.Metrics{}
	reg := server.NewRoomRegistry(cfg, server.AnonymousResolver{}, metrics, log)

	sched := server.NewBroadcastScheduler(reg, cfg.TickRate)
	go sched.Run()

	gw := &server.WSGateway{Registry: reg, Config: cfg, Metrics: metrics, Log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 监控接口
	mux.HandleFunc("/diagnostics", server.HandleDiagnostics(reg, metrics))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Infof("MetaPlaza listening on %s; tick rate %d/s", cfg.Addr, cfg.TickRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）：先停调度器，再关 HTTP
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")
	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
