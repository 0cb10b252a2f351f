package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/scepter7/pychat/internal/api"
	"github.com/scepter7/pychat/internal/config"
	"github.com/scepter7/pychat/internal/engine"
	clog "github.com/scepter7/pychat/internal/log"
	"github.com/scepter7/pychat/internal/metrics"
	"github.com/scepter7/pychat/internal/store"
	"github.com/scepter7/pychat/internal/transport"
)

func main() {
	// main 负责加载配置、初始化日志、登录并维持到服务端的事件流。
	cfg := config.Load()
	clog.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	eng := engine.New(st)

	apiCli := api.New(cfg)
	if err := apiCli.Login(ctx, cfg.Username, cfg.Password); err != nil {
		log.Fatal().Err(err).Msg("login")
	}
	go apiCli.RunRefresher(ctx)

	go runDebugServer(cfg)

	// 断线重连；每次重连后服务端都会重发 setWsId 快照帧，
	// 引擎据此重建房间与用户字典。
	for {
		conn, err := transport.Dial(ctx, cfg, eng, apiCli)
		if err == nil {
			err = conn.Run(ctx)
		}
		if ctx.Err() != nil {
			return
		}
		metrics.WsReconnectsTotal.Inc()
		log.Warn().Err(err).Msg("ws disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(cfg.ReconnectDelayMillis) * time.Millisecond):
		}
	}
}

// runDebugServer 暴露 /healthz 与 /metrics，仅供本机排障。
func runDebugServer(cfg config.Config) {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if err := r.Run(":" + cfg.DebugPort); err != nil {
		log.Error().Err(err).Msg("debug server")
	}
}
