package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jengzang/citation-map-backend/internal/api"
	"github.com/jengzang/citation-map-backend/internal/basemap"
	"github.com/jengzang/citation-map-backend/internal/citation"
	"github.com/jengzang/citation-map-backend/internal/config"
	"github.com/jengzang/citation-map-backend/internal/database"
	"github.com/jengzang/citation-map-backend/internal/logging"
	"github.com/jengzang/citation-map-backend/internal/mapview"
	"github.com/jengzang/citation-map-backend/internal/middleware"
	"github.com/jengzang/citation-map-backend/internal/repository"
	"github.com/jengzang/citation-map-backend/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	client := &http.Client{Timeout: cfg.FetchTimeout}

	var source citation.Source
	if url, remote := cfg.DatasetURL(); remote {
		source = citation.NewHTTPSource(url, client)
	} else {
		source = citation.NewFileSource(cfg.StaticDir, url)
	}

	loads := repository.NewLoadEventRepository(database.GetDB())
	view := mapview.New(source, logger, mapview.WithRecorder(loads))
	citations := service.NewCitationService(ctx, view, basemap.NewLoader(cfg.GeoURL, client), cfg.FetchTimeout, logger)
	defer citations.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	// 初始化路由
	router := api.SetupRouter(cfg, logger, api.Services{
		Citations:  citations,
		LoadEvents: service.NewLoadEventService(loads),
		Limiter:    limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown failed", zap.Error(err))
		}
	}()

	// 启动服务器
	logger.Info("Server starting", zap.String("addr", cfg.Port), zap.String("dataset", source.Name()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
