// Command server はロゴ検出・企業分析・検出履歴のHTTP APIを提供します。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisv9 "github.com/redis/go-redis/v9"

	"logoscan/internal/app/router"
	"logoscan/internal/feature/logodetection/adapters"
	"logoscan/internal/feature/logodetection/adapters/gemini"
	"logoscan/internal/feature/logodetection/adapters/vision"
	logohandler "logoscan/internal/feature/logodetection/transport/handler"
	"logoscan/internal/feature/logodetection/usecase"
	"logoscan/internal/platform/cache"
	"logoscan/internal/platform/config"
	"logoscan/internal/platform/db"
	"logoscan/internal/platform/http/handler"
	jwtmw "logoscan/internal/platform/jwt"
	"logoscan/internal/platform/logger"
	"logoscan/internal/platform/metrics"
	infraredis "logoscan/internal/platform/redis"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間です。
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load("server", args)
	if err != nil {
		var help *config.HelpError
		if errors.As(err, &help) {
			fmt.Fprintln(stderr, help.Text)
			return nil
		}
		return err
	}
	slog.SetDefault(logger.New(stderr, cfg.LogLevel, cfg.LogFormat))

	// トークン発行のみ
	if cfg.IssueToken != "" {
		return issueToken(stdout, cfg.JWTSecret, cfg.IssueToken, cfg.TokenTTL)
	}

	var checks []handler.Check

	// Vision API
	visionDetector, err := vision.NewVisionLogoDetector(ctx, cfg.MaxResults)
	if err != nil {
		return err
	}
	defer func() {
		if err := visionDetector.Close(); err != nil {
			slog.Warn("Visionクライアントのクローズに失敗", "error", err)
		}
	}()

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.RedisAddr != "" {
		if tmp, err := infraredis.NewRedisClient(ctx, infraredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		}); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("Failed to close Redis client", "error", err)
				}
			}()
			checks = append(checks, handler.Check{
				Name: "redis",
				Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
		}
	}
	detector := cache.NewCachingLogoDetector(rdb, cfg.CacheTTL, visionDetector, cache.DefaultNamespace)

	// 検出履歴（任意）
	var history usecase.ReportRepository
	if cfg.HistoryDSN != "" {
		gdb, err := db.OpenDB(db.Config{DSN: cfg.HistoryDSN, Migrate: true})
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		defer sqlDB.Close()
		history = adapters.NewReportRepository(gdb)
		checks = append(checks, handler.Check{Name: "history", Ping: sqlDB.PingContext})
	}

	// Gemini（任意）
	var analyzer usecase.CompanyAnalyzer
	if cfg.GeminiModel != "" {
		ga, err := gemini.NewGeminiAnalyzer(ctx, cfg.GeminiModel)
		if err != nil {
			slog.Warn("Gemini unavailable. Company analysis disabled.", "error", err)
		} else {
			analyzer = ga
		}
	}

	// Usecase / Handler
	logoUC := usecase.NewLogoDetectionUsecase(detector, analyzer, history)
	logoH := logohandler.NewLogoDetectionHandler(logoUC)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.JWTSecret == "" {
		slog.Warn("JWT secret is not set. /v1 is unauthenticated.")
	}

	r := router.NewRouter(router.Options{
		Logo:      logoH,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Checks:    checks,
		JWTSecret: cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv)
}

// serve はctxがキャンセルされるまでsrvを起動し、その後グレースフルに停止します。
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// issueToken は -jwt-secret で署名したAPIクライアント用トークンをwへ出力します。
func issueToken(w io.Writer, secret, subject string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("-jwt-secret is required to issue a token")
	}
	token, err := jwtmw.NewGenerator(secret, ttl).GenerateToken(subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
