// Command logoscan は画像ファイルのリストに対してロゴ検出を実行し、
// 検出されたロゴ名とファイルごとの平均スコアを出力します。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	redisv9 "github.com/redis/go-redis/v9"

	"logoscan/internal/feature/logodetection/adapters"
	"logoscan/internal/feature/logodetection/adapters/filesystem"
	"logoscan/internal/feature/logodetection/adapters/vision"
	"logoscan/internal/feature/logodetection/transport/console"
	"logoscan/internal/feature/logodetection/usecase"
	"logoscan/internal/platform/cache"
	"logoscan/internal/platform/config"
	"logoscan/internal/platform/db"
	"logoscan/internal/platform/logger"
	"logoscan/internal/platform/metrics"
	infraredis "logoscan/internal/platform/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newVisionDetector); err != nil {
		fmt.Fprintln(os.Stderr, "logoscan:", err)
		os.Exit(1)
	}
}

// detectorFactory はリモートのロゴ検出器と、その解放関数を生成します。
type detectorFactory func(ctx context.Context, maxResults int) (usecase.LogoDetector, func() error, error)

// newVisionDetector はADCを使ってCloud Visionの検出器を生成します。
func newVisionDetector(ctx context.Context, maxResults int) (usecase.LogoDetector, func() error, error) {
	d, err := vision.NewVisionLogoDetector(ctx, maxResults)
	if err != nil {
		return nil, nil, err
	}
	return d, d.Close, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, newDetector detectorFactory) error {
	// .envを読み込む
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load("logoscan", args)
	if err != nil {
		var help *config.HelpError
		if errors.As(err, &help) {
			fmt.Fprintln(stderr, help.Text)
			return nil
		}
		return err
	}

	log := logger.New(stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	remote, closeRemote, err := newDetector(ctx, cfg.MaxResults)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRemote(); err != nil {
			log.Warn("検出クライアントのクローズに失敗", "error", err)
		}
	}()

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.RedisAddr != "" {
		tmp, err := infraredis.NewRedisClient(ctx, infraredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Error("Failed to close Redis client", "error", err)
				}
			}()
		}
	}
	detector := cache.NewCachingLogoDetector(rdb, cfg.CacheTTL, remote, cache.DefaultNamespace)

	// 検出履歴（任意）
	var history usecase.ReportRepository
	if cfg.HistoryDSN != "" {
		gdb, err := db.OpenDB(db.Config{DSN: cfg.HistoryDSN, Migrate: true})
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}
		history = adapters.NewReportRepository(gdb)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	reporter := usecase.MultiReporter{console.NewReporter(stdout), m.Reporter()}
	loader := filesystem.NewLocalImageLoader(usecase.MaxImageSize)

	for _, name := range cfg.Modes() {
		mode, err := usecase.ParseMode(name)
		if err != nil {
			return err
		}
		p := usecase.NewBatchProcessor(loader, detector, reporter,
			usecase.WithMode(mode),
			usecase.WithConcurrencyLimit(cfg.Concurrency),
		)

		log.Debug("バッチ処理を開始", "mode", mode.String(), "files", len(cfg.Inputs))
		reports := p.Process(ctx, cfg.Inputs)
		log.Info("バッチ処理が完了", "mode", mode.String(), "files", len(reports))

		if history != nil {
			if err := history.Save(ctx, reports...); err != nil {
				log.Warn("検出履歴の保存に失敗", "error", err)
			}
		}
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			log.Warn("メトリクスの書き出しに失敗", "error", err, "path", cfg.MetricsFile)
		}
	}
	return nil
}
