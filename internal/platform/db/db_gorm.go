// Package db は検出履歴用のgorm接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"logoscan/internal/feature/logodetection/adapters"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	DSN            string        // postgres:// で始まる場合はPostgres、それ以外はSQLiteのファイルパス
	ConnectTimeout time.Duration // 接続リトライを打ち切るまでの時間
	Migrate        bool          // 起動時にAutoMigrateを実行するか
}

// Opener はDSNからgorm.DBを開く関数です。
type Opener func(dsn string) (*gorm.DB, error)

// IsPostgres はDSNがPostgresを指しているかを返します。
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Dialector はDSNに対応するgormのダイアレクタを返します。
func Dialector(dsn string) gorm.Dialector {
	if IsPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// gormOpen はデフォルトのOpenerです。
func gormOpen(dsn string) (*gorm.DB, error) {
	return gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// ConnectWithRetry はtimeoutに達するまでretryInterval間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB接続に失敗、リトライします", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従ってデータベースへ接続し、必要ならマイグレーションを実行します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	db, err := ConnectWithRetry(cfg.DSN, timeout, gormOpen)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate は検出履歴テーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&adapters.ReportModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
