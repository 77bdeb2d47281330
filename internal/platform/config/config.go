// Package config はコマンドライン引数・環境変数・.envから設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// EnvVarPrefix は環境変数のプレフィックスです（例: LOGOSCAN_MODE）。
const EnvVarPrefix = "LOGOSCAN"

// DefaultInputs は入力が指定されなかった場合に処理する画像です。
// 最後の1件は存在しないファイルで、not foundの経路を確認するためのものです。
var DefaultInputs = []string{
	"./images/cmu.jpg",
	"./images/logo-types-collection.jpg",
	"./images/not-a-file.jpg",
}

// Config はlogoscan・serverの設定を保持します。
type Config struct {
	Mode        string        // both / sequential / concurrent
	Concurrency int           // concurrent時の同時実行上限（0以下は無制限）
	MaxResults  int           // 1画像あたりのロゴ最大件数
	Inputs      []string      // 処理対象のパス
	HistoryDSN  string        // 検出履歴の保存先（空なら無効）
	RedisAddr   string        // 検出結果キャッシュ（空なら無効）
	RedisPass   string        // Redisパスワード
	RedisDB     int           // RedisのDB番号
	CacheTTL    time.Duration // キャッシュの有効期限
	MetricsFile string        // バッチ終了時にメトリクスを書き出すファイル（textfile collector形式）
	LogLevel    string        // debug / info / warn / error
	LogFormat   string        // text / json
	Addr        string        // HTTPサーバーの待受アドレス
	JWTSecret   string        // /v1 を保護するHMACシークレット（空なら認証なし）
	GeminiModel string        // 企業分析に使うGeminiモデル（空なら分析機能なし）
	IssueToken  string        // 指定されたsubjectのトークンを発行して終了する（server only）
	TokenTTL    time.Duration // 発行するトークンの有効期限
}

// HelpError は -h / --help が指定された場合にLoadが返すエラーです。
// Textにはフラグ一覧のヘルプが入ります。errors.Is(err, ff.ErrHelp) はtrueになります。
type HelpError struct {
	Text string
}

func (e *HelpError) Error() string { return e.Text }

func (e *HelpError) Unwrap() error { return ff.ErrHelp }

// LoadDotEnv は.envが存在すれば環境変数へ読み込みます。既存の環境変数は上書きしません。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load はargsと LOGOSCAN_ 接頭辞の環境変数から設定を読み込みます。
// 位置引数があればInputsとして使い、なければDefaultInputsを使います。
func Load(name string, args []string) (*Config, error) {
	fs := ff.NewFlagSet(name)
	var (
		mode        = fs.StringLong("mode", "both", "processing mode: both, sequential or concurrent")
		concurrency = fs.IntLong("concurrency", 0, "max in-flight detections in concurrent mode (0 = unbounded)")
		maxResults  = fs.IntLong("max-results", 10, "max logos returned per image")
		historyDSN  = fs.StringLong("history", "", "detection history database (sqlite path or postgres:// URL)")
		redisAddr   = fs.StringLong("redis-addr", "", "redis address for caching detection results (host:port)")
		redisPass   = fs.StringLong("redis-password", "", "redis password")
		redisDB     = fs.IntLong("redis-db", 0, "redis database number")
		cacheTTL    = fs.DurationLong("cache-ttl", 24*time.Hour, "cache TTL for detection results")
		metricsFile = fs.StringLong("metrics-file", "", "write batch metrics to this file on exit (logoscan only)")
		logLevel    = fs.StringLong("log-level", "info", "log level: debug, info, warn or error")
		logFormat   = fs.StringLong("log-format", "text", "log format: text or json")
		addr        = fs.StringLong("addr", ":8080", "HTTP listen address (server only)")
		jwtSecret   = fs.StringLong("jwt-secret", "", "HMAC secret protecting /v1 (server only)")
		geminiModel = fs.StringLong("gemini-model", "", "Gemini model for company analysis (server only)")
		issueToken  = fs.StringLong("issue-token", "", "print a JWT for this client subject signed with -jwt-secret, then exit (server only)")
		tokenTTL    = fs.DurationLong("token-ttl", 30*24*time.Hour, "lifetime of tokens printed by -issue-token")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvVarPrefix)); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			return nil, &HelpError{Text: fmt.Sprint(ffhelp.Flags(fs))}
		}
		return nil, fmt.Errorf("%w\n%s", err, ffhelp.Flags(fs))
	}

	cfg := &Config{
		Mode:        strings.ToLower(strings.TrimSpace(*mode)),
		Concurrency: *concurrency,
		MaxResults:  *maxResults,
		Inputs:      fs.GetArgs(),
		HistoryDSN:  *historyDSN,
		RedisAddr:   *redisAddr,
		RedisPass:   *redisPass,
		RedisDB:     *redisDB,
		CacheTTL:    *cacheTTL,
		MetricsFile: *metricsFile,
		LogLevel:    *logLevel,
		LogFormat:   *logFormat,
		Addr:        *addr,
		JWTSecret:   *jwtSecret,
		GeminiModel: *geminiModel,
		IssueToken:  strings.TrimSpace(*issueToken),
		TokenTTL:    *tokenTTL,
	}
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = append([]string(nil), DefaultInputs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case "both", "sequential", "concurrent":
	default:
		return fmt.Errorf("invalid mode %q: want both, sequential or concurrent", c.Mode)
	}
	if c.IssueToken != "" && c.TokenTTL <= 0 {
		return fmt.Errorf("token-ttl must be positive, got %v", c.TokenTTL)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max-results must be positive, got %d", c.MaxResults)
	}
	for _, in := range c.Inputs {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("input paths must not be empty")
		}
	}
	return nil
}

// Modes はMode設定に対応する処理モード名を実行順に返します。
func (c *Config) Modes() []string {
	if c.Mode == "both" {
		return []string{"sequential", "concurrent"}
	}
	return []string{c.Mode}
}
