// Package logger はslogのロガーを設定します。
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New はlevel・formatに従ったslog.Loggerを生成します。
// 解釈できないlevelはinfo、format が json 以外はテキスト形式になります。
func New(w io.Writer, level, format string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lv = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
