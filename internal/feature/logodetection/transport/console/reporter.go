// Package console はバッチ処理の通知を行単位のテキストとして出力します。
package console

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"logoscan/internal/feature/logodetection/usecase"
)

// Reporter は通知を1行ずつioWriterへ書き込みます。
// 複数のgoroutineから呼ばれても行が混ざらないよう書き込みを直列化します。
type Reporter struct {
	mu sync.Mutex
	w  io.Writer
}

var _ usecase.Reporter = (*Reporter)(nil)

// NewReporter はwへ出力するReporterを生成します。
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) Started(path string, mode usecase.Mode) {
	r.printf("Running logo detection on %s\n", path)
}

func (r *Reporter) LogoFound(path, description string) {
	r.printf("\"%s\" found in file %s\n", description, path)
}

func (r *Reporter) AverageScore(path string, average float64) {
	r.printf("Average score for %s: %v\n", path, average)
}

func (r *Reporter) NotFound(path string) {
	r.printf("File %s not found\n", path)
}

func (r *Reporter) Failed(path string, err error) {
	r.printf("Error processing %s: %v\n", path, err)
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.w, format, args...); err != nil {
		slog.Warn("通知の書き込みに失敗", "error", err)
	}
}
