package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
)

// Mode はバッチ処理のスケジューリング方式です。
type Mode int

const (
	// ModeSequential は1ファイルずつ順番に処理します。
	// 前のファイルの通知がすべて出力されるまで次のリモート呼び出しは行いません。
	ModeSequential Mode = iota
	// ModeConcurrent はすべてのファイルを待たずにディスパッチします。
	// ファイル間の通知は混ざりますが、同一ファイル内の順序は保たれます。
	ModeConcurrent
)

// String はモード名を返します。
func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeConcurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode は文字列からModeを解析します。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential", "seq":
		return ModeSequential, nil
	case "concurrent", "async":
		return ModeConcurrent, nil
	default:
		return 0, fmt.Errorf("unknown processing mode %q", s)
	}
}

// ImageLoader はファイルパスから検出用の画像を読み込むインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ImageLoader interface {
	// Load はパスが存在しない場合 domain.ErrImageNotFound をラップしたエラーを返します。
	Load(ctx context.Context, path string) (entity.Image, error)
}

// LogoDetector は画像からロゴを検出するリポジトリインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type LogoDetector interface {
	// DetectLogos は画像からロゴを検出し、検出順のアノテーションを返します。
	DetectLogos(ctx context.Context, img entity.Image) ([]entity.LogoAnnotation, error)
}

// Reporter はファイルごとの処理結果の通知先です。
// 同一ファイルについては Started → LogoFound* → AverageScore の順、
// もしくは Started → NotFound / Failed のいずれかで呼ばれます。
// ModeConcurrent では複数のgoroutineから同時に呼ばれます。
type Reporter interface {
	Started(path string, mode Mode)
	LogoFound(path, description string)
	AverageScore(path string, average float64)
	NotFound(path string)
	Failed(path string, err error)
}

// BatchProcessor はファイル一覧に対してロゴ検出を行い、結果を通知します。
// 1ファイルの失敗は他のファイルの処理を妨げません。
type BatchProcessor struct {
	loader   ImageLoader
	detector LogoDetector
	reporter Reporter
	mode     Mode
	limit    int
}

// Option はBatchProcessorの設定を変更します。
type Option func(*BatchProcessor)

// WithMode はProcessで使用するモードを設定します。デフォルトはModeSequentialです。
func WithMode(m Mode) Option {
	return func(p *BatchProcessor) { p.mode = m }
}

// WithConcurrencyLimit はModeConcurrentで同時に実行するリモート呼び出し数の上限を設定します。
// 0以下は無制限です。
func WithConcurrencyLimit(n int) Option {
	return func(p *BatchProcessor) { p.limit = n }
}

// NewBatchProcessor はBatchProcessorの新しいインスタンスを生成します。
func NewBatchProcessor(loader ImageLoader, detector LogoDetector, reporter Reporter, opts ...Option) *BatchProcessor {
	p := &BatchProcessor{
		loader:   loader,
		detector: detector,
		reporter: reporter,
		mode:     ModeSequential,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process は設定されたモードでpathsを処理し、入力順のレポートを返します。
func (p *BatchProcessor) Process(ctx context.Context, paths []string) []entity.FileReport {
	if p.mode == ModeConcurrent {
		return p.ProcessConcurrent(ctx, paths)
	}
	return p.ProcessSequential(ctx, paths)
}

// ProcessSequential はpathsを1件ずつ順番に処理します。
func (p *BatchProcessor) ProcessSequential(ctx context.Context, paths []string) []entity.FileReport {
	reports := make([]entity.FileReport, 0, len(paths))
	for _, path := range paths {
		reports = append(reports, p.processFile(ctx, path, ModeSequential))
	}
	return reports
}

// ProcessConcurrent はpathsをそれぞれ別のgoroutineで処理し、すべての完了を待ちます。
// 各goroutineは自分のインデックスのレポートのみを書き込みます。
func (p *BatchProcessor) ProcessConcurrent(ctx context.Context, paths []string) []entity.FileReport {
	reports := make([]entity.FileReport, len(paths))

	var g errgroup.Group
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			reports[i] = p.processFile(ctx, path, ModeConcurrent)
			return nil
		})
	}
	// ファイル単位のエラーは processFile 内で回復済みのため、常にnil
	_ = g.Wait()

	return reports
}

// processFile は1ファイル分の検出・集計・通知を行います。
func (p *BatchProcessor) processFile(ctx context.Context, path string, mode Mode) entity.FileReport {
	start := time.Now()
	report := entity.FileReport{
		Path:        path,
		Mode:        mode.String(),
		ProcessedAt: start,
	}

	p.reporter.Started(path, mode)

	logos, err := p.detect(ctx, path)
	report.Duration = time.Since(start)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			report.Status = entity.StatusNotFound
			p.reporter.NotFound(path)
			return report
		}
		report.Status = entity.StatusError
		report.Error = err.Error()
		p.reporter.Failed(path, err)
		return report
	}

	for _, l := range logos {
		if l.HasDescription() {
			p.reporter.LogoFound(path, l.Description)
		}
	}

	report.Status = entity.StatusOK
	report.Logos = logos
	report.AverageScore = AverageScore(logos)
	p.reporter.AverageScore(path, report.AverageScore)

	return report
}

func (p *BatchProcessor) detect(ctx context.Context, path string) ([]entity.LogoAnnotation, error) {
	img, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.detector.DetectLogos(ctx, img)
}
