package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/usecase"
)

// ErrAPI はモックと期待値の間で共有されるセンチネルエラーです。
var ErrAPI = errors.New("api error")

// mockImageLoader はImageLoaderインターフェースのモック実装です。
// LoadFuncが未設定の場合、パスをそのままURIとして返します。
type mockImageLoader struct {
	LoadFunc func(ctx context.Context, path string) (entity.Image, error)
}

func (m *mockImageLoader) Load(ctx context.Context, path string) (entity.Image, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, path)
	}
	return entity.Image{URI: path}, nil
}

// mockLogoDetector はLogoDetectorインターフェースのモック実装です。
type mockLogoDetector struct {
	mu               sync.Mutex
	DetectLogosFunc  func(ctx context.Context, img entity.Image) ([]entity.LogoAnnotation, error)
	DetectLogosCalls int
}

func (m *mockLogoDetector) DetectLogos(ctx context.Context, img entity.Image) ([]entity.LogoAnnotation, error) {
	m.mu.Lock()
	m.DetectLogosCalls++
	m.mu.Unlock()
	if m.DetectLogosFunc != nil {
		return m.DetectLogosFunc(ctx, img)
	}
	return nil, errors.New("DetectLogosFunc is not implemented")
}

// mockCompanyAnalyzer はCompanyAnalyzerインターフェースのモック実装です。
type mockCompanyAnalyzer struct {
	AnalyzeFunc  func(ctx context.Context, prompt string) (string, error)
	AnalyzeCalls int
}

func (m *mockCompanyAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	m.AnalyzeCalls++
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, prompt)
	}
	return "", errors.New("AnalyzeFunc is not implemented")
}

// mockReportRepository はReportRepositoryインターフェースのモック実装です。
type mockReportRepository struct {
	SaveFunc       func(ctx context.Context, reports ...entity.FileReport) error
	ListRecentFunc func(ctx context.Context, limit int) ([]entity.FileReport, error)
	Saved          []entity.FileReport
}

func (m *mockReportRepository) Save(ctx context.Context, reports ...entity.FileReport) error {
	m.Saved = append(m.Saved, reports...)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, reports...)
	}
	return nil
}

func (m *mockReportRepository) ListRecent(ctx context.Context, limit int) ([]entity.FileReport, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return nil, nil
}

// recordingReporter は受け取った通知を文字列として記録するReporterです。
type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

var _ usecase.Reporter = (*recordingReporter)(nil)

func (r *recordingReporter) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Started(path string, mode usecase.Mode) {
	r.add("start %s", path)
}

func (r *recordingReporter) LogoFound(path, description string) {
	r.add("logo %s %s", path, description)
}

func (r *recordingReporter) AverageScore(path string, average float64) {
	r.add("avg %s %.4f", path, average)
}

func (r *recordingReporter) NotFound(path string) {
	r.add("notfound %s", path)
}

func (r *recordingReporter) Failed(path string, err error) {
	r.add("error %s %v", path, err)
}

// Events は記録済みの通知のコピーを返します。
func (r *recordingReporter) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// eventsFor は指定パスの通知のみを記録順に返します。
func (r *recordingReporter) eventsFor(path string) []string {
	var out []string
	for _, e := range r.Events() {
		if eventPath(e) == path {
			out = append(out, e)
		}
	}
	return out
}

func eventPath(e string) string {
	var kind, path string
	_, _ = fmt.Sscanf(e, "%s %s", &kind, &path)
	return path
}

// fixtureLoader は存在するパスのみ画像を返し、それ以外はErrImageNotFoundを返すローダーです。
func fixtureLoader(existing ...string) *mockImageLoader {
	set := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		set[p] = struct{}{}
	}
	return &mockImageLoader{
		LoadFunc: func(ctx context.Context, path string) (entity.Image, error) {
			if _, ok := set[path]; !ok {
				return entity.Image{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, path)
			}
			return entity.Image{Content: []byte(path)}, nil
		},
	}
}

// fixtureDetector は画像内容（パス）ごとに決まったアノテーションを返すディテクターです。
func fixtureDetector(results map[string][]entity.LogoAnnotation) *mockLogoDetector {
	return &mockLogoDetector{
		DetectLogosFunc: func(ctx context.Context, img entity.Image) ([]entity.LogoAnnotation, error) {
			key := string(img.Content)
			if img.IsRemote() {
				key = img.URI
			}
			return results[key], nil
		},
	}
}
