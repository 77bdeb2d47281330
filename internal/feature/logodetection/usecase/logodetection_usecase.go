// Package usecase はlogodetectionフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"
	"unicode/utf8"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
)

const (
	// MaxImageSize は画像の最大サイズ（10MB）です。
	MaxImageSize = 10 * 1024 * 1024
	// AnalysisPromptTemplate は企業分析のプロンプトテンプレートです。
	AnalysisPromptTemplate = "日本語で、ロゴから特定された企業%sについて、ブランドの特徴を3つ挙げて。"
	// MaxCompanyNameLength は企業名の最大文字数（rune数）です。
	MaxCompanyNameLength = 100
	// DefaultHistoryLimit は履歴取得件数のデフォルト値です。
	DefaultHistoryLimit = 20
	// MaxHistoryLimit は履歴取得件数の上限です。
	MaxHistoryLimit = 200
)

// validCompanyName は企業名に許可される文字パターンです（英数字・日本語・スペース・中黒）。
var validCompanyName = regexp.MustCompile(`^[\p{L}\p{N}\s・\-\.&,']+$`)

// CompanyAnalyzer は企業分析を生成するリポジトリインターフェースです。
type CompanyAnalyzer interface {
	// Analyze はプロンプトから分析サマリーを生成します。
	Analyze(ctx context.Context, prompt string) (string, error)
}

// ReportRepository は検出結果の履歴を永続化するリポジトリインターフェースです。
type ReportRepository interface {
	Save(ctx context.Context, reports ...entity.FileReport) error
	ListRecent(ctx context.Context, limit int) ([]entity.FileReport, error)
}

// logodetectionUsecase はアップロード画像のロゴ検出・企業分析・履歴参照を提供します。
type logodetectionUsecase struct {
	logoDetector    LogoDetector
	companyAnalyzer CompanyAnalyzer
	reports         ReportRepository
}

// NewLogoDetectionUsecase はlogodetectionUsecaseの新しいインスタンスを生成します。
// ca・reports はnilでもよく、その場合は対応する機能がエラーを返します。
func NewLogoDetectionUsecase(ld LogoDetector, ca CompanyAnalyzer, reports ReportRepository) *logodetectionUsecase {
	return &logodetectionUsecase{logoDetector: ld, companyAnalyzer: ca, reports: reports}
}

// DetectLogos はアップロードされた画像データからロゴを検出し、平均スコア付きのレポートを返します。
// 履歴リポジトリが設定されていれば結果を保存します（保存失敗は検出結果に影響しません）。
func (u *logodetectionUsecase) DetectLogos(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
	if len(imageData) == 0 {
		return nil, domain.ErrEmptyImage
	}
	if len(imageData) > MaxImageSize {
		return nil, fmt.Errorf("%w of %d bytes", domain.ErrImageTooLarge, MaxImageSize)
	}

	start := time.Now()
	logos, err := u.logoDetector.DetectLogos(ctx, entity.Image{Content: imageData})
	if err != nil {
		return nil, fmt.Errorf("logo detection failed for %q: %w", filename, err)
	}

	report := &entity.FileReport{
		Path:         filename,
		Mode:         "upload",
		Status:       entity.StatusOK,
		Logos:        logos,
		AverageScore: AverageScore(logos),
		Duration:     time.Since(start),
		ProcessedAt:  start,
	}
	if u.reports != nil {
		// 履歴はベストエフォート
		if err := u.reports.Save(ctx, *report); err != nil {
			slog.Warn("検出履歴の保存に失敗", "error", err, "filename", filename)
		}
	}
	return report, nil
}

// AnalyzeCompany は企業名から分析サマリーを生成します。
func (u *logodetectionUsecase) AnalyzeCompany(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error) {
	if u.companyAnalyzer == nil {
		return nil, fmt.Errorf("company analyzer is not configured")
	}
	if companyName == "" {
		return nil, fmt.Errorf("company name is required")
	}
	if utf8.RuneCountInString(companyName) > MaxCompanyNameLength {
		return nil, fmt.Errorf("company name exceeds maximum length of %d characters", MaxCompanyNameLength)
	}
	if !validCompanyName.MatchString(companyName) {
		return nil, fmt.Errorf("company name contains invalid characters")
	}
	prompt := fmt.Sprintf(AnalysisPromptTemplate, companyName)
	summary, err := u.companyAnalyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("company analyzer failed for %q: %w", companyName, err)
	}
	return &entity.CompanyAnalysis{
		CompanyName: companyName,
		Summary:     summary,
	}, nil
}

// History は直近の検出結果を新しい順に返します。
// limitが0以下ならDefaultHistoryLimit、上限を超える場合はMaxHistoryLimitに丸めます。
func (u *logodetectionUsecase) History(ctx context.Context, limit int) ([]entity.FileReport, error) {
	if u.reports == nil {
		return nil, fmt.Errorf("report history is not configured")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	reports, err := u.reports.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report history: %w", err)
	}
	return reports, nil
}
