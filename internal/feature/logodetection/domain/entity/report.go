package entity

import "time"

// ReportStatus は1ファイルの処理結果の種別です。
type ReportStatus string

const (
	StatusOK       ReportStatus = "ok"
	StatusNotFound ReportStatus = "not_found"
	StatusError    ReportStatus = "error"
)

// FileReport は1ファイル分のロゴ検出結果です。
type FileReport struct {
	Path         string
	Mode         string
	Status       ReportStatus
	Logos        []LogoAnnotation
	AverageScore float64
	Error        string // StatusError のときのみ設定
	Duration     time.Duration
	ProcessedAt  time.Time
}

// FoundDescriptions は名称付きで検出されたロゴ名を検出順に返します。
func (r FileReport) FoundDescriptions() []string {
	out := make([]string, 0, len(r.Logos))
	for _, l := range r.Logos {
		if l.HasDescription() {
			out = append(out, l.Description)
		}
	}
	return out
}

// CompanyAnalysis は企業の分析結果を表します。
type CompanyAnalysis struct {
	CompanyName string // 分析対象の企業名
	Summary     string // AI生成の分析サマリー
}
