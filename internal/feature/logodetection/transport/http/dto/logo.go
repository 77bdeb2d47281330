// Package dto はlogodetectionフィーチャーのHTTPリクエスト・レスポンスを定義します。
package dto

import "time"

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetectedLogoResponse は検出されたロゴ1件です。Confidenceはスコア未設定時に省略されます。
type DetectedLogoResponse struct {
	Name       string   `json:"name"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// DetectLogosResponse はロゴ検出結果です。
type DetectLogosResponse struct {
	Filename     string                 `json:"filename"`
	Logos        []DetectedLogoResponse `json:"logos"`
	AverageScore float64                `json:"average_score"`
}

// CompanyAnalysisRequest は企業分析のリクエストです。
type CompanyAnalysisRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
}

// CompanyAnalysisResponse は企業分析のレスポンスです。
type CompanyAnalysisResponse struct {
	CompanyName string `json:"company_name"`
	Summary     string `json:"summary"`
}

// ReportResponse は検出履歴1件です。
type ReportResponse struct {
	Path         string                 `json:"path"`
	Mode         string                 `json:"mode"`
	Status       string                 `json:"status"`
	Logos        []DetectedLogoResponse `json:"logos"`
	AverageScore float64                `json:"average_score"`
	Error        string                 `json:"error,omitempty"`
	DurationMS   int64                  `json:"duration_ms"`
	ProcessedAt  time.Time              `json:"processed_at"`
}
