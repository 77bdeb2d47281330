// Package handler はlogodetectionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/transport/http/dto"
	"logoscan/internal/feature/logodetection/usecase"
)

// LogoDetectionUsecase はロゴ検出・企業分析・履歴参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type LogoDetectionUsecase interface {
	DetectLogos(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error)
	AnalyzeCompany(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error)
	History(ctx context.Context, limit int) ([]entity.FileReport, error)
}

// LogoDetectionHandler はロゴ検出・企業分析のHTTPリクエストを処理します。
type LogoDetectionHandler struct {
	uc LogoDetectionUsecase
}

// NewLogoDetectionHandler はLogoDetectionHandlerの新しいインスタンスを生成します。
func NewLogoDetectionHandler(uc LogoDetectionUsecase) *LogoDetectionHandler {
	return &LogoDetectionHandler{uc: uc}
}

// DetectLogos は画像をアップロードしてロゴを検出します。
//
// エンドポイント: POST /v1/logo/detect
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル、最大10MB）
func (h *LogoDetectionHandler) DetectLogos(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}
	if file.Size > usecase.MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "画像サイズが大きすぎます"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	imageData, err := io.ReadAll(io.LimitReader(f, usecase.MaxImageSize+1))
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}

	report, err := h.uc.DetectLogos(c.Request.Context(), file.Filename, imageData)
	switch {
	case errors.Is(err, domain.ErrEmptyImage):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "画像データが空です"})
		return
	case errors.Is(err, domain.ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "画像サイズが大きすぎます"})
		return
	case err != nil:
		slog.Error("ロゴ検出に失敗", "error", err, "filename", file.Filename)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "ロゴ検出に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, dto.DetectLogosResponse{
		Filename:     report.Path,
		Logos:        toLogoResponses(report.Logos),
		AverageScore: report.AverageScore,
	})
}

// AnalyzeCompany は企業分析サマリーを生成します。
//
// エンドポイント: POST /v1/logo/analyze
// Content-Type: application/json
func (h *LogoDetectionHandler) AnalyzeCompany(c *gin.Context) {
	var req dto.CompanyAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("企業分析リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "企業名が必要です"})
		return
	}

	analysis, err := h.uc.AnalyzeCompany(c.Request.Context(), req.CompanyName)
	if err != nil {
		slog.Error("企業分析に失敗", "error", err, "company", req.CompanyName)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "企業分析に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, dto.CompanyAnalysisResponse{
		CompanyName: analysis.CompanyName,
		Summary:     analysis.Summary,
	})
}

// History は直近の検出履歴を返します。
//
// エンドポイント: GET /v1/logo/history?limit=20
func (h *LogoDetectionHandler) History(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limitは0以上の整数で指定してください"})
			return
		}
		limit = n
	}

	reports, err := h.uc.History(c.Request.Context(), limit)
	if err != nil {
		slog.Error("検出履歴の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "検出履歴の取得に失敗しました"})
		return
	}

	out := make([]dto.ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, dto.ReportResponse{
			Path:         r.Path,
			Mode:         r.Mode,
			Status:       string(r.Status),
			Logos:        toLogoResponses(r.Logos),
			AverageScore: r.AverageScore,
			Error:        r.Error,
			DurationMS:   r.Duration.Milliseconds(),
			ProcessedAt:  r.ProcessedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// toLogoResponses は名称付きのアノテーションのみをレスポンスに変換します。
func toLogoResponses(logos []entity.LogoAnnotation) []dto.DetectedLogoResponse {
	out := make([]dto.DetectedLogoResponse, 0, len(logos))
	for _, l := range logos {
		if !l.HasDescription() {
			continue
		}
		out = append(out, dto.DetectedLogoResponse{
			Name:       l.Description,
			Confidence: l.Score,
		})
	}
	return out
}
