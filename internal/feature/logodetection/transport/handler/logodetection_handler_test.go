package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/transport/handler"
)

// mockLogoDetectionUsecase はLogoDetectionUsecaseインターフェースのモック実装です。
type mockLogoDetectionUsecase struct {
	DetectLogosFunc    func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error)
	AnalyzeCompanyFunc func(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error)
	HistoryFunc        func(ctx context.Context, limit int) ([]entity.FileReport, error)
}

func (m *mockLogoDetectionUsecase) DetectLogos(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
	return m.DetectLogosFunc(ctx, filename, imageData)
}

func (m *mockLogoDetectionUsecase) AnalyzeCompany(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error) {
	return m.AnalyzeCompanyFunc(ctx, companyName)
}

func (m *mockLogoDetectionUsecase) History(ctx context.Context, limit int) ([]entity.FileReport, error) {
	return m.HistoryFunc(ctx, limit)
}

// createMultipartRequest はテスト用のマルチパートリクエストを生成するヘルパー関数です。
func createMultipartRequest(t *testing.T, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}

	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		t.Fatalf("failed to copy content: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/logo/detect", body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req
}

func TestLogoDetectionHandler_DetectLogos(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		setupRequest   func(t *testing.T) *http.Request
		mockFunc       func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: logos detected",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "image", "test.jpg", []byte("fake-image"))
			},
			mockFunc: func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
				if filename != "test.jpg" || string(imageData) != "fake-image" {
					return nil, fmt.Errorf("unexpected upload %q", filename)
				}
				return &entity.FileReport{
					Path:   filename,
					Status: entity.StatusOK,
					Logos: []entity.LogoAnnotation{
						{Description: "Apple", Score: entity.Float64(0.75)},
						{Description: "", Score: entity.Float64(0.25)},
						{Description: "Unscored"},
					},
					AverageScore: 0.5,
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"filename":"test.jpg","logos":[{"name":"Apple","confidence":0.75},{"name":"Unscored"}],"average_score":0.5}`,
		},
		{
			name: "success: no logos",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "image", "plain.png", []byte("fake-image"))
			},
			mockFunc: func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
				return &entity.FileReport{Path: filename, Status: entity.StatusOK}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"filename":"plain.png","logos":[],"average_score":0}`,
		},
		{
			name: "error: no image field",
			setupRequest: func(t *testing.T) *http.Request {
				req, _ := http.NewRequest(http.MethodPost, "/logo/detect", io.NopCloser(bytes.NewReader(nil)))
				return req
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"画像ファイルが必要です"}`,
		},
		{
			name: "error: empty image",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "image", "empty.jpg", nil)
			},
			mockFunc: func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
				return nil, domain.ErrEmptyImage
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"画像データが空です"}`,
		},
		{
			name: "error: usecase rejects size",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "image", "big.jpg", []byte("fake-image"))
			},
			mockFunc: func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
				return nil, fmt.Errorf("%w of 10 bytes", domain.ErrImageTooLarge)
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   `{"error":"画像サイズが大きすぎます"}`,
		},
		{
			name: "error: usecase returns error",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "image", "test.jpg", []byte("fake-image"))
			},
			mockFunc: func(ctx context.Context, filename string, imageData []byte) (*entity.FileReport, error) {
				return nil, errors.New("vision API error")
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"ロゴ検出に失敗しました"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockLogoDetectionUsecase{
				DetectLogosFunc: tt.mockFunc,
			}

			h := handler.NewLogoDetectionHandler(mockUC)

			router := gin.New()
			router.POST("/logo/detect", h.DetectLogos)

			w := httptest.NewRecorder()
			req := tt.setupRequest(t)

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestLogoDetectionHandler_AnalyzeCompany(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    string
		mockFunc       func(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success: analysis generated",
			requestBody: `{"company_name":"任天堂"}`,
			mockFunc: func(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error) {
				assert.Equal(t, "任天堂", companyName)
				return &entity.CompanyAnalysis{
					CompanyName: "任天堂",
					Summary:     "任天堂の強みは...",
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"company_name":"任天堂","summary":"任天堂の強みは..."}`,
		},
		{
			name:           "error: empty request body",
			requestBody:    `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"企業名が必要です"}`,
		},
		{
			name:           "error: invalid json",
			requestBody:    `invalid`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"企業名が必要です"}`,
		},
		{
			name:        "error: usecase returns error",
			requestBody: `{"company_name":"テスト企業"}`,
			mockFunc: func(ctx context.Context, companyName string) (*entity.CompanyAnalysis, error) {
				return nil, errors.New("gemini API error")
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"企業分析に失敗しました"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockLogoDetectionUsecase{
				AnalyzeCompanyFunc: tt.mockFunc,
			}

			h := handler.NewLogoDetectionHandler(mockUC)

			router := gin.New()
			router.POST("/logo/analyze", h.AnalyzeCompany)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/logo/analyze", strings.NewReader(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestLogoDetectionHandler_History(t *testing.T) {
	gin.SetMode(gin.TestMode)

	processedAt := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		mockFunc       func(ctx context.Context, limit int) ([]entity.FileReport, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "success: default limit",
			query: "",
			mockFunc: func(ctx context.Context, limit int) ([]entity.FileReport, error) {
				if limit != 0 {
					return nil, fmt.Errorf("unexpected limit %d", limit)
				}
				return []entity.FileReport{
					{
						Path:         "./images/cmu.jpg",
						Mode:         "sequential",
						Status:       entity.StatusOK,
						Logos:        []entity.LogoAnnotation{{Description: "CMU", Score: entity.Float64(0.5)}},
						AverageScore: 0.5,
						Duration:     1200 * time.Millisecond,
						ProcessedAt:  processedAt,
					},
					{
						Path:        "./images/not-a-file.jpg",
						Mode:        "sequential",
						Status:      entity.StatusNotFound,
						ProcessedAt: processedAt,
					},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `[
				{"path":"./images/cmu.jpg","mode":"sequential","status":"ok","logos":[{"name":"CMU","confidence":0.5}],"average_score":0.5,"duration_ms":1200,"processed_at":"2026-10-18T09:00:00Z"},
				{"path":"./images/not-a-file.jpg","mode":"sequential","status":"not_found","logos":[],"average_score":0,"duration_ms":0,"processed_at":"2026-10-18T09:00:00Z"}
			]`,
		},
		{
			name:  "success: explicit limit",
			query: "?limit=5",
			mockFunc: func(ctx context.Context, limit int) ([]entity.FileReport, error) {
				if limit != 5 {
					return nil, fmt.Errorf("unexpected limit %d", limit)
				}
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "error: invalid limit",
			query:          "?limit=abc",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"limitは0以上の整数で指定してください"}`,
		},
		{
			name:           "error: negative limit",
			query:          "?limit=-1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"limitは0以上の整数で指定してください"}`,
		},
		{
			name:  "error: usecase returns error",
			query: "",
			mockFunc: func(ctx context.Context, limit int) ([]entity.FileReport, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"検出履歴の取得に失敗しました"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewLogoDetectionHandler(&mockLogoDetectionUsecase{HistoryFunc: tt.mockFunc})

			router := gin.New()
			router.GET("/logo/history", h.History)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/logo/history"+tt.query, nil)

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
