// Package gemini はGoogle Gemini APIを使用した企業分析クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"logoscan/internal/feature/logodetection/usecase"
)

// DefaultModel はGemini APIのデフォルトモデルです。
const DefaultModel = "gemini-2.5-flash"

// GeminiAnalyzer はGoogle Gemini APIを使用して企業分析を生成します。
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// GeminiAnalyzerがCompanyAnalyzerを実装していることをコンパイル時に検証します。
var _ usecase.CompanyAnalyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer はADCを使用してGeminiAnalyzerの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
// modelが空の場合は DefaultModel を使用します。
func NewGeminiAnalyzer(ctx context.Context, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client, model: ModelOrDefault(model)}, nil
}

// ModelOrDefault は空白のみのモデル名をDefaultModelに置き換えます。
func ModelOrDefault(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return DefaultModel
}

// Analyze はプロンプトを使用して分析サマリーを生成します。
func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini API returned an empty summary")
	}
	return text, nil
}
