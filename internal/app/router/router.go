// Package router はlogoscanサーバーのHTTPルーティングを組み立てます。
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logohandler "logoscan/internal/feature/logodetection/transport/handler"
	"logoscan/internal/platform/http/handler"
	jwtmw "logoscan/internal/platform/jwt"
	"logoscan/internal/platform/metrics"
)

// Options はルーターの依存関係です。
type Options struct {
	Logo      *logohandler.LogoDetectionHandler
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Checks    []handler.Check
	JWTSecret string // 空の場合 /v1 は認証なし
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.GinMiddleware())
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(opts.Checks...))
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	// シークレットがあればJWTを必須にする
	if opts.JWTSecret != "" {
		v1.Use(jwtmw.AuthRequired(opts.JWTSecret))
	}
	logo := v1.Group("/logo")
	{
		logo.POST("/detect", opts.Logo.DetectLogos)
		logo.POST("/analyze", opts.Logo.AnalyzeCompany)
		logo.GET("/history", opts.Logo.History)
	}

	return r
}
