// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout は依存先1件あたりの疎通確認の上限時間です。
const readyTimeout = 2 * time.Second

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	// すべてのGET/HEAD/OPTIONSリクエストに対して200または204を返す
	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Check は依存先（Redis・履歴DBなど）の疎通確認です。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Ready は /readyz 用のハンドラーを返します。
// すべてのCheckが成功すれば200、1件でも失敗すれば503を返します。
func Ready(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		results := make(map[string]string, len(checks))
		status := http.StatusOK
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			err := chk.Ping(ctx)
			cancel()
			if err != nil {
				results[chk.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[chk.Name] = "ok"
		}

		body := gin.H{"status": "ok", "checks": results}
		if status != http.StatusOK {
			body["status"] = "unavailable"
		}
		c.JSON(status, body)
	}
}
