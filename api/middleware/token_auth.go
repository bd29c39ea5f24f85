/*
 * @module api/middleware/token_auth
 * @description Token鉴权中间件，校验请求头中的Bearer Token
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow Token提取 -> Token校验 -> 下一个处理器
 * @rules 未配置 API_TOKEN 时中间件透传所有请求，便于本地开发
 * @dependencies net/http
 * @refs api/routes.go
 */

package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/render"
)

// TokenAuth 校验 Authorization: Bearer <token> 请求头。
// 期望的Token取自 API_TOKEN 环境变量，未配置时放行全部请求。
func TokenAuth(next http.Handler) http.Handler {
	expected := os.Getenv("API_TOKEN")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if expected == "" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || token == auth {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{"status": 401, "msg": "缺少有效的鉴权Token"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{"status": 401, "msg": "鉴权Token无效"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
