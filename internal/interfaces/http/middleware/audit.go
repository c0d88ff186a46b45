// Package middleware 提供 HTTP 中间件
package middleware

import (
	"time"

	"nb-studio-api/internal/infrastructure/messaging"
	"nb-studio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Audit 审计日志中间件
// 记录请求的详细信息，用于审计和监控
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		logger.Info(c.Request.Context(), "api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"user_id", c.GetString("user_id"),
			"request_id", c.GetString("request_id"),
			"trace_id", c.GetString("trace_id"),
			"body_size", c.Writer.Size(),
		)
	}
}

// AuditConfig 审计配置
type AuditConfig struct {
	// Enabled 是否启用审计
	Enabled bool
	// SkipPaths 跳过审计的路径
	SkipPaths []string
}

// AuditWithStream 带消息流发布的审计中间件
// 写操作（非 GET/HEAD/OPTIONS）在本地日志之外再投递一条审计消息，
// 供归档消费者异步落库。发布失败只记录告警，不影响请求本身。
func AuditWithStream(cfg AuditConfig, producer *messaging.Producer) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skipMap := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		ctx := c.Request.Context()

		logger.Info(ctx, "api audit",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
			"user_id", c.GetString("user_id"),
			"request_id", c.GetString("request_id"),
		)

		if producer == nil || !isMutating(c.Request.Method) {
			return
		}

		if _, err := producer.PublishAuditLog(ctx, &messaging.AuditLogMessage{
			UserID:       c.GetString("user_id"),
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: "http",
			ResourceID:   c.Request.URL.Path,
			RequestID:    c.GetString("request_id"),
			TraceID:      c.GetString("trace_id"),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			Metadata: map[string]interface{}{
				"status":      c.Writer.Status(),
				"duration_ms": duration.Milliseconds(),
			},
		}); err != nil {
			logger.Warn(ctx, "failed to publish audit log", "error", err)
		}
	}
}

// isMutating 判断请求方法是否为写操作
func isMutating(method string) bool {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return false
	default:
		return true
	}
}

// DefaultAuditSkipPaths 默认跳过审计的路径
var DefaultAuditSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
