package router

import (
	"net/http"

	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/handler"
	"github.com/gin-gonic/gin"
)

// Setup 调试 HTTP 服务路由；metrics 为空时不挂载 /metrics
func Setup(d *dispatcher.Dispatcher, metrics http.Handler, sessionID string) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	debugHandler := handler.NewDebugHandler(d, sessionID)

	// 健康检查
	r.GET("/health", debugHandler.Health)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// 只读查询，与 rollup inspect 共用路由表
	r.GET("/inspect/*path", debugHandler.Inspect)

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
