package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/newsdesk/app/auth"
	"github.com/lysyi3m/newsdesk/app/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewServer creates the HTTP engine with all routes configured
func NewServer(handler *Handler, allowedOrigin string) *gin.Engine {
	setupValidators()

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health", "/metrics"},
	}))

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(telemetry.ServiceName))
	r.Use(metricsMiddleware())
	r.Use(corsMiddleware(allowedOrigin))
	r.Use(auth.SessionMiddleware(handler.sessions))

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/", handler.Index)
	r.GET("/login", handler.Login)
	r.GET("/authorize", handler.Authorize)
	r.GET("/logout", handler.Logout)

	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/key", handler.GetAPIKey)
		api.GET("/user", handler.GetUser)
		api.GET("/articles", handler.GetArticles)
		api.GET("/articles/:article_id/comments", handler.GetComments)
		api.POST("/comments", handler.CreateComment)
		api.PUT("/comments/:comment_id", handler.UpdateComment)
		api.DELETE("/comments/:comment_id", handler.DeleteComment)
	}

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// corsMiddleware admits a single browser origin with credentials.
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
