// Package rest implements the REST API service.
package rest

import (
	"net/http"

	"github.com/codyssey/codyssey/internal/database"
	"github.com/codyssey/codyssey/internal/rest/handler"
	"github.com/codyssey/codyssey/internal/rest/middleware/auth"
	"github.com/codyssey/codyssey/internal/service"
	"github.com/codyssey/codyssey/internal/setup/config"
	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// NewServer creates the REST API handler with all routes wired.
func NewServer(
	db database.Client, views *service.ViewService, proxy handler.StatusProxy,
	cfg *config.Config, logger *zap.Logger,
) http.Handler {
	authHandler := handler.NewAuthHandler(db.Users(), &cfg.Auth, logger)
	userHandler := handler.NewUserHandler(db.Users(), views, logger)
	proxyHandler := handler.NewProxyHandler(proxy, logger)

	authMiddleware := auth.New(cfg.Auth.JWTSecret, logger)

	router := bunrouter.New()

	router.WithGroup("/api", func(g *bunrouter.Group) {
		g.GET("", func(w http.ResponseWriter, req bunrouter.Request) error {
			_, err := w.Write([]byte("Codyssey API Running"))
			return err
		})

		g.WithGroup("/auth", func(g *bunrouter.Group) {
			g.POST("/signup", authHandler.Signup)
			g.POST("/login", authHandler.Login)
		})

		g.Use(authMiddleware.AsRESTMiddleware).WithGroup("/user", func(g *bunrouter.Group) {
			g.GET("/stats", userHandler.GetStats)
			g.GET("/practice-problems", userHandler.GetPracticeProblems)
			g.GET("/activity-data", userHandler.GetActivityData)
			g.POST("/handles", userHandler.UpdateHandles)
			g.POST("/refresh-cache", userHandler.RefreshCache)
		})

		g.GET("/cf-proxy/user-status", proxyHandler.UserStatus)
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router)
}
