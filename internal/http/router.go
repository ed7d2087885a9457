package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/service"
)

// RouterConfig agrupa lo que el router necesita fuera de los handlers.
type RouterConfig struct {
	CORSOrigins   []string
	UploadDir     string
	UploadURLPath string
	// Ready se usa en /health; nil significa que no hay dependencias que chequear.
	Ready func(ctx context.Context) error
}

// Handlers reune los handlers HTTP de la API.
type Handlers struct {
	Auth   *AuthHandler
	Events *EventHandler
	Groups *GroupHandler
	Posts  *PostHandler
	Users  *UserHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, cfg RouterConfig, auth *service.AuthService, h Handlers) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 8 << 20

	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), recoveryMiddleware(logger), corsMiddleware(cfg.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, codeNotFound, "resource not found", nil)
	})
	r.NoMethod(func(c *gin.Context) {
		respondError(c, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
	})

	r.GET("/health", healthHandler(cfg.Ready))
	if cfg.UploadDir != "" && cfg.UploadURLPath != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	requireAuth := RequireAuth(logger, auth)

	a := r.Group("/auth")
	a.POST("/signup", h.Auth.Signup)
	a.POST("/send-otp", h.Auth.SendOTP)
	a.POST("/verify-otp", h.Auth.VerifyOTP)
	a.POST("/login", h.Auth.LoginOTP)
	a.POST("/login-password", h.Auth.LoginPassword)
	a.POST("/logout", h.Auth.Logout)
	a.POST("/verify-session", h.Auth.VerifySession)
	a.POST("/verify-token", h.Auth.VerifyToken)
	a.POST("/token", h.Auth.RefreshToken)
	a.POST("/reset-password", h.Auth.ResetPassword)
	a.POST("/change-password", requireAuth, h.Auth.ChangePassword)
	a.GET("/profile", requireAuth, h.Auth.GetProfile)
	a.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
	a.POST("/profile/picture", requireAuth, h.Auth.UploadPicture)
	a.DELETE("/profile/picture", requireAuth, h.Auth.RemovePicture)

	api := r.Group("/api")

	events := api.Group("/events")
	events.GET("", h.Events.List)
	events.POST("", requireAuth, h.Events.Create)
	events.GET("/category/:category", h.Events.ListByCategory)
	events.GET("/:id", h.Events.Get)
	events.POST("/:id/join", requireAuth, h.Events.Join)
	events.POST("/:id/leave", requireAuth, h.Events.Leave)
	events.POST("/:id/save", requireAuth, h.Events.Save)
	events.DELETE("/:id/save", requireAuth, h.Events.Unsave)
	events.GET("/:id/status", requireAuth, h.Events.Status)

	groups := api.Group("/groups")
	groups.GET("", h.Groups.List)
	groups.POST("", requireAuth, h.Groups.Create)
	groups.GET("/category/:category", h.Groups.ListByCategory)
	groups.GET("/:id", h.Groups.Get)
	groups.POST("/:id/join", requireAuth, h.Groups.Join)
	groups.POST("/:id/leave", requireAuth, h.Groups.Leave)

	posts := api.Group("/posts")
	posts.GET("", h.Posts.List)
	posts.POST("", requireAuth, h.Posts.Create)
	posts.GET("/:id", h.Posts.Get)
	posts.PUT("/:id", requireAuth, h.Posts.Update)
	posts.DELETE("/:id", requireAuth, h.Posts.Delete)
	posts.GET("/:id/like", requireAuth, h.Posts.LikeStatus)
	posts.POST("/:id/like", requireAuth, h.Posts.Like)
	posts.DELETE("/:id/like", requireAuth, h.Posts.Unlike)
	posts.GET("/:id/comments", h.Posts.Comments)
	posts.POST("/:id/comments", requireAuth, h.Posts.AddComment)

	users := api.Group("/users")
	users.GET("/:id", h.Users.GetUser)
	users.GET("/:id/posts", h.Users.UserPosts)
	users.GET("/:id/events", h.Users.UserEvents)
	users.GET("/:id/groups", h.Users.UserGroups)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cors.New(cfg)
}

func healthHandler(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				respondError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "service unavailable", nil)
				return
			}
		}
		respondOK(c, http.StatusOK, "CampusConnect API is running", gin.H{"status": "ok"})
	}
}
