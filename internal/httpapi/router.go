package httpapi

import (
	"net/http"

	"github.com/docuchat/backend/internal/common"
	"github.com/docuchat/backend/internal/config"
	"github.com/docuchat/backend/internal/httpapi/handlers"
	"github.com/docuchat/backend/internal/httpapi/middleware"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg config.Config, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", func(c *gin.Context) { common.OK(c, gin.H{"pong": true}) })

	// captcha + auth
	r.POST("/captcha", h.SendCaptcha)
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/signin", h.Signin)
	r.POST("/auth/signout", h.Signout)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	// users
	authGroup.GET("/me", h.Me)
	authGroup.PATCH("/me", h.UpdateProfile)
	authGroup.GET("/users", h.ListUsers)
	authGroup.POST("/users/invite", h.InviteUsers)

	// organization
	authGroup.GET("/organization", h.GetOrganization)
	authGroup.PATCH("/organization", h.UpdateOrganization)

	// chat rooms
	authGroup.POST("/chat-rooms", h.CreateChatRoom)
	authGroup.GET("/chat-rooms", h.ListChatRooms)
	authGroup.GET("/chat-rooms/:id", h.GetChatRoom)
	authGroup.PATCH("/chat-rooms/:id", h.UpdateChatRoom)

	// files
	authGroup.POST("/chat-rooms/:id/files", h.UploadFile)
	authGroup.GET("/chat-rooms/:id/files", h.ListFiles)
	authGroup.GET("/chat-rooms/:id/files/:name/url", h.FileSignedURL)
	authGroup.DELETE("/chat-rooms/:id/files/:name", h.DeleteFile)

	// RAG chat
	authGroup.POST("/chat/:id/start", h.StartChat)
	authGroup.GET("/chat/jobs/:job_id", h.GetIngestJob)
	authGroup.POST("/chat/:id", h.Chat)

	return r
}
