package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medassist/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Chat      *ChatHandler
	Documents *DocumentHandler
	Assist    *AssistHandler
	JWTSecret []byte
	RateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/signup", deps.Auth.Signup)
	api.POST("/login", deps.Auth.Login)
	api.POST("/guest_login", deps.Auth.GuestLogin)

	api.POST("/find_medical_help", deps.Assist.FindMedicalHelp)
	api.POST("/api/schedule", deps.Assist.Schedule)
	api.POST("/speech_to_text", deps.Assist.SpeechToText)
	api.GET("/get_random_tips", deps.Assist.RandomTips)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/profile/health", deps.Auth.GetHealth)
	authGroup.PUT("/profile/health", deps.Auth.UpdateHealth)
	authGroup.POST("/get", middleware.RateLimit(deps.RateLimit), deps.Chat.Get)
	authGroup.POST("/upload", deps.Documents.Upload)
	authGroup.POST("/delete_document", deps.Documents.Delete)
	authGroup.POST("/cleanup_session", deps.Documents.CleanupSession)
	authGroup.POST("/get_summary", deps.Documents.Summary)
}
