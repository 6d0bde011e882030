package routes

import (
	"github.com/chatwarden/chatwarden-backend/internal/config"
	"github.com/chatwarden/chatwarden-backend/internal/handler"
	"github.com/chatwarden/chatwarden-backend/internal/middleware"
	"github.com/chatwarden/chatwarden-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers bundles the HTTP handlers mounted under /api/v1
type Handlers struct {
	Member     *handler.MemberHandler
	Moderation *handler.ModerationHandler
	Poll       *handler.PollHandler
	Message    *handler.MessageHandler
	Chat       *handler.ChatHandler
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager, redisClient *redis.Client, cfg *config.Config) {
	api := router.Group("/api/v1", middleware.ServiceAuth(jwtManager))

	// Chat info (no actor required)
	api.GET("/stats", h.Chat.Stats)
	api.GET("/rules", h.Chat.Rules)
	api.GET("/about", h.Chat.About)

	commandLimit := middleware.RateLimitPerActor(redisClient, middleware.ClassCommand, cfg.RateLimit.CommandsPerMinute)
	messageLimit := middleware.RateLimitPerActor(redisClient, middleware.ClassMessage, cfg.RateLimit.MessagesPerMinute)

	actor := api.Group("", middleware.Actor())

	// Members
	members := actor.Group("/members")
	members.GET("", h.Member.ListActive)
	members.POST("/join", h.Member.Join)
	members.POST("/leave", h.Member.Leave)
	members.PUT("/me/nick", commandLimit, h.Member.ChangeNick)
	members.GET("/me/settings", h.Member.GetSettings)
	members.PUT("/me/settings", commandLimit, h.Member.UpdateSettings)
	members.GET("/:target", h.Member.Info)
	members.POST("/:target/interact", commandLimit, h.Member.Interact)

	// Moderation (역할 검사는 서비스 계층)
	mod := actor.Group("/moderation", commandLimit)
	target := mod.Group("/members/:target")
	target.POST("/mute", h.Moderation.Mute)
	target.POST("/ban", h.Moderation.Ban)
	target.POST("/unban", h.Moderation.Unban)
	target.POST("/kick", h.Moderation.Kick)
	target.PUT("/nick", h.Moderation.Rename)
	target.POST("/freeze", h.Moderation.ToggleFreeze)
	target.POST("/text-only", h.Moderation.ToggleTextOnly)
	target.POST("/resident", h.Moderation.PromoteResident)
	target.PUT("/role", h.Moderation.SetRole)
	target.POST("/achievements", h.Moderation.AddAchievement)
	target.DELETE("/achievements/:achievement", h.Moderation.RemoveAchievement)
	target.POST("/vote-mute", h.Moderation.VoteMute)
	target.DELETE("", h.Moderation.Erase)
	mod.POST("/step-down", h.Moderation.StepDown)
	mod.POST("/notify", h.Moderation.Notify)
	mod.POST("/say", h.Moderation.Say)
	mod.GET("/audit", h.Moderation.ViewLogs)
	mod.PUT("/settings/mute-duration", h.Moderation.SetMuteDuration)
	mod.POST("/polls/:id/close", h.Moderation.ForceClosePoll)

	// Polls
	polls := actor.Group("/polls")
	polls.GET("", h.Poll.ListOpen)
	polls.POST("", commandLimit, h.Poll.Create)
	polls.GET("/:id", h.Poll.Get)
	polls.GET("/:id/results", h.Poll.Results)
	polls.POST("/:id/votes", h.Poll.Vote)
	polls.POST("/:id/close", commandLimit, h.Poll.Close)

	// Messages
	messages := actor.Group("/messages")
	messages.POST("", messageLimit, h.Message.Post)
	messages.POST("/private", messageLimit, h.Message.SendPrivate)
	messages.GET("/media-permission", h.Message.MediaPermission)
	messages.GET("/last", commandLimit, h.Message.Last)
	messages.GET("/inbox", commandLimit, h.Message.Inbox)
	messages.GET("/search", commandLimit, h.Message.Search)
}
