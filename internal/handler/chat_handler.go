package handler

import (
	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/config"
	"github.com/chatwarden/chatwarden-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ChatHandler serves chat-wide information: statistics, rules and about text
type ChatHandler struct {
	stats *service.StatsService
	chat  config.ChatConfig
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(stats *service.StatsService, chat config.ChatConfig) *ChatHandler {
	return &ChatHandler{stats: stats, chat: chat}
}

// Stats handles GET /stats
// @Summary 채팅 통계
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.ChatStats}
// @Router /stats [get]
func (h *ChatHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, stats, nil)
}

// Rules handles GET /rules
// @Summary 채팅 규칙
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=string}
// @Router /rules [get]
func (h *ChatHandler) Rules(c *gin.Context) {
	common.SuccessResponse(c, h.chat.RulesText, nil)
}

// About handles GET /about
// @Summary 봇 소개
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=string}
// @Router /about [get]
func (h *ChatHandler) About(c *gin.Context) {
	common.SuccessResponse(c, h.chat.AboutText, nil)
}
