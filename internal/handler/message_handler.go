package handler

import (
	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/service"
	"github.com/chatwarden/chatwarden-backend/pkg/sanitize"
	"github.com/gin-gonic/gin"
)

// MessageHandler handles chat history and private message requests
type MessageHandler struct {
	service  service.MessageService
	resolver MemberResolver
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(svc service.MessageService, resolver MemberResolver) *MessageHandler {
	return &MessageHandler{service: svc, resolver: resolver}
}

// PostMessageRequest public chat message
type PostMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PrivateMessageRequest recipient reference ("@nick" or id) and content
type PrivateMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Post handles POST /messages
// @Summary 채팅 메시지 기록
// @Tags messages
// @Accept json
// @Produce json
// @Param request body PostMessageRequest true "내용"
// @Success 200 {object} common.APIResponse{data=domain.Message}
// @Router /messages [post]
func (h *MessageHandler) Post(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.service.Post(c.Request.Context(), actorID, sanitize.Text(req.Content))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, msg, nil)
}

// SendPrivate handles POST /messages/private
// @Summary 개인 메시지 전송
// @Tags messages
// @Accept json
// @Produce json
// @Param request body PrivateMessageRequest true "받는 사람, 내용"
// @Success 200 {object} common.APIResponse{data=domain.PrivateDelivery}
// @Router /messages/private [post]
func (h *MessageHandler) SendPrivate(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req PrivateMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	to, err := h.resolver.Resolve(c.Request.Context(), req.To)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}

	d, err := h.service.SendPrivate(c.Request.Context(), actorID, to.ID, sanitize.Text(req.Content))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, d, nil)
}

// MediaPermission handles GET /messages/media-permission
// @Summary 미디어 전송 가능 여부
// @Tags messages
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /messages/media-permission [get]
func (h *MessageHandler) MediaPermission(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.service.AllowMedia(c.Request.Context(), actorID); err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"allowed": true}, nil)
}

// Last handles GET /messages/last
// @Summary 최근 메시지
// @Tags messages
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.MessageView}
// @Router /messages/last [get]
func (h *MessageHandler) Last(c *gin.Context) {
	views, err := h.service.Last(c.Request.Context())
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, views, &common.Meta{Limit: service.LastMessagesLimit})
}

// Inbox handles GET /messages/inbox
// @Summary 받은 개인 메시지
// @Tags messages
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.MessageView}
// @Router /messages/inbox [get]
func (h *MessageHandler) Inbox(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	views, err := h.service.Inbox(c.Request.Context(), actorID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, views, &common.Meta{Limit: service.InboxLimit})
}

// Search handles GET /messages/search?q=
// @Summary 메시지 검색
// @Tags messages
// @Produce json
// @Param q query string true "검색어"
// @Success 200 {object} common.APIResponse{data=[]domain.MessageView}
// @Router /messages/search [get]
func (h *MessageHandler) Search(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	views, err := h.service.Search(c.Request.Context(), actorID, sanitize.Text(c.Query("q")))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, views, &common.Meta{Limit: service.SearchResultLimit})
}
