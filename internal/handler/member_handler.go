package handler

import (
	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/service"
	"github.com/chatwarden/chatwarden-backend/pkg/sanitize"
	"github.com/gin-gonic/gin"
)

// MemberHandler handles membership and self-service requests
type MemberHandler struct {
	service  service.MemberService
	resolver MemberResolver
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(svc service.MemberService, resolver MemberResolver) *MemberHandler {
	return &MemberHandler{service: svc, resolver: resolver}
}

// JoinRequest nick shown in chat
type JoinRequest struct {
	Nick string `json:"nick" binding:"required"`
}

// NickRequest new nick
type NickRequest struct {
	Nick string `json:"nick" binding:"required"`
}

// SettingsRequest interaction texts; null keeps, "" clears
type SettingsRequest struct {
	HugText  *string `json:"hug_text"`
	SlapText *string `json:"slap_text"`
}

// InteractRequest interaction kind (hug, slap)
type InteractRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// Join handles POST /members/join
// @Summary 채팅 참가
// @Tags members
// @Accept json
// @Produce json
// @Param request body JoinRequest true "닉네임"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /members/join [post]
func (h *MemberHandler) Join(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req JoinRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.service.Join(c.Request.Context(), actorID, sanitize.Text(req.Nick))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, m, nil)
}

// Leave handles POST /members/leave
// @Summary 채팅 나가기
// @Tags members
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /members/leave [post]
func (h *MemberHandler) Leave(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	m, err := h.service.Leave(c.Request.Context(), actorID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, m, nil)
}

// ChangeNick handles PUT /members/me/nick
// @Summary 닉네임 변경
// @Tags members
// @Accept json
// @Produce json
// @Param request body NickRequest true "새 닉네임"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /members/me/nick [put]
func (h *MemberHandler) ChangeNick(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req NickRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.service.ChangeNick(c.Request.Context(), actorID, sanitize.Text(req.Nick))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, m, nil)
}

// Info handles GET /members/:target
// @Summary 회원 정보
// @Tags members
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.MemberInfo}
// @Router /members/{target} [get]
func (h *MemberHandler) Info(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context(), c.Param("target"))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, info, nil)
}

// ListActive handles GET /members
// @Summary 참가 중인 회원 목록
// @Tags members
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.Member}
// @Router /members [get]
func (h *MemberHandler) ListActive(c *gin.Context) {
	members, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, members, &common.Meta{Total: int64(len(members))})
}

// GetSettings handles GET /members/me/settings
// @Summary 내 설정 조회
// @Tags members
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.MemberSettings}
// @Router /members/me/settings [get]
func (h *MemberHandler) GetSettings(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	s, err := h.service.Settings(c.Request.Context(), actorID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, s, nil)
}

// UpdateSettings handles PUT /members/me/settings
// @Summary 내 설정 변경
// @Tags members
// @Accept json
// @Produce json
// @Param request body SettingsRequest true "상호작용 문구"
// @Success 200 {object} common.APIResponse{data=domain.MemberSettings}
// @Router /members/me/settings [put]
func (h *MemberHandler) UpdateSettings(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req SettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.service.UpdateSettings(c.Request.Context(), actorID, sanitizePtr(req.HugText), sanitizePtr(req.SlapText))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, s, nil)
}

// Interact handles POST /members/:target/interact
// @Summary 상호작용 (hug, slap)
// @Tags members
// @Accept json
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param request body InteractRequest true "종류"
// @Success 200 {object} common.APIResponse{data=domain.Interaction}
// @Router /members/{target}/interact [post]
func (h *MemberHandler) Interact(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	targetID, ok := resolveTarget(c, h.resolver)
	if !ok {
		return
	}
	var req InteractRequest
	if !bindJSON(c, &req) {
		return
	}

	it, err := h.service.Interact(c.Request.Context(), actorID, targetID, req.Kind)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, it, nil)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitize.Text(*s)
	return &v
}
