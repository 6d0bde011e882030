package handler

import (
	"fmt"
	"net/http"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/service"
	"github.com/chatwarden/chatwarden-backend/pkg/ginutil"
	"github.com/chatwarden/chatwarden-backend/pkg/sanitize"
	"github.com/gin-gonic/gin"
)

// ModerationHandler handles sanctions and administrative commands
type ModerationHandler struct {
	service  *service.ModerationService
	resolver MemberResolver
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(svc *service.ModerationService, resolver MemberResolver) *ModerationHandler {
	return &ModerationHandler{service: svc, resolver: resolver}
}

// SanctionRequest duration in minutes; 0 selects the default
type SanctionRequest struct {
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason"`
}

// AchievementRequest achievement catalog id
type AchievementRequest struct {
	ID string `json:"id" binding:"required"`
}

// RoleRequest role name
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// TextRequest free text for notify and say
type TextRequest struct {
	Text string `json:"text" binding:"required"`
}

// MinutesRequest a duration in minutes
type MinutesRequest struct {
	Minutes int `json:"minutes" binding:"required"`
}

// authorizeActor checks the actor's role before any target lookup.
// An unprivileged caller gets 403 whether or not the target exists.
func (h *ModerationHandler) authorizeActor(c *gin.Context, min domain.Role) (int64, bool) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return 0, false
	}
	if err := h.service.Authorize(c.Request.Context(), actorID, min); err != nil {
		common.ErrorFrom(c, err)
		return 0, false
	}
	return actorID, true
}

// memberAction runs a moderation call that takes actor and target and returns the target
func (h *ModerationHandler) memberAction(c *gin.Context, min domain.Role, fn func(c *gin.Context, actorID, targetID int64) (*domain.Member, error)) {
	actorID, ok := h.authorizeActor(c, min)
	if !ok {
		return
	}
	targetID, ok := resolveTarget(c, h.resolver)
	if !ok {
		return
	}
	m, err := fn(c, actorID, targetID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, m, nil)
}

// Mute handles POST /moderation/members/:target/mute
// @Summary 뮤트 (1-1440분)
// @Tags moderation
// @Accept json
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param request body SanctionRequest false "기간"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/mute [post]
func (h *ModerationHandler) Mute(c *gin.Context) {
	var req SanctionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Minutes == 0 {
		req.Minutes = service.DefaultMuteMinutes
	}
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.Mute(c.Request.Context(), actorID, targetID, req.Minutes)
	})
}

// Ban handles POST /moderation/members/:target/ban
// @Summary 차단 (1-10080분)
// @Tags moderation
// @Accept json
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param request body SanctionRequest false "기간, 사유"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/ban [post]
func (h *ModerationHandler) Ban(c *gin.Context) {
	var req SanctionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Minutes == 0 {
		req.Minutes = service.DefaultBanMinutes
	}
	reason := sanitize.Text(req.Reason)
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.Ban(c.Request.Context(), actorID, targetID, req.Minutes, reason)
	})
}

// Unban handles POST /moderation/members/:target/unban
// @Summary 차단 해제
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/unban [post]
func (h *ModerationHandler) Unban(c *gin.Context) {
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.Unban(c.Request.Context(), actorID, targetID)
	})
}

// Kick handles POST /moderation/members/:target/kick
// @Summary 강퇴
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/kick [post]
func (h *ModerationHandler) Kick(c *gin.Context) {
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.Kick(c.Request.Context(), actorID, targetID)
	})
}

// Rename handles PUT /moderation/members/:target/nick
// @Summary 닉네임 강제 변경
// @Tags moderation
// @Accept json
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param request body NickRequest true "새 닉네임"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/nick [put]
func (h *ModerationHandler) Rename(c *gin.Context) {
	var req NickRequest
	if !bindJSON(c, &req) {
		return
	}
	nick := sanitize.Text(req.Nick)
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.Rename(c.Request.Context(), actorID, targetID, nick)
	})
}

// ToggleFreeze handles POST /moderation/members/:target/freeze
// @Summary 닉네임 고정 토글
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/freeze [post]
func (h *ModerationHandler) ToggleFreeze(c *gin.Context) {
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.ToggleFreeze(c.Request.Context(), actorID, targetID)
	})
}

// ToggleTextOnly handles POST /moderation/members/:target/text-only
// @Summary 텍스트 전용 토글
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/text-only [post]
func (h *ModerationHandler) ToggleTextOnly(c *gin.Context) {
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.ToggleTextOnly(c.Request.Context(), actorID, targetID)
	})
}

// PromoteResident handles POST /moderation/members/:target/resident
// @Summary 주민 승급
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/resident [post]
func (h *ModerationHandler) PromoteResident(c *gin.Context) {
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.PromoteResident(c.Request.Context(), actorID, targetID)
	})
}

// SetRole handles PUT /moderation/members/:target/role
// @Summary 역할 변경 (관리자)
// @Tags moderation
// @Accept json
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param request body RoleRequest true "역할"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/role [put]
func (h *ModerationHandler) SetRole(c *gin.Context) {
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		invalidParam(c, err)
		return
	}
	h.memberAction(c, domain.RoleAdmin, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.SetRole(c.Request.Context(), actorID, targetID, role)
	})
}

// AddAchievement handles POST /moderation/members/:target/achievements
// @Summary 업적 부여
// @Tags moderation
// @Accept json
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param request body AchievementRequest true "업적 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/achievements [post]
func (h *ModerationHandler) AddAchievement(c *gin.Context) {
	var req AchievementRequest
	if !bindJSON(c, &req) {
		return
	}
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.AddAchievement(c.Request.Context(), actorID, targetID, req.ID)
	})
}

// RemoveAchievement handles DELETE /moderation/members/:target/achievements/:achievement
// @Summary 업적 회수
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Param achievement path string true "업적 ID"
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/members/{target}/achievements/{achievement} [delete]
func (h *ModerationHandler) RemoveAchievement(c *gin.Context) {
	h.memberAction(c, domain.RoleModerator, func(c *gin.Context, actorID, targetID int64) (*domain.Member, error) {
		return h.service.RemoveAchievement(c.Request.Context(), actorID, targetID, c.Param("achievement"))
	})
}

// Erase handles DELETE /moderation/members/:target
// @Summary 회원 기록 삭제
// @Tags moderation
// @Param target path string true "@nick 또는 회원 ID"
// @Success 204
// @Router /moderation/members/{target} [delete]
func (h *ModerationHandler) Erase(c *gin.Context) {
	actorID, ok := h.authorizeActor(c, domain.RoleModerator)
	if !ok {
		return
	}
	targetID, ok := resolveTarget(c, h.resolver)
	if !ok {
		return
	}
	if err := h.service.Erase(c.Request.Context(), actorID, targetID); err != nil {
		common.ErrorFrom(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VoteMute handles POST /moderation/members/:target/vote-mute
// @Summary 뮤트 투표
// @Tags moderation
// @Produce json
// @Param target path string true "@nick 또는 회원 ID"
// @Success 200 {object} common.APIResponse{data=domain.VoteMuteResult}
// @Router /moderation/members/{target}/vote-mute [post]
func (h *ModerationHandler) VoteMute(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	targetID, ok := resolveTarget(c, h.resolver)
	if !ok {
		return
	}
	res, err := h.service.VoteMute(c.Request.Context(), actorID, targetID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, res, nil)
}

// StepDown handles POST /moderation/step-down
// @Summary 스스로 직위 내려놓기
// @Tags moderation
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.Member}
// @Router /moderation/step-down [post]
func (h *ModerationHandler) StepDown(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	m, err := h.service.DemoteSelf(c.Request.Context(), actorID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, m, nil)
}

// Notify handles POST /moderation/notify
// @Summary 전체 공지 (관리자)
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body TextRequest true "공지 내용"
// @Success 200 {object} common.APIResponse{data=domain.Notification}
// @Router /moderation/notify [post]
func (h *ModerationHandler) Notify(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.service.Notify(c.Request.Context(), actorID, sanitize.Text(req.Text))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, n, nil)
}

// Say handles POST /moderation/say
// @Summary 봇 이름으로 말하기 (관리자)
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body TextRequest true "내용"
// @Success 200 {object} common.APIResponse{data=string}
// @Router /moderation/say [post]
func (h *ModerationHandler) Say(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req TextRequest
	if !bindJSON(c, &req) {
		return
	}
	text, err := h.service.Say(c.Request.Context(), actorID, sanitize.Text(req.Text))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, text, nil)
}

// ViewLogs handles GET /moderation/audit
// @Summary 감사 로그 조회 (관리자)
// @Tags moderation
// @Produce json
// @Param subject query int true "대상 회원 ID"
// @Param limit query int false "개수 (1-20)"
// @Success 200 {object} common.APIResponse{data=[]domain.AuditRecord}
// @Router /moderation/audit [get]
func (h *ModerationHandler) ViewLogs(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	subject, err := ginutil.QueryInt64(c, "subject")
	if err == nil && subject <= 0 {
		err = fmt.Errorf("subject is required")
	}
	if err != nil {
		invalidParam(c, err)
		return
	}
	limit := ginutil.QueryInt(c, "limit", 10)

	records, err := h.service.ViewLogs(c.Request.Context(), actorID, subject, limit)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, records, &common.Meta{Limit: limit})
}

// SetMuteDuration handles PUT /moderation/settings/mute-duration
// @Summary 투표 뮤트 기간 변경 (관리자)
// @Tags moderation
// @Accept json
// @Param request body MinutesRequest true "분"
// @Success 204
// @Router /moderation/settings/mute-duration [put]
func (h *ModerationHandler) SetMuteDuration(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req MinutesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.SetMuteDuration(c.Request.Context(), actorID, req.Minutes); err != nil {
		common.ErrorFrom(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ForceClosePoll handles POST /moderation/polls/:id/close
// @Summary 투표 강제 종료 (모더레이터)
// @Tags moderation
// @Produce json
// @Param id path int true "투표 ID"
// @Success 200 {object} common.APIResponse{data=domain.Tally}
// @Router /moderation/polls/{id}/close [post]
func (h *ModerationHandler) ForceClosePoll(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	pollID, err := ginutil.ParamID(c, "id")
	if err != nil {
		invalidParam(c, err)
		return
	}
	tally, err := h.service.ForceClosePoll(c.Request.Context(), actorID, pollID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, tally, nil)
}
