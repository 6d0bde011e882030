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

// PollHandler handles poll HTTP requests
type PollHandler struct {
	service *service.PollService
}

// NewPollHandler creates a new PollHandler
func NewPollHandler(svc *service.PollService) *PollHandler {
	return &PollHandler{service: svc}
}

// CreatePollRequest question and 2-10 options
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

// VoteRequest zero-based option index
type VoteRequest struct {
	Option *int `json:"option" binding:"required"`
}

// Create handles POST /polls
// @Summary 투표 생성
// @Tags polls
// @Accept json
// @Produce json
// @Param request body CreatePollRequest true "질문과 선택지"
// @Success 200 {object} common.APIResponse{data=domain.Poll}
// @Router /polls [post]
func (h *PollHandler) Create(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req CreatePollRequest
	if !bindJSON(c, &req) {
		return
	}

	options := make([]string, len(req.Options))
	for i, o := range req.Options {
		options[i] = sanitize.Text(o)
	}
	poll, err := h.service.Create(c.Request.Context(), actorID, sanitize.Text(req.Question), options)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, poll, nil)
}

// ListOpen handles GET /polls
// @Summary 진행 중인 투표 목록
// @Tags polls
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.Poll}
// @Router /polls [get]
func (h *PollHandler) ListOpen(c *gin.Context) {
	polls, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, polls, &common.Meta{Total: int64(len(polls))})
}

// Get handles GET /polls/:id
// @Summary 투표 조회
// @Tags polls
// @Produce json
// @Param id path int true "투표 ID"
// @Success 200 {object} common.APIResponse{data=domain.Poll}
// @Router /polls/{id} [get]
func (h *PollHandler) Get(c *gin.Context) {
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		invalidParam(c, err)
		return
	}
	poll, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, poll, nil)
}

// Results handles GET /polls/:id/results
// @Summary 투표 결과
// @Tags polls
// @Produce json
// @Param id path int true "투표 ID"
// @Success 200 {object} common.APIResponse{data=domain.Tally}
// @Router /polls/{id}/results [get]
func (h *PollHandler) Results(c *gin.Context) {
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		invalidParam(c, err)
		return
	}
	tally, err := h.service.Results(c.Request.Context(), id)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, tally, nil)
}

// Vote handles POST /polls/:id/votes
// The id is either a numeric poll id or a transport-native poll key.
// @Summary 투표하기
// @Tags polls
// @Accept json
// @Produce json
// @Param id path string true "투표 ID 또는 네이티브 투표 키"
// @Param request body VoteRequest true "선택지 번호 (0부터)"
// @Success 204
// @Router /polls/{id}/votes [post]
func (h *PollHandler) Vote(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	ref, err := domain.ParsePollRef(c.Param("id"))
	if err != nil {
		invalidParam(c, err)
		return
	}
	var req VoteRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	switch r := ref.(type) {
	case domain.PollID:
		err = h.service.Vote(ctx, int64(r), actorID, *req.Option)
	case domain.NativePollID:
		err = h.service.RecordNativeAnswer(ctx, r, actorID, *req.Option)
	default:
		err = fmt.Errorf("%s polls are not voted here: %w", ref.Namespace(), common.ErrInvalidInput)
	}
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Close handles POST /polls/:id/close
// @Summary 투표 종료 (작성자 또는 모더레이터)
// @Tags polls
// @Produce json
// @Param id path int true "투표 ID"
// @Success 200 {object} common.APIResponse{data=domain.Tally}
// @Router /polls/{id}/close [post]
func (h *PollHandler) Close(c *gin.Context) {
	actorID, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, err := ginutil.ParamID(c, "id")
	if err != nil {
		invalidParam(c, err)
		return
	}
	tally, err := h.service.Close(c.Request.Context(), id, actorID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, tally, nil)
}
