package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// MemberResolver turns a "@nick" or numeric reference into a member
type MemberResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Member, error)
}

// actorOrAbort returns the acting member id set by middleware.Actor
func actorOrAbort(c *gin.Context) (int64, bool) {
	actorID := middleware.GetActorID(c)
	if actorID == 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "actor is required", nil)
		return 0, false
	}
	return actorID, true
}

// resolveTarget resolves the :target path parameter
func resolveTarget(c *gin.Context, resolver MemberResolver) (int64, bool) {
	m, err := resolver.Resolve(c.Request.Context(), c.Param("target"))
	if err != nil {
		common.ErrorFrom(c, err)
		return 0, false
	}
	return m.ID, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "malformed request body", err)
		return false
	}
	return true
}

func invalidParam(c *gin.Context, err error) {
	common.ErrorFrom(c, fmt.Errorf("%v: %w", err, common.ErrInvalidInput))
}
