package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/pkg/jwt"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys and transport headers
const (
	ActorHeader = "X-Actor-ID"
	ChatHeader  = "X-Chat-ID"

	actorKey     = "actorID"
	chatKey      = "chatID"
	transportKey = "transport"
)

// ServiceAuth verifies the transport's Bearer service token.
// A nil manager disables the check.
func ServiceAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			c.Next()
			return
		}

		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing authorization header", nil)
			return
		}

		// 2. Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		// 3. Verify token
		claims, err := jwtManager.Verify(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			return
		}

		c.Set(transportKey, claims.Transport)
		c.Next()
	}
}

// Actor reads the calling member and chat from the transport headers.
// Requests without a valid actor id are rejected.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := strconv.ParseInt(c.GetHeader(ActorHeader), 10, 64)
		if err != nil || actorID <= 0 {
			common.ErrorResponse(c, http.StatusBadRequest, "Missing or invalid "+ActorHeader+" header", nil)
			return
		}
		c.Set(actorKey, actorID)

		var chatID int64
		if chat := c.GetHeader(ChatHeader); chat != "" {
			if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
				chatID = id
				c.Set(chatKey, chatID)
			}
		}
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actorID, chatID))
		c.Next()
	}
}

// GetActorID extracts the acting member id from context
func GetActorID(c *gin.Context) int64 {
	v, exists := c.Get(actorKey)
	if !exists {
		return 0
	}
	if id, ok := v.(int64); ok {
		return id
	}
	return 0
}

// GetChatID extracts the chat id from context
func GetChatID(c *gin.Context) int64 {
	v, exists := c.Get(chatKey)
	if !exists {
		return 0
	}
	if id, ok := v.(int64); ok {
		return id
	}
	return 0
}

// GetTransport extracts the verified transport name from context
func GetTransport(c *gin.Context) string {
	v, exists := c.Get(transportKey)
	if !exists {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
