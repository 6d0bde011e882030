package ginutil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt extracts an integer from query parameters with default value
func QueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// QueryInt64 extracts an optional int64 query parameter; 0 when absent
func QueryInt64(c *gin.Context, key string) (int64, error) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return 0, nil
	}
	return strconv.ParseInt(valueStr, 10, 64)
}

// ParamID extracts a positive int64 path parameter
func ParamID(c *gin.Context, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, c.Param(key))
	}
	return id, nil
}
