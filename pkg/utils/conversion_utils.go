package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ParamID reads a positive int64 path parameter. On failure it writes a
// validation error response and returns false.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		RespondValidationFailed(c, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}
