package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiResponse is the envelope every JSON endpoint returns. Code is 0 on
// success and the HTTP status otherwise.
type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// unavailable reports a dependency that was not wired at startup.
func unavailable(c *gin.Context, what string) {
	Error(c, http.StatusInternalServerError, what+" unavailable", nil)
}

// upstream reports a store or collaborator failure.
func upstream(c *gin.Context, err error) {
	Error(c, http.StatusBadGateway, err.Error(), nil)
}
