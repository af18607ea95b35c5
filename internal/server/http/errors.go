package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to the HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, "already exists"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotVerified):
		return http.StatusForbidden, "please verify your email before logging in"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrConflictOnCommit):
		return http.StatusInternalServerError, "the change could not be applied, please retry"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}
