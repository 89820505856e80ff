package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	apperrors "github.com/yanqian/travel-advisor/pkg/errors"
)

const (
	codeInvalidRequest    = "invalid_request"
	codeRateLimitExceeded = "rate_limit_exceeded"
	codeInternal          = "internal_error"
)

// statusByCode maps AppError codes to response statuses. Unknown codes are 500.
var statusByCode = map[string]int{
	codeInvalidRequest:        http.StatusBadRequest,
	codeRateLimitExceeded:     http.StatusTooManyRequests,
	advisory.CodeUpstream:     http.StatusBadGateway,
	advisory.CodeCacheCorrupt: http.StatusInternalServerError,
}

// apiError is the resolved form of a request failure, ready to render as
// {"error":{"code","message"}}.
type apiError struct {
	status  int
	code    string
	message string
	cause   error
}

// toAPIError classifies err. AppError codes keep their code and message;
// anything else is reported as an opaque internal error.
func toAPIError(err error) apiError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status, ok := statusByCode[appErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return apiError{status: status, code: appErr.Code, message: appErr.Message, cause: appErr.Err}
	}
	return apiError{
		status:  http.StatusInternalServerError,
		code:    codeInternal,
		message: "something went wrong",
		cause:   err,
	}
}

func (e apiError) body() gin.H {
	return gin.H{"error": gin.H{"code": e.code, "message": e.message}}
}

// badRequest builds an invalid_request error carrying the binding failure.
func badRequest(message string, err error) error {
	return apperrors.Wrap(codeInvalidRequest, message, err)
}

// abortWithError records err for errorHandlingMiddleware and stops the chain.
func abortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
