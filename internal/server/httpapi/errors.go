package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Error kinds as they appear in the response envelope.
const (
	KindValidation       = "validation_error"
	KindConflict         = "conflict"
	KindAuthentication   = "authentication_error"
	KindExpiredToken     = "expired_token"
	KindInvalidToken     = "invalid_token"
	KindNotFound         = "not_found"
	KindTooManyAttempts  = "too_many_attempts"
	KindStoreUnavailable = "store_unavailable"
	KindInternal         = "internal_error"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse is the single error envelope of the API.
type ErrorResponse struct {
	Error errorBody `json:"error"`
}

type apiError struct {
	status  int
	kind    string
	message string
}

var (
	errConflict         = apiError{http.StatusConflict, KindConflict, "username already exists"}
	errAuthentication   = apiError{http.StatusUnauthorized, KindAuthentication, "username/password is incorrect"}
	errExpiredToken     = apiError{http.StatusUnauthorized, KindExpiredToken, "token has expired"}
	errInvalidToken     = apiError{http.StatusUnauthorized, KindInvalidToken, "token is invalid"}
	errNotFound         = apiError{http.StatusNotFound, KindNotFound, "user not found"}
	errTooManyAttempts  = apiError{http.StatusTooManyRequests, KindTooManyAttempts, "too many failed login attempts, try again later"}
	errStoreUnavailable = apiError{http.StatusServiceUnavailable, KindStoreUnavailable, "service temporarily unavailable"}
	errInternal         = apiError{http.StatusInternalServerError, KindInternal, "internal server error"}
)

// classify maps a service error to its response. Only validation messages
// come from the error itself; they name the offending field.
func classify(err error) apiError {
	var fieldErr *common.FieldError

	switch {
	case errors.As(err, &fieldErr):
		return apiError{http.StatusBadRequest, KindValidation, fieldErr.Error()}
	case errors.Is(err, common.ErrValidation):
		return apiError{http.StatusBadRequest, KindValidation, "invalid request"}
	case errors.Is(err, common.ErrConflict):
		return errConflict
	case errors.Is(err, common.ErrTokenExpired):
		return errExpiredToken
	case errors.Is(err, common.ErrInvalidToken):
		return errInvalidToken
	case errors.Is(err, common.ErrorUnauthorized):
		return errAuthentication
	case errors.Is(err, common.ErrorNotFound):
		return errNotFound
	case errors.Is(err, common.ErrTooManyAttempts):
		return errTooManyAttempts
	case errors.Is(err, common.ErrStoreUnavailable):
		return errStoreUnavailable
	default:
		return errInternal
	}
}

func abortWith(c *gin.Context, e apiError) {
	if e.kind == KindExpiredToken || e.kind == KindInvalidToken {
		c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	c.AbortWithStatusJSON(e.status, ErrorResponse{Error: errorBody{Kind: e.kind, Message: e.message}})
}
