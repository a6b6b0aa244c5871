package handlers

import (
	"errors"
	"net/http"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid-request"
	errInternal       = "internal-error"
	errRateLimited    = "rate-limited"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var kindStatus = map[game.Kind]int{
	game.KindInvalidInput:      http.StatusBadRequest,
	game.KindNotFound:          http.StatusNotFound,
	game.KindForbidden:         http.StatusForbidden,
	game.KindConflict:          http.StatusConflict,
	game.KindResourceExhausted: http.StatusInternalServerError,
	game.KindUnauthenticated:   http.StatusUnauthorized,
}

// abortWithError writes the error response for err. Errors outside the
// domain taxonomy become a generic 500.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	var de *game.Error
	if !errors.As(err, &de) {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errInternal, Message: "something went wrong"})
		return
	}

	status, ok := kindStatus[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	code := de.Code
	if code == "" {
		code = string(de.Kind)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: de.Message})
}

func (h *Handler) abortInvalidRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: errInvalidRequest, Message: err.Error()})
}

// authenticate verifies the request's identity token. Every failure answers
// the same 401 so callers cannot tell a bad token from a stale one.
func (h *Handler) authenticate(c *gin.Context) (auth.Claims, bool) {
	claims, err := h.tokens.Verify(c.GetHeader(TokenHeader))
	if err != nil {
		h.log.Debug().Err(err).Str("ip", c.ClientIP()).Msg("token rejected")
		h.abortWithError(c, game.ErrUnauthenticated)
		return auth.Claims{}, false
	}
	return claims, true
}
