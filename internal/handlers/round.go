package handlers

import (
	"net/http"

	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/gin-gonic/gin"
)

type nextRoundRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

type nextRoundResponse struct {
	OK    bool `json:"ok"`
	Round int  `json:"round"`
}

// HandleNextRound starts the next round and pushes it to every connection of
// the room. The host check runs against live room state, so a player who
// became host by failover can advance even though its token predates that.
func (h *Handler) HandleNextRound(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}

	var req nextRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortInvalidRequest(c, err)
		return
	}

	if _, found := h.rooms.GetByID(claims.RoomID); !found {
		h.abortWithError(c, game.ErrUnauthenticated)
		return
	}

	summary, err := h.engine.AdvanceRound(claims.PlayerID, req.Code)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	h.log.Info().Str("code", summary.Code).Int("round", summary.Round).Msg("round advanced")
	h.log.Debug().Str("code", summary.Code).Str("famous", summary.FamousID).Str("spy", summary.SpyPlayerID).Msg("round drawn")

	h.sessions.AnnounceRound(summary.RoomID)
	c.JSON(http.StatusOK, nextRoundResponse{OK: true, Round: summary.Round})
}
