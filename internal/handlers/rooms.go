package handlers

import (
	"net/http"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/aaronzipp/famous-spy/internal/models"
	"github.com/aaronzipp/famous-spy/internal/render"
	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=24"`
}

type joinRoomRequest struct {
	Code     string `json:"code" binding:"required,len=6"`
	Nickname string `json:"nickname" binding:"required,min=2,max=24"`
}

type playerResponse struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

type roomResponse struct {
	Token  string         `json:"token"`
	Code   string         `json:"code"`
	Player playerResponse `json:"player"`
}

// HandleCreateRoom creates a room hosted by the caller
func (h *Handler) HandleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortInvalidRequest(c, err)
		return
	}

	room, player, err := h.rooms.CreateRoom(req.Nickname)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	h.log.Info().Str("code", room.Code).Str("room", room.ID).Msg("room created")
	h.respondWithIdentity(c, room, player)
}

// HandleJoinRoom adds the caller to an existing room
func (h *Handler) HandleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortInvalidRequest(c, err)
		return
	}

	room, player, err := h.rooms.JoinRoom(req.Code, req.Nickname)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	h.log.Info().Str("code", room.Code).Str("player", player.ID).Msg("player joined")
	h.respondWithIdentity(c, room, player)
}

func (h *Handler) respondWithIdentity(c *gin.Context, room *models.Room, player models.Player) {
	token, err := h.tokens.Issue(auth.Claims{
		RoomID:   room.ID,
		PlayerID: player.ID,
		IsHost:   player.IsHost,
	}, h.now())
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, roomResponse{
		Token: token,
		Code:  room.Code,
		Player: playerResponse{
			ID:       player.ID,
			Nickname: player.Nickname,
			IsHost:   player.IsHost,
		},
	})
}

// HandleRoomState returns the caller's personalised view of its room
func (h *Handler) HandleRoomState(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}

	room, found := h.rooms.GetByID(claims.RoomID)
	if !found {
		h.abortWithError(c, game.ErrUnauthenticated)
		return
	}
	if room.Code != game.NormalizeCode(c.Param("code")) {
		h.abortWithError(c, game.ErrRoomAccessDenied)
		return
	}
	c.JSON(http.StatusOK, game.SerializeForPlayer(room, claims.PlayerID))
}

// HandleRoomQR serves a PNG QR code of the room's join link
func (h *Handler) HandleRoomQR(c *gin.Context) {
	code := game.NormalizeCode(c.Param("code"))
	if !game.ValidCode(code) {
		h.abortWithError(c, game.ErrInvalidCode)
		return
	}
	room, ok := h.rooms.GetByCode(code)
	if !ok {
		h.abortWithError(c, game.ErrRoomNotFound)
		return
	}

	png, err := render.JoinQR(h.opts.PublicURL, room.Code)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
