package game

import (
	"fmt"

	"github.com/aaronzipp/famous-spy/internal/models"
)

// SerializeForPlayer projects the room for one player. The spy learns only
// that they are the spy; everyone else gets the famous identity and never the
// spy's ID.
func SerializeForPlayer(room *models.Room, playerID string) models.RoomState {
	room.RLock()
	defer room.RUnlock()
	return serializeLocked(room, playerID)
}

// PublicRoster returns the roster broadcast to the whole room
func PublicRoster(room *models.Room) []models.PublicPlayer {
	room.RLock()
	defer room.RUnlock()
	return room.PublicPlayers()
}

func serializeLocked(room *models.Room, playerID string) models.RoomState {
	state := models.RoomState{
		Code:    room.Code,
		Status:  room.Status,
		Round:   room.CurrentRound,
		Players: room.PublicPlayers(),
	}
	if room.CurrentRound == 0 {
		return state
	}

	if playerID == room.CurrentSpyPlayerID {
		state.Current = &models.CurrentRound{IsSpy: true}
		return state
	}

	if room.CurrentFamous == nil {
		panic(fmt.Sprintf("room %s: round %d has no famous identity", room.ID, room.CurrentRound))
	}
	state.Current = &models.CurrentRound{
		Famous: &models.FamousView{
			ID:       room.CurrentFamous.ID,
			Name:     room.CurrentFamous.Name,
			ImageURL: room.CurrentFamous.ImageURL,
		},
	}
	return state
}
