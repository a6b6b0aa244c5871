package game

import (
	"time"

	"github.com/aaronzipp/famous-spy/internal/models"
)

// MarkConnected flags a player as connected again. If the recorded host is
// offline (the room emptied and is about to be collected) the reconnecting
// player takes over as host. It reports false when the player is not in the
// room or the room has already been removed.
func MarkConnected(room *models.Room, playerID string, now time.Time) bool {
	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return false
	}
	player := room.FindPlayer(playerID)
	if player == nil {
		return false
	}
	player.Connected = true
	room.UpdatedAt = now

	if host := room.FindPlayer(room.HostPlayerID); host == nil || !host.Connected {
		transferHost(room, player)
	}
	return true
}

// MarkDisconnected flags a player as disconnected. When the player was host,
// the earliest-joined player still connected becomes host; with nobody left the
// host stays assigned. It returns the new host ID when the role moved.
func MarkDisconnected(room *models.Room, playerID string, now time.Time) (newHostID string, transferred bool) {
	room.Lock()
	defer room.Unlock()

	player := room.FindPlayer(playerID)
	if player == nil {
		return "", false
	}
	player.Connected = false
	room.UpdatedAt = now

	if room.HostPlayerID != playerID {
		return "", false
	}
	for _, p := range room.Players {
		if p.Connected {
			transferHost(room, p)
			return p.ID, true
		}
	}
	return "", false
}

// IsHost reports whether playerID currently holds the host role
func IsHost(room *models.Room, playerID string) bool {
	room.RLock()
	defer room.RUnlock()
	return room.HostPlayerID == playerID
}

// transferHost moves the host flag to next (must be called with lock held)
func transferHost(room *models.Room, next *models.Player) {
	for _, p := range room.Players {
		p.IsHost = p == next
	}
	room.HostPlayerID = next.ID
}
