package models

import (
	"sync"
	"time"
)

// Room represents one game session. It is addressed internally by ID and
// publicly by its join Code.
type Room struct {
	ID                 string
	Code               string
	HostPlayerID       string
	Players            []*Player // join order
	CurrentRound       int
	CurrentFamous      *Famous
	CurrentSpyPlayerID string
	Status             RoomStatus
	RoundHistory       []RoundRecord
	CreatedAt          time.Time
	UpdatedAt          time.Time

	closed bool
	mu     sync.RWMutex
}

// RoundRecord is one entry of a room's append-only round history
type RoundRecord struct {
	Round       int
	FamousID    string
	SpyPlayerID string
	StartedAt   time.Time
}

// Lock acquires the room's write lock
func (r *Room) Lock() {
	r.mu.Lock()
}

// Unlock releases the room's write lock
func (r *Room) Unlock() {
	r.mu.Unlock()
}

// RLock acquires the room's read lock
func (r *Room) RLock() {
	r.mu.RLock()
}

// RUnlock releases the room's read lock
func (r *Room) RUnlock() {
	r.mu.RUnlock()
}

// Close marks the room as removed from the registry (must be called with lock held).
// A closed room accepts no further joins.
func (r *Room) Close() {
	r.closed = true
}

// Closed reports whether the room was removed (must be called with lock held)
func (r *Room) Closed() bool {
	return r.closed
}

// FindPlayer returns the player with the given ID, or nil (must be called with lock held)
func (r *Room) FindPlayer(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// ConnectedCount returns how many players are currently connected (must be called with lock held)
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// PublicPlayers returns the roster projection shown to everyone (must be called with lock held)
func (r *Room) PublicPlayers() []PublicPlayer {
	players := make([]PublicPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.Public())
	}
	return players
}
