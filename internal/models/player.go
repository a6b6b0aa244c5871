package models

import "time"

// Player represents a player in a room. Players are never removed from their
// room, a disconnected player keeps its slot so it can reconnect.
type Player struct {
	ID        string
	Nickname  string
	IsHost    bool
	Connected bool
	JoinedAt  time.Time
}

// Public returns the roster view of the player
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:        p.ID,
		Nickname:  p.Nickname,
		IsHost:    p.IsHost,
		Connected: p.Connected,
	}
}
