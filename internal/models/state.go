package models

// PublicPlayer is the roster entry broadcast to a whole room. It never
// carries round secrets.
type PublicPlayer struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`
}

// RoomState is the snapshot personalised for one player
type RoomState struct {
	Code    string         `json:"code"`
	Status  RoomStatus     `json:"status"`
	Round   int            `json:"round"`
	Players []PublicPlayer `json:"players"`
	Current *CurrentRound  `json:"current,omitempty"`
}

// CurrentRound is what one player may know about the running round: either
// that they are the spy, or the famous identity, never both.
type CurrentRound struct {
	IsSpy  bool        `json:"isSpy"`
	Famous *FamousView `json:"famous,omitempty"`
}

// FamousView is the revealed part of a catalog entry
type FamousView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}
