package store

import (
	"sync"
	"time"

	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/aaronzipp/famous-spy/internal/models"
	"github.com/google/uuid"
)

// Registry owns the active rooms. Rooms are stored once, by ID; the code
// index holds keys into that map and both change together under mu.
//
// Lock order is registry before room: never take mu while holding a room lock.
type Registry struct {
	rooms   map[string]*models.Room // room ID -> room
	codes   map[string]string       // join code -> room ID
	mu      sync.RWMutex
	newCode func() string
	newID   func() string
	now     func() time.Time
}

// Option customizes a Registry
type Option func(*Registry)

// WithCodeGenerator replaces the random join code source
func WithCodeGenerator(gen func() string) Option {
	return func(r *Registry) { r.newCode = gen }
}

// WithClock sets the time source for room and player timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty room registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:   make(map[string]*models.Room),
		codes:   make(map[string]string),
		newCode: game.GenerateRoomCode,
		newID:   func() string { return uuid.New().String() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoom creates a room whose only player is its connected host
func (r *Registry) CreateRoom(nickname string) (*models.Room, models.Player, error) {
	cleaned := game.SanitizeNickname(nickname)
	if cleaned == "" {
		return nil, models.Player{}, game.ErrInvalidNickname
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.uniqueCode()
	if err != nil {
		return nil, models.Player{}, err
	}

	now := r.now()
	player := &models.Player{
		ID:        r.newID(),
		Nickname:  cleaned,
		IsHost:    true,
		Connected: true,
		JoinedAt:  now,
	}
	room := &models.Room{
		ID:           r.newID(),
		Code:         code,
		HostPlayerID: player.ID,
		Players:      []*models.Player{player},
		Status:       models.StatusWaiting,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.rooms[room.ID] = room
	r.codes[code] = room.ID
	return room, *player, nil
}

// uniqueCode draws codes until an unused one is found (must be called with lock held)
func (r *Registry) uniqueCode() (string, error) {
	for range game.MaxCodeAttempts {
		code := r.newCode()
		if _, taken := r.codes[code]; !taken {
			return code, nil
		}
	}
	return "", game.ErrCodeSpaceExhausted
}

// JoinRoom adds a connected, non-host player to the room with the given code.
// Joins on one room are serialized by the room lock, so two players can never
// end up with the same nickname.
func (r *Registry) JoinRoom(code, nickname string) (*models.Room, models.Player, error) {
	code = game.NormalizeCode(code)
	if !game.ValidCode(code) {
		return nil, models.Player{}, game.ErrInvalidCode
	}

	room, ok := r.GetByCode(code)
	if !ok {
		return nil, models.Player{}, game.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return nil, models.Player{}, game.ErrRoomNotFound
	}
	if len(room.Players) >= game.MaxPlayers {
		return nil, models.Player{}, game.ErrRoomFull
	}
	cleaned := game.SanitizeNickname(nickname)
	if cleaned == "" {
		return nil, models.Player{}, game.ErrInvalidNickname
	}
	for _, p := range room.Players {
		if game.SameNickname(p.Nickname, cleaned) {
			return nil, models.Player{}, game.ErrNicknameTaken
		}
	}

	now := r.now()
	player := &models.Player{
		ID:        r.newID(),
		Nickname:  cleaned,
		Connected: true,
		JoinedAt:  now,
	}
	room.Players = append(room.Players, player)
	room.UpdatedAt = now
	return room, *player, nil
}

// GetByCode retrieves a room by its normalized join code
func (r *Registry) GetByCode(code string) (*models.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[id]
	return room, ok
}

// GetByID retrieves a room by its internal ID
func (r *Registry) GetByID(id string) (*models.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// RemoveIfEmpty deletes the room when none of its players is connected. It
// reports whether the room was removed; unknown rooms are a no-op.
func (r *Registry) RemoveIfEmpty(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}

	room.Lock()
	defer room.Unlock()
	if room.ConnectedCount() > 0 {
		return false
	}
	r.removeLocked(room)
	return true
}

// Reap deletes rooms that have not changed for ttl and returns their IDs.
// Rooms for which keep reports true are left alone; keep may be nil.
func (r *Registry) Reap(ttl time.Duration, keep func(roomID string) bool) []string {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for _, room := range r.rooms {
		room.Lock()
		if now.Sub(room.UpdatedAt) >= ttl && (keep == nil || !keep(room.ID)) {
			r.removeLocked(room)
			reaped = append(reaped, room.ID)
		}
		room.Unlock()
	}
	return reaped
}

// Len returns the number of active rooms
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// removeLocked drops the room from both indices (must be called with both locks held)
func (r *Registry) removeLocked(room *models.Room) {
	room.Close()
	delete(r.rooms, room.ID)
	delete(r.codes, room.Code)
}
