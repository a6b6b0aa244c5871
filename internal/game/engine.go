package game

import (
	"math/rand/v2"
	"time"

	"github.com/aaronzipp/famous-spy/internal/models"
)

// RoomFinder resolves active rooms by join code
type RoomFinder interface {
	GetByCode(code string) (*models.Room, bool)
}

// IdentityDrawer returns a catalog entry whose ID is not in exclude, or any
// entry once every ID is excluded
type IdentityDrawer interface {
	Draw(exclude map[string]struct{}) models.Famous
}

// RoundSummary describes the round produced by AdvanceRound
type RoundSummary struct {
	RoomID      string
	Code        string
	Round       int
	FamousID    string
	SpyPlayerID string
}

// Engine advances rounds. Each room's lock serializes concurrent advances on
// that room, so every call produces exactly one round.
type Engine struct {
	rooms  RoomFinder
	famous IdentityDrawer
	intn   func(int) int
	now    func() time.Time
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithRandom sets the uniform [0, n) source used for spy selection
func WithRandom(intn func(int) int) EngineOption {
	return func(e *Engine) { e.intn = intn }
}

// WithClock sets the time source for round timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a round engine
func NewEngine(rooms RoomFinder, famous IdentityDrawer, opts ...EngineOption) *Engine {
	e := &Engine{
		rooms:  rooms,
		famous: famous,
		intn:   rand.IntN,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AdvanceRound starts the next round of the room with the given code. Only the
// current host may call it, and the room needs at least MinPlayers players,
// connected or not. Disconnected players stay eligible as spy.
func (e *Engine) AdvanceRound(requestingPlayerID, code string) (RoundSummary, error) {
	room, ok := e.rooms.GetByCode(NormalizeCode(code))
	if !ok {
		return RoundSummary{}, ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return RoundSummary{}, ErrRoomNotFound
	}
	if room.HostPlayerID != requestingPlayerID {
		return RoundSummary{}, ErrNotHost
	}
	if len(room.Players) < MinPlayers {
		return RoundSummary{}, ErrNotEnoughPlayers
	}

	spy := room.Players[e.intn(len(room.Players))]

	used := make(map[string]struct{}, len(room.RoundHistory))
	for _, r := range room.RoundHistory {
		used[r.FamousID] = struct{}{}
	}
	famous := e.famous.Draw(used)

	now := e.now()
	room.CurrentRound++
	room.CurrentSpyPlayerID = spy.ID
	room.CurrentFamous = &famous
	room.Status = models.StatusInProgress
	room.UpdatedAt = now
	room.RoundHistory = append(room.RoundHistory, models.RoundRecord{
		Round:       room.CurrentRound,
		FamousID:    famous.ID,
		SpyPlayerID: spy.ID,
		StartedAt:   now,
	})

	return RoundSummary{
		RoomID:      room.ID,
		Code:        room.Code,
		Round:       room.CurrentRound,
		FamousID:    famous.ID,
		SpyPlayerID: spy.ID,
	}, nil
}
