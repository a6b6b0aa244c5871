// Package session binds live connections to (room, player) identities and
// fans room notifications out to them.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/aaronzipp/famous-spy/internal/models"
	"github.com/rs/zerolog"
)

// Conn is one live persistent connection. Send must not block for long: a
// transport that cannot deliver in time drops the message and returns an error.
type Conn interface {
	ID() string
	Send(event string, data any) error
	Close()
}

// Verifier decodes identity tokens
type Verifier interface {
	Verify(token string) (auth.Claims, error)
}

// Rooms is the part of the room registry the tracker needs
type Rooms interface {
	GetByID(id string) (*models.Room, bool)
	RemoveIfEmpty(roomID string) bool
	Reap(ttl time.Duration, keep func(roomID string) bool) []string
}

type binding struct {
	conn     Conn
	roomID   string
	playerID string
}

// Tracker owns the session mappings. Presence changes (connect, disconnect,
// eviction) are serialized by mu so a player's connected flag always matches
// whether it has at least one live connection.
//
// Lock order is tracker, then registry, then room. Sends happen after mu is
// released.
type Tracker struct {
	rooms  Rooms
	tokens Verifier
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*binding            // conn ID -> binding
	byPlayer map[string]map[string]Conn     // player ID -> conn ID -> conn
	byRoom   map[string]map[string]*binding // room ID -> conn ID -> binding
}

// Option customizes a Tracker
type Option func(*Tracker)

// WithClock sets the time source used for presence timestamps
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker with no sessions
func NewTracker(rooms Rooms, tokens Verifier, log zerolog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		rooms:    rooms,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*binding),
		byPlayer: make(map[string]map[string]Conn),
		byRoom:   make(map[string]map[string]*binding),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnConnect authenticates a new connection and registers it. On any failure
// the connection gets one generic error event and is closed; the returned
// error carries the reason for logging only.
func (t *Tracker) OnConnect(conn Conn, token string) error {
	room, claims, err := t.authenticate(conn, token)
	if err != nil {
		t.log.Debug().Err(err).Str("conn", conn.ID()).Msg("rejecting connection")
		t.send(conn, EventError, ErrorPayload{Message: AuthFailedMessage})
		conn.Close()
		return fmt.Errorf("%w: %w", game.ErrUnauthenticated, err)
	}

	t.log.Info().
		Str("conn", conn.ID()).
		Str("room", room.Code).
		Str("player", claims.PlayerID).
		Msg("session connected")

	t.send(conn, EventRoomState, game.SerializeForPlayer(room, claims.PlayerID))
	t.broadcastRoster(room)
	return nil
}

func (t *Tracker) authenticate(conn Conn, token string) (*models.Room, auth.Claims, error) {
	claims, err := t.tokens.Verify(token)
	if err != nil {
		return nil, auth.Claims{}, err
	}

	room, ok := t.rooms.GetByID(claims.RoomID)
	if !ok {
		return nil, auth.Claims{}, game.ErrRoomNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !game.MarkConnected(room, claims.PlayerID, t.now()) {
		return nil, auth.Claims{}, fmt.Errorf("player %s not in room %s", claims.PlayerID, claims.RoomID)
	}
	t.bindLocked(&binding{conn: conn, roomID: room.ID, playerID: claims.PlayerID})
	return room, claims, nil
}

// OnDisconnect drops the connection's session. The player goes offline only
// when this was its last connection; host failover and room collection follow.
// Unknown connections are a no-op.
func (t *Tracker) OnDisconnect(connID string) {
	t.mu.Lock()
	b, ok := t.sessions[connID]
	if !ok {
		t.mu.Unlock()
		return
	}
	t.unbindLocked(b)
	if len(t.byPlayer[b.playerID]) > 0 {
		t.mu.Unlock()
		return
	}

	room, ok := t.rooms.GetByID(b.roomID)
	if !ok {
		t.mu.Unlock()
		return
	}
	newHost, transferred := game.MarkDisconnected(room, b.playerID, t.now())
	removed := t.rooms.RemoveIfEmpty(b.roomID)
	t.mu.Unlock()

	l := t.log.With().Str("room", room.Code).Str("player", b.playerID).Logger()
	l.Info().Str("conn", connID).Msg("session disconnected")
	if transferred {
		l.Info().Str("host", newHost).Msg("host transferred")
	}
	if removed {
		l.Info().Msg("room removed")
		return
	}
	t.broadcastRoster(room)
}

// OnRequestState re-sends the connection's own snapshot
func (t *Tracker) OnRequestState(connID string) {
	b, room, ok := t.lookup(connID)
	if !ok {
		return
	}
	t.send(b.conn, EventRoomState, game.SerializeForPlayer(room, b.playerID))
}

// OnAnnounceRound pushes the current round of the connection's room to
// everyone in it
func (t *Tracker) OnAnnounceRound(connID string) {
	b, _, ok := t.lookup(connID)
	if !ok {
		return
	}
	t.AnnounceRound(b.roomID)
}

// AnnounceRound sends each player of the room, on every connection it has,
// its personalised round snapshot, then the public roster once.
func (t *Tracker) AnnounceRound(roomID string) {
	room, ok := t.rooms.GetByID(roomID)
	if !ok {
		return
	}

	roster := game.PublicRoster(room)
	for _, p := range roster {
		conns := t.playerConns(p.ID)
		if len(conns) == 0 {
			continue
		}
		state := game.SerializeForPlayer(room, p.ID)
		for _, c := range conns {
			t.send(c, EventRoundStarted, state)
		}
	}
	t.Broadcast(roomID, EventPlayersUpdate, roster)
}

// Broadcast sends the same payload to every connection of the room
func (t *Tracker) Broadcast(roomID, event string, data any) {
	t.mu.RLock()
	conns := make([]Conn, 0, len(t.byRoom[roomID]))
	for _, b := range t.byRoom[roomID] {
		conns = append(conns, b.conn)
	}
	t.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if t.send(c, event, data) {
			sent++
		}
	}
	t.log.Debug().Str("event", event).Int("sent", sent).Int("conns", len(conns)).Msg("broadcast")
}

// ReapIdle removes rooms idle for ttl that have no live session. Players who
// joined but never opened a connection still count as connected, so this is
// how their rooms are collected.
func (t *Tracker) ReapIdle(ttl time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rooms.Reap(ttl, func(roomID string) bool {
		return len(t.byRoom[roomID]) > 0
	})
}

// Connections returns the number of live sessions in a room
func (t *Tracker) Connections(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byRoom[roomID])
}

func (t *Tracker) broadcastRoster(room *models.Room) {
	t.Broadcast(room.ID, EventPlayersUpdate, game.PublicRoster(room))
}

func (t *Tracker) send(c Conn, event string, data any) bool {
	if err := c.Send(event, data); err != nil {
		t.log.Debug().Err(err).Str("conn", c.ID()).Str("event", event).Msg("dropped message")
		return false
	}
	return true
}

func (t *Tracker) lookup(connID string) (*binding, *models.Room, bool) {
	t.mu.RLock()
	b, ok := t.sessions[connID]
	t.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}
	room, ok := t.rooms.GetByID(b.roomID)
	return b, room, ok
}

func (t *Tracker) playerConns(playerID string) []Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conns := make([]Conn, 0, len(t.byPlayer[playerID]))
	for _, c := range t.byPlayer[playerID] {
		conns = append(conns, c)
	}
	return conns
}

// bindLocked records a session (must be called with lock held)
func (t *Tracker) bindLocked(b *binding) {
	id := b.conn.ID()
	t.sessions[id] = b
	if t.byPlayer[b.playerID] == nil {
		t.byPlayer[b.playerID] = make(map[string]Conn)
	}
	t.byPlayer[b.playerID][id] = b.conn
	if t.byRoom[b.roomID] == nil {
		t.byRoom[b.roomID] = make(map[string]*binding)
	}
	t.byRoom[b.roomID][id] = b
}

// unbindLocked removes a session from every index (must be called with lock held)
func (t *Tracker) unbindLocked(b *binding) {
	id := b.conn.ID()
	delete(t.sessions, id)
	if conns := t.byPlayer[b.playerID]; conns != nil {
		delete(conns, id)
		if len(conns) == 0 {
			delete(t.byPlayer, b.playerID)
		}
	}
	if conns := t.byRoom[b.roomID]; conns != nil {
		delete(conns, id)
		if len(conns) == 0 {
			delete(t.byRoom, b.roomID)
		}
	}
}
