package session

// Server to client events
const (
	EventRoomState     = "room_state"
	EventPlayersUpdate = "players_update"
	EventRoundStarted  = "round_started"
	EventError         = "error"
)

// Client to server events
const (
	EventRequestState  = "request_state"
	EventAnnounceRound = "announce_round"
)

// AuthFailedMessage is the only detail a rejected connection ever gets
const AuthFailedMessage = "authentication failed"

// Frame is the envelope of every message on the persistent channel
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ErrorPayload is the data of an error event
type ErrorPayload struct {
	Message string `json:"message"`
}
