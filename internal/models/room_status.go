package models

// RoomStatus represents the lifecycle stage of a room
type RoomStatus string

const (
	StatusWaiting    RoomStatus = "waiting"
	StatusInProgress RoomStatus = "in_progress"
)
