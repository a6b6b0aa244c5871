package game

const (
	// MinPlayers is the minimum number of players required to start a round
	MinPlayers = 3

	// MaxPlayers is the room capacity
	MaxPlayers = 20

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes (excluding 0, 1, I, O and L)
	RoomCodeChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	// MaxCodeAttempts bounds how many codes are drawn before room creation gives up
	MaxCodeAttempts = 20

	// MaxNicknameLength is the nickname cap in runes
	MaxNicknameLength = 24

	// NicknameStripChars are removed from nicknames
	NicknameStripChars = `<>$\{}`
)
