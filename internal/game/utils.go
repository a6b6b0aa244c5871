package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// GenerateRoomCode creates a random room code
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range RoomCodeLength {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = RoomCodeChars[rand.IntN(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// NormalizeCode uppercases a user-typed room code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is a well-formed, normalized room code
func ValidCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(RoomCodeChars, code[i]) < 0 {
			return false
		}
	}
	return true
}

var nicknameStripper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(NicknameStripChars))
	for _, c := range NicknameStripChars {
		pairs = append(pairs, string(c), "")
	}
	return strings.NewReplacer(pairs...)
}()

// SanitizeNickname normalizes a display name: markup characters are stripped,
// whitespace is trimmed and collapsed, and the result is capped at
// MaxNicknameLength runes. Applying it twice gives the same result.
func SanitizeNickname(raw string) string {
	s := norm.NFC.String(raw)
	s = nicknameStripper.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > MaxNicknameLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxNicknameLength]))
	}
	return s
}

// SameNickname compares two sanitized nicknames ignoring case
func SameNickname(a, b string) bool {
	// a Caser is stateful, so each call gets its own
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
