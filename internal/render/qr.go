// Package render produces the non-JSON artifacts served to clients.
package render

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of join QR codes
const QRSize = 320

// JoinURL builds the link players open to join the room with the given code
func JoinURL(publicURL, code string) string {
	return strings.TrimRight(publicURL, "/") + "/join/" + code
}

// JoinQR renders the room's join link as a PNG QR code
func JoinQR(publicURL, code string) ([]byte, error) {
	return qrcode.Encode(JoinURL(publicURL, code), qrcode.Medium, QRSize)
}
