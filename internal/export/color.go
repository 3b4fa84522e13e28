package export

import (
	"strconv"
	"strings"
)

// rgb is an 8-bit colour used for PDF fills.
type rgb struct {
	R, G, B int
}

// fallbackColors mirrors the import palette, used when a piece colour is unreadable.
var fallbackColors = []rgb{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// parseHexColor parses "#rgb" or "#rrggbb". The leading '#' is optional.
func parseHexColor(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

// pieceColor resolves a piece's fill, falling back to the palette slot for index i.
func pieceColor(hex string, i int) rgb {
	if c, ok := parseHexColor(hex); ok {
		return c
	}
	return fallbackColors[i%len(fallbackColors)]
}

// textColor returns black or white, whichever reads better on the fill.
func textColor(fill rgb) rgb {
	luminance := (0.299*float64(fill.R) + 0.587*float64(fill.G) + 0.114*float64(fill.B)) / 255
	if luminance > 0.5 {
		return rgb{}
	}
	return rgb{R: 255, G: 255, B: 255}
}
