package color_engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"previz_studio/entities"
)

type GelPreset struct {
	Name string
	Hex  string
}

var GelPresets = []GelPreset{
	{Name: "Neutral", Hex: "#ffffff"},
	{Name: "Red", Hex: "#ef4444"},
	{Name: "Blue", Hex: "#3b82f6"},
	{Name: "Green", Hex: "#22c55e"},
	{Name: "Orange", Hex: "#f97316"},
	{Name: "Purple", Hex: "#a855f7"},
	{Name: "Teal", Hex: "#14b8a6"},
	{Name: "Magenta", Hex: "#d946ef"},
}

const CustomGelName = "Custom Color"

var ErrInvalidHex = errors.New("invalid hex color")

// GelName returns the preset name for a gel hex, or "Custom Color".
func GelName(hex string) string {
	for _, g := range GelPresets {
		if strings.EqualFold(g.Hex, hex) {
			return g.Name
		}
	}

	return CustomGelName
}

// GelHexByName looks a preset up by name, case-insensitively.
func GelHexByName(name string) (string, bool) {
	for _, g := range GelPresets {
		if strings.EqualFold(g.Name, name) {
			return g.Hex, true
		}
	}

	return "", false
}

// ParseHex parses "#rgb" or "#rrggbb" into normalized RGB.
func ParseHex(hex string) (entities.RGB, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")

	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}

	if len(s) != 6 {
		return entities.RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return entities.RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}

	return entities.RGB{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// ToHex formats a color as "#rrggbb", rounding each channel.
func ToHex(c entities.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// TemperatureDescription buckets a temperature into the wording used in prompts.
func TemperatureDescription(kelvin int) string {
	switch {
	case kelvin < 3000:
		return "Warm Candlelight"
	case kelvin < 4500:
		return "Warm White"
	case kelvin < 6000:
		return "Neutral Daylight"
	default:
		return "Cool Blue"
	}
}
