package color

import (
	"regexp"
	"strconv"
	"strings"
)

// NeutralGray is the fallback block color for unmapped session types.
const NeutralGray = "#999999"

var hexPattern = regexp.MustCompile(`^#?([0-9A-Fa-f]{3}){1,2}$`)

var rgbPattern = regexp.MustCompile(`rgba?\(([^)]+)\)`)

// colorNames maps common CSS color names to hex, for sheets that fill the
// color column with names instead of hex codes.
var colorNames = map[string]string{
	"red":        "#ff0000",
	"green":      "#008000",
	"blue":       "#0000ff",
	"yellow":     "#ffff00",
	"black":      "#000000",
	"white":      "#ffffff",
	"pink":       "#ffc0cb",
	"purple":     "#800080",
	"orange":     "#ffa500",
	"brown":      "#a52a2a",
	"gray":       "#808080",
	"silver":     "#c0c0c0",
	"gold":       "#ffd700",
	"cyan":       "#00ffff",
	"magenta":    "#ff00ff",
	"lime":       "#00ff00",
	"teal":       "#008080",
	"navy":       "#000080",
	"indigo":     "#4b0082",
	"violet":     "#ee82ee",
	"turquoise":  "#40e0d0",
	"coral":      "#ff7f50",
	"salmon":     "#fa8072",
	"orchid":     "#da70d6",
	"khaki":      "#f0e68c",
	"plum":       "#dda0dd",
	"darkgreen":  "#006400",
	"lightgreen": "#90ee90",
	"darkblue":   "#00008b",
	"lightblue":  "#add8e6",
	"seashell":   "#fff5ee",
	"mintcream":  "#f5fffa",
	"peachpuff":  "#ffdab9",
}

// IsHex reports whether value is a 3- or 6-digit hex color, with or without
// a leading '#'.
func IsHex(value string) bool {
	return hexPattern.MatchString(value)
}

// Normalize resolves value to a '#'-prefixed hex code. Color names are
// looked up in the name table; unrecognized values return "".
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	if IsHex(value) {
		if strings.HasPrefix(value, "#") {
			return value
		}
		return "#" + value
	}
	return colorNames[strings.ToLower(value)]
}

// ContrastForeground picks "black" or "white" text for the given background
// color based on relative luminance. Unsupported formats fall back to black.
func ContrastForeground(bg string) string {
	r, g, b, ok := parseRGB(bg)
	if !ok {
		return "black"
	}

	luminance := 0.2126*float64(r)/255 + 0.7152*float64(g)/255 + 0.0722*float64(b)/255
	if luminance > 0.7 {
		return "black"
	}
	return "white"
}

func parseRGB(color string) (r, g, b int, ok bool) {
	color = strings.TrimSpace(color)

	if strings.HasPrefix(color, "#") {
		hex := color[1:]
		// Expand shorthand, e.g. #abc -> #aabbcc.
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return 0, 0, 0, false
		}
		rv, err1 := strconv.ParseInt(hex[0:2], 16, 0)
		gv, err2 := strconv.ParseInt(hex[2:4], 16, 0)
		bv, err3 := strconv.ParseInt(hex[4:6], 16, 0)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, 0, 0, false
		}
		return int(rv), int(gv), int(bv), true
	}

	if strings.HasPrefix(color, "rgb") {
		m := rgbPattern.FindStringSubmatch(color)
		if m == nil {
			return 0, 0, 0, false
		}
		parts := strings.Split(m[1], ",")
		if len(parts) < 3 {
			return 0, 0, 0, false
		}
		vals := make([]int, 3)
		for i := 0; i < 3; i++ {
			f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			if err != nil {
				return 0, 0, 0, false
			}
			vals[i] = int(f)
		}
		return vals[0], vals[1], vals[2], true
	}

	return 0, 0, 0, false
}
