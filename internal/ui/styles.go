package ui

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA unless configured): paths, headings
// - Muted (gray): Secondary info, line numbers
// - No colored success/error/warning - use unicode symbols only

const defaultAccent = "#A78BFA"

var (
	// Accent style for file paths and highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info, hints, line numbers
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)

	// accentColor is the user-configured accent, empty when unset or disabled.
	accentColor string

	colorDisabled bool
)

var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ConfigureTheme applies the [ui] accent setting. "none", "off" and
// "default" keep the built-in palette for styles and plain headings in
// rendered markdown.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	if !ok {
		accentColor = ""
		Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))
		AccentBold = Accent.Bold(true)
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = Accent.Bold(true)
}

// AccentColor returns the configured accent color, if any.
func AccentColor() (string, bool) {
	if colorDisabled || accentColor == "" {
		return "", false
	}
	return accentColor, true
}

// DisableColor strips every color from the shared styles (--no-color).
func DisableColor() {
	colorDisabled = true
	Accent = lipgloss.NewStyle()
	AccentBold = lipgloss.NewStyle().Bold(true)
	Muted = lipgloss.NewStyle()
}

// ColorDisabled reports whether DisableColor was called.
func ColorDisabled() bool {
	return colorDisabled
}

func normalizeAccentColor(value string) (string, bool) {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "", "none", "off", "default":
		return "", false
	}

	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 255 {
			return "", false
		}
		return strconv.Itoa(n), true
	}

	if !hexColorRegex.MatchString(v) {
		return "", false
	}
	v = strings.ToLower(v)
	if len(v) == 4 {
		return "#" + strings.Repeat(v[1:2], 2) + strings.Repeat(v[2:3], 2) + strings.Repeat(v[3:4], 2), true
	}
	return v, true
}
