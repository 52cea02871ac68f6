// Package theme provides the Lip Gloss color palette and reusable styles
// for the vlanwatch console. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Session state colors.
var (
	ColorIdle       = lipgloss.Color("#4b5563")
	ColorConnecting = lipgloss.Color("#7c3aed")
	ColorOpen       = lipgloss.Color("#16a34a")
	ColorClosing    = lipgloss.Color("#d97706")
	ColorClosed     = lipgloss.Color("#6b7280")
	ColorErrored    = lipgloss.Color("#dc2626")
)

// Bar colors, cycled by VLAN id so a VLAN keeps its color across frames.
var barPalette = []lipgloss.Color{
	lipgloss.Color("#3b82f6"),
	lipgloss.Color("#06b6d4"),
	lipgloss.Color("#22c55e"),
	lipgloss.Color("#a855f7"),
	lipgloss.Color("#f59e0b"),
	lipgloss.Color("#ec4899"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#4285f4"),
}

// ColorUntagged is the bar color for untagged traffic.
var ColorUntagged = lipgloss.Color("#9ca3af")

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StateColor returns the color for a session state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "connecting":
		return ColorConnecting
	case "open":
		return ColorOpen
	case "closing":
		return ColorClosing
	case "closed":
		return ColorClosed
	case "error":
		return ColorErrored
	default:
		return ColorIdle
	}
}

// VLANColor returns the bar color for a VLAN id; 0 is untagged.
func VLANColor(vlan uint16) lipgloss.Color {
	if vlan == 0 {
		return ColorUntagged
	}
	return barPalette[int(vlan)%len(barPalette)]
}

// Reusable styles.
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(lipgloss.Color("#1f2937"))

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleDanger = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDanger)

	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)
)
