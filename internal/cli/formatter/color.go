package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateIndicator returns a colored marker for an activity state, such as
// "● WORKING".
func StateIndicator(state domain.ActivityState) string {
	switch state {
	case domain.StateWorking:
		return StyleGreen.Render("● WORKING")
	case domain.StateIdle:
		return StyleYellow.Render("○ IDLE")
	case domain.StateOffHours:
		return StyleDim.Render("◌ OFF HOURS")
	default:
		return StyleDim.Render("● UNKNOWN")
	}
}

// ReasonLabel renders a suspicion reason in words.
func ReasonLabel(r domain.SuspicionReason) string {
	switch r {
	case domain.ReasonJitterPattern:
		return StyleRed.Render("jitter pattern")
	case domain.ReasonKeyboardSilence:
		return StyleRed.Render("keyboard silence")
	case domain.ReasonLowWindowDiversity:
		return StyleRed.Render("low window diversity")
	case domain.ReasonComposite:
		return StyleRed.Render("composite")
	default:
		return StyleDim.Render(string(r))
	}
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len([]rune(upper)))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
