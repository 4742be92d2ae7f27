package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "classfinder/internal/core/errors"
)

const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for report headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for counts and secondary detail.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// NameStyle is for module names heading a group of locations.
	NameStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// formatError renders err for the terminal. Verbose mode appends the
// domain error code and context.
func formatError(err error, verbose bool) string {
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		return err.Error()
	}
	msg := de.Message
	if de.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, de.Err)
	}
	if !verbose {
		return msg
	}
	keys := make([]string, 0, len(de.Context))
	for k := range de.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, de.Context[k]))
	}
	detail := string(de.Code)
	if len(parts) > 0 {
		detail += " " + strings.Join(parts, " ")
	}
	return msg + "\n" + SubtitleStyle.Render(detail)
}
