/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package diag

import "github.com/charmbracelet/lipgloss"

var (
	criticalColor = lipgloss.Color("#CC3333")
	warningColor  = lipgloss.Color("#FF8800")
	goodColor     = lipgloss.Color("#228B22")
	infoColor     = lipgloss.Color("#4682B4")
	mutedColor    = lipgloss.Color("#888888")
	borderColor   = lipgloss.Color("#666666")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(infoColor).
			Bold(true).
			Padding(0, 1)

	sectionTitleStyle = lipgloss.NewStyle().
				Foreground(infoColor).
				Bold(true)

	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	criticalStyle = lipgloss.NewStyle().Foreground(criticalColor).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	goodStyle     = lipgloss.NewStyle().Foreground(goodColor).Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
)

// heapPressureStyle picks a color the same way jdiag's GC tab grades
// pressure: a ratio below 0.6 is fine, from 0.6 up to 0.85 is a warning,
// 0.85 and above is critical.
func heapPressureStyle(used, max int64) lipgloss.Style {
	if max <= 0 {
		return mutedStyle
	}
	ratio := float64(used) / float64(max)
	switch {
	case ratio >= 0.85:
		return criticalStyle
	case ratio >= 0.6:
		return warningStyle
	default:
		return goodStyle
	}
}
