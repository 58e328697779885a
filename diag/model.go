/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package diag

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultInterval is how often the dashboard repolls when the caller
// doesn't specify one, matching the cadence jdiag's own tick-driven
// model uses for a local (non-remote) target.
const DefaultInterval = time.Second

type tickMsg time.Time

// Model is the dashboard's bubbletea model: one poll of VM state, redrawn
// on every tick. There are no tabs and no process picker -- this
// dashboard always watches the process it's compiled into, so the
// multi-target / JMX-discovery machinery jdiag needs has nothing to do
// here.
type Model struct {
	interval time.Duration
	width    int
	height   int
	snap     Snapshot
	started  time.Time
}

// NewModel builds the dashboard's initial model. interval <= 0 uses
// DefaultInterval.
func NewModel(interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Model{interval: interval, snap: Poll(), started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.snap = Poll()
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	header := headerStyle.Width(max(m.width-2, 0)).
		Render(fmt.Sprintf("jacobin diag -- %s (v%s)", titleOrDefault(m.snap.MainClass), m.snap.Version))

	sections := []string{
		header,
		boxStyle.Render(renderHeapSection(m.snap)),
		boxStyle.Render(renderGCSection(m.snap)),
		boxStyle.Render(renderThreadsSection(m.snap)),
		mutedStyle.Render(fmt.Sprintf("polled %s ago -- q to quit", time.Since(m.snap.PolledAt).Round(time.Millisecond))),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func titleOrDefault(class string) string {
	if class == "" {
		return "(no main class)"
	}
	return class
}

func renderHeapSection(s Snapshot) string {
	title := sectionTitleStyle.Render("Heap")
	if !s.HeapReady {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("not yet allocated"))
	}
	usedMB := float64(s.HeapUsed) / (1024 * 1024)
	sizeMB := float64(s.HeapSize) / (1024 * 1024)
	maxMB := float64(s.HeapMax) / (1024 * 1024)
	style := heapPressureStyle(s.HeapUsed, s.HeapMax)
	line := style.Render(fmt.Sprintf("%.1f MB used / %.1f MB committed / %.1f MB max", usedMB, sizeMB, maxMB))
	return lipgloss.JoinVertical(lipgloss.Left, title, line, renderBar(s.HeapUsed, s.HeapMax, 40))
}

func renderBar(used, max int64, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	filled := int(float64(width) * float64(used) / float64(max))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
	return heapPressureStyle(used, max).Render("[" + bar + "]")
}

func renderGCSection(s Snapshot) string {
	title := sectionTitleStyle.Render("Collector")
	if !s.GCReady {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("not yet created"))
	}
	cycles := fmt.Sprintf("cycles: %d (compact: %d)", s.GC.Cycles, s.GC.CompactCycles)
	pause := fmt.Sprintf("last pause: %s, total: %s", s.GC.LastPause.Round(time.Microsecond), s.GC.TotalPause.Round(time.Microsecond))
	last := "last collection: never"
	if !s.GC.LastCollectedAt.IsZero() {
		last = fmt.Sprintf("last collection: %s ago", time.Since(s.GC.LastCollectedAt).Round(time.Second))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, cycles, pause, mutedStyle.Render(last))
}

func renderThreadsSection(s Snapshot) string {
	title := sectionTitleStyle.Render(fmt.Sprintf("Threads (%d)", len(s.Threads)))
	if len(s.Threads) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("none running"))
	}

	threads := append([]ThreadSnapshot(nil), s.Threads...)
	sort.Slice(threads, func(i, j int) bool { return threads[i].ID < threads[j].ID })

	lines := []string{title}
	for _, t := range threads {
		statusStyle := goodStyle
		switch t.Status {
		case 2, 3, 4: // Blocked, Waiting, TimedWaiting
			statusStyle = warningStyle
		case 5: // Terminated
			statusStyle = mutedStyle
		}
		lines = append(lines, fmt.Sprintf("#%-3d %-12s %-14s depth=%d",
			t.ID, t.Name, statusStyle.Render(StatusName(t.Status)), t.FrameDepth))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
