/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package diag

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StartTUI runs the dashboard on the alternate screen until the user
// quits (q, esc, or ctrl+c). interval <= 0 uses DefaultInterval.
func StartTUI(interval time.Duration) error {
	program := tea.NewProgram(NewModel(interval), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("diag: %w", err)
	}
	return nil
}
