// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/coursedeck/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast (cyan)
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast (rose)
	ToastKindError
	// ToastKindWarning is a warning toast (amber)
	ToastKindWarning
	// ToastKindSuccess is a success toast (emerald)
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

// Toast is a non-blocking notification that dismisses itself.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the toast should be dropped at now.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager keeps the visible toasts, newest first.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
	now       func() time.Time
}

// NewToastManager creates a manager showing at most three toasts.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, maxToasts: 3, now: time.Now}
}

func (m *ToastManager) add(kind ToastKind, message string, d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Toast{ID: m.nextID, Message: message, Kind: kind, CreatedAt: m.now(), Duration: d}
	m.nextID++
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return t.ID
}

// AddError adds an error toast.
func (m *ToastManager) AddError(message string) int {
	return m.add(ToastKindError, message, ErrorToastDuration)
}

// AddWarning adds a warning toast.
func (m *ToastManager) AddWarning(message string) int {
	return m.add(ToastKindWarning, message, ErrorToastDuration)
}

// AddStatus adds a status toast.
func (m *ToastManager) AddStatus(message string) int {
	return m.add(ToastKindStatus, message, DefaultToastDuration)
}

// AddSuccess adds a success toast.
func (m *ToastManager) AddSuccess(message string) int {
	return m.add(ToastKindSuccess, message, DefaultToastDuration)
}

// Tick drops expired toasts and returns the rest.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the visible toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders one toast no wider than width.
func RenderToast(t Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 24 {
		maxWidth = 24
	}

	var color lipgloss.AdaptiveColor
	var icon string
	switch t.Kind {
	case ToastKindError:
		color, icon = styles.Rose, styles.StatusIndicators.Error
	case ToastKindWarning:
		color, icon = styles.Amber, styles.StatusIndicators.Warning
	case ToastKindSuccess:
		color, icon = styles.Emerald, styles.StatusIndicators.Success
	default:
		color, icon = styles.Cyan, styles.StatusIndicators.Info
	}

	content := fmt.Sprintf("%s %s",
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon),
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(t.Message))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderToastStack stacks toasts right-aligned.
func RenderToastStack(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(t, width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}
