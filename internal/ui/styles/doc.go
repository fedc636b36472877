// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the coursedeck TUI.

All colors are Lip Gloss AdaptiveColor values, so the palette follows the
terminal background unless a theme name forces dark or light.

# Colors (colors.go)

  - Purple - titles and the selected row
  - Cyan - keys, table headers, the active tab
  - Emerald - success and the augmented marker
  - Amber - in-flight work and relevance stars
  - Rose - errors and the match label of an unmatched subtopic
  - LinkColor - links and the match label of a matched subtopic

Status text always carries an ASCII indicator ([OK], [X], [!], [i]) next to
the color.

# Theme (theme.go)

Theme groups the lipgloss styles used by the table, modals and status bar:

	theme := styles.NewNamedTheme(cfg.UI.Theme)
	header := theme.HeaderTitle.Render(doc.MainTopic)

# Animations (animations.go)

Spinner configs convert to bubbles spinners with Bubbles(). RenderProgressBar
draws the bulk refresh progress.
*/
package styles
