// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds the small reusable pieces of the coursedeck TUI:
// the status bar, self-dismissing toasts and the fuzzy filter used by the
// subtopic search and the TOC picker.
package components
