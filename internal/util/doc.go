// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across coursedeck.
//
// # Key Functions
//
// Text:
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - PadWidth: right-pad to a display width
//   - FirstWords: leading words of a passage
//   - StripBullets: remove leading "- " markers from each line
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	cell := util.PadWidth(util.TruncateWidth(name, 40), 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
