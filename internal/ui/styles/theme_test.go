// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNamedTheme(t *testing.T) {
	dark := NewNamedTheme("dark")
	if !dark.IsDark || dark.GlamourStyle() != "dark" {
		t.Errorf("dark theme: IsDark=%v glamour=%q", dark.IsDark, dark.GlamourStyle())
	}
	light := NewNamedTheme("LIGHT")
	if light.IsDark || light.GlamourStyle() != "light" {
		t.Errorf("light theme: IsDark=%v glamour=%q", light.IsDark, light.GlamourStyle())
	}
	if NewTheme() == nil {
		t.Fatal("NewTheme() returned nil")
	}
}

func TestThemeStylesRender(t *testing.T) {
	th := NewNamedTheme("dark")
	for name, out := range map[string]string{
		"HeaderTitle":   th.HeaderTitle.Render("Renal"),
		"TableSelected": th.TableSelected.Render("row"),
		"TabActive":     th.TabActive.Render("Books"),
		"StatusError":   th.StatusError.Render("Error loading data"),
	} {
		if out == "" {
			t.Errorf("%s rendered empty", name)
		}
	}
}

func TestThemeGetLayoutMode(t *testing.T) {
	th := NewNamedTheme("dark")
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		th.SetSize(tt.width, 30)
		if got := th.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
	if th.Height != 30 {
		t.Errorf("Height = %d, want 30", th.Height)
	}
}
