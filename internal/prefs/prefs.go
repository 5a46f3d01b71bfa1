// Package prefs persists UI preferences next to the expense data.
package prefs

import (
	"context"
	"fmt"

	"expenses/internal/core"
	"expenses/internal/kv"
)

// Theme loads the stored theme. Anything other than "true" under
// kv.KeyDarkMode means light.
func Theme(ctx context.Context, store kv.Store) (core.Theme, error) {
	v, _, err := store.Get(ctx, kv.KeyDarkMode)
	if err != nil {
		return core.ThemeLight, fmt.Errorf("load theme: %w", err)
	}
	if v == "true" {
		return core.ThemeDark, nil
	}
	return core.ThemeLight, nil
}

// SetTheme stores t.
func SetTheme(ctx context.Context, store kv.Store, t core.Theme) error {
	v := "false"
	if t == core.ThemeDark {
		v = "true"
	}
	if err := store.Set(ctx, kv.KeyDarkMode, v); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// ToggleTheme flips the stored theme and returns the new one.
func ToggleTheme(ctx context.Context, store kv.Store) (core.Theme, error) {
	current, err := Theme(ctx, store)
	if err != nil {
		return current, err
	}
	next := core.ThemeDark
	if current == core.ThemeDark {
		next = core.ThemeLight
	}
	if err := SetTheme(ctx, store, next); err != nil {
		return current, err
	}
	return next, nil
}
