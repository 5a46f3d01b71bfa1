package kv

import "context"

// Keys used by the application.
const (
	KeyExpenses = "expenses"
	KeyDarkMode = "darkMode"
)

// Store is a string keyed, string valued persistence port.
// Writes are last-writer-wins.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
