package extensions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

// registry holds the symbol table emitted by the compiler for this program.
var registry struct {
	mu    sync.RWMutex
	table *symbols.Table
}

// LoadSymbols installs an encoded symbol table snapshot, replacing any
// previously loaded one. It is called from generated init code.
func LoadSymbols(data []byte) error {
	var snap symbols.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to unmarshal symbols: %w", err)
	}

	table, err := symbols.FromSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to load symbols: %w", err)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.table = table
	return nil
}

// Symbols returns the loaded symbol table, or nil before LoadSymbols.
func Symbols() *symbols.Table {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	return registry.table
}

// ActivateLoaded activates, in s, every registration of the loaded symbol
// table.
func ActivateLoaded(ctx context.Context, s *Scope) error {
	table := Symbols()
	if table == nil {
		return fmt.Errorf("no symbols loaded")
	}
	return s.Activate(ctx, table.Registrations())
}

// Reset clears the loaded symbols (used for testing).
func Reset() {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.table = nil
}
