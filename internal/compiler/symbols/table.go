package symbols

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ConflictError reports a second declaration under a key already taken.
type ConflictError struct {
	// Kind is "type", "function", "script" or "module".
	Kind string
	Name string
	// Existing is the host name of the declaration that owns the key.
	Existing string
	// Rejected is the host name of the declaration that was not inserted.
	Rejected string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q declared by %s conflicts with %s", e.Kind, e.Name, e.Rejected, e.Existing)
}

// key folds a source name: class and function names are case-insensitive.
func key(name string) string {
	return strings.ToLower(name)
}

// Table is the shared symbol table. Inserts are once-per-key: a second
// declaration under an existing key is rejected with a *ConflictError and
// never replaces the first. All methods are safe for concurrent use.
// Lookups return copies so callers cannot mutate shared entries.
type Table struct {
	mu sync.RWMutex

	types     map[string]*TypeSymbol
	functions map[string]*FunctionSymbol
	scripts   map[string]*ScriptSymbol
	modules   map[string]*ModuleSymbol
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		types:     make(map[string]*TypeSymbol),
		functions: make(map[string]*FunctionSymbol),
		scripts:   make(map[string]*ScriptSymbol),
		modules:   make(map[string]*ModuleSymbol),
	}
}

// AddType inserts a type under its exposed name.
func (t *Table) AddType(sym TypeSymbol) error {
	k := key(sym.Name)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.types[k]; ok {
		return &ConflictError{Kind: "type", Name: sym.Name, Existing: prev.Module + "::" + prev.HostName, Rejected: sym.Module + "::" + sym.HostName}
	}
	c := sym.Clone()
	t.types[k] = &c
	return nil
}

// AddFunction inserts a global function under its exposed name.
func (t *Table) AddFunction(sym FunctionSymbol) error {
	k := key(sym.Name)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.functions[k]; ok {
		return &ConflictError{Kind: "function", Name: sym.Name, Existing: prev.Module + "::" + prev.HostName, Rejected: sym.Module + "::" + sym.HostName}
	}
	c := sym.Clone()
	t.functions[k] = &c
	return nil
}

// AddScript inserts a script under its relative path. Paths are case-sensitive.
func (t *Table) AddScript(sym ScriptSymbol) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.scripts[sym.Path]; ok {
		return &ConflictError{Kind: "script", Name: sym.Path, Existing: prev.Module + "::" + prev.HostName, Rejected: sym.Module + "::" + sym.HostName}
	}
	c := sym
	t.scripts[sym.Path] = &c
	return nil
}

// AddModule inserts a module summary under its name.
func (t *Table) AddModule(sym ModuleSymbol) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.modules[sym.Name]; ok {
		return &ConflictError{Kind: "module", Name: sym.Name, Existing: sym.Name, Rejected: sym.Name}
	}
	c := sym.Clone()
	t.modules[sym.Name] = &c
	return nil
}

// Type looks up a type by exposed name, case-insensitively.
func (t *Table) Type(name string) (TypeSymbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if sym, ok := t.types[key(name)]; ok {
		return sym.Clone(), true
	}
	return TypeSymbol{}, false
}

// Function looks up a function by exposed name, case-insensitively.
func (t *Table) Function(name string) (FunctionSymbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if sym, ok := t.functions[key(name)]; ok {
		return sym.Clone(), true
	}
	return FunctionSymbol{}, false
}

// Script looks up a script by relative path.
func (t *Table) Script(path string) (ScriptSymbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if sym, ok := t.scripts[path]; ok {
		return *sym, true
	}
	return ScriptSymbol{}, false
}

// Module looks up a module summary by name.
func (t *Table) Module(name string) (ModuleSymbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if sym, ok := t.modules[name]; ok {
		return sym.Clone(), true
	}
	return ModuleSymbol{}, false
}

// Types returns all types sorted by exposed name.
func (t *Table) Types() []TypeSymbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TypeSymbol, 0, len(t.types))
	for _, sym := range t.types {
		out = append(out, sym.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Functions returns all functions sorted by exposed name.
func (t *Table) Functions() []FunctionSymbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]FunctionSymbol, 0, len(t.functions))
	for _, sym := range t.functions {
		out = append(out, sym.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Scripts returns all scripts sorted by path.
func (t *Table) Scripts() []ScriptSymbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ScriptSymbol, 0, len(t.scripts))
	for _, s := range t.scripts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Modules returns all module summaries sorted by name.
func (t *Table) Modules() []ModuleSymbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ModuleSymbol, 0, len(t.modules))
	for _, m := range t.modules {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Registrations returns every registrator obligation, grouped by module name
// and in declaration order within a module.
func (t *Table) Registrations() []Registration {
	var out []Registration
	for _, m := range t.Modules() {
		out = append(out, m.Registrations...)
	}
	return out
}

// Len returns the number of types, functions and scripts in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.types) + len(t.functions) + len(t.scripts)
}

// Snapshot is a serializable copy of a table.
type Snapshot struct {
	Modules   []ModuleSymbol   `json:"modules"`
	Types     []TypeSymbol     `json:"types"`
	Functions []FunctionSymbol `json:"functions"`
	Scripts   []ScriptSymbol   `json:"scripts"`
}

// Snapshot copies the table contents.
func (t *Table) Snapshot() Snapshot {
	return Snapshot{
		Modules:   t.Modules(),
		Types:     t.Types(),
		Functions: t.Functions(),
		Scripts:   t.Scripts(),
	}
}

// FromSnapshot rebuilds a table. It fails on the first conflicting entry.
func FromSnapshot(s Snapshot) (*Table, error) {
	t := NewTable()
	for _, m := range s.Modules {
		if err := t.AddModule(m); err != nil {
			return nil, err
		}
	}
	for _, ty := range s.Types {
		if err := t.AddType(ty); err != nil {
			return nil, err
		}
	}
	for _, f := range s.Functions {
		if err := t.AddFunction(f); err != nil {
			return nil, err
		}
	}
	for _, sc := range s.Scripts {
		if err := t.AddScript(sc); err != nil {
			return nil, err
		}
	}
	return t, nil
}
