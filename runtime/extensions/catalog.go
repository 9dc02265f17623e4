// Package extensions runs extension registrators at runtime.
//
// The compiler records, for every module, the registrator types that must
// run once per runtime lifetime scope before the module's extensions are
// usable. Host code makes those types available by registering a factory
// under the registrator's qualified name, usually from an init function:
//
//	func init() {
//		extensions.MustRegister("Pchp.Library.Json.JsonRegistrator", func() extensions.Registrator {
//			return &JsonRegistrator{}
//		})
//	}
//
// A Scope then honors the recorded obligations:
//
//	scope := extensions.NewScope(extensions.Default(), logger)
//	defer scope.Close()
//	if err := scope.Activate(ctx, table.Registrations()); err != nil {
//		return err
//	}
package extensions

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registrator initializes an extension within a scope.
type Registrator interface {
	Init(scope *Scope) error
}

// RegistratorFunc adapts a function to Registrator.
type RegistratorFunc func(scope *Scope) error

// Init calls f(scope).
func (f RegistratorFunc) Init(scope *Scope) error {
	return f(scope)
}

// Factory creates a fresh registrator instance.
type Factory func() Registrator

// ErrUnknownRegistrator is returned when no factory is registered under a
// registrator name.
var ErrUnknownRegistrator = errors.New("unknown registrator")

// Catalog maps registrator names to factories. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Names are registered once.
func (c *Catalog) Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("registrator name is empty")
	}
	if factory == nil {
		return fmt.Errorf("registrator %s: factory is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("registrator %s is already registered", name)
	}
	c.factories[name] = factory
	return nil
}

// Lookup returns the factory registered under name.
func (c *Catalog) Lookup(name string) (Factory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegistrator, name)
	}
	return factory, nil
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultCatalog = NewCatalog()

// Default returns the process-wide catalog that Register and MustRegister
// write to.
func Default() *Catalog {
	return defaultCatalog
}

// Register adds a factory to the default catalog.
func Register(name string, factory Factory) error {
	return defaultCatalog.Register(name, factory)
}

// MustRegister is like Register but panics on error. It is meant for init
// functions.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}
