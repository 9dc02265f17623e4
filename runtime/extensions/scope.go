package extensions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

// ErrScopeClosed is returned by operations on a closed scope.
var ErrScopeClosed = errors.New("scope is closed")

// Scope is one runtime lifetime scope. Each registrator runs at most once
// per scope no matter how many obligations name it.
type Scope struct {
	ID uuid.UUID

	catalog *Catalog
	logger  *zap.Logger

	// activate serializes Activate. Registrators may call Set, Value and
	// OnClose from Init; Activate is not reentrant and must not be called
	// from Init.
	activate sync.Mutex

	mu      sync.Mutex
	done    map[string]bool
	order   []string
	values  map[string]any
	closers []func() error
	closed  bool
}

// NewScope creates a scope that resolves registrators through catalog.
// A nil logger disables logging.
func NewScope(catalog *Catalog, logger *zap.Logger) *Scope {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	return &Scope{
		ID:      id,
		catalog: catalog,
		logger:  logger.With(zap.String("scope", id.String())),
		done:    make(map[string]bool),
		values:  make(map[string]any),
	}
}

// Activate runs the registrators of regs in order, skipping those that
// already ran in this scope. It stops at the first failure; registrators
// that succeeded before it stay activated. A registrator's Init may use
// Set, Value and OnClose but must not call Activate.
func (s *Scope) Activate(ctx context.Context, regs []symbols.Registration) error {
	s.activate.Lock()
	defer s.activate.Unlock()

	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		closed, done := s.closed, s.done[reg.Registrator]
		s.mu.Unlock()

		if closed {
			return ErrScopeClosed
		}
		if done {
			continue
		}

		factory, err := s.catalog.Lookup(reg.Registrator)
		if err != nil {
			return fmt.Errorf("module %s: %w", reg.Module, err)
		}
		if err := factory().Init(s); err != nil {
			return fmt.Errorf("registrator %s of module %s failed: %w", reg.Registrator, reg.Module, err)
		}

		s.mu.Lock()
		s.done[reg.Registrator] = true
		s.order = append(s.order, reg.Registrator)
		s.mu.Unlock()

		s.logger.Debug("registrator activated",
			zap.String("registrator", reg.Registrator),
			zap.String("module", reg.Module),
			zap.String("declarer", reg.Declarer),
		)
	}
	return nil
}

// Activated returns the registrators that ran, in the order they ran.
func (s *Scope) Activated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.order...)
}

// Set stores a scope-local value, typically a service a registrator
// installs for the scope's lifetime.
func (s *Scope) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Value returns the scope-local value stored under key.
func (s *Scope) Value(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	return v, ok
}

// OnClose registers fn to run when the scope closes. Hooks run in reverse
// registration order.
func (s *Scope) OnClose(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrScopeClosed
	}
	s.closers = append(s.closers, fn)
	return nil
}

// Close runs the close hooks and joins their errors. Closing twice is a
// no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Debug("scope closed", zap.Int("hooks", len(closers)), zap.Int("errors", len(errs)))
	return errors.Join(errs...)
}
