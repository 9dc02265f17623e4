// Package discovery validates annotated host declarations and builds the
// symbol table of declarations visible to source code.
//
// Discovery is a collect-all pass: every rule violation is reported as a
// diagnostic attributed to its declaration, the offending declaration is left
// out of the table, and the rest of the pass continues.
package discovery

import (
	"go.uber.org/zap"
)

// DefaultWorkers is the number of modules validated concurrently when
// Options.Workers is not set.
const DefaultWorkers = 4

// Options controls a discovery pass.
type Options struct {
	// ActiveScopes lists the conditional compilation scopes active at load
	// time. Declarations conditioned on other scopes are excluded.
	ActiveScopes []string

	// Workers bounds how many modules are validated concurrently.
	Workers int

	// StrictNotNull reports NotNull annotations that state nothing because
	// the annotated type can never be null.
	StrictNotNull bool

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// active reports whether a declaration conditioned on scopes is visible.
// A declaration with no scopes is always visible; otherwise any active scope
// is enough.
func (o Options) active(scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		for _, a := range o.ActiveScopes {
			if s == a {
				return true
			}
		}
	}
	return false
}
