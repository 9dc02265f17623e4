package discovery

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pchp-lang/pchp/internal/compiler/errors"
	"github.com/pchp-lang/pchp/internal/compiler/metadata"
	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

// Metrics tracks the size and duration of a discovery pass.
type Metrics struct {
	Modules       int           `json:"modules"`
	Types         int           `json:"types"`
	Functions     int           `json:"functions"`
	Scripts       int           `json:"scripts"`
	Registrations int           `json:"registrations"`
	Excluded      int           `json:"excluded"`
	Duration      time.Duration `json:"duration"`
}

// Report is the outcome of a discovery pass.
type Report struct {
	RunID       string
	Table       *symbols.Table
	Diagnostics errors.ErrorList
	// Excluded lists the declarations left out by Hidden or by an inactive
	// conditional scope.
	Excluded []string
	Metrics  Metrics
}

// HasErrors reports whether any declaration was rejected.
func (r *Report) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Discover validates modules and builds their symbol table. Modules are
// validated concurrently; their results are merged into the table in the
// order given, so the outcome does not depend on scheduling. The returned
// error is non-nil only when ctx is cancelled.
func Discover(ctx context.Context, modules []*metadata.Module, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	start := time.Now()

	results := make([]*moduleResult, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, mod := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = discoverModule(mod, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID: uuid.NewString(),
		Table: symbols.NewTable(),
	}
	for _, res := range results {
		report.merge(res)
	}

	report.Metrics = Metrics{
		Modules:       len(report.Table.Modules()),
		Types:         len(report.Table.Types()),
		Functions:     len(report.Table.Functions()),
		Scripts:       len(report.Table.Scripts()),
		Registrations: len(report.Table.Registrations()),
		Excluded:      len(report.Excluded),
		Duration:      time.Since(start),
	}

	errs, warnings, _ := report.Diagnostics.ErrorCount()
	opts.Logger.Info("discovery finished",
		zap.String("run_id", report.RunID),
		zap.Int("modules", report.Metrics.Modules),
		zap.Int("types", report.Metrics.Types),
		zap.Int("functions", report.Metrics.Functions),
		zap.Int("scripts", report.Metrics.Scripts),
		zap.Int("errors", errs),
		zap.Int("warnings", warnings),
		zap.Duration("duration", report.Metrics.Duration),
	)
	return report, nil
}

// DiscoverManifest runs Discover over every module of m.
func DiscoverManifest(ctx context.Context, m *metadata.Manifest, opts Options) (*Report, error) {
	return Discover(ctx, m.Modules, opts)
}

// merge inserts one module's symbols. A symbol whose key is taken is
// reported as a name conflict and dropped.
func (r *Report) merge(res *moduleResult) {
	r.Diagnostics = append(r.Diagnostics, res.diags...)
	r.Excluded = append(r.Excluded, res.excluded...)

	r.conflict(res.module.decl, r.Table.AddModule(res.module.sym))
	for _, c := range res.types {
		r.conflict(c.decl, r.Table.AddType(c.sym))
	}
	for _, c := range res.functions {
		r.conflict(c.decl, r.Table.AddFunction(c.sym))
	}
	for _, c := range res.scripts {
		r.conflict(c.decl, r.Table.AddScript(c.sym))
	}
}

func (r *Report) conflict(decl string, err error) {
	if err == nil {
		return
	}
	var ce *symbols.ConflictError
	if stderrors.As(err, &ce) {
		r.Diagnostics = append(r.Diagnostics, errors.NewNameConflict(decl, ce.Kind, ce.Name, ce.Existing))
	}
}
