package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pchp-lang/pchp/internal/compiler/cache"
	"github.com/pchp-lang/pchp/internal/compiler/discovery"
	"github.com/pchp-lang/pchp/internal/compiler/metadata"
	"github.com/pchp-lang/pchp/internal/utils"
)

// manifestSet is the modules read from the manifest files named on the
// command line, in argument order.
type manifestSet struct {
	paths   []string
	modules []*metadata.Module
	// files maps a module name to the manifest it came from.
	files map[string]string
}

// loadManifests reads the manifests named by args. A directory stands for
// every manifest below it.
func loadManifests(args []string) (*manifestSet, error) {
	paths, err := utils.ExpandManifests(args)
	if err != nil {
		return nil, err
	}

	set := &manifestSet{paths: paths, files: make(map[string]string)}
	for _, path := range paths {
		m, err := metadata.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		for _, mod := range m.Modules {
			set.modules = append(set.modules, mod)
			if _, seen := set.files[mod.Name]; !seen {
				set.files[mod.Name] = path
			}
		}
	}
	return set, nil
}

// attribute fills in the manifest file of every diagnostic from the module
// prefix of its declaration path.
func (s *manifestSet) attribute(report *discovery.Report) {
	for _, d := range report.Diagnostics {
		module, _, _ := strings.Cut(d.Declaration, "::")
		if file, ok := s.files[module]; ok {
			d.WithFile(file)
		}
	}
}

// discoveryOptions merges configuration and command-line scopes.
func (e *env) discoveryOptions(scopes []string, strict bool) discovery.Options {
	active := append([]string(nil), e.cfg.Discovery.ActiveScopes...)
	active = append(active, scopes...)
	return discovery.Options{
		ActiveScopes:  active,
		Workers:       e.cfg.Discovery.Workers,
		StrictNotNull: e.cfg.Discovery.StrictNotNull || strict,
		Logger:        e.logger,
	}
}

// discover runs discovery over set, going through the Redis report cache
// when one is configured and useCache is set. When the server cannot be
// reached discovery runs uncached.
func (e *env) discover(ctx context.Context, set *manifestSet, opts discovery.Options, useCache bool) (*discovery.Report, error) {
	run := func(ctx context.Context) (*discovery.Report, error) {
		return discovery.Discover(ctx, set.modules, opts)
	}

	uncached := func() (*discovery.Report, error) {
		report, err := run(ctx)
		if err != nil {
			return nil, err
		}
		set.attribute(report)
		return report, nil
	}

	if !useCache || e.cfg.Cache.RedisAddr == "" {
		return uncached()
	}

	hash, err := cache.NewFileHasher().HashFiles(set.paths)
	if err != nil {
		return nil, fmt.Errorf("failed to hash manifests: %w", err)
	}

	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr: e.cfg.Cache.RedisAddr,
		Config: cache.Config{
			DefaultTTL: e.cfg.Cache.TTL,
			Prefix:     e.cfg.Cache.Prefix,
		},
	})
	if err != nil {
		e.logger.Warn("report cache unavailable, running uncached", zap.Error(err))
		return uncached()
	}
	defer store.Close()

	report, hit, err := cache.NewReportCache(store, e.cfg.Cache.TTL).Discover(ctx, hash, opts, run)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("report cache", zap.Bool("hit", hit), zap.String("run_id", report.RunID))

	set.attribute(report)
	return report, nil
}
