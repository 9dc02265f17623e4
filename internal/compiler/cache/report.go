package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pchp-lang/pchp/internal/compiler/discovery"
)

// keyVersion changes whenever the encoded report layout changes.
const keyVersion = "v1"

// Key derives the cache key of a discovery run from the hash of its
// manifests and the options that affect its outcome. Worker count and
// logger do not.
func Key(manifestHash string, opts discovery.Options) string {
	scopes := append([]string(nil), opts.ActiveScopes...)
	sort.Strings(scopes)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00%t\x00", keyVersion, manifestHash, opts.StrictNotNull)
	b.WriteString(strings.Join(scopes, "\x00"))

	return "report:" + NewFileHasher().HashContent([]byte(b.String()))
}

// ReportCache stores encoded discovery reports in a Store.
type ReportCache struct {
	store Store
	ttl   time.Duration
}

// NewReportCache creates a report cache. A zero ttl uses the store default.
func NewReportCache(store Store, ttl time.Duration) *ReportCache {
	return &ReportCache{store: store, ttl: ttl}
}

// Load returns the cached report for key. A miss is not an error.
func (rc *ReportCache) Load(ctx context.Context, key string) (*discovery.Report, bool, error) {
	data, err := rc.store.Get(ctx, key)
	if err != nil {
		if IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report discovery.Report
	if err := json.Unmarshal(data, &report); err != nil {
		// a corrupt entry is treated as a miss and dropped
		_ = rc.store.Delete(ctx, key)
		return nil, false, nil
	}
	return &report, true, nil
}

// Save caches report under key.
func (rc *ReportCache) Save(ctx context.Context, key string, report *discovery.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := rc.store.Set(ctx, key, data, rc.ttl); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// Discover returns the cached report for manifestHash and opts, running
// discover and caching its result on a miss. The second result reports
// whether the cache was hit.
func (rc *ReportCache) Discover(ctx context.Context, manifestHash string, opts discovery.Options, discover func(context.Context) (*discovery.Report, error)) (*discovery.Report, bool, error) {
	key := Key(manifestHash, opts)

	report, hit, err := rc.Load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return report, true, nil
	}

	report, err = discover(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := rc.Save(ctx, key, report); err != nil {
		return nil, false, err
	}
	return report, false, nil
}
