package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/pchp-lang/pchp/internal/compiler/errors"
	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

type encodedReport struct {
	RunID       string           `json:"run_id"`
	Symbols     symbols.Snapshot `json:"symbols"`
	Diagnostics errors.ErrorList `json:"diagnostics"`
	Excluded    []string         `json:"excluded,omitempty"`
	Metrics     Metrics          `json:"metrics"`
}

// MarshalJSON encodes the report with a snapshot of its table.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodedReport{
		RunID:       r.RunID,
		Symbols:     r.Table.Snapshot(),
		Diagnostics: r.Diagnostics,
		Excluded:    r.Excluded,
		Metrics:     r.Metrics,
	})
}

// UnmarshalJSON rebuilds a report and its table.
func (r *Report) UnmarshalJSON(data []byte) error {
	var enc encodedReport
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	table, err := symbols.FromSnapshot(enc.Symbols)
	if err != nil {
		return fmt.Errorf("failed to rebuild symbol table: %w", err)
	}
	*r = Report{
		RunID:       enc.RunID,
		Table:       table,
		Diagnostics: enc.Diagnostics,
		Excluded:    enc.Excluded,
		Metrics:     enc.Metrics,
	}
	return nil
}
