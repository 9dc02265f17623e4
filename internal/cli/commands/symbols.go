package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pchp-lang/pchp/internal/cli/ui"
	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

// NewSymbolsCommand creates the symbols command
func NewSymbolsCommand(flags *globalFlags) *cobra.Command {
	var (
		jsonOutput bool
		dbPath     string
		find       string
		scopes     []string
	)

	cmd := &cobra.Command{
		Use:   "symbols <manifest>...",
		Short: "Print the symbol table built from manifests",
		Long: `Build the symbol table of one or more module manifests and print it.

With --db (or index.database in pchp.yml) the table is also written to a
SQLite index. The --json output is the snapshot format the runtime loads.`,
		Example: `  # List exposed types, functions and scripts
  pchp symbols standard.yaml json.yaml

  # Look up a single name
  pchp symbols --find strlen standard.yaml

  # Write the SQLite index
  pchp symbols --db build/symbols.db standard.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			set, err := loadManifests(args)
			if err != nil {
				return err
			}

			report, err := e.discover(cmd.Context(), set, e.discoveryOptions(scopes, false), true)
			if err != nil {
				return err
			}

			if errs, warnings, _ := report.Diagnostics.ErrorCount(); errs+warnings > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Summary(report.Diagnostics, e.noColor)+" (run pchp check for details)")
			}

			if dbPath == "" {
				dbPath = e.cfg.Index.Database
			}
			if dbPath != "" {
				if err := writeIndex(cmd.Context(), dbPath, report.Table); err != nil {
					return err
				}
				e.logger.Info("symbol index written", zap.String("database", dbPath), zap.Int("symbols", report.Table.Len()))
			}

			w := cmd.OutOrStdout()
			switch {
			case find != "":
				return findSymbol(w, report.Table, find, e.noColor)
			case jsonOutput:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report.Table.Snapshot())
			default:
				renderTable(w, report.Table, e.noColor)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the symbol table snapshot as JSON")
	cmd.Flags().StringVar(&dbPath, "db", "", "Write the symbol table to this SQLite database")
	cmd.Flags().StringVar(&find, "find", "", "Show a single type or function")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Additional active conditional scope (repeatable)")

	return cmd
}

func writeIndex(ctx context.Context, path string, table *symbols.Table) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open symbol index: %w", err)
	}
	defer db.Close()

	store := symbols.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return store.Save(ctx, table)
}

func renderTable(w io.Writer, table *symbols.Table, noColor bool) {
	ui.Header(w, "Types", noColor)
	types := ui.NewTable(w, noColor, "NAME", "HOST", "MODULE", "KIND")
	for _, t := range table.Types() {
		kind := string(t.Kind)
		if t.Trait {
			kind = "trait"
		}
		types.AddRow(t.Name, t.HostName, t.Module, kind)
	}
	types.Render()
	fmt.Fprintln(w)

	ui.Header(w, "Functions", noColor)
	functions := ui.NewTable(w, noColor, "NAME", "HOST", "MODULE")
	for _, f := range table.Functions() {
		functions.AddRow(f.Name, f.HostName, f.Module)
	}
	functions.Render()

	if scripts := table.Scripts(); len(scripts) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Scripts", noColor)
		t := ui.NewTable(w, noColor, "PATH", "HOST", "MODULE")
		for _, s := range scripts {
			t.AddRow(s.Path, s.HostName, s.Module)
		}
		t.Render()
	}
}

func findSymbol(w io.Writer, table *symbols.Table, name string, noColor bool) error {
	kv := ui.NewKeyValueTable(w, noColor)

	if t, ok := table.Type(name); ok {
		kv.AddRow("type", t.Name)
		kv.AddRow("host", t.HostName)
		kv.AddRow("module", t.Module)
		kv.AddRow("kind", string(t.Kind))
		if len(t.Extensions) > 0 {
			kv.AddRow("extensions", strings.Join(t.Extensions, ", "))
		}
		if len(t.Conditions) > 0 {
			kv.AddRow("conditions", strings.Join(t.Conditions, ", "))
		}
		kv.AddRow("members", fmt.Sprint(len(t.Members)))
		kv.Render()
		return nil
	}

	if f, ok := table.Function(name); ok {
		kv.AddRow("function", f.Name)
		kv.AddRow("host", f.HostName)
		kv.AddRow("module", f.Module)
		kv.AddRow("parameters", fmt.Sprint(len(f.Signature.Params)))
		kv.AddRow("imports", fmt.Sprint(len(f.Signature.Imports)))
		kv.AddRow("cast to false", fmt.Sprint(f.Signature.CastToFalse))
		kv.Render()
		return nil
	}

	var candidates []string
	for _, t := range table.Types() {
		candidates = append(candidates, t.Name)
	}
	for _, f := range table.Functions() {
		candidates = append(candidates, f.Name)
	}
	fmt.Fprint(w, ui.FormatProblem(ui.Problem{
		Context:     "symbol not found",
		Message:     name,
		Suggestions: ui.Suggest(name, candidates),
		Help:        []string{"List all symbols: pchp symbols <manifest>..."},
	}, noColor))
	return fmt.Errorf("symbol %s not found", name)
}
