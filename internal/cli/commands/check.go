package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pchp-lang/pchp/internal/cli/ui"
	"github.com/pchp-lang/pchp/internal/compiler/discovery"
	"github.com/pchp-lang/pchp/internal/utils"
	"github.com/pchp-lang/pchp/internal/watch"
)

// ErrDiagnostics is returned when discovery reports at least one error.
type ErrDiagnostics struct {
	Errors int
}

func (e ErrDiagnostics) Error() string {
	return fmt.Sprintf("metadata discovery reported %d error(s)", e.Errors)
}

// NewCheckCommand creates the check command
func NewCheckCommand(flags *globalFlags) *cobra.Command {
	var (
		jsonOutput bool
		scopes     []string
		strict     bool
		noCache    bool
		stats      bool
		watchMode  bool
	)

	cmd := &cobra.Command{
		Use:   "check <manifest|dir>...",
		Short: "Validate metadata annotations",
		Long: `Validate the metadata annotations of one or more module manifests.

Every problem is reported, not only the first one. The command exits with a
non-zero status when at least one diagnostic is an error. When cache.redis_addr
is configured, reports are cached by manifest content and options.`,
		Example: `  # Validate two libraries together
  pchp check standard.yaml json.yaml

  # Validate every manifest under a directory
  pchp check ./manifests

  # Treat declarations conditional on the "debug" scope as active
  pchp check --scope debug standard.yaml

  # Machine-readable diagnostics
  pchp check --json standard.yaml

  # Re-check on every save
  pchp check --watch standard.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			run := func() error {
				set, err := loadManifests(args)
				if err != nil {
					return err
				}
				report, err := e.discover(ctx, set, e.discoveryOptions(scopes, strict), !noCache)
				if err != nil {
					return err
				}
				return printCheck(w, report, jsonOutput, stats, e.noColor)
			}

			if !watchMode {
				return run()
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var mu sync.Mutex
			report := func() {
				mu.Lock()
				defer mu.Unlock()
				if err := run(); err != nil {
					var diag ErrDiagnostics
					if !errors.As(err, &diag) {
						fmt.Fprint(cmd.ErrOrStderr(), ui.FormatProblem(ui.Problem{Context: "check", Message: err.Error()}, e.noColor))
					}
				}
			}
			report()

			paths, err := utils.ExpandManifests(args)
			if err != nil {
				return err
			}
			watcher, err := watch.NewManifestWatcher(paths, watch.DefaultDelay, e.logger, func(changed []string) {
				e.logger.Info("manifests changed", zap.Strings("files", changed))
				fmt.Fprintln(w)
				report()
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes. Press Ctrl+C to stop.")
			return watcher.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print diagnostics as JSON")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Additional active conditional scope (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict-not-null", false, "Warn about NotNull on types that cannot be null")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the report cache")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print discovery statistics")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-run the check whenever a manifest changes")

	return cmd
}

// printCheck writes the outcome of one discovery run and returns
// ErrDiagnostics when it contains errors.
func printCheck(w io.Writer, report *discovery.Report, jsonOutput, stats, noColor bool) error {
	if jsonOutput {
		out, err := report.Diagnostics.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
	} else {
		ui.WriteDiagnostics(w, report.Diagnostics, noColor)
		if stats {
			fmt.Fprintln(w)
			kv := ui.NewKeyValueTable(w, noColor)
			kv.AddRow("run", report.RunID)
			kv.AddRow("modules", fmt.Sprint(report.Metrics.Modules))
			kv.AddRow("types", fmt.Sprint(report.Metrics.Types))
			kv.AddRow("functions", fmt.Sprint(report.Metrics.Functions))
			kv.AddRow("scripts", fmt.Sprint(report.Metrics.Scripts))
			kv.AddRow("registrations", fmt.Sprint(report.Metrics.Registrations))
			kv.AddRow("excluded", fmt.Sprint(report.Metrics.Excluded))
			kv.AddRow("duration", report.Metrics.Duration.String())
			kv.Render()
		}
	}

	if errs, _, _ := report.Diagnostics.ErrorCount(); errs > 0 {
		return ErrDiagnostics{Errors: errs}
	}
	return nil
}
