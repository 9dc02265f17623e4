package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pchp-lang/pchp/internal/cli/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configDir string
	noColor   bool
	debug     bool
}

// env is what a subcommand needs from its surroundings.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
}

func (g *globalFlags) load() (*env, error) {
	cfg, err := config.LoadFrom(g.configDir)
	if err != nil {
		return nil, err
	}
	if g.debug {
		cfg.Log.Level = "debug"
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger, noColor: g.noColor}, nil
}

// newLogger builds a development logger at debug level and a production
// logger writing to stderr otherwise.
func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "pchp",
		Short: "pchp compiler front-end tooling",
		Long: color.CyanString(`pchp - compiler front end for PHP on a managed host

pchp validates the metadata annotations that host libraries use to expose
types, functions and scripts to compiled programs, and builds the symbol
table the compiler and runtime load.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config", ".", "Directory holding pchp.yml")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand(flags))
	rootCmd.AddCommand(NewSymbolsCommand(flags))
	rootCmd.AddCommand(NewAccessCommand(flags))
	rootCmd.AddCommand(NewConvertCommand(flags))
	rootCmd.AddCommand(NewLSPCommand(flags))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the pchp version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			w := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(w, "pchp version: ")
			fmt.Fprintln(w, Version)

			titleColor.Fprint(w, "Git commit: ")
			fmt.Fprintln(w, GitCommit)

			titleColor.Fprint(w, "Build date: ")
			fmt.Fprintln(w, BuildDate)

			titleColor.Fprint(w, "Go version: ")
			fmt.Fprintln(w, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
