package commands

import (
	"github.com/spf13/cobra"

	"github.com/pchp-lang/pchp/internal/lsp"
)

// NewLSPCommand creates the lsp command
func NewLSPCommand(flags *globalFlags) *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the manifest language server",
		Long: `Start a Language Server Protocol server on stdin and stdout.

The server validates every open module manifest as it changes and publishes
the diagnostics pchp check would report. It also completes annotation kinds
and outlines modules, types and members.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			opts := e.discoveryOptions(scopes, false)
			return lsp.NewServer(opts, e.logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Additional active conditional scope (repeatable)")
	return cmd
}
