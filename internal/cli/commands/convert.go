package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pchp-lang/pchp/internal/compiler/metadata"
)

// NewConvertCommand creates the convert command
func NewConvertCommand(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <manifest|dir>...",
		Short: "Merge manifests into one canonical JSON manifest",
		Long: `Read one or more manifests (JSON or YAML, optionally gzip-compressed) and
write their modules, in argument order, as a single JSON manifest.

Without --output the manifest is printed. An output path ending in ".gz" is
gzip-compressed. Annotations that fail to decode are written back unchanged.`,
		Example: `  # Convert a YAML manifest to JSON
  pchp convert standard.yaml

  # Bundle a directory of manifests into one compressed file
  pchp convert ./manifests -o dist/libraries.json.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := flags.load(); err != nil {
				return err
			}

			set, err := loadManifests(args)
			if err != nil {
				return err
			}
			m := &metadata.Manifest{Modules: set.modules}

			if output != "" {
				if err := metadata.WriteManifest(m, output); err != nil {
					return err
				}
				info, err := os.Stat(output)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d module(s) to %s (%s)\n",
					len(m.Modules), output, humanize.Bytes(uint64(info.Size())))
				return nil
			}

			data, err := metadata.EncodeManifest(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the manifest to this path instead of stdout")

	return cmd
}
