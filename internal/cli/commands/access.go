package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pchp-lang/pchp/internal/cli/ui"
	"github.com/pchp-lang/pchp/internal/compiler/access"
)

// predicate pairs a predicate name with its accessor.
type predicate struct {
	name string
	fn   func(access.Mask) bool
}

var predicates = []predicate{
	{"Read", access.Mask.Read},
	{"Write", access.Mask.Write},
	{"ReadValue", access.Mask.ReadValue},
	{"ReadValueCopy", access.Mask.ReadValueCopy},
	{"EnsureObject", access.Mask.EnsureObject},
	{"EnsureArray", access.Mask.EnsureArray},
	{"EnsureAlias", access.Mask.EnsureAlias},
	{"WriteAlias", access.Mask.WriteAlias},
	{"Quiet", access.Mask.Quiet},
	{"Unset", access.Mask.Unset},
	{"Isset", access.Mask.Isset},
	{"ReadFlavored", access.Mask.ReadFlavored},
	{"WriteFlavored", access.Mask.WriteFlavored},
}

// accessReport is the --json output of the access command.
type accessReport struct {
	Mask       string          `json:"mask"`
	Composites []string        `json:"composites"`
	Predicates map[string]bool `json:"predicates"`
}

// NewAccessCommand creates the access command
func NewAccessCommand(flags *globalFlags) *cobra.Command {
	var (
		jsonOutput bool
		list       bool
	)

	cmd := &cobra.Command{
		Use:   "access <mode>[|<mode>...]",
		Short: "Explain an access mode",
		Long: `Classify an access mode and print every predicate the code generator
asks of it. Modes are '|'-separated names and are matched case-insensitively.`,
		Example: `  pchp access 'Write|ReadQuiet'
  pchp access --json Isset
  pchp access --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if list {
				for _, name := range access.Names() {
					fmt.Fprintln(w, name)
				}
				return nil
			}

			m, err := parseMask(w, args[0], flags.noColor)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeAccessJSON(w, m)
			}

			kv := ui.NewKeyValueTable(w, flags.noColor)
			kv.AddRow("mask", m.String())
			for _, p := range predicates {
				kv.AddRow(p.name, fmt.Sprint(p.fn(m)))
			}
			kv.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the classification as JSON")
	cmd.Flags().BoolVar(&list, "list", false, "List the known access mode names")

	return cmd
}

// parseMask parses text part by part so an unknown name can be reported
// with suggestions.
func parseMask(w io.Writer, text string, noColor bool) (access.Mask, error) {
	m := access.None
	for _, part := range strings.Split(text, "|") {
		pm, err := access.Parse(part)
		if err != nil {
			name := strings.TrimSpace(part)
			fmt.Fprint(w, ui.FormatProblem(ui.Problem{
				Context:     "unknown access mode",
				Message:     name,
				Suggestions: ui.Suggest(name, access.Names()),
				Help:        []string{"List access modes: pchp access --list"},
			}, noColor))
			return access.None, err
		}
		m = m.With(pm)
	}
	return m, nil
}

func writeAccessJSON(w io.Writer, m access.Mask) error {
	report := accessReport{
		Mask:       m.String(),
		Composites: []string{},
		Predicates: make(map[string]bool, len(predicates)),
	}
	for _, c := range m.Composites() {
		report.Composites = append(report.Composites, c.String())
	}
	for _, p := range predicates {
		report.Predicates[p.name] = p.fn(m)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
