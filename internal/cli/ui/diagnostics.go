package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pchp-lang/pchp/internal/compiler/errors"
)

// palette holds the colors used for one severity.
type palette struct {
	header *color.Color
	body   *color.Color
	symbol string
}

func paletteFor(severity errors.ErrorSeverity, noColor bool) palette {
	var p palette
	switch severity {
	case errors.SeverityError:
		p = palette{color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"}
	case errors.SeverityWarning:
		p = palette{color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"}
	default:
		p = palette{color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"}
	}
	if noColor {
		p.header.DisableColor()
		p.body.DisableColor()
	}
	return p
}

// FormatDiagnostic renders one diagnostic for the terminal.
//
// Example output:
//
//	✗ MET803 standard::Pchp.Library.Strings::strpos#ctx
//	  Import parameter 'ctx' at position 1 follows an ordinary parameter
//	  → Move all import parameters before the first ordinary parameter
func FormatDiagnostic(d *errors.CompilerError, noColor bool) string {
	var b strings.Builder
	p := paletteFor(d.Severity, noColor)

	p.header.Fprintf(&b, "%s %s %s", p.symbol, d.Code, d.Declaration)
	if d.File != "" {
		fmt.Fprintf(&b, " (%s)", d.File)
	}
	b.WriteString("\n")
	p.body.Fprintf(&b, "  %s\n", d.Message)

	if d.Expected != "" {
		fmt.Fprintf(&b, "  expected: %s\n", d.Expected)
	}
	if d.Actual != "" {
		fmt.Fprintf(&b, "  actual:   %s\n", d.Actual)
	}
	if d.Suggestion != "" {
		hint := color.New(color.FgCyan)
		if noColor {
			hint.DisableColor()
		}
		hint.Fprintf(&b, "  → %s\n", d.Suggestion)
	}
	return b.String()
}

// WriteDiagnostics writes every diagnostic followed by a summary line.
func WriteDiagnostics(w io.Writer, list errors.ErrorList, noColor bool) {
	for _, d := range list {
		fmt.Fprint(w, FormatDiagnostic(d, noColor))
	}
	if len(list) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, Summary(list, noColor))
}

// Summary returns a one-line count of diagnostics by severity.
func Summary(list errors.ErrorList, noColor bool) string {
	errs, warnings, infos := list.ErrorCount()
	if errs == 0 && warnings == 0 && infos == 0 {
		return FormatSuccess("no problems found", noColor)
	}

	text := fmt.Sprintf("%d error(s), %d warning(s), %d info", errs, warnings, infos)
	severity := errors.SeverityInfo
	switch {
	case errs > 0:
		severity = errors.SeverityError
	case warnings > 0:
		severity = errors.SeverityWarning
	}
	return paletteFor(severity, noColor).header.Sprint(text)
}

// Problem describes a command-line failure that is not a diagnostic, such
// as an unknown name typed by the user.
type Problem struct {
	Context     string
	Message     string
	Suggestions []string
	Help        []string
}

// FormatProblem renders a Problem.
//
// Example output:
//
//	✗ UNKNOWN ACCESS MODE: Wirte
//	  Did you mean: Write, WriteRef?
//	  → pchp access --list
func FormatProblem(p Problem, noColor bool) string {
	var b strings.Builder
	pal := paletteFor(errors.SeverityError, noColor)

	if p.Context != "" {
		pal.header.Fprintf(&b, "%s %s: %s\n", pal.symbol, strings.ToUpper(p.Context), p.Message)
	} else {
		pal.header.Fprintf(&b, "%s %s\n", pal.symbol, p.Message)
	}

	if len(p.Suggestions) > 0 {
		yellow := color.New(color.FgYellow)
		if noColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "  Did you mean: %s?\n", strings.Join(p.Suggestions, ", "))
	}

	cyan := color.New(color.FgCyan)
	if noColor {
		cyan.DisableColor()
	}
	for _, h := range p.Help {
		cyan.Fprintf(&b, "  → %s\n", h)
	}
	return b.String()
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}
