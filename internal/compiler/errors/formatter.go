package errors

import (
	"fmt"
	"strings"
)

// FormatError renders e as a multi-line block:
//
//	error[MET804]: Parameter self ...
//	  --> standard.yaml
//	   = declaration: standard::Pchp.Library.Strings::strpos#self
//	   = expected: type descriptor
//	   = found: string
//	   = help: ...
//	   = see: https://docs.pchp-lang.org/errors/MET804
func FormatError(e *CompilerError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s[%s]: %s\n", e.Severity, e.Code, e.Message)
	if e.File != "" {
		fmt.Fprintf(&b, "  --> %s\n", e.File)
	}

	note := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "   = %s: %s\n", label, value)
		}
	}
	note("declaration", e.Declaration)
	note("expected", e.Expected)
	note("found", e.Actual)
	note("help", e.Suggestion)
	note("see", e.Documentation)

	return b.String()
}

// FormatErrorList renders every diagnostic in order, followed by a count line.
func FormatErrorList(list ErrorList) string {
	if len(list) == 0 {
		return "no errors"
	}

	blocks := make([]string, len(list))
	for i, e := range list {
		blocks[i] = FormatError(e)
	}

	errs, warnings, info := list.ErrorCount()
	return fmt.Sprintf("%s\nmetadata: %d error(s), %d warning(s), %d info\n",
		strings.Join(blocks, "\n"), errs, warnings, info)
}

// FormatCompact renders e on one line, file first when known.
func FormatCompact(e *CompilerError) string {
	line := fmt.Sprintf("%s: %s[%s]: %s", e.Declaration, e.Severity, e.Code, e.Message)
	if e.File != "" {
		line = e.File + ": " + line
	}
	return line
}
