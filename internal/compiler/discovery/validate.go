package discovery

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pchp-lang/pchp/internal/compiler/errors"
	"github.com/pchp-lang/pchp/internal/compiler/metadata"
	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

// checker validates the declarations of one module and collects diagnostics.
type checker struct {
	opts  Options
	diags errors.ErrorList
}

func (c *checker) report(e *errors.CompilerError) {
	c.diags = append(c.diags, e)
}

// annotations validates the annotations attached to one declaration and
// reports whether they are free of errors.
func (c *checker) annotations(decl string, target metadata.Target, as metadata.Annotations) bool {
	ok := true
	seen := make(map[metadata.Kind]bool)
	duplicated := make(map[metadata.Kind]bool)

	for _, a := range as {
		if m, malformed := a.(metadata.Malformed); malformed {
			name := m.Name
			if name == "" {
				name = "<unnamed>"
			}
			c.report(errors.NewMalformedAnnotation(decl, name, m.Reason))
			ok = false
			continue
		}

		kind := a.Kind()
		targets, repeatable := metadata.Usage(kind)
		if !targets.Has(target) {
			c.report(errors.NewInvalidTarget(decl, kind.String(), target.String(), targets.Names()))
			ok = false
			continue
		}

		if seen[kind] && !repeatable {
			if !duplicated[kind] {
				c.report(errors.NewDuplicateAnnotation(decl, kind.String()))
				duplicated[kind] = true
			}
			ok = false
			continue
		}
		seen[kind] = true

		if !c.payload(decl, a) {
			ok = false
		}
	}
	return ok
}

// payload checks the fields of a well-formed annotation.
func (c *checker) payload(decl string, a metadata.Annotation) bool {
	switch a := a.(type) {
	case metadata.ScriptUnit:
		if reason := scriptPathProblem(a.Path); reason != "" {
			c.report(errors.NewInvalidScriptPath(decl, a.Path, reason))
			return false
		}
	case metadata.MemberVisibility:
		if !a.Level.Valid() {
			c.report(errors.NewInvalidVisibility(decl, int(a.Level)))
			return false
		}
	case metadata.SourceType:
		if a.Name != "" && a.Name != metadata.DeriveName && strings.IndexFunc(a.Name, unicode.IsSpace) >= 0 {
			c.report(errors.NewInvalidExposedName(decl, a.Name))
			return false
		}
	}
	return true
}

// scriptPathProblem describes why path is not a root-relative script path,
// or returns "" when it is.
func scriptPathProblem(path string) string {
	if strings.TrimSpace(path) == "" {
		return "is empty"
	}
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) || hasDriveLetter(path) {
		return "must be relative to the source root"
	}
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "escapes the source root"
		}
	}
	return ""
}

func hasDriveLetter(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// importTypes lists the host types each import kind accepts.
var importTypes = map[metadata.Kind][]metadata.TypeKind{
	metadata.KindImportLocals:            {metadata.TypeArray},
	metadata.KindImportCallerArgs:        {metadata.TypeArray},
	metadata.KindImportCallerClass:       {metadata.TypeHandle, metadata.TypeDescriptor, metadata.TypeString},
	metadata.KindImportCallerStaticClass: {metadata.TypeDescriptor},
}

func acceptsImport(kind metadata.Kind, typ metadata.HostType) bool {
	for _, k := range importTypes[kind] {
		if typ.Kind == k {
			return true
		}
	}
	return false
}

func importTypeNames(kind metadata.Kind) []string {
	var names []string
	for _, k := range importTypes[kind] {
		names = append(names, k.String())
	}
	return names
}

// paramPath names the i-th parameter of decl in diagnostics.
func paramPath(decl string, i int, p *metadata.Parameter) string {
	if p.Name == "" {
		return fmt.Sprintf("%s#%d", decl, i)
	}
	return decl + "#" + p.Name
}

// signature validates a parameter list and an optional return value and
// builds the calling convention. Import parameters must form a prefix of
// the list.
func (c *checker) signature(decl string, params []*metadata.Parameter, ret *metadata.ReturnValue) (symbols.Signature, bool) {
	var sig symbols.Signature
	ok := true
	ordinary := false

	for i, p := range params {
		path := paramPath(decl, i, p)
		if !c.annotations(path, metadata.TargetParameter, p.Annotations) {
			ok = false
		}

		var imports []metadata.Kind
		for _, a := range p.Annotations {
			if a.Kind().IsImport() {
				imports = append(imports, a.Kind())
			}
		}
		if len(imports) > 1 {
			c.report(errors.NewMalformedAnnotation(path, imports[1].String(), "parameter already imports "+imports[0].String()))
			ok = false
			continue
		}

		if len(imports) == 0 {
			ordinary = true
			notNull := p.Annotations.Has(metadata.KindNotNull)
			if notNull {
				c.notNull(path, p.Type)
			}
			sig.Params = append(sig.Params, symbols.Param{Position: i, Name: p.Name, Type: p.Type, NotNull: notNull})
			continue
		}

		kind := imports[0]
		if ordinary {
			c.report(errors.NewImportOrder(path, p.Name, i))
			ok = false
		}
		if !acceptsImport(kind, p.Type) {
			c.report(errors.NewImportType(path, p.Name, kind.String(), p.Type.String(), importTypeNames(kind)))
			ok = false
		}
		ik, _ := symbols.ImportKindOf(kind)
		sig.Imports = append(sig.Imports, symbols.ImportParam{Position: i, Name: p.Name, Kind: ik, Type: p.Type})
	}

	sig.Return = metadata.Void
	if ret != nil {
		path := decl + "#return"
		sig.Return = ret.Type
		if !c.annotations(path, metadata.TargetReturnValue, ret.Annotations) {
			ok = false
		}
		if ret.Annotations.Has(metadata.KindCastToFalse) {
			if castsToFalse(ret.Type) {
				sig.CastToFalse = true
			} else {
				c.report(errors.NewCastToFalseType(path, ret.Type.String()))
				ok = false
			}
		}
		if ret.Annotations.Has(metadata.KindNotNull) {
			c.notNull(path, ret.Type)
			sig.NotNullReturn = true
		}
	}

	return sig, ok
}

// castsToFalse reports whether the code generator can translate a return
// value of typ into false: a negative number for int and float, null for
// reference and nullable kinds.
func castsToFalse(typ metadata.HostType) bool {
	switch {
	case typ.Kind == metadata.TypeInt, typ.Kind == metadata.TypeFloat:
		return true
	case typ.Kind == metadata.TypeBool, typ.Kind == metadata.TypeVoid:
		return false
	default:
		return typ.CanBeNull()
	}
}

// notNull warns about a NotNull contract on a type that is never null.
func (c *checker) notNull(decl string, typ metadata.HostType) {
	if c.opts.StrictNotNull && !typ.CanBeNull() {
		c.report(errors.NewRedundantNotNull(decl, typ.String()))
	}
}

// registrator checks that name denotes a type of mod that the loader can
// instantiate: a concrete non-trait class with a constructor taking no
// caller-supplied arguments.
func (c *checker) registrator(mod *metadata.Module, decl, name string) bool {
	var typ *metadata.Type
	for _, t := range mod.Types {
		if t.QualifiedName() == name {
			typ = t
			break
		}
	}

	reason := ""
	switch {
	case typ == nil:
		reason = "is not declared in module " + mod.Name
	case typ.DeclKind() != metadata.DeclClass:
		reason = "must be a class, not " + string(typ.DeclKind())
	case typ.Abstract:
		reason = "is abstract"
	case typ.Annotations.Has(metadata.KindTrait):
		reason = "is a trait"
	case !defaultConstructible(typ):
		reason = "has no public constructor without parameters"
	}

	if reason != "" {
		c.report(errors.NewInvalidRegistrator(decl, name, reason))
		return false
	}
	return true
}

func defaultConstructible(t *metadata.Type) bool {
	if len(t.Constructors) == 0 {
		return true
	}
	for _, ctor := range t.Constructors {
		if ctor.Internal {
			continue
		}
		ordinary := 0
		for _, p := range ctor.Params {
			if _, imported := p.Annotations.ImportKind(); !imported {
				ordinary++
			}
		}
		if ordinary == 0 {
			return true
		}
	}
	return false
}
