package discovery

import (
	"go.uber.org/zap"

	"github.com/pchp-lang/pchp/internal/compiler/errors"
	"github.com/pchp-lang/pchp/internal/compiler/metadata"
	"github.com/pchp-lang/pchp/internal/compiler/symbols"
)

// candidate is a validated symbol waiting to be merged into the table,
// together with the declaration it came from.
type candidate[T any] struct {
	decl string
	sym  T
}

// moduleResult is everything one module contributes to a discovery pass.
type moduleResult struct {
	module    candidate[symbols.ModuleSymbol]
	types     []candidate[symbols.TypeSymbol]
	functions []candidate[symbols.FunctionSymbol]
	scripts   []candidate[symbols.ScriptSymbol]
	excluded  []string
	diags     errors.ErrorList
}

// member is a validated member together with its visibility verdict.
type member struct {
	sym     symbols.MemberSymbol
	valid   bool
	visible bool
}

// discoverModule validates one module. It touches no shared state, so
// modules can be discovered concurrently.
func discoverModule(mod *metadata.Module, opts Options) *moduleResult {
	c := &checker{opts: opts}
	res := &moduleResult{}
	log := opts.Logger.With(zap.String("module", mod.Name))
	log.Debug("discovering module", zap.Int("types", len(mod.Types)))

	ms := symbols.ModuleSymbol{Name: mod.Name}
	if c.annotations(mod.Path(), metadata.TargetModule, mod.Annotations) {
		for _, ext := range metadata.FindAll[metadata.ExtensionModule](mod.Annotations) {
			ms.Extensions = appendUnique(ms.Extensions, ext.Extensions...)
			if ext.Registrator != "" && c.registrator(mod, mod.Path(), ext.Registrator) {
				ms.Registrations = append(ms.Registrations, symbols.Registration{
					Module:      mod.Name,
					Declarer:    mod.Path(),
					Extensions:  append([]string(nil), ext.Extensions...),
					Registrator: ext.Registrator,
				})
			}
		}
		for _, lt := range metadata.FindAll[metadata.LanguageTarget](mod.Annotations) {
			ms.LanguageTargets = append(ms.LanguageTargets, symbols.LanguageTarget{Version: lt.Version, ShortOpenTag: lt.ShortOpenTag})
		}
	}

	for _, t := range mod.Types {
		regs := discoverType(c, mod, t, res, log)
		ms.Registrations = append(ms.Registrations, regs...)
	}

	res.module = candidate[symbols.ModuleSymbol]{decl: mod.Path(), sym: ms}
	res.diags = c.diags
	return res
}

// discoverType validates t and its members and adds whatever is visible to
// res. It returns the registrator obligations t declares when t itself is
// exposed.
func discoverType(c *checker, mod *metadata.Module, t *metadata.Type, res *moduleResult, log *zap.Logger) []symbols.Registration {
	path := mod.TypePath(t)
	valid := c.annotations(path, t.DeclKind().Target(), t.Annotations)

	extensions := []string(nil)
	var regs []symbols.Registration
	exts := metadata.FindAll[metadata.ExtensionModule](t.Annotations)
	for _, ext := range exts {
		extensions = appendUnique(extensions, ext.Extensions...)
		if valid && ext.Registrator != "" && c.registrator(mod, path, ext.Registrator) {
			regs = append(regs, symbols.Registration{
				Module:      mod.Name,
				Declarer:    path,
				Extensions:  append([]string(nil), ext.Extensions...),
				Registrator: ext.Registrator,
			})
		}
	}

	conditions := scopes(t.Annotations)
	hidden := t.Annotations.Has(metadata.KindHidden)
	active := c.opts.active(conditions)
	// members are validated even when the type itself is dropped
	members, methods := discoverMembers(c, mod, t, res, log)

	// registrators of a dropped type are still checked above but never
	// become obligations
	if !valid {
		return nil
	}
	if hidden || !active {
		res.exclude(log, path, hidden)
		return nil
	}
	if t.Internal {
		return nil
	}

	if su, ok := metadata.Find[metadata.ScriptUnit](t.Annotations); ok {
		res.scripts = append(res.scripts, candidate[symbols.ScriptSymbol]{
			decl: path,
			sym:  symbols.ScriptSymbol{Path: su.Path, HostName: t.QualifiedName(), Module: mod.Name},
		})
	}

	if len(exts) > 0 {
		for i, m := range methods {
			meth := t.Methods[i]
			if !m.valid || !m.visible || !meth.Static || m.sym.Visibility != metadata.Public {
				continue
			}
			res.functions = append(res.functions, candidate[symbols.FunctionSymbol]{
				decl: mod.MemberPath(t, meth.Name),
				sym: symbols.FunctionSymbol{
					Name:       meth.Name,
					HostName:   t.QualifiedName() + "." + meth.Name,
					Module:     mod.Name,
					Extensions: append([]string(nil), extensions...),
					Conditions: m.sym.Conditions,
					Signature:  *m.sym.Signature,
				},
			})
		}
	}

	st, hasSourceType := metadata.Find[metadata.SourceType](t.Annotations)
	trait := t.Annotations.Has(metadata.KindTrait)
	if !hasSourceType && !trait {
		return regs
	}

	ts := symbols.TypeSymbol{
		Name:       ExposedName(t),
		HostName:   t.QualifiedName(),
		Module:     mod.Name,
		Kind:       t.DeclKind(),
		Trait:      trait,
		FileName:   st.FileName,
		Extensions: extensions,
		Conditions: conditions,
	}
	for _, m := range members {
		if m.valid && m.visible {
			ts.Members = append(ts.Members, m.sym)
		}
	}
	res.types = append(res.types, candidate[symbols.TypeSymbol]{decl: path, sym: ts})
	return regs
}

// discoverMembers validates every member of t. The second result holds the
// methods only, index-aligned with t.Methods.
func discoverMembers(c *checker, mod *metadata.Module, t *metadata.Type, res *moduleResult, log *zap.Logger) (all, methods []member) {
	for i, ctor := range t.Constructors {
		path := mod.MemberPath(t, metadata.CtorName(i))
		valid := c.annotations(path, metadata.TargetConstructor, ctor.Annotations)
		sig, ok := c.signature(path, ctor.Params, nil)
		all = append(all, member{
			sym: symbols.MemberSymbol{
				Name:       "__construct",
				Kind:       symbols.MemberConstructor,
				Visibility: metadata.Public,
				Signature:  &sig,
				FieldsOnly: ctor.Annotations.Has(metadata.KindFieldsOnlyConstructor),
			},
			valid:   valid && ok,
			visible: !ctor.Internal,
		})
	}

	for _, meth := range t.Methods {
		path := mod.MemberPath(t, meth.Name)
		valid := c.annotations(path, metadata.TargetMethod, meth.Annotations)
		sig, ok := c.signature(path, meth.Params, meth.Return)
		m := c.classify(res, log, path, meth.Internal, meth.Annotations, valid && ok)
		m.sym.Name = meth.Name
		m.sym.Kind = symbols.MemberMethod
		m.sym.Static = meth.Static
		m.sym.Signature = &sig
		all = append(all, m)
		methods = append(methods, m)
	}

	for _, f := range t.Fields {
		path := mod.MemberPath(t, f.Name)
		valid := c.annotations(path, metadata.TargetField, f.Annotations)
		m := c.classify(res, log, path, f.Internal, f.Annotations, valid)
		m.sym.Name = f.Name
		m.sym.Kind = symbols.MemberField
		m.sym.Static = f.Static
		m.sym.Type = f.Type
		m.sym.NotNull = f.Annotations.Has(metadata.KindNotNull)
		if m.sym.NotNull {
			c.notNull(path, f.Type)
		}
		all = append(all, m)
	}

	for _, p := range t.Properties {
		path := mod.MemberPath(t, p.Name)
		valid := c.annotations(path, metadata.TargetProperty, p.Annotations)
		m := c.classify(res, log, path, p.Internal, p.Annotations, valid)
		m.sym.Name = p.Name
		m.sym.Kind = symbols.MemberProperty
		m.sym.Static = p.Static
		m.sym.Type = p.Type
		m.sym.NotNull = p.Annotations.Has(metadata.KindNotNull)
		if m.sym.NotNull {
			c.notNull(path, p.Type)
		}
		all = append(all, m)
	}

	return all, methods
}

// classify applies the visibility rules shared by methods, fields and
// properties.
func (c *checker) classify(res *moduleResult, log *zap.Logger, path string, internal bool, as metadata.Annotations, valid bool) member {
	m := member{valid: valid}
	m.sym.Conditions = scopes(as)
	m.sym.Visibility = metadata.Public
	if mv, ok := metadata.Find[metadata.MemberVisibility](as); ok && mv.Level.Valid() {
		m.sym.Visibility = mv.Level
	}

	hidden := as.Has(metadata.KindHidden)
	active := c.opts.active(m.sym.Conditions)
	if valid && (hidden || !active) && !internal {
		res.exclude(log, path, hidden)
	}
	m.visible = !internal && !hidden && active
	return m
}

func (res *moduleResult) exclude(log *zap.Logger, path string, hidden bool) {
	reason := "inactive scope"
	if hidden {
		reason = "hidden"
	}
	log.Debug("excluded declaration", zap.String("declaration", path), zap.String("reason", reason))
	res.excluded = append(res.excluded, path)
}

// ExposedName resolves the source name of a type: the explicit SourceType
// name when one is given, otherwise the simple host name.
func ExposedName(t *metadata.Type) string {
	if st, ok := metadata.Find[metadata.SourceType](t.Annotations); ok && st.Name != "" && st.Name != metadata.DeriveName {
		return st.Name
	}
	return t.SimpleName()
}

func scopes(as metadata.Annotations) []string {
	var out []string
	for _, c := range metadata.FindAll[metadata.Conditional](as) {
		out = append(out, c.Scope)
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		dup := false
		for _, have := range list {
			if have == item {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, item)
		}
	}
	return list
}
