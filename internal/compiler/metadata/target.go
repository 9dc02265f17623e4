package metadata

import "strings"

// Target is a set of declaration categories an annotation may be attached to.
type Target uint16

const (
	TargetModule Target = 1 << iota
	TargetClass
	TargetInterface
	TargetEnum
	TargetMethod
	TargetConstructor
	TargetField
	TargetProperty
	TargetParameter
	TargetReturnValue
)

var targetNames = []struct {
	t    Target
	name string
}{
	{TargetModule, "module"},
	{TargetClass, "class"},
	{TargetInterface, "interface"},
	{TargetEnum, "enum"},
	{TargetMethod, "method"},
	{TargetConstructor, "constructor"},
	{TargetField, "field"},
	{TargetProperty, "property"},
	{TargetParameter, "parameter"},
	{TargetReturnValue, "return value"},
}

// Has reports whether every category in o is part of t.
func (t Target) Has(o Target) bool {
	return o != 0 && t&o == o
}

// Names returns the category names in t in declaration order.
func (t Target) Names() []string {
	var out []string
	for _, tn := range targetNames {
		if t&tn.t != 0 {
			out = append(out, tn.name)
		}
	}
	return out
}

func (t Target) String() string {
	if t == 0 {
		return "none"
	}
	return strings.Join(t.Names(), "|")
}

type usage struct {
	targets    Target
	repeatable bool
}

var usages = map[Kind]usage{
	KindScriptUnit:              {TargetClass, false},
	KindExtensionModule:         {TargetModule | TargetClass | TargetInterface, true},
	KindLanguageTarget:          {TargetModule, true},
	KindHidden:                  {TargetClass | TargetEnum | TargetMethod | TargetField, false},
	KindConditional:             {TargetClass | TargetProperty | TargetMethod | TargetField, true},
	KindSourceType:              {TargetClass | TargetInterface, false},
	KindMemberVisibility:        {TargetMethod | TargetField | TargetProperty, false},
	KindImportLocals:            {TargetParameter, false},
	KindImportCallerArgs:        {TargetParameter, false},
	KindImportCallerClass:       {TargetParameter, false},
	KindImportCallerStaticClass: {TargetParameter, false},
	KindCastToFalse:             {TargetReturnValue, false},
	KindTrait:                   {TargetClass, false},
	KindFieldsOnlyConstructor:   {TargetConstructor, false},
	KindNotNull:                 {TargetParameter | TargetReturnValue | TargetField | TargetProperty, false},
}

// Usage returns the categories kind may be attached to and whether it may
// appear more than once on one declaration. Unknown kinds attach nowhere.
func Usage(kind Kind) (targets Target, repeatable bool) {
	u := usages[kind]
	return u.targets, u.repeatable
}
