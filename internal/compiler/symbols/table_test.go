package symbols

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pchp-lang/pchp/internal/compiler/metadata"
)

func strlen() FunctionSymbol {
	return FunctionSymbol{
		Name:       "strlen",
		HostName:   "Pchp.Library.Strings.strlen",
		Module:     "standard",
		Extensions: []string{"standard"},
		Signature: Signature{
			Params: []Param{{Position: 0, Name: "str", Type: metadata.String}},
			Return: metadata.Int,
		},
	}
}

func TestTableInsertOnce(t *testing.T) {
	tbl := NewTable()

	require.NoError(t, tbl.AddType(TypeSymbol{Name: "Foo", HostName: "A.Foo", Module: "a"}))

	err := tbl.AddType(TypeSymbol{Name: "foo", HostName: "B.Foo", Module: "b"})
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "type", conflict.Kind)
	assert.Equal(t, "a::A.Foo", conflict.Existing)
	assert.Equal(t, "b::B.Foo", conflict.Rejected)
	assert.Contains(t, err.Error(), `type "foo"`)

	got, ok := tbl.Type("FOO")
	require.True(t, ok)
	assert.Equal(t, "A.Foo", got.HostName, "first insert must win")
	assert.Len(t, tbl.Types(), 1)
}

func TestTableFunctions(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.AddFunction(strlen()))
	assert.Error(t, tbl.AddFunction(strlen()))

	got, ok := tbl.Function("StrLen")
	require.True(t, ok)
	if diff := cmp.Diff(strlen(), got); diff != "" {
		t.Errorf("Function() mismatch (-want +got):\n%s", diff)
	}

	_, ok = tbl.Function("substr")
	assert.False(t, ok)
}

func TestTableScripts(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.AddScript(ScriptSymbol{Path: "lib/a.php", HostName: "A", Module: "app"}))
	require.NoError(t, tbl.AddScript(ScriptSymbol{Path: "lib/A.php", HostName: "B", Module: "app"}))
	assert.Error(t, tbl.AddScript(ScriptSymbol{Path: "lib/a.php", HostName: "C", Module: "app"}))

	got, ok := tbl.Script("lib/a.php")
	require.True(t, ok)
	assert.Equal(t, "A", got.HostName)

	scripts := tbl.Scripts()
	require.Len(t, scripts, 2)
	assert.Equal(t, "lib/A.php", scripts[0].Path)
	assert.Equal(t, 2, tbl.Len())
}

func TestTableModulesAndRegistrations(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.AddModule(ModuleSymbol{
		Name:       "standard",
		Extensions: []string{"standard", "core"},
		Registrations: []Registration{
			{Module: "standard", Declarer: "standard", Registrator: "Pchp.Library.StandardRegistrator"},
			{Module: "standard", Declarer: "standard::Pchp.Library.Pcre", Extensions: []string{"pcre"}, Registrator: "Pchp.Library.PcreRegistrator"},
		},
	}))
	require.NoError(t, tbl.AddModule(ModuleSymbol{
		Name:          "json",
		Registrations: []Registration{{Module: "json", Declarer: "json", Registrator: "Pchp.Library.JsonRegistrator"}},
	}))
	assert.Error(t, tbl.AddModule(ModuleSymbol{Name: "json"}))

	regs := tbl.Registrations()
	require.Len(t, regs, 3)
	assert.Equal(t, "Pchp.Library.JsonRegistrator", regs[0].Registrator)
	assert.Equal(t, "Pchp.Library.StandardRegistrator", regs[1].Registrator)
	assert.Equal(t, "Pchp.Library.PcreRegistrator", regs[2].Registrator)

	mods := tbl.Modules()
	require.Len(t, mods, 2)
	assert.Equal(t, "json", mods[0].Name)
}

func TestTableReturnsCopies(t *testing.T) {
	tbl := NewTable()
	sym := TypeSymbol{
		Name:       "Strings",
		HostName:   "Pchp.Library.Strings",
		Module:     "standard",
		Extensions: []string{"standard"},
		Members: []MemberSymbol{{
			Name:       "strpos",
			Kind:       MemberMethod,
			Static:     true,
			Visibility: metadata.Public,
			Signature:  &Signature{Return: metadata.Int, CastToFalse: true},
		}},
	}
	require.NoError(t, tbl.AddType(sym))

	// mutating the inserted value must not reach the table
	sym.Extensions[0] = "mutated"

	got, _ := tbl.Type("strings")
	assert.Equal(t, []string{"standard"}, got.Extensions)

	got.Members[0].Signature.CastToFalse = false
	got.Members[0].Name = "x"

	again, _ := tbl.Type("strings")
	m, ok := again.Member("STRPOS")
	require.True(t, ok)
	assert.True(t, m.Signature.CastToFalse)
}

func TestSnapshotRoundTrip(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.AddModule(ModuleSymbol{Name: "standard"}))
	require.NoError(t, tbl.AddType(TypeSymbol{Name: "Closure", HostName: "Pchp.Core.Closure", Module: "standard", Kind: metadata.DeclClass}))
	require.NoError(t, tbl.AddFunction(strlen()))
	require.NoError(t, tbl.AddScript(ScriptSymbol{Path: "index.php", HostName: "index_php", Module: "app"}))

	back, err := FromSnapshot(tbl.Snapshot())
	require.NoError(t, err)
	if diff := cmp.Diff(tbl.Snapshot(), back.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	dup := tbl.Snapshot()
	dup.Types = append(dup.Types, dup.Types[0])
	_, err = FromSnapshot(dup)
	assert.Error(t, err)
}

func TestTableConcurrentInsertOnce(t *testing.T) {
	tbl := NewTable()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := tbl.AddType(TypeSymbol{Name: "Shared", HostName: fmt.Sprintf("Host%d", i), Module: "m"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
			_, _ = tbl.Type("shared")
			_ = tbl.Types()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, tbl.Types(), 1)
}
