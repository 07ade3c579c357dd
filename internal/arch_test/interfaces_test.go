package arch_test

import (
	"go/ast"
	"testing"
)

// TestInterfacePlacement verifies that interfaces are declared where they
// are consumed: no package may declare an interface that a type of its own
// already satisfies (by method name).
func TestInterfacePlacement(t *testing.T) {
	t.Parallel()

	for _, pkg := range packages(t) {
		ifaces := make(map[string][]string)
		methods := make(map[string]map[string]bool)
		for _, f := range pkg.Files {
			collectInterfaces(f, ifaces)
			collectMethods(f, methods)
		}
		for iface, want := range ifaces {
			if len(want) == 0 {
				continue
			}
			for typ, have := range methods {
				if hasAll(have, want) {
					t.Errorf("interface %s defined in %s but %s in the same package implements it; move it to the consumer",
						iface, pkg.Name, typ)
				}
			}
		}
	}
}

func collectInterfaces(f *ast.File, out map[string][]string) {
	ast.Inspect(f, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		it, ok := ts.Type.(*ast.InterfaceType)
		if !ok {
			return false
		}
		var names []string
		for _, m := range it.Methods.List {
			for _, name := range m.Names {
				names = append(names, name.Name)
			}
		}
		out[ts.Name.Name] = names
		return false
	})
}

func collectMethods(f *ast.File, out map[string]map[string]bool) {
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
			continue
		}
		typ := fd.Recv.List[0].Type
		if star, ok := typ.(*ast.StarExpr); ok {
			typ = star.X
		}
		id, ok := typ.(*ast.Ident)
		if !ok {
			continue
		}
		if out[id.Name] == nil {
			out[id.Name] = make(map[string]bool)
		}
		out[id.Name][fd.Name.Name] = true
	}
}

func hasAll(have map[string]bool, want []string) bool {
	for _, m := range want {
		if !have[m] {
			return false
		}
	}
	return true
}

func TestInterfaceHelpers(t *testing.T) {
	t.Parallel()

	ifaces := make(map[string][]string)
	for _, f := range findPackage(t, "bset").Files {
		collectInterfaces(f, ifaces)
	}
	engine, ok := ifaces["Engine"]
	if !ok || len(engine) == 0 {
		t.Fatalf("expected bset to declare a non-empty Engine interface, got %v", ifaces)
	}
}
