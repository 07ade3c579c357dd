// Package arch_test enforces the structural rules of the internal packages:
// dependency layers, documentation, global state, interface placement and
// file sizes. It parses source only and never imports the packages it checks.
package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
)

const (
	modulePath  = "github.com/papapumpkin/casmproj"
	internalPfx = modulePath + "/internal/"
)

// srcPackage is one parsed internal package, non-test files only.
type srcPackage struct {
	Name  string
	Dir   string
	Fset  *token.FileSet
	Files map[string]*ast.File // keyed by absolute path
}

// paths returns the file paths of the package in sorted order.
func (p *srcPackage) paths() []string {
	out := make([]string, 0, len(p.Files))
	for path := range p.Files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// imports returns every import path of the package, deduplicated and
// sorted.
func (p *srcPackage) imports() []string {
	seen := make(map[string]bool)
	for _, f := range p.Files {
		for _, imp := range f.Imports {
			seen[strings.Trim(imp.Path.Value, `"`)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// internalImports returns the internal package names the package imports.
func (p *srcPackage) internalImports() []string {
	var out []string
	for _, path := range p.imports() {
		if rel, ok := strings.CutPrefix(path, internalPfx); ok {
			rel, _, _ = strings.Cut(rel, "/")
			out = append(out, rel)
		}
	}
	return out
}

var (
	loadOnce sync.Once
	loaded   []*srcPackage
	loadErr  error
	rootPath string
)

// repoRoot walks up from this file to the directory holding go.mod.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	dir := filepath.Dir(thisFile)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

// packages parses every internal package once per test binary.
func packages(t *testing.T) []*srcPackage {
	t.Helper()
	root := repoRoot(t)
	loadOnce.Do(func() {
		rootPath = root
		loaded, loadErr = parseInternal(filepath.Join(root, "internal"))
	})
	if loadErr != nil {
		t.Fatalf("parsing internal packages: %v", loadErr)
	}
	return loaded
}

func parseInternal(dir string) ([]*srcPackage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var pkgs []*srcPackage
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "arch_test" {
			continue
		}
		pkg := &srcPackage{
			Name:  e.Name(),
			Dir:   filepath.Join(dir, e.Name()),
			Fset:  token.NewFileSet(),
			Files: make(map[string]*ast.File),
		}
		for _, path := range goFiles(pkg.Dir, false) {
			f, err := parser.ParseFile(pkg.Fset, path, nil, parser.ParseComments)
			if err != nil {
				return nil, err
			}
			pkg.Files[path] = f
		}
		if len(pkg.Files) > 0 {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

// goFiles lists the .go files of dir, with or without tests.
func goFiles(dir string, withTests bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if !withTests && strings.HasSuffix(name, "_test.go") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out
}

// relPath returns path relative to the repository root.
func relPath(path string) string {
	if rel, err := filepath.Rel(rootPath, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// findPackage returns the named package or fails the test.
func findPackage(t *testing.T, name string) *srcPackage {
	t.Helper()
	for _, p := range packages(t) {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("package %q not found under internal/", name)
	return nil
}

func TestPackagesParsed(t *testing.T) {
	t.Parallel()

	pkgs := packages(t)
	if len(pkgs) < 10 {
		t.Errorf("expected at least 10 internal packages, got %d", len(pkgs))
	}
	for _, p := range pkgs {
		if p.Name == "arch_test" {
			t.Error("arch_test must not check itself")
		}
		for path := range p.Files {
			if strings.HasSuffix(path, "_test.go") {
				t.Errorf("%s: test files must not be parsed", relPath(path))
			}
		}
	}

	imports := findPackage(t, "importer").internalImports()
	for _, want := range []string{"calc", "enum"} {
		found := false
		for _, imp := range imports {
			found = found || imp == want
		}
		if !found {
			t.Errorf("expected internal/importer to import %q, got %v", want, imports)
		}
	}
}
