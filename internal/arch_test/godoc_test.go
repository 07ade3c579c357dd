package arch_test

import (
	"go/ast"
	"go/token"
	"strings"
	"testing"
)

// docExemptions lists exported symbols that intentionally lack GoDoc, per
// package. Keep it small and justify every entry.
var docExemptions = map[string][]string{
	// String implements fmt.Stringer on types whose docs already describe
	// the printed form.
	"crystal": {"String"},
	"enum":    {"String"},
}

// TestExportedSymbolsHaveGoDoc verifies that every exported type, function,
// method, var and const has a doc comment starting with its name. Members of
// grouped const/var blocks may rely on the block comment or an inline one.
func TestExportedSymbolsHaveGoDoc(t *testing.T) {
	t.Parallel()

	for _, pkg := range packages(t) {
		t.Run(pkg.Name, func(t *testing.T) {
			t.Parallel()

			exempt := make(map[string]bool)
			for _, name := range docExemptions[pkg.Name] {
				exempt[name] = true
			}
			for _, path := range pkg.paths() {
				for _, miss := range undocumented(pkg.Files[path], exempt) {
					pos := pkg.Fset.Position(miss.pos)
					t.Errorf("%s:%d: exported %s %s has no GoDoc comment",
						relPath(path), pos.Line, miss.kind, miss.name)
				}
			}
		})
	}
}

type missingDoc struct {
	kind string
	name string
	pos  token.Pos
}

func undocumented(f *ast.File, exempt map[string]bool) []missingDoc {
	var out []missingDoc
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !d.Name.IsExported() || exempt[d.Name.Name] {
				continue
			}
			if d.Recv != nil && !exportedReceiver(d.Recv) {
				continue
			}
			if !startsWithName(d.Doc, d.Name.Name) {
				kind := "func"
				if d.Recv != nil {
					kind = "method"
				}
				out = append(out, missingDoc{kind, d.Name.Name, d.Pos()})
			}
		case *ast.GenDecl:
			out = append(out, undocumentedSpecs(d, exempt)...)
		}
	}
	return out
}

func undocumentedSpecs(d *ast.GenDecl, exempt map[string]bool) []missingDoc {
	grouped := len(d.Specs) > 1
	blockDoc := d.Doc != nil && strings.TrimSpace(d.Doc.Text()) != ""

	var out []missingDoc
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if !s.Name.IsExported() || exempt[s.Name.Name] {
				continue
			}
			doc := s.Doc
			if doc == nil {
				doc = d.Doc
			}
			if !startsWithName(doc, s.Name.Name) {
				out = append(out, missingDoc{"type", s.Name.Name, s.Pos()})
			}
		case *ast.ValueSpec:
			for _, name := range s.Names {
				if !name.IsExported() || exempt[name.Name] {
					continue
				}
				if grouped && (blockDoc || startsWithName(s.Doc, name.Name) || s.Comment != nil) {
					continue
				}
				doc := s.Doc
				if doc == nil {
					doc = d.Doc
				}
				if !grouped && startsWithName(doc, name.Name) {
					continue
				}
				kind := "var"
				if d.Tok == token.CONST {
					kind = "const"
				}
				out = append(out, missingDoc{kind, name.Name, name.Pos()})
			}
		}
	}
	return out
}

func startsWithName(doc *ast.CommentGroup, name string) bool {
	if doc == nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(doc.Text()), name)
}

// exportedReceiver reports whether a method's receiver base type is
// exported. Methods on unexported types are not public API.
func exportedReceiver(recv *ast.FieldList) bool {
	if recv == nil || len(recv.List) == 0 {
		return false
	}
	expr := recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.IsExported()
		default:
			return false
		}
	}
}
