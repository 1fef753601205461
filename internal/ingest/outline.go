package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Top-level declarations only: every pattern is anchored at the program node.
const javascriptOutlineQuery = `
	(program (function_declaration name: (identifier) @name))
	(program (class_declaration name: (identifier) @name))
	(program (lexical_declaration (variable_declarator name: (identifier) @name)))
	(program (variable_declaration (variable_declarator name: (identifier) @name)))
	(program (export_statement (function_declaration name: (identifier) @name)))
	(program (export_statement (class_declaration name: (identifier) @name)))
	(program (export_statement (lexical_declaration (variable_declarator name: (identifier) @name))))
`

const typescriptOutlineQuery = `
	(program (function_declaration name: (identifier) @name))
	(program (class_declaration name: (type_identifier) @name))
	(program (lexical_declaration (variable_declarator name: (identifier) @name)))
	(program (interface_declaration name: (type_identifier) @name))
	(program (type_alias_declaration name: (type_identifier) @name))
	(program (enum_declaration name: (identifier) @name))
	(program (export_statement (function_declaration name: (identifier) @name)))
	(program (export_statement (class_declaration name: (type_identifier) @name)))
	(program (export_statement (lexical_declaration (variable_declarator name: (identifier) @name))))
	(program (export_statement (interface_declaration name: (type_identifier) @name)))
	(program (export_statement (type_alias_declaration name: (type_identifier) @name)))
	(program (export_statement (enum_declaration name: (identifier) @name)))
`

type outlineSpec struct {
	language *sitter.Language
	query    string
}

// Outliner lists the top-level declarations of JavaScript and TypeScript
// sources with tree-sitter.
type Outliner struct {
	specs map[string]outlineSpec // extension with dot
}

// NewOutliner creates an outliner for .js .jsx .mjs .cjs .ts and .tsx files
func NewOutliner() *Outliner {
	js := outlineSpec{language: javascript.GetLanguage(), query: javascriptOutlineQuery}
	return &Outliner{
		specs: map[string]outlineSpec{
			".js":  js,
			".jsx": js,
			".mjs": js,
			".cjs": js,
			".ts":  {language: typescript.GetLanguage(), query: typescriptOutlineQuery},
			".tsx": {language: tsx.GetLanguage(), query: typescriptOutlineQuery},
		},
	}
}

// Supports reports whether path has a grammar
func (o *Outliner) Supports(path string) bool {
	_, ok := o.specs[filepath.Ext(path)]
	return ok
}

// Outline returns declaration names in source order, without duplicates.
// Unsupported files yield nil and no error.
func (o *Outliner) Outline(ctx context.Context, path string, src []byte) ([]string, error) {
	spec, ok := o.specs[filepath.Ext(path)]
	if !ok {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.query), spec.language)
	if err != nil {
		return nil, fmt.Errorf("compile outline query for %s: %w", filepath.Ext(path), err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	type decl struct {
		name  string
		start uint32
	}
	var decls []decl
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if q.CaptureNameForId(c.Index) == "name" {
				decls = append(decls, decl{name: c.Node.Content(src), start: c.Node.StartByte()})
			}
		}
	}

	slices.SortStableFunc(decls, func(a, b decl) int { return int(a.start) - int(b.start) })

	var names []string
	for _, d := range decls {
		if !slices.Contains(names, d.name) {
			names = append(names, d.name)
		}
	}
	return names, nil
}
