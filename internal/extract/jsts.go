package extract

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsx "github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codegraphd/codegraphd/internal/graphcore"
)

// Regex fallback, ported from philtographer's internal/scan/scan.go
// ParseImports. Used when the tree-sitter parse fails (spec §4.1: "must
// not fail catastrophically on malformed input").
var (
	reImportFrom = regexp.MustCompile(`(?m)^\s*import(?:\s+type)?\s+.*?from\s+['"]([^'"]+)['"]`)
	reImportBare = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	reRequire    = regexp.MustCompile(`(?m)require\(\s*['"]([^'"]+)['"]\s*\)`)
	reDynamic    = regexp.MustCompile(`(?m)import\(\s*['"]([^'"]+)['"]\s*\)`)
	reExportFrom = regexp.MustCompile(`(?m)^\s*export\s+.*?\sfrom\s+['"]([^'"]+)['"]`)
)

var assetSuffixes = []string{".css", ".scss", ".less", ".yml", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".mp3", ".mp4"}

func isAsset(spec string) bool {
	l := strings.ToLower(spec)
	for _, suf := range assetSuffixes {
		if strings.HasSuffix(l, suf) {
			return true
		}
	}
	return false
}

// JSTSExtractor captures ES-module imports, dynamic import(), require(),
// and export-from re-exports (spec §4.1), preferring a tree-sitter AST walk
// (generalized from internal/scan/ts_ast.go) and falling back to regex on
// parse failure.
type JSTSExtractor struct{}

func (JSTSExtractor) Extract(path string, content []byte) Record {
	lang := "javascript"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".ts" || ext == ".tsx" {
		lang = "typescript"
	}
	rec := Record{File: path, Language: lang}

	edges, symbols, ok := astExtract(path, content)
	if !ok {
		edges = regexExtract(filepath.Dir(path), content)
	}
	rec.Edges = edges
	rec.Symbols = symbols
	if !ok && len(content) > 0 {
		rec.Warnings = append(rec.Warnings, Warning{Kind: ExtractFailed, File: path, Reason: "tree-sitter parse failed; used regex fallback"})
	}
	return rec
}

func astExtract(path string, content []byte) (edges []EdgeSpec, symbols []string, ok bool) {
	parser := sitter.NewParser()
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".ts" {
		parser.SetLanguage(ts.GetLanguage())
	} else {
		parser.SetLanguage(tsx.GetLanguage())
	}
	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, nil, false
	}
	root := tree.RootNode()
	if root == nil {
		return nil, nil, false
	}

	dir := filepath.Dir(path)
	addEdge := func(raw string, typ graphcore.EdgeType, line int) {
		if raw == "" || isAsset(raw) || strings.Contains(raw, "*") {
			return
		}
		edges = append(edges, EdgeSpec{Spec: joinRelative(dir, raw), Type: typ, Line: line})
	}

	// import-only extraction stays statement-level by construction: JS/TS
	// grammar only ever produces import_statement/export_statement nodes
	// at module scope, so walking every named child (as the teacher's
	// ts_ast.go does) never reaches into a function body for these node
	// kinds.
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if !n.IsNamed() {
			return
		}
		line := int(n.StartPoint().Row) + 1
		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "string" {
					addEdge(stringContent(content, c), graphcore.Import, line)
				}
			}
		case "export_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "string" {
					addEdge(stringContent(content, c), graphcore.Import, line)
				}
			}
		case "call_expression":
			if n.NamedChildCount() >= 2 {
				callee := n.NamedChild(0)
				args := n.NamedChild(1)
				if callee != nil && (callee.Type() == "identifier" || callee.Type() == "import") {
					name := nodeText(content, callee)
					if name == "require" || name == "import" {
						typ := graphcore.Require
						if name == "import" {
							typ = graphcore.Import
						}
						for i := 0; i < int(args.NamedChildCount()); i++ {
							a := args.NamedChild(i)
							if a.Type() == "string" {
								addEdge(stringContent(content, a), typ, line)
								break
							}
						}
					}
				}
			}
		case "function_declaration", "class_declaration":
			if id := findChild(n, "identifier"); id != nil {
				symbols = append(symbols, nodeText(content, id))
			}
			// do not descend into the body for import purposes; symbol
			// capture above is shallow (name only).
			return
		case "lexical_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				vd := n.NamedChild(i)
				if vd.Type() == "variable_declarator" {
					if id := findChild(vd, "identifier"); id != nil {
						symbols = append(symbols, nodeText(content, id))
					}
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return edges, symbols, true
}

// joinRelative performs pure path algebra (no filesystem access, per the
// Extractor contract): relative specs become a cleaned, slash-normalized
// path joined against the importing file's directory, ready for the Graph
// Store to try extension inference against. Bare specs (package names) are
// left untouched.
func joinRelative(dir, spec string) string {
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		return filepath.ToSlash(filepath.Clean(filepath.Join(dir, spec)))
	}
	return spec
}

func regexExtract(dir string, content []byte) []EdgeSpec {
	text := string(content)
	seen := map[string]graphcore.EdgeType{}
	add := func(matches [][]string, typ graphcore.EdgeType) {
		for _, m := range matches {
			if len(m) > 1 {
				spec := strings.TrimSpace(m[1])
				if spec != "" && !isAsset(spec) {
					seen[joinRelative(dir, spec)] = typ
				}
			}
		}
	}
	add(reImportFrom.FindAllStringSubmatch(text, -1), graphcore.Import)
	add(reImportBare.FindAllStringSubmatch(text, -1), graphcore.Import)
	add(reExportFrom.FindAllStringSubmatch(text, -1), graphcore.Import)
	add(reRequire.FindAllStringSubmatch(text, -1), graphcore.Require)
	add(reDynamic.FindAllStringSubmatch(text, -1), graphcore.Import)

	out := make([]EdgeSpec, 0, len(seen))
	for spec, typ := range seen {
		out = append(out, EdgeSpec{Spec: spec, Type: typ})
	}
	return out
}

func stringContent(src []byte, n *sitter.Node) string {
	return strings.Trim(nodeText(src, n), "'\"")
}

func nodeText(src []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(bytes.TrimSpace(src[n.StartByte():n.EndByte()]))
}

func findChild(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == typ {
			return c
		}
	}
	return nil
}
