package parse

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageGrammar describes how a tree-sitter grammar maps to ParsedStructure.
type languageGrammar struct {
	name          string
	extensions    []string
	tsLanguage    *sitter.Language
	functionTypes map[string]bool
	methodTypes   map[string]bool
	classTypes    map[string]bool
	interfaceTypes map[string]bool
	importTypes   map[string]bool
	nameField     string
}

func toSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func goGrammar() languageGrammar {
	return languageGrammar{
		name:           "go",
		extensions:     []string{".go"},
		tsLanguage:     golang.GetLanguage(),
		functionTypes:  toSet([]string{"function_declaration"}),
		methodTypes:    toSet([]string{"method_declaration"}),
		classTypes:     toSet([]string{"type_declaration"}),
		interfaceTypes: toSet([]string{}),
		importTypes:    toSet([]string{"import_declaration"}),
		nameField:      "name",
	}
}

func typescriptGrammar() languageGrammar {
	return languageGrammar{
		name:           "typescript",
		extensions:     []string{".ts"},
		tsLanguage:     typescript.GetLanguage(),
		functionTypes:  toSet([]string{"function_declaration"}),
		methodTypes:    toSet([]string{"method_definition"}),
		classTypes:     toSet([]string{"class_declaration"}),
		interfaceTypes: toSet([]string{"interface_declaration"}),
		importTypes:    toSet([]string{"import_statement"}),
		nameField:      "name",
	}
}

func tsxGrammar() languageGrammar {
	g := typescriptGrammar()
	g.name = "tsx"
	g.extensions = []string{".tsx"}
	g.tsLanguage = tsx.GetLanguage()
	return g
}

func javascriptGrammar() languageGrammar {
	return languageGrammar{
		name:           "javascript",
		extensions:     []string{".js", ".mjs", ".jsx"},
		tsLanguage:     javascript.GetLanguage(),
		functionTypes:  toSet([]string{"function_declaration", "function"}),
		methodTypes:    toSet([]string{"method_definition"}),
		classTypes:     toSet([]string{"class_declaration"}),
		interfaceTypes: toSet([]string{}),
		importTypes:    toSet([]string{"import_statement"}),
		nameField:      "name",
	}
}

func pythonGrammar() languageGrammar {
	return languageGrammar{
		name:           "python",
		extensions:     []string{".py"},
		tsLanguage:     python.GetLanguage(),
		functionTypes:  toSet([]string{"function_definition"}),
		methodTypes:    toSet([]string{}),
		classTypes:     toSet([]string{"class_definition"}),
		interfaceTypes: toSet([]string{}),
		importTypes:    toSet([]string{"import_statement", "import_from_statement"}),
		nameField:      "name",
	}
}

// treeSitterExtractor parses source text with a tree-sitter grammar and
// walks the resulting tree once to collect classes, functions and imports.
type treeSitterExtractor struct {
	grammar languageGrammar
	parser  *sitter.Parser
}

func newTreeSitterExtractor(g languageGrammar) *treeSitterExtractor {
	p := sitter.NewParser()
	p.SetLanguage(g.tsLanguage)
	return &treeSitterExtractor{grammar: g, parser: p}
}

func (e *treeSitterExtractor) SupportedExtensions() []string {
	return e.grammar.extensions
}

func (e *treeSitterExtractor) Parse(text, filePath string) (result ParsedStructure, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ParsedStructure{}
		}
	}()

	src := []byte(text)
	tree, parseErr := e.parser.ParseCtx(context.Background(), nil, src)
	if parseErr != nil || tree == nil {
		return ParsedStructure{}, nil
	}
	root := tree.RootNode()

	var out ParsedStructure
	e.walk(root, src, &out, true)
	return out, nil
}

// walk recurses the tree collecting top-level classes/functions and all
// imports anywhere in the file. topLevel limits standalone function and
// class collection to direct children of the source file (and one level
// into an exported wrapper) to approximate "top-level declaration".
func (e *treeSitterExtractor) walk(n *sitter.Node, src []byte, out *ParsedStructure, topLevel bool) {
	childCount := int(n.ChildCount())
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		kind := child.Type()

		switch {
		case e.grammar.importTypes[kind]:
			out.Imports = append(out.Imports, e.extractImport(child, src)...)

		case e.grammar.classTypes[kind] && topLevel:
			if len(out.Classes) < 4096 {
				out.Classes = append(out.Classes, e.extractClass(child, src))
			}

		case e.grammar.interfaceTypes[kind] && topLevel:
			out.Interfaces = append(out.Interfaces, e.extractClass(child, src))

		case e.grammar.functionTypes[kind] && topLevel:
			if len(out.Functions) < MaxStandaloneFuncs {
				out.Functions = append(out.Functions, e.extractFunction(child, src))
			}

		default:
			// Recurse one level to catch declarations wrapped in export
			// statements or similar thin containers, without descending
			// into nested blocks (keeps extraction "top-level").
			if topLevel && isWrapperNode(kind) {
				e.walk(child, src, out, true)
			} else {
				e.walk(child, src, out, false)
			}
		}
	}
}

func isWrapperNode(kind string) bool {
	switch kind {
	case "export_statement", "declaration_list", "source_file", "program", "module":
		return true
	default:
		return false
	}
}

func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func (e *treeSitterExtractor) nameOf(n *sitter.Node, src []byte) string {
	if field := n.ChildByFieldName(e.grammar.nameField); field != nil {
		return nodeText(field, src)
	}
	return ""
}

func (e *treeSitterExtractor) extractClass(n *sitter.Node, src []byte) Class {
	name := e.nameOf(n, src)
	if name == "" {
		// Go type_declaration nodes carry the name on their type_spec child.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil && (c.Type() == "type_spec" || c.Type() == "type_alias") {
				name = e.nameOf(c, src)
				break
			}
		}
	}
	var methods []Method

	var findMethods func(node *sitter.Node)
	findMethods = func(node *sitter.Node) {
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			if e.grammar.methodTypes[child.Type()] {
				if len(methods) < MaxMethodsPerClass {
					methods = append(methods, e.extractMethod(child, src))
				}
				continue
			}
			findMethods(child)
		}
	}
	findMethods(n)

	return Class{
		Name:    name,
		Methods: methods,
		Line:    int(n.StartPoint().Row) + 1,
	}
}

func (e *treeSitterExtractor) extractFunction(n *sitter.Node, src []byte) Function {
	name := e.nameOf(n, src)
	return Function{
		Name:       name,
		Parameters: e.extractParams(n, src),
		IsExported: isExported(name, e.grammar.name),
		IsAsync:    strings.Contains(nodeText(n, src), "async "),
		Line:       int(n.StartPoint().Row) + 1,
	}
}

func (e *treeSitterExtractor) extractMethod(n *sitter.Node, src []byte) Method {
	name := e.nameOf(n, src)
	return Method{
		Name:       name,
		Parameters: e.extractParams(n, src),
		IsExported: isExported(name, e.grammar.name),
		IsAsync:    strings.Contains(nodeText(n, src), "async "),
		Line:       int(n.StartPoint().Row) + 1,
	}
}

func (e *treeSitterExtractor) extractParams(n *sitter.Node, src []byte) []string {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var names []string
	count := int(params.ChildCount())
	for i := 0; i < count; i++ {
		c := params.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "(", ")", ",":
			continue
		default:
			names = append(names, strings.TrimSpace(nodeText(c, src)))
		}
	}
	return names
}

// isExported applies the per-language exportedness convention from §4.3:
// leading uppercase for Go, absence of a leading underscore for Python, and
// (best-effort, since tree-sitter doesn't expose modifier keywords uniformly
// for JS/TS function declarations reached this way) non-underscore names
// otherwise.
func isExported(name, language string) bool {
	if name == "" {
		return false
	}
	switch language {
	case "go":
		r := []rune(name)[0]
		return r >= 'A' && r <= 'Z'
	case "python":
		return !strings.HasPrefix(name, "_")
	default:
		return !strings.HasPrefix(name, "_")
	}
}

func (e *treeSitterExtractor) extractImport(n *sitter.Node, src []byte) []Import {
	text := nodeText(n, src)
	switch e.grammar.name {
	case "go":
		return extractGoImports(text)
	case "python":
		return extractPythonImport(text)
	default:
		return extractJSImports(text)
	}
}
