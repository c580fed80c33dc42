package parse

import (
	"regexp"
	"strings"
)

var (
	goImportLineRe = regexp.MustCompile(`(?m)(?:(\w+)\s+)?"([^"]+)"`)
	jsImportRe     = regexp.MustCompile(`import\s+(?:type\s+)?(?:([\w$]+)\s*,?\s*)?(?:\{([^}]*)\}\s*)?(?:\*\s*as\s+([\w$]+)\s*)?(?:from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe    = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	pyFromRe       = regexp.MustCompile(`^from\s+([\w.]+)\s+import\s+(.+)$`)
	pyImportRe     = regexp.MustCompile(`^import\s+([\w.]+)(?:\s+as\s+(\w+))?`)
)

// extractGoImports parses the body of a Go import_declaration node, which
// may be a single `import "pkg"` or a `import (...)` block.
func extractGoImports(text string) []Import {
	var imports []Import
	for _, m := range goImportLineRe.FindAllStringSubmatch(text, -1) {
		alias, path := m[1], m[2]
		name := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			name = path[idx+1:]
		}
		imports = append(imports, Import{Name: name, From: path, Alias: alias})
	}
	return imports
}

// extractJSImports handles ES module `import ... from '...'` and CommonJS
// `require('...')` forms.
func extractJSImports(text string) []Import {
	var imports []Import
	if m := jsImportRe.FindStringSubmatch(text); m != nil {
		def, named, star, from := m[1], m[2], m[3], m[4]
		switch {
		case star != "":
			imports = append(imports, Import{Name: star, From: from, Alias: star})
		case named != "":
			for _, n := range strings.Split(named, ",") {
				n = strings.TrimSpace(n)
				if n == "" {
					continue
				}
				alias := ""
				parts := strings.Fields(strings.ReplaceAll(n, " as ", " "))
				name := n
				if len(parts) == 2 {
					name, alias = parts[0], parts[1]
				}
				imports = append(imports, Import{Name: name, From: from, Alias: alias})
			}
		case def != "":
			imports = append(imports, Import{Name: def, From: from})
		default:
			imports = append(imports, Import{Name: from, From: from})
		}
	}
	if m := jsRequireRe.FindStringSubmatch(text); m != nil {
		imports = append(imports, Import{Name: m[1], From: m[1]})
	}
	return imports
}

// extractPythonImport handles `import x.y as z` and `from x import y, z`.
func extractPythonImport(text string) []Import {
	line := strings.TrimSpace(text)
	if m := pyFromRe.FindStringSubmatch(line); m != nil {
		from := m[1]
		var imports []Import
		for _, n := range strings.Split(m[2], ",") {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			imports = append(imports, Import{Name: n, From: from})
		}
		return imports
	}
	if m := pyImportRe.FindStringSubmatch(line); m != nil {
		return []Import{{Name: m[1], From: m[1], Alias: m[2]}}
	}
	return nil
}
