package parse

import (
	"regexp"
	"strings"
)

// regexExtractor is the generic fallback extractor used for any extension
// without a registered tree-sitter grammar. It recognizes a handful of
// common declaration shapes (function/class/import keywords across
// C-family, Ruby, PHP, C# and friends) well enough to populate a
// ParsedStructure without a real parser.
type regexExtractor struct{}

var (
	reFuncKeyword  = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+|static\s+|export\s+|pub\s+|async\s+)*(?:func|function|def|fn)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)
	reClassKeyword = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+|export\s+|pub\s+|abstract\s+|sealed\s+)*(?:class|struct|interface|trait)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reUsing        = regexp.MustCompile(`(?m)^\s*using\s+([A-Za-z_][A-Za-z0-9_.]*)\s*;`)
	reCInclude     = regexp.MustCompile(`(?m)^\s*#include\s+[<"]([^>"]+)[>"]`)
)

func (regexExtractor) SupportedExtensions() []string { return nil }

func (regexExtractor) Parse(text, filePath string) (ParsedStructure, error) {
	var out ParsedStructure

	for _, m := range reClassKeyword.FindAllStringSubmatch(text, -1) {
		if len(out.Classes) >= 4096 {
			break
		}
		out.Classes = append(out.Classes, Class{Name: m[1]})
	}

	for _, m := range reFuncKeyword.FindAllStringSubmatch(text, -1) {
		if len(out.Functions) >= MaxStandaloneFuncs {
			break
		}
		name := m[1]
		var params []string
		if strings.TrimSpace(m[2]) != "" {
			for _, p := range strings.Split(m[2], ",") {
				params = append(params, strings.TrimSpace(p))
			}
		}
		out.Functions = append(out.Functions, Function{
			Name:       name,
			Parameters: params,
			IsExported: !strings.HasPrefix(name, "_"),
		})
	}

	for _, m := range reUsing.FindAllStringSubmatch(text, -1) {
		out.Imports = append(out.Imports, Import{Name: m[1], From: m[1]})
		out.Dependencies = append(out.Dependencies, m[1])
	}
	for _, m := range reCInclude.FindAllStringSubmatch(text, -1) {
		out.Imports = append(out.Imports, Import{Name: m[1], From: m[1]})
		out.Dependencies = append(out.Dependencies, m[1])
	}

	return out, nil
}
