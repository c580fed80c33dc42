package parse

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// Registry dispatches Parse calls to the extractor registered for a file's
// extension, falling back to a generic regex-based extractor for anything
// unrecognized. Parse never returns an error to the caller: failures are
// caught and logged, and an empty ParsedStructure is returned instead
// (§4.3).
type Registry struct {
	mu        sync.RWMutex
	byExt     map[string]Extractor
	fallback  Extractor
	logger    *slog.Logger
}

// NewRegistry builds the default registry with Go, TypeScript, TSX,
// JavaScript/JSX and Python tree-sitter extractors registered, plus the
// regex fallback for everything else.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		byExt:    make(map[string]Extractor),
		fallback: regexExtractor{},
		logger:   logger,
	}

	for _, g := range []languageGrammar{
		goGrammar(), typescriptGrammar(), tsxGrammar(), javascriptGrammar(), pythonGrammar(),
	} {
		r.Register(newTreeSitterExtractor(g))
	}
	return r
}

// Register adds an extractor to the registry, indexing it by every
// extension it declares support for.
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// SupportedExtensions returns every extension with a registered extractor
// (not including the regex fallback, which handles everything else).
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// Parse extracts a ParsedStructure from text, selecting the extractor
// registered for filePath's extension or the regex fallback otherwise.
// Panics inside an extractor (tree-sitter can panic on malformed input) are
// recovered and downgraded to an empty result with a debug log line.
func (r *Registry) Parse(text, filePath string) (result ParsedStructure) {
	ext := strings.ToLower(filepath.Ext(filePath))

	r.mu.RLock()
	extractor, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		extractor = r.fallback
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("parser extraction panicked, falling back to empty structure",
				slog.String("file", filePath), slog.Any("recover", rec))
			result = ParsedStructure{}
		}
	}()

	out, err := extractor.Parse(text, filePath)
	if err != nil {
		r.logger.Debug("parser extraction failed, falling back to empty structure",
			slog.String("file", filePath), slog.String("error", err.Error()))
		return ParsedStructure{}
	}
	return out
}
