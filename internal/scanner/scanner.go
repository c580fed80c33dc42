package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codeseeker/codeseeker/internal/gitignore"
	"github.com/codeseeker/codeseeker/internal/pathsafe"
)

// gitignoreCacheSize is the maximum number of gitignore matchers to cache.
// This prevents unbounded memory growth in long-running processes.
const gitignoreCacheSize = 1000

// progressFolderInterval is how often (in newly visited directories) a
// ScanProgress update is emitted. Scanning is per-file, but progress is
// intentionally coarse (§4.2) so a listener isn't flooded.
const progressFolderInterval = 10

// Scanner discovers indexable files in a project directory.
type Scanner struct {
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu        sync.RWMutex

	defaultExcludeDirs  []*pathsafe.Matcher
	defaultExcludeFiles []*pathsafe.Matcher
	sensitiveFiles      []*pathsafe.Matcher
}

// New creates a new Scanner instance.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}

	s := &Scanner{gitignoreCache: cache}
	for _, p := range defaultExcludeDirPatterns {
		m, err := pathsafe.CompileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("compiling default exclude dir pattern %q: %w", p, err)
		}
		s.defaultExcludeDirs = append(s.defaultExcludeDirs, m)
	}
	for _, p := range defaultExcludeFilePatterns {
		m, err := pathsafe.CompileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("compiling default exclude file pattern %q: %w", p, err)
		}
		s.defaultExcludeFiles = append(s.defaultExcludeFiles, m)
	}
	for _, p := range sensitiveFilePatterns {
		m, err := pathsafe.CompileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("compiling sensitive file pattern %q: %w", p, err)
		}
		s.sensitiveFiles = append(s.sensitiveFiles, m)
	}
	return s, nil
}

// Scan discovers all indexable files in the project directory. It returns a
// channel of ScanResult that streams files as they are discovered. The
// channel is closed when scanning is complete.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := pathsafe.ValidateProjectPath(absRoot); err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	userExcludes, err := compileUserExcludes(opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	results := make(chan ScanResult, workers*10)

	go func() {
		defer close(results)
		s.scan(ctx, absRoot, opts, userExcludes, maxFileSize, results)
	}()

	return results, nil
}

// compileUserExcludes compiles user-supplied glob exclusion patterns. The
// first pattern that fails to compile makes it return an error, and Scan
// then fails before any directory is walked.
func compileUserExcludes(patterns []string) ([]*pathsafe.Matcher, error) {
	matchers := make([]*pathsafe.Matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := pathsafe.CompileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// scan performs the actual directory traversal.
func (s *Scanner) scan(ctx context.Context, absRoot string, opts *ScanOptions, userExcludes []*pathsafe.Matcher, maxFileSize int64, results chan<- ScanResult) {
	foldersScanned := 0
	filesFound := 0
	lastReport := 0

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip files we can't access
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			foldersScanned++
			if opts.ProgressFunc != nil && foldersScanned-lastReport >= progressFolderInterval {
				lastReport = foldersScanned
				opts.ProgressFunc(ScanProgress{FoldersScanned: foldersScanned, FilesFound: filesFound, CurrentFolder: relPath})
			}
			if s.shouldExcludeDir(relPath, userExcludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		if s.shouldExcludeFile(relPath, absRoot, opts, userExcludes) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if info.Size() > maxFileSize {
			return nil
		}

		if s.isBinaryFile(path) {
			return nil
		}

		language := DetectLanguage(relPath)
		contentType := DetectContentType(language)

		if len(opts.IncludePatterns) > 0 {
			include, err := compileUserExcludes(opts.IncludePatterns)
			if err == nil && !matchesAny(relPath, include) {
				return nil
			}
		}

		isGenerated := s.isGeneratedFile(path)

		fileInfo := &FileInfo{
			Path:        relPath,
			AbsPath:     path,
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			ContentType: contentType,
			Language:    language,
			IsGenerated: isGenerated,
		}

		filesFound++

		select {
		case results <- ScanResult{File: fileInfo}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

func matchesAny(relPath string, matchers []*pathsafe.Matcher) bool {
	for _, m := range matchers {
		if m.Match(relPath) {
			return true
		}
	}
	return false
}

// shouldExcludeDir checks if a directory should be excluded.
func (s *Scanner) shouldExcludeDir(relPath string, userExcludes []*pathsafe.Matcher) bool {
	return matchesAny(relPath, s.defaultExcludeDirs) || matchesAny(relPath, userExcludes)
}

// shouldExcludeFile checks if a file should be excluded.
func (s *Scanner) shouldExcludeFile(relPath, absRoot string, opts *ScanOptions, userExcludes []*pathsafe.Matcher) bool {
	if matchesAny(relPath, s.sensitiveFiles) {
		return true
	}
	if matchesAny(relPath, s.defaultExcludeFiles) {
		return true
	}
	if matchesAny(relPath, userExcludes) {
		return true
	}
	if opts.RespectGitignore && s.isGitignored(relPath, absRoot) {
		return true
	}
	return false
}

// isBinaryFile checks if a file is binary by looking for null bytes.
func (s *Scanner) isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}

	return bytes.Contains(buf[:n], []byte{0})
}

// isGeneratedFile checks if a file is auto-generated.
func (s *Scanner) isGeneratedFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 1024)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}

	content := string(buf[:n])

	markers := []string{
		"// Code generated",
		"// DO NOT EDIT",
		"/* DO NOT EDIT",
		"# Generated by",
		"<!-- AUTO-GENERATED -->",
		"// Generated by",
		"/* Generated by",
	}

	for _, marker := range markers {
		if strings.Contains(content, marker) {
			return true
		}
	}

	return false
}

// isGitignored checks if a file is ignored by gitignore.
func (s *Scanner) isGitignored(relPath, absRoot string) bool {
	rootMatcher := s.getGitignoreMatcher(absRoot, "")
	if rootMatcher != nil && rootMatcher.Match(relPath, false) {
		return true
	}

	parts := strings.Split(filepath.Dir(relPath), "/")
	currentDir := absRoot
	currentBase := ""

	for _, part := range parts {
		if part == "." {
			continue
		}
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = filepath.Join(currentBase, part)
		}

		matcher := s.getGitignoreMatcher(currentDir, currentBase)
		if matcher != nil && matcher.Match(relPath, false) {
			return true
		}
	}

	return false
}

// getGitignoreMatcher gets or creates a gitignore matcher for a directory.
func (s *Scanner) getGitignoreMatcher(dir, base string) *gitignore.Matcher {
	s.cacheMu.RLock()
	matcher, ok := s.gitignoreCache.Get(dir)
	s.cacheMu.RUnlock()
	if ok {
		return matcher
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		return nil
	}

	matcher = gitignore.New()
	if err := matcher.AddFromFile(gitignorePath, base); err != nil {
		return nil
	}

	s.cacheMu.Lock()
	s.gitignoreCache.Add(dir, matcher)
	s.cacheMu.Unlock()

	return matcher
}

// InvalidateGitignoreCache clears the gitignore matcher cache. Call this
// when .gitignore files change to ensure fresh patterns are used.
func (s *Scanner) InvalidateGitignoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gitignoreCache.Purge()
}

// defaultExcludeDirPatterns are directories never scanned, regardless of
// project-level exclusion configuration.
var defaultExcludeDirPatterns = []string{
	"node_modules",
	".git",
	"vendor",
	"__pycache__",
	"dist",
	"build",
	"out",
	"target",
	"bin",
	"obj",
	"Library",
	"Temp",
	".aws",
	".gcp",
	".azure",
	".ssh",
	".gnupg",
}

// defaultExcludeFilePatterns are files never indexed regardless of
// project-level exclusion configuration.
var defaultExcludeFilePatterns = []string{
	"*.min.js",
	"*.min.css",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
}

// sensitiveFilePatterns are files holding secrets, never indexed.
var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	"*credentials*",
	"*secrets*",
	"*password*",
	".netrc",
	".npmrc",
	".pypirc",
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
}
