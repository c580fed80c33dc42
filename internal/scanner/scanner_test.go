package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func collect(t *testing.T, ch <-chan ScanResult) []*FileInfo {
	t.Helper()
	var files []*FileInfo
	for r := range ch {
		require.NoError(t, r.Error)
		if r.File != nil {
			files = append(files, r.File)
		}
	}
	return files
}

func paths(files []*FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestScan_DiscoversRegularFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "pkg/util.go", "package pkg\n")

	s, err := New()
	require.NoError(t, err)

	ch, err := s.Scan(context.Background(), &ScanOptions{RootDir: root})
	require.NoError(t, err)

	files := collect(t, ch)
	assert.ElementsMatch(t, []string{"main.go", "pkg/util.go"}, paths(files))
}

func TestScan_SkipsDefaultExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, "vendor/lib/thing.go", "package lib\n")

	s, err := New()
	require.NoError(t, err)
	ch, err := s.Scan(context.Background(), &ScanOptions{RootDir: root})
	require.NoError(t, err)

	files := collect(t, ch)
	assert.ElementsMatch(t, []string{"main.go"}, paths(files))
}

func TestScan_SkipsSensitiveFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, ".env", "SECRET=1\n")
	writeFile(t, root, "id_rsa", "not-really-a-key\n")

	s, err := New()
	require.NoError(t, err)
	ch, err := s.Scan(context.Background(), &ScanOptions{RootDir: root})
	require.NoError(t, err)

	files := collect(t, ch)
	assert.ElementsMatch(t, []string{"main.go"}, paths(files))
}

func TestScan_UserExclusionGlobApplies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "Library/PluginCache.cs", "using System;\n")

	s, err := New()
	require.NoError(t, err)
	ch, err := s.Scan(context.Background(), &ScanOptions{
		RootDir:         root,
		ExcludePatterns: []string{"**/*.cs"},
	})
	require.NoError(t, err)

	files := collect(t, ch)
	assert.ElementsMatch(t, []string{"main.go"}, paths(files))
}

func TestScan_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "ignored.txt\n")
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "ignored.txt", "should not be indexed\n")

	s, err := New()
	require.NoError(t, err)
	ch, err := s.Scan(context.Background(), &ScanOptions{RootDir: root, RespectGitignore: true})
	require.NoError(t, err)

	files := collect(t, ch)
	assert.ElementsMatch(t, []string{"main.go"}, paths(files))
}

func TestScan_SkipsFilesOverMaxSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.go", "package main\n")
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	writeFile(t, root, "big.go", string(big))

	s, err := New()
	require.NoError(t, err)
	ch, err := s.Scan(context.Background(), &ScanOptions{RootDir: root, MaxFileSize: 100})
	require.NoError(t, err)

	files := collect(t, ch)
	assert.ElementsMatch(t, []string{"small.go"}, paths(files))
}

func TestScan_ReportsCoarseProgress(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 25; i++ {
		writeFile(t, root, filepath.Join("dir"+string(rune('a'+i)), "file.go"), "package main\n")
	}

	var updates []ScanProgress
	s, err := New()
	require.NoError(t, err)
	ch, err := s.Scan(context.Background(), &ScanOptions{
		RootDir: root,
		ProgressFunc: func(p ScanProgress) {
			updates = append(updates, p)
		},
	})
	require.NoError(t, err)
	collect(t, ch)

	assert.NotEmpty(t, updates)
}

func TestScan_RejectsSensitiveRootPath(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	_, err = s.Scan(context.Background(), &ScanOptions{RootDir: "/etc"})
	assert.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("main.go"))
	assert.Equal(t, "python", DetectLanguage("script.py"))
	assert.Equal(t, "dockerfile", DetectLanguage("Dockerfile"))
	assert.Equal(t, "", DetectLanguage("noext"))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, ContentTypeCode, DetectContentType("go"))
	assert.Equal(t, ContentTypeMarkdown, DetectContentType("markdown"))
	assert.Equal(t, ContentTypeConfig, DetectContentType("yaml"))
	assert.Equal(t, ContentTypeText, DetectContentType("unknown-language"))
}
