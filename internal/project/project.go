// Package project tracks project identity and indexing metadata: the
// registry backing the "projects" tool and the "ambiguous project" /
// "not indexed" resolution logic used by the search orchestrator.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeseeker/codeseeker/internal/hash"
)

// Project is the persisted identity and last-known stats for one indexed
// codebase, written to "<project>/.codeseeker/project.json" (§6).
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Files        int       `json:"files"`
	Chunks       int       `json:"chunks"`
	LastIndexed  time.Time `json:"lastIndexed"`
	IndexVersion int       `json:"indexVersion"`
}

// IndexingState mirrors the Job Manager's per-project state (§4.11),
// surfaced read-only via the projects listing endpoint.
type IndexingState struct {
	Status   string `json:"status,omitempty"` // "running", "completed", "failed"
	Progress string `json:"progress,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Registry is a process-scoped, file-backed catalog of known projects.
// Consumers receive a *Registry explicitly; the package keeps no
// package-level singleton (§9 DESIGN NOTES).
type Registry struct {
	mu       sync.RWMutex
	path     string
	projects map[string]*Project
}

// NewRegistry loads (or creates) the project registry at path, a JSON file
// under the central data directory (CODESEEKER_DATA_DIR, §6).
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, projects: make(map[string]*Project)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read project registry: %w", err)
	}

	var list []*Project
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse project registry: %w", err)
	}
	for _, p := range list {
		r.projects[p.ID] = p
	}
	return r, nil
}

// IDFor derives the deterministic project id for an absolute project path.
func IDFor(absPath string) string {
	return hash.ProjectID(absPath)
}

// Register records (or updates) a project's identity, preserving existing
// stats until the next Update call.
func (r *Registry) Register(absPath, name string) *Project {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := IDFor(absPath)
	if existing, ok := r.projects[id]; ok {
		if name != "" {
			existing.Name = name
		}
		return existing
	}

	if name == "" {
		name = filepath.Base(absPath)
	}
	p := &Project{ID: id, Name: name, Path: absPath}
	r.projects[id] = p
	return p
}

// Update sets a project's file/chunk counts and indexing timestamp after a
// successful index or incremental sync.
func (r *Registry) Update(id string, files, chunks int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("unknown project %q", id)
	}
	p.Files = files
	p.Chunks = chunks
	p.LastIndexed = time.Now()
	return nil
}

// Get returns the project with the given id, or nil if unknown.
func (r *Registry) Get(id string) *Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.projects[id]
}

// FindByPath resolves an absolute project path to a registered project.
func (r *Registry) FindByPath(absPath string) *Project {
	return r.Get(IDFor(absPath))
}

// List returns all known projects.
func (r *Registry) List() []*Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out
}

// ErrAmbiguousProject is returned by Resolve when more than one project is
// registered and no path was supplied to disambiguate (§4.8).
type ErrAmbiguousProject struct {
	Candidates []*Project
}

func (e *ErrAmbiguousProject) Error() string {
	return fmt.Sprintf("ambiguous project: %d projects indexed, specify one explicitly", len(e.Candidates))
}

// ErrNotIndexed is returned by Resolve when no project matches the request.
type ErrNotIndexed struct {
	Path string
}

func (e *ErrNotIndexed) Error() string {
	return fmt.Sprintf("project not indexed: %s", e.Path)
}

// Resolve finds the project a tool call should operate on: if projectPath
// is given, it resolves directly; otherwise, if exactly one project is
// registered it is used, and if more than one is registered the call fails
// with ErrAmbiguousProject enumerating candidates (§4.8).
func (r *Registry) Resolve(projectPath string) (*Project, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return nil, fmt.Errorf("resolve project path: %w", err)
		}
		p := r.FindByPath(abs)
		if p == nil {
			return nil, &ErrNotIndexed{Path: abs}
		}
		return p, nil
	}

	all := r.List()
	switch len(all) {
	case 0:
		return nil, &ErrNotIndexed{Path: ""}
	case 1:
		return all[0], nil
	default:
		return nil, &ErrAmbiguousProject{Candidates: all}
	}
}

// Save persists the registry to its backing JSON file, atomically
// (write-to-temp, then rename) so a concurrent reader never observes a
// partial file.
func (r *Registry) Save() error {
	r.mu.RLock()
	list := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		list = append(list, p)
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry temp file: %w", err)
	}
	return os.Rename(tmp, r.path)
}
