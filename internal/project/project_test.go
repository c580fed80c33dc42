package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_AssignsDeterministicID(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(filepath.Join(dir, "registry.json"))
	require.NoError(t, err)

	p := r.Register("/abs/path/project", "myproject")
	assert.Equal(t, IDFor("/abs/path/project"), p.ID)
	assert.Equal(t, "myproject", p.Name)
}

func TestRegister_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(filepath.Join(dir, "registry.json"))
	require.NoError(t, err)

	p1 := r.Register("/abs/path/project", "myproject")
	p2 := r.Register("/abs/path/project", "")
	assert.Equal(t, p1.ID, p2.ID)
	assert.Len(t, r.List(), 1)
}

func TestResolve_AmbiguousWithMultipleProjects(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(filepath.Join(dir, "registry.json"))
	require.NoError(t, err)

	r.Register("/abs/path/a", "a")
	r.Register("/abs/path/b", "b")

	_, err = r.Resolve("")
	var ambiguous *ErrAmbiguousProject
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestResolve_SingleProjectNoPathNeeded(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(filepath.Join(dir, "registry.json"))
	require.NoError(t, err)

	r.Register("/abs/path/a", "a")

	p, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)
}

func TestResolve_NotIndexed(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(filepath.Join(dir, "registry.json"))
	require.NoError(t, err)

	_, err = r.Resolve("")
	var notIndexed *ErrNotIndexed
	require.ErrorAs(t, err, &notIndexed)
}

func TestSaveAndReload_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")

	r, err := NewRegistry(path)
	require.NoError(t, err)
	r.Register("/abs/path/a", "a")
	require.NoError(t, r.Update(IDFor("/abs/path/a"), 10, 50))
	require.NoError(t, r.Save())

	r2, err := NewRegistry(path)
	require.NoError(t, err)
	p := r2.FindByPath("/abs/path/a")
	require.NotNil(t, p)
	assert.Equal(t, 10, p.Files)
	assert.Equal(t, 50, p.Chunks)
}
