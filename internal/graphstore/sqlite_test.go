package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteGraphStore {
	t.Helper()
	s, err := NewSQLiteGraphStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertNode_IdempotentOnID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n := Node{ID: "p:file:a.go", ProjectID: "p", Type: NodeFile, Name: "a.go", RelativePath: "a.go"}
	require.NoError(t, s.UpsertNode(ctx, n))
	require.NoError(t, s.UpsertNode(ctx, n))

	nodes, err := s.FindNodes(ctx, "p", NodeFile)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestUpsertEdge_IdempotentOnID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertNodes(ctx, []Node{
		{ID: "p:file:a.go", ProjectID: "p", Type: NodeFile, Name: "a.go"},
		{ID: "p:file:b.go", ProjectID: "p", Type: NodeFile, Name: "b.go"},
	}))

	e := Edge{ID: "p:a.go->b.go:imports", ProjectID: "p", Source: "p:file:a.go", Target: "p:file:b.go", Type: EdgeImports}
	require.NoError(t, s.UpsertEdge(ctx, e))
	require.NoError(t, s.UpsertEdge(ctx, e))

	edges, err := s.GetEdges(ctx, "p:file:a.go", DirectionOut)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestGetEdges_DirectionFiltering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertNodes(ctx, []Node{
		{ID: "n1", ProjectID: "p", Type: NodeFile, Name: "n1"},
		{ID: "n2", ProjectID: "p", Type: NodeFile, Name: "n2"},
	}))
	require.NoError(t, s.UpsertEdge(ctx, Edge{ID: "e1", ProjectID: "p", Source: "n1", Target: "n2", Type: EdgeImports}))

	out, err := s.GetEdges(ctx, "n1", DirectionOut)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	in, err := s.GetEdges(ctx, "n1", DirectionIn)
	require.NoError(t, err)
	assert.Empty(t, in)

	both, err := s.GetEdges(ctx, "n2", DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, both, 1)
}

func TestGetNeighbors_FiltersByEdgeType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertNodes(ctx, []Node{
		{ID: "n1", ProjectID: "p", Type: NodeFile, Name: "n1"},
		{ID: "n2", ProjectID: "p", Type: NodeFile, Name: "n2"},
		{ID: "n3", ProjectID: "p", Type: NodeFile, Name: "n3"},
	}))
	require.NoError(t, s.UpsertEdges(ctx, []Edge{
		{ID: "e1", ProjectID: "p", Source: "n1", Target: "n2", Type: EdgeImports},
		{ID: "e2", ProjectID: "p", Source: "n1", Target: "n3", Type: EdgeCalls},
	}))

	neighbors, err := s.GetNeighbors(ctx, "n1", EdgeImports)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "n2", neighbors[0].ID)
}

func TestDeleteByProject_RemovesNodesAndEdges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertNodes(ctx, []Node{
		{ID: "n1", ProjectID: "p", Type: NodeFile, Name: "n1"},
		{ID: "n2", ProjectID: "p", Type: NodeFile, Name: "n2"},
	}))
	require.NoError(t, s.UpsertEdge(ctx, Edge{ID: "e1", ProjectID: "p", Source: "n1", Target: "n2", Type: EdgeImports}))

	require.NoError(t, s.DeleteByProject(ctx, "p"))

	nodes, err := s.FindNodes(ctx, "p", "")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	edges, err := s.GetEdges(ctx, "n1", DirectionBoth)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestDeleteByFile_RemovesOnlyThatFilesNodes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertNodes(ctx, []Node{
		{ID: "p:file:a.go", ProjectID: "p", Type: NodeFile, Name: "a.go", RelativePath: "a.go"},
		{ID: "p:file:b.go", ProjectID: "p", Type: NodeFile, Name: "b.go", RelativePath: "b.go"},
	}))

	require.NoError(t, s.DeleteByFile(ctx, "p", "a.go"))

	nodes, err := s.FindNodes(ctx, "p", NodeFile)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "b.go", nodes[0].RelativePath)
}

func TestGetNode_MissingReturnsNilNoError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.GetNode(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, n)
}
