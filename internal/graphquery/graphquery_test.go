package graphquery

import (
	"context"
	"testing"

	"github.com/codeseeker/codeseeker/internal/graphstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGraph(t *testing.T) graphstore.GraphStore {
	t.Helper()
	s, err := graphstore.NewSQLiteGraphStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Builds: Application -imports-> UserController, Application -imports-> AuthService,
// UserController -imports-> AuthService (§8 scenario 3).
func buildSampleGraph(t *testing.T, s graphstore.GraphStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertNodes(ctx, []graphstore.Node{
		{ID: "p:app", ProjectID: "p", Type: graphstore.NodeFile, Name: "index.ts", RelativePath: "index.ts"},
		{ID: "p:user", ProjectID: "p", Type: graphstore.NodeFile, Name: "UserController.ts", RelativePath: "UserController.ts"},
		{ID: "p:auth", ProjectID: "p", Type: graphstore.NodeFile, Name: "AuthService.ts", RelativePath: "AuthService.ts"},
	}))
	require.NoError(t, s.UpsertEdges(ctx, []graphstore.Edge{
		{ID: "e1", ProjectID: "p", Source: "p:app", Target: "p:user", Type: graphstore.EdgeImports},
		{ID: "e2", ProjectID: "p", Source: "p:app", Target: "p:auth", Type: graphstore.EdgeImports},
		{ID: "e3", ProjectID: "p", Source: "p:user", Target: "p:auth", Type: graphstore.EdgeImports},
	}))
}

func TestResolveSeeds_ExactPathMatch(t *testing.T) {
	s := setupGraph(t)
	buildSampleGraph(t, s)

	seeds, err := ResolveSeeds(context.Background(), s, "p", []string{"index.ts"})
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "p:app", seeds[0].ID)
}

func TestResolveSeeds_NoMatchListsAvailable(t *testing.T) {
	s := setupGraph(t)
	buildSampleGraph(t, s)

	_, err := ResolveSeeds(context.Background(), s, "p", []string{"nonexistent.ts"})
	var noMatch *ErrNoSeedMatch
	require.ErrorAs(t, err, &noMatch)
	assert.Len(t, noMatch.Available, 3)
}

func TestTraverse_OutDirectionDepth1ReturnsThreeNodesTwoEdges(t *testing.T) {
	s := setupGraph(t)
	buildSampleGraph(t, s)

	seeds, err := ResolveSeeds(context.Background(), s, "p", []string{"index.ts"})
	require.NoError(t, err)

	result, err := Traverse(context.Background(), s, seeds, Request{
		Depth:     1,
		Direction: graphstore.DirectionOut,
		Types:     []graphstore.EdgeType{graphstore.EdgeImports},
	})
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 3)
	assert.Len(t, result.Edges, 2)
	assert.False(t, result.Truncated)
}

func TestTraverse_RespectsMaxNodes(t *testing.T) {
	s := setupGraph(t)
	buildSampleGraph(t, s)

	seeds, err := ResolveSeeds(context.Background(), s, "p", []string{"index.ts"})
	require.NoError(t, err)

	result, err := Traverse(context.Background(), s, seeds, Request{
		Depth:     3,
		Direction: graphstore.DirectionOut,
		MaxNodes:  1,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Nodes), 1)
	assert.True(t, result.Truncated)
}

func TestTraverse_EveryEdgeEndpointInNodeSet(t *testing.T) {
	s := setupGraph(t)
	buildSampleGraph(t, s)

	seeds, err := ResolveSeeds(context.Background(), s, "p", []string{"index.ts"})
	require.NoError(t, err)

	result, err := Traverse(context.Background(), s, seeds, Request{Depth: 2, Direction: graphstore.DirectionOut})
	require.NoError(t, err)

	ids := make(map[string]struct{})
	for _, n := range result.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range result.Edges {
		_, okSrc := ids[e.Source]
		_, okDst := ids[e.Target]
		assert.True(t, okSrc)
		assert.True(t, okDst)
	}
}

func TestTraverse_DepthClampedToThree(t *testing.T) {
	s := setupGraph(t)
	buildSampleGraph(t, s)

	seeds, err := ResolveSeeds(context.Background(), s, "p", []string{"index.ts"})
	require.NoError(t, err)

	result, err := Traverse(context.Background(), s, seeds, Request{Depth: 99, Direction: graphstore.DirectionOut})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
