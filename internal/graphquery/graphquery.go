// Package graphquery implements Graph Analysis (§4.9): seed resolution
// from file paths or a search query, followed by a bounded breadth-first
// expansion over the code graph.
package graphquery

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/codeseeker/codeseeker/internal/graphstore"
)

// DefaultMaxNodes bounds a single traversal's output (§4.9).
const DefaultMaxNodes = 50

// MaxDepth is the hard ceiling depth is clamped to regardless of request.
const MaxDepth = 3

// Request describes a relationships() call.
type Request struct {
	Seeds     []string // explicit filepath(s)
	Depth     int
	Types     []graphstore.EdgeType
	Direction graphstore.Direction
	MaxNodes  int
}

// Stats summarizes the node composition of a traversal result.
type Stats struct {
	TotalNodes    int `json:"total_nodes"`
	FileNodes     int `json:"file_nodes"`
	ClassNodes    int `json:"class_nodes"`
	FunctionNodes int `json:"function_nodes"`
}

// Result is the output of a traversal.
type Result struct {
	SeedNodes []graphstore.Node `json:"seedNodes"`
	Nodes     []graphstore.Node `json:"nodes"`
	Edges     []graphstore.Edge `json:"edges"`
	Truncated bool              `json:"truncated"`
	Stats     Stats             `json:"stats"`
}

// ErrNoSeedMatch is returned when none of the requested seed paths match
// any node in the graph; it lists candidate file nodes for the caller.
type ErrNoSeedMatch struct {
	Available []graphstore.Node
}

func (e *ErrNoSeedMatch) Error() string {
	return fmt.Sprintf("no node matched the given seed(s); %d file nodes available", len(e.Available))
}

const maxAvailableListing = 15

// ResolveSeeds matches each requested seed path against the project's file
// nodes using, in order: exact path equality (slash-normalized), relative
// path equality, suffix match, substring "/seed" match, or node-name
// equality with the seed's base name (§4.9).
func ResolveSeeds(ctx context.Context, store graphstore.GraphStore, projectID string, seeds []string) ([]graphstore.Node, error) {
	fileNodes, err := store.FindNodes(ctx, projectID, graphstore.NodeFile)
	if err != nil {
		return nil, fmt.Errorf("list file nodes: %w", err)
	}

	var matched []graphstore.Node
	seen := make(map[string]struct{})
	for _, seed := range seeds {
		normSeed := filepathToSlash(seed)
		base := path.Base(normSeed)

		var best *graphstore.Node
		for i := range fileNodes {
			n := &fileNodes[i]
			normPath := filepathToSlash(n.RelativePath)
			switch {
			case normPath == normSeed:
				best = n
			case best == nil && strings.HasSuffix(normPath, normSeed):
				best = n
			case best == nil && strings.Contains(normPath, "/"+normSeed):
				best = n
			case best == nil && n.Name == base:
				best = n
			}
			if normPath == normSeed {
				break
			}
		}

		if best != nil {
			if _, ok := seen[best.ID]; !ok {
				seen[best.ID] = struct{}{}
				matched = append(matched, *best)
			}
		}
	}

	if len(matched) == 0 {
		available := fileNodes
		if len(available) > maxAvailableListing {
			available = available[:maxAvailableListing]
		}
		return nil, &ErrNoSeedMatch{Available: available}
	}

	return matched, nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Traverse runs a bounded BFS from the resolved seed nodes.
func Traverse(ctx context.Context, store graphstore.GraphStore, seeds []graphstore.Node, req Request) (*Result, error) {
	maxNodes := req.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	depth := req.Depth
	if depth < 1 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	direction := req.Direction
	if direction == "" {
		direction = graphstore.DirectionBoth
	}

	typeFilter := make(map[graphstore.EdgeType]struct{}, len(req.Types))
	for _, t := range req.Types {
		typeFilter[t] = struct{}{}
	}

	visited := make(map[string]graphstore.Node)
	edgeSeen := make(map[string]struct{})
	var edges []graphstore.Edge
	truncated := false

	type queued struct {
		id    string
		depth int
	}
	var queue []queued
	for _, s := range seeds {
		visited[s.ID] = s
		queue = append(queue, queued{id: s.ID, depth: 0})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if len(visited) >= maxNodes {
			truncated = true
			break
		}
		if cur.depth >= depth {
			continue
		}

		nodeEdges, err := store.GetEdges(ctx, cur.id, direction)
		if err != nil {
			return nil, fmt.Errorf("get edges for %s: %w", cur.id, err)
		}

		for _, e := range nodeEdges {
			if len(typeFilter) > 0 {
				if _, ok := typeFilter[e.Type]; !ok {
					continue
				}
			}

			edgeKey := string(e.Source) + "|" + string(e.Target) + "|" + string(e.Type)
			if _, ok := edgeSeen[edgeKey]; !ok {
				edgeSeen[edgeKey] = struct{}{}
				edges = append(edges, e)
			}

			other := e.Target
			if e.Target == cur.id {
				other = e.Source
			}

			if _, ok := visited[other]; ok {
				continue
			}
			if len(visited) >= maxNodes {
				truncated = true
				continue
			}

			n, err := store.GetNode(ctx, other)
			if err != nil {
				return nil, fmt.Errorf("get node %s: %w", other, err)
			}
			if n == nil {
				continue
			}
			visited[other] = *n
			queue = append(queue, queued{id: other, depth: cur.depth + 1})
		}
	}

	nodes := make([]graphstore.Node, 0, len(visited))
	stats := Stats{}
	for _, n := range visited {
		nodes = append(nodes, n)
		stats.TotalNodes++
		switch n.Type {
		case graphstore.NodeFile:
			stats.FileNodes++
		case graphstore.NodeClass:
			stats.ClassNodes++
		case graphstore.NodeFunction, graphstore.NodeMethod:
			stats.FunctionNodes++
		}
	}

	// Every edge in the output must have both endpoints in nodes (§8).
	filteredEdges := edges[:0]
	for _, e := range edges {
		if _, ok := visited[e.Source]; !ok {
			continue
		}
		if _, ok := visited[e.Target]; !ok {
			continue
		}
		filteredEdges = append(filteredEdges, e)
	}

	return &Result{
		SeedNodes: seeds,
		Nodes:     nodes,
		Edges:     filteredEdges,
		Truncated: truncated,
		Stats:     stats,
	}, nil
}
