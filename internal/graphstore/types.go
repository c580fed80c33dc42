// Package graphstore persists the code knowledge graph: typed nodes (file,
// class, function, method, module) and typed edges (contains, imports,
// exports, calls, extends, implements, uses, depends_on) produced by the
// indexing engine and consumed by graph analysis and the show_dependencies
// tool.
package graphstore

import "context"

// NodeType enumerates the closed set of graph node kinds.
type NodeType string

const (
	NodeFile     NodeType = "file"
	NodeClass    NodeType = "class"
	NodeFunction NodeType = "function"
	NodeMethod   NodeType = "method"
	NodeModule   NodeType = "module"
)

// EdgeType enumerates the closed set of graph edge kinds.
type EdgeType string

const (
	EdgeContains   EdgeType = "contains"
	EdgeImports    EdgeType = "imports"
	EdgeExports    EdgeType = "exports"
	EdgeCalls      EdgeType = "calls"
	EdgeExtends    EdgeType = "extends"
	EdgeImplements EdgeType = "implements"
	EdgeUses       EdgeType = "uses"
	EdgeDependsOn  EdgeType = "depends_on"
)

// Direction selects which side of an edge to traverse from a node.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Node is a single entity in the code graph.
type Node struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"projectId"`
	Type         NodeType `json:"type"`
	Name         string   `json:"name"`
	RelativePath string   `json:"relativePath,omitempty"`
	Line         int      `json:"line,omitempty"`
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"projectId"`
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Type      EdgeType `json:"type"`
}

// GraphStore is the capability set all graph backends must implement (§9
// DESIGN NOTES: "variant storage backends" become a strategy behind a
// narrow interface rather than a reflective/dynamic lookup).
type GraphStore interface {
	UpsertNode(ctx context.Context, n Node) error
	UpsertNodes(ctx context.Context, nodes []Node) error
	UpsertEdge(ctx context.Context, e Edge) error
	UpsertEdges(ctx context.Context, edges []Edge) error
	GetNode(ctx context.Context, id string) (*Node, error)
	FindNodes(ctx context.Context, projectID string, nodeType NodeType) ([]Node, error)
	GetEdges(ctx context.Context, nodeID string, direction Direction) ([]Edge, error)
	GetNeighbors(ctx context.Context, nodeID string, edgeType EdgeType) ([]Node, error)
	DeleteByProject(ctx context.Context, projectID string) error
	DeleteByFile(ctx context.Context, projectID, relativePath string) error
	Flush(ctx context.Context) error
	Close() error
}
