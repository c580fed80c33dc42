// Package model defines the data types shared across codeseeker's stores and
// engine: projects, chunk documents, graph nodes/edges, cache entries and
// indexing jobs. Keeping these in one package avoids import cycles between
// internal/store, internal/graphstore, internal/index and internal/search.
package model

import (
	"strconv"
	"time"
)

// Project identifies an indexed codebase.
type Project struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	AbsolutePath string            `json:"absolute_path"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ChunkMetadata carries the descriptive fields attached to a ChunkDocument.
type ChunkMetadata struct {
	FileName   string    `json:"file_name"`
	Extension  string    `json:"extension"`
	ChunkIndex int       `json:"chunk_index"`
	LineStart  int       `json:"line_start"`
	LineEnd    int       `json:"line_end"`
	FileHash   string    `json:"file_hash"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// ChunkDocument is the unit stored in the vector/text store (C6).
//
// ID format: "{projectId}:{relativePath}:{chunkIndex}". Re-upserting a
// document with the same ID overwrites it in place.
type ChunkDocument struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	RelativePath string        `json:"relative_path"`
	Content      string        `json:"content"`
	Embedding    []float32     `json:"embedding,omitempty"`
	Metadata     ChunkMetadata `json:"metadata"`
}

// ChunkID builds the canonical chunk document ID for a project/file/index.
func ChunkID(projectID, relativePath string, chunkIndex int) string {
	return projectID + ":" + relativePath + ":" + strconv.Itoa(chunkIndex)
}

// NodeType enumerates the kinds of graph nodes the code graph tracks.
type NodeType string

const (
	NodeTypeFile     NodeType = "file"
	NodeTypeClass    NodeType = "class"
	NodeTypeFunction NodeType = "function"
	NodeTypeMethod   NodeType = "method"
	NodeTypeModule   NodeType = "module"
)

// EdgeType enumerates the kinds of directed relationships between graph nodes.
type EdgeType string

const (
	EdgeTypeContains   EdgeType = "contains"
	EdgeTypeImports    EdgeType = "imports"
	EdgeTypeExports    EdgeType = "exports"
	EdgeTypeCalls      EdgeType = "calls"
	EdgeTypeExtends    EdgeType = "extends"
	EdgeTypeImplements EdgeType = "implements"
	EdgeTypeUses       EdgeType = "uses"
	EdgeTypeDependsOn  EdgeType = "depends_on"
)

// GraphNode is a typed node in the per-project code graph (C7).
type GraphNode struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Name       string            `json:"name"`
	FilePath   string            `json:"file_path"`
	ProjectID  string            `json:"project_id"`
	Properties map[string]string `json:"properties,omitempty"`
}

// GraphEdge is a directed, typed relationship between two graph nodes.
type GraphEdge struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"project_id"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Type       EdgeType          `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Direction controls which edges GetEdges/GetNeighbors returns relative to a node.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// JobStatus is the lifecycle state of a background IndexingJob.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobPhase is the current phase within a running indexing job.
type JobPhase string

const (
	PhaseScanning JobPhase = "scanning"
	PhaseIndexing JobPhase = "indexing"
	PhaseGraph    JobPhase = "graph"
	PhaseComplete JobPhase = "complete"
)

// JobProgress is the mutable progress snapshot of an IndexingJob.
type JobProgress struct {
	Phase           JobPhase `json:"phase"`
	FilesProcessed  int      `json:"files_processed"`
	FilesTotal      int      `json:"files_total"`
	ChunksCreated   int      `json:"chunks_created"`
	NodesCreated    int      `json:"nodes_created"`
	EdgesCreated    int      `json:"edges_created"`
	LimitWarning    string   `json:"limit_warning,omitempty"`
	ScanningStatus  string   `json:"scanning_status,omitempty"`
}

// IndexResult is the terminal summary of a completed indexProject run.
type IndexResult struct {
	FilesIndexed int      `json:"files_indexed"`
	ChunksCreated int     `json:"chunks_created"`
	NodesCreated int      `json:"nodes_created"`
	EdgesCreated int      `json:"edges_created"`
	Errors       []string `json:"errors,omitempty"`
}

// IndexingJob tracks one background indexing run for one project.
type IndexingJob struct {
	ProjectID   string       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	ProjectPath string       `json:"project_path"`
	Status      JobStatus    `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Progress    JobProgress  `json:"progress"`
	Result      *IndexResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ExclusionPattern is one user-added glob exclusion.
type ExclusionPattern struct {
	Pattern string    `json:"pattern"`
	Reason  string    `json:"reason,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// ExclusionPatternSet is the persisted set of user exclusions for a project.
type ExclusionPatternSet struct {
	Patterns     []ExclusionPattern `json:"patterns"`
	LastModified time.Time          `json:"last_modified"`
}
