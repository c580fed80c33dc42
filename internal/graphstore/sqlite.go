package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)
)

// SQLiteGraphStore implements GraphStore on top of SQLite, mirroring the
// WAL-mode connection setup used by the project's full-text index so both
// stores can be opened concurrently by the same process without lock
// contention.
type SQLiteGraphStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ GraphStore = (*SQLiteGraphStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id            TEXT PRIMARY KEY,
	project_id    TEXT NOT NULL,
	type          TEXT NOT NULL,
	name          TEXT NOT NULL,
	relative_path TEXT,
	line          INTEGER
);
CREATE INDEX IF NOT EXISTS idx_nodes_project ON nodes(project_id);
CREATE INDEX IF NOT EXISTS idx_nodes_project_type ON nodes(project_id, type);
CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(project_id, relative_path);

CREATE TABLE IF NOT EXISTS edges (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	type       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_project ON edges(project_id);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
`

// NewSQLiteGraphStore opens (creating if necessary) a SQLite-backed graph
// store at path. An empty path opens an in-memory store for testing.
func NewSQLiteGraphStore(path string) (*SQLiteGraphStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteGraphStore{db: db, path: path}, nil
}

func (s *SQLiteGraphStore) UpsertNode(ctx context.Context, n Node) error {
	return s.UpsertNodes(ctx, []Node{n})
}

// UpsertNodes is idempotent on id: re-inserting a node with the same id
// leaves the node count unchanged (§8 invariant).
func (s *SQLiteGraphStore) UpsertNodes(ctx context.Context, nodes []Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("graph store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, project_id, type, name, relative_path, line)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id, type=excluded.type, name=excluded.name,
			relative_path=excluded.relative_path, line=excluded.line`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.ProjectID, string(n.Type), n.Name, n.RelativePath, n.Line); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteGraphStore) UpsertEdge(ctx context.Context, e Edge) error {
	return s.UpsertEdges(ctx, []Edge{e})
}

// UpsertEdges is idempotent on id (deterministic edge ids derived from
// source+target+type, per §4.7), so duplicate upserts are no-ops.
func (s *SQLiteGraphStore) UpsertEdges(ctx context.Context, edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("graph store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (id, project_id, source, target, type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id, source=excluded.source,
			target=excluded.target, type=excluded.type`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.ID, e.ProjectID, e.Source, e.Target, string(e.Type)); err != nil {
			return fmt.Errorf("upsert edge %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteGraphStore) GetNode(ctx context.Context, id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, type, name, relative_path, line FROM nodes WHERE id = ?`, id)

	var n Node
	var relPath sql.NullString
	var line sql.NullInt64
	if err := row.Scan(&n.ID, &n.ProjectID, &n.Type, &n.Name, &relPath, &line); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	n.RelativePath = relPath.String
	n.Line = int(line.Int64)
	return &n, nil
}

func (s *SQLiteGraphStore) FindNodes(ctx context.Context, projectID string, nodeType NodeType) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if nodeType == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, project_id, type, name, relative_path, line FROM nodes WHERE project_id = ?`, projectID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, project_id, type, name, relative_path, line FROM nodes WHERE project_id = ? AND type = ?`,
			projectID, string(nodeType))
	}
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]Node, error) {
	var out []Node
	for rows.Next() {
		var n Node
		var relPath sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Type, &n.Name, &relPath, &line); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.RelativePath = relPath.String
		n.Line = int(line.Int64)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteGraphStore) GetEdges(ctx context.Context, nodeID string, direction Direction) ([]Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var query string
	switch direction {
	case DirectionIn:
		query = `SELECT id, project_id, source, target, type FROM edges WHERE target = ?`
	case DirectionOut:
		query = `SELECT id, project_id, source, target, type FROM edges WHERE source = ?`
	default: // both
		query = `SELECT id, project_id, source, target, type FROM edges WHERE source = ? OR target = ?`
	}

	var rows *sql.Rows
	var err error
	if direction == DirectionBoth {
		rows, err = s.db.QueryContext(ctx, query, nodeID, nodeID)
	} else {
		rows, err = s.db.QueryContext(ctx, query, nodeID)
	}
	if err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Source, &e.Target, &e.Type); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteGraphStore) GetNeighbors(ctx context.Context, nodeID string, edgeType EdgeType) ([]Node, error) {
	edges, err := s.GetEdges(ctx, nodeID, DirectionBoth)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, e := range edges {
		if edgeType != "" && e.Type != edgeType {
			continue
		}
		other := e.Target
		if e.Target == nodeID {
			other = e.Source
		}
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			ids = append(ids, other)
		}
	}

	var out []Node
	for _, id := range ids {
		n, err := s.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

// DeleteByProject removes all nodes and edges for a project. This is the
// authoritative cleanup path; per-file deletion is best-effort (§4.6).
func (s *SQLiteGraphStore) DeleteByProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("graph store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	return tx.Commit()
}

// DeleteByFile removes a file's node and any nodes/edges rooted under it
// (its class/function members), used by incremental re-index (§4.7 rule 3).
// This is best-effort: graph-store individual-node deletion has no hard
// consistency contract, and full re-index remains the authoritative cleanup.
func (s *SQLiteGraphStore) DeleteByFile(ctx context.Context, projectID, relativePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("graph store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM nodes WHERE project_id = ? AND relative_path = ?`, projectID, relativePath)
	if err != nil {
		return fmt.Errorf("query file nodes: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan node id: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
			return fmt.Errorf("delete edges for %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete node %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteGraphStore) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

func (s *SQLiteGraphStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
