package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
)

// Store implements persistence.Persistence on database/sql. The postgresql
// and sqlite packages open the database and hand it over with their dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ persistence.Persistence = (*Store)(nil)

func NewStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	return &Store{db: db, dialect: dialect, logger: logger}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

// CreateRun inserts run.
func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	_, err := s.exec(ctx, `
		INSERT INTO runs (id, agent_id, agent_version_id, workspace_id, trigger_type, trigger_payload,
			status, started_at, finished_at, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.AgentID,
		run.AgentVersionID,
		run.WorkspaceID,
		string(run.TriggerType),
		JSONMap(run.TriggerPayload),
		string(run.Status),
		s.dialect.NullableTime(run.StartedAt),
		s.dialect.NullableTime(run.FinishedAt),
		nullString(run.ErrorMessage),
		s.dialect.Time(run.CreatedAt),
	)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	return nil
}

const runColumns = `id, agent_id, agent_version_id, workspace_id, trigger_type, trigger_payload,
	status, started_at, finished_at, error_message, created_at`

func (s *Store) RunByID(ctx context.Context, id string) (*models.Run, error) {
	row := s.queryRow(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	return run, nil
}

func scanRun(row interface{ Scan(dest ...any) error }) (*models.Run, error) {
	var (
		run            models.Run
		triggerType    string
		status         string
		triggerPayload JSONMap
		startedAt      NullTime
		finishedAt     NullTime
		createdAt      NullTime
		errorMessage   sql.NullString
	)

	err := row.Scan(
		&run.ID,
		&run.AgentID,
		&run.AgentVersionID,
		&run.WorkspaceID,
		&triggerType,
		&triggerPayload,
		&status,
		&startedAt,
		&finishedAt,
		&errorMessage,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.TriggerType = models.TriggerType(triggerType)
	run.Status = models.RunStatus(status)
	run.TriggerPayload = triggerPayload
	run.StartedAt = startedAt.Ptr()
	run.FinishedAt = finishedAt.Ptr()
	run.ErrorMessage = errorMessage.String
	run.CreatedAt = createdAt.Time

	return &run, nil
}

func (s *Store) UpdateRunStatus(ctx context.Context, id string, update models.RunStatusUpdate) error {
	result, err := s.exec(ctx, `
		UPDATE runs
		SET status = ?, error_message = ?, started_at = COALESCE(?, started_at), finished_at = COALESCE(?, finished_at)
		WHERE id = ?`,
		string(update.Status),
		nullString(update.ErrorMessage),
		s.dialect.NullableTime(update.StartedAt),
		s.dialect.NullableTime(update.FinishedAt),
		id,
	)
	if err != nil {
		return persistence.NewRunError("UpdateRunStatus", id, err)
	}

	return expectAffected(result, persistence.NewRunError("UpdateRunStatus", id, persistence.ErrRunNotFound))
}

func (s *Store) RunExists(ctx context.Context, filter models.RunFilter) (bool, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, filter.AgentID)
	}

	if filter.AgentVersionID != "" {
		conditions = append(conditions, "agent_version_id = ?")
		args = append(args, filter.AgentVersionID)
	}

	if filter.TriggerType != "" {
		conditions = append(conditions, "trigger_type = ?")
		args = append(args, string(filter.TriggerType))
	}

	if !filter.CreatedFrom.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, s.dialect.Time(filter.CreatedFrom))
	}

	if !filter.CreatedTo.IsZero() {
		conditions = append(conditions, "created_at < ?")
		args = append(args, s.dialect.Time(filter.CreatedTo))
	}

	query := "SELECT 1 FROM runs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var found int

	err := s.queryRow(ctx, query+" LIMIT 1", args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to check run existence: %w", err)
	}

	return true, nil
}

func (s *Store) CreateRunNode(ctx context.Context, runNode *models.RunNode) error {
	_, err := s.exec(ctx, `
		INSERT INTO run_nodes (id, run_id, node_id, node_type, status, input, output, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runNode.ID,
		runNode.RunID,
		runNode.NodeID,
		string(runNode.NodeType),
		string(runNode.Status),
		JSONMap(runNode.Input),
		JSONMap(runNode.Output),
		nullString(runNode.ErrorMessage),
		s.dialect.NullableTime(runNode.StartedAt),
		s.dialect.NullableTime(runNode.FinishedAt),
	)
	if err != nil {
		return persistence.NewRunError("CreateRunNode", runNode.RunID, err)
	}

	return nil
}

func (s *Store) UpdateRunNode(ctx context.Context, runNode *models.RunNode) error {
	result, err := s.exec(ctx, `
		UPDATE run_nodes
		SET status = ?, output = ?, error_message = ?, finished_at = ?
		WHERE id = ?`,
		string(runNode.Status),
		JSONMap(runNode.Output),
		nullString(runNode.ErrorMessage),
		s.dialect.NullableTime(runNode.FinishedAt),
		runNode.ID,
	)
	if err != nil {
		return persistence.NewRunError("UpdateRunNode", runNode.RunID, err)
	}

	return expectAffected(result, persistence.NewRunError("UpdateRunNode", runNode.RunID, persistence.ErrRunNodeNotFound))
}

func (s *Store) RunNodes(ctx context.Context, runID string) ([]*models.RunNode, error) {
	rows, err := s.query(ctx, `
		SELECT id, run_id, node_id, node_type, status, input, output, error_message, started_at, finished_at
		FROM run_nodes
		WHERE run_id = ?
		ORDER BY started_at, seq`, runID)
	if err != nil {
		return nil, persistence.NewRunError("RunNodes", runID, err)
	}
	defer rows.Close()

	runNodes := make([]*models.RunNode, 0)

	for rows.Next() {
		var (
			runNode      models.RunNode
			nodeType     string
			status       string
			input        JSONMap
			output       JSONMap
			errorMessage sql.NullString
			startedAt    NullTime
			finishedAt   NullTime
		)

		err := rows.Scan(
			&runNode.ID,
			&runNode.RunID,
			&runNode.NodeID,
			&nodeType,
			&status,
			&input,
			&output,
			&errorMessage,
			&startedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, persistence.NewRunError("RunNodes", runID, err)
		}

		runNode.NodeType = models.NodeType(nodeType)
		runNode.Status = models.RunNodeStatus(status)
		runNode.Input = input
		runNode.Output = output
		runNode.ErrorMessage = errorMessage.String
		runNode.StartedAt = startedAt.Ptr()
		runNode.FinishedAt = finishedAt.Ptr()

		runNodes = append(runNodes, &runNode)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRunError("RunNodes", runID, err)
	}

	return runNodes, nil
}

func (s *Store) SaveAgent(ctx context.Context, agent *models.Agent) error {
	_, err := s.exec(ctx, `
		INSERT INTO agents (id, workspace_id, name, active_version_id, flow_graph_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			name = excluded.name,
			active_version_id = excluded.active_version_id,
			flow_graph_id = excluded.flow_graph_id,
			updated_at = excluded.updated_at`,
		agent.ID,
		agent.WorkspaceID,
		agent.Name,
		nullString(agent.ActiveVersionID),
		nullString(agent.FlowGraphID),
		s.dialect.Time(agent.CreatedAt),
		s.dialect.Time(agent.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", agent.ID, err)
	}

	return nil
}

const agentColumns = "id, workspace_id, name, active_version_id, flow_graph_id, created_at, updated_at"

func (s *Store) AgentByID(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := scanAgent(s.queryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrAgentNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load agent %s: %w", id, err)
	}

	return agent, nil
}

func (s *Store) ActiveAgents(ctx context.Context) ([]*models.Agent, error) {
	rows, err := s.query(ctx, "SELECT "+agentColumns+` FROM agents
		WHERE active_version_id IS NOT NULL AND active_version_id <> ''
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active agents: %w", err)
	}
	defer rows.Close()

	agents := make([]*models.Agent, 0)

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}

		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list active agents: %w", err)
	}

	return agents, nil
}

func scanAgent(row interface{ Scan(dest ...any) error }) (*models.Agent, error) {
	var (
		agent           models.Agent
		activeVersionID sql.NullString
		flowGraphID     sql.NullString
		createdAt       NullTime
		updatedAt       NullTime
	)

	err := row.Scan(&agent.ID, &agent.WorkspaceID, &agent.Name, &activeVersionID, &flowGraphID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	agent.ActiveVersionID = activeVersionID.String
	agent.FlowGraphID = flowGraphID.String
	agent.CreatedAt = createdAt.Time
	agent.UpdatedAt = updatedAt.Time

	return &agent, nil
}

func (s *Store) SaveFlowGraph(ctx context.Context, graph *models.FlowGraph) error {
	document, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to encode flow graph %s: %w", graph.ID, err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO flow_graphs (id, graph) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET graph = excluded.graph`,
		graph.ID,
		string(document),
	)
	if err != nil {
		return fmt.Errorf("failed to save flow graph %s: %w", graph.ID, err)
	}

	return nil
}

func (s *Store) FlowGraphByID(ctx context.Context, id string) (*models.FlowGraph, error) {
	var document []byte

	err := s.queryRow(ctx, "SELECT graph FROM flow_graphs WHERE id = ?", id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrFlowGraphNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load flow graph %s: %w", id, err)
	}

	var graph models.FlowGraph
	if err := json.Unmarshal(document, &graph); err != nil {
		return nil, fmt.Errorf("failed to decode flow graph %s: %w", id, err)
	}

	return &graph, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
