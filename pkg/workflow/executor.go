// Package workflow executes flow graphs for runs.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/otelhelper"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/registry"
	"github.com/dukex/flowrun/pkg/runctx"
	"github.com/dukex/flowrun/pkg/runlog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errInvalidGraph = errors.New("invalid flow graph")

type Option func(*Executor)

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithContextStore shares a context store between executors.
func WithContextStore(store *runctx.Store) Option {
	return func(e *Executor) {
		e.store = store
	}
}

// RunOption customizes one ExecuteRun call.
type RunOption func(*runOptions)

type runOptions struct {
	triggerPayload map[string]any
	triggerType    models.TriggerType
}

// WithTriggerPayload exposes payload to nodes as the trigger_payload global.
func WithTriggerPayload(payload map[string]any) RunOption {
	return func(o *runOptions) {
		o.triggerPayload = payload
	}
}

func WithTriggerType(triggerType models.TriggerType) RunOption {
	return func(o *runOptions) {
		o.triggerType = triggerType
	}
}

// Executor walks a flow graph depth-first from its entry nodes, memoizing
// node outputs in the run context.
type Executor struct {
	registry *registry.Registry
	runs     persistence.RunRepository
	runLog   *runlog.Logger
	store    *runctx.Store
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

func NewExecutor(
	logger *slog.Logger,
	registry *registry.Registry,
	runs persistence.RunRepository,
	runLog *runlog.Logger,
	opts ...Option,
) *Executor {
	executor := &Executor{
		registry: registry,
		runs:     runs,
		runLog:   runLog,
		store:    runctx.NewStore(),
		tracer:   otelhelper.NoopTracer(),
		logger:   logger.With("module", "workflow_executor"),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// ExecuteRun executes graph for runID and records the outcome on the run.
// A failed run returns a *RunError carrying the stored message.
func (e *Executor) ExecuteRun(ctx context.Context, runID, workspaceID string, graph *models.FlowGraph, opts ...RunOption) error {
	options := runOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.WorkspaceIDKey, workspaceID),
		attribute.String(otelhelper.FlowGraphIDKey, graph.ID),
		attribute.String(otelhelper.TriggerTypeKey, string(options.triggerType)),
	)
	defer span.End()

	logger := e.logger.With("run_id", runID, "flow_graph_id", graph.ID)

	rc, release, err := e.store.Create(runID, workspaceID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to create run context: %w", err)
	}
	defer release()

	if options.triggerPayload != nil {
		rc.SetGlobalVar(runctx.VarTriggerPayload, options.triggerPayload)
	}

	if options.triggerType != "" {
		rc.SetGlobalVar(runctx.VarTriggerType, string(options.triggerType))
	}

	startedAt := e.now()

	if err := e.runs.UpdateRunStatus(ctx, runID, models.RunStatusUpdate{
		Status:    models.RunStatusRunning,
		StartedAt: &startedAt,
	}); err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to mark run %s running: %w", runID, err)
	}

	logger.InfoContext(ctx, "Starting run", "nodes", len(graph.Nodes), "edges", len(graph.Edges))

	if err := e.executeGraph(ctx, graph, rc); err != nil {
		runErr := classify(runID, err)

		otelhelper.SetError(span, err, attribute.String(otelhelper.ErrorKindKey, string(runErr.Kind)))
		logger.ErrorContext(ctx, "Run failed", "error", runErr.Message, "kind", runErr.Kind, "retryable", runErr.Retryable)

		finishedAt := e.now()

		if updateErr := e.runs.UpdateRunStatus(ctx, runID, models.RunStatusUpdate{
			Status:       models.RunStatusFailed,
			FinishedAt:   &finishedAt,
			ErrorMessage: runErr.Message,
		}); updateErr != nil {
			logger.ErrorContext(ctx, "Failed to mark run failed", "error", updateErr)
		}

		return runErr
	}

	finishedAt := e.now()

	if err := e.runs.UpdateRunStatus(ctx, runID, models.RunStatusUpdate{
		Status:     models.RunStatusSuccess,
		FinishedAt: &finishedAt,
	}); err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to mark run %s successful: %w", runID, err)
	}

	logger.InfoContext(ctx, "Run completed", "executed_nodes", rc.ExecutedNodes(), "duration", finishedAt.Sub(startedAt))

	return nil
}

func (e *Executor) executeGraph(ctx context.Context, graph *models.FlowGraph, rc *runctx.RunContext) error {
	if err := graph.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidGraph, err)
	}

	for _, entry := range graph.EntryNodes() {
		if err := e.executeNode(ctx, graph, entry, rc); err != nil {
			return err
		}
	}

	return nil
}

func (e *Executor) executeNode(ctx context.Context, graph *models.FlowGraph, node *models.Node, rc *runctx.RunContext) error {
	if rc.HasNodeOutput(node.ID) {
		return nil
	}

	// Join gate: wait until every predecessor has produced output.
	for _, predecessor := range graph.Predecessors(node.ID) {
		if !rc.HasNodeOutput(predecessor) {
			return nil
		}
	}

	handler, err := e.registry.Handler(ctx, node)
	if err != nil {
		return err
	}

	nodeCtx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.RunIDKey, rc.RunID()),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	)

	input := e.buildNodeInput(graph, node, rc)

	handle, err := e.runLog.LogNodeStart(nodeCtx, rc.RunID(), node.ID, node.Type, input)
	if err != nil {
		otelhelper.SetError(span, err)
		span.End()

		return fmt.Errorf("failed to record start of node %s: %w", node.ID, err)
	}

	output, err := handler.Execute(nodeCtx, input, rc)
	if err != nil {
		otelhelper.SetError(span, err)

		if logErr := e.runLog.LogNodeFailure(nodeCtx, handle, formatNodeError(node, err)); logErr != nil {
			e.logger.ErrorContext(ctx, "Failed to record node failure", "node_id", node.ID, "error", logErr)
		}

		span.End()

		return &nodeFailure{nodeID: node.ID, err: err}
	}

	rc.SetNodeOutput(node.ID, output)

	if err := e.runLog.LogNodeSuccess(nodeCtx, handle, output); err != nil {
		otelhelper.SetError(span, err)
		span.End()

		return fmt.Errorf("failed to record success of node %s: %w", node.ID, err)
	}

	span.End()

	// Successors run under the caller's span, not this node's.
	for _, edge := range graph.Outgoing(node.ID) {
		next, ok := graph.Node(edge.To)
		if !ok {
			continue
		}

		if err := e.executeNode(ctx, graph, next, rc); err != nil {
			return err
		}
	}

	return nil
}

// buildNodeInput merges predecessor outputs in edge-list order, then overlays
// the node configuration.
func (e *Executor) buildNodeInput(graph *models.FlowGraph, node *models.Node, rc *runctx.RunContext) map[string]any {
	input := make(map[string]any)

	for _, edge := range graph.Incoming(node.ID) {
		if output, ok := rc.NodeOutput(edge.From); ok {
			maps.Copy(input, output)
		}
	}

	maps.Copy(input, node.Config)

	return input
}
