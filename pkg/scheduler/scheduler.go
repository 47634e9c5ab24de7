// Package scheduler creates runs for agents whose schedule triggers are due.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
)

// DefaultInterval is the time between two ticks.
const DefaultInterval = time.Minute

// Store is the storage the scheduler reads agents and graphs from.
type Store interface {
	persistence.AgentRepository
	persistence.FlowGraphRepository
	persistence.RunRepository
}

// RunCreator creates and enqueues a run.
type RunCreator interface {
	Create(ctx context.Context, agent *models.Agent, triggerType models.TriggerType, payload map[string]any) (*models.Run, error)
}

type Option func(*Scheduler)

func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithLocation sets the location schedules are evaluated in.
func WithLocation(location *time.Location) Option {
	return func(s *Scheduler) {
		s.location = location
	}
}

// Scheduler polls active agents on a fixed interval. Ticks never overlap.
type Scheduler struct {
	store    Store
	runs     RunCreator
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	location *time.Location

	ticking atomic.Bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(logger *slog.Logger, store Store, runs RunCreator, opts ...Option) *Scheduler {
	scheduler := &Scheduler{
		store:    store,
		runs:     runs,
		logger:   logger.With("module", "scheduler"),
		interval: DefaultInterval,
		now:      time.Now,
		location: time.Local,
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(ctx, s.done)

	s.logger.InfoContext(ctx, "Scheduler started", "interval", s.interval, "location", s.location.String())

	return nil
}

// Stop ends the polling loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.cancel()
	s.started = false

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Scheduler stopped")

	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx, "Scheduler tick failed", "error", err)
			}
		}
	}
}

// Tick checks every active agent once and returns the runs it created.
// A tick started while another is running is skipped.
func (s *Scheduler) Tick(ctx context.Context) ([]*models.Run, error) {
	if !s.ticking.CompareAndSwap(false, true) {
		s.logger.WarnContext(ctx, "Previous tick still running, skipping")

		return nil, nil
	}
	defer s.ticking.Store(false)

	agents, err := s.store.ActiveAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active agents: %w", err)
	}

	now := s.now().In(s.location)

	var created []*models.Run

	for _, agent := range agents {
		run, err := s.checkAgent(ctx, agent, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to check agent schedule",
				"agent_id", agent.ID,
				"error", err)

			continue
		}

		if run != nil {
			created = append(created, run)
		}
	}

	return created, nil
}

// checkAgent creates at most one run per agent and tick.
func (s *Scheduler) checkAgent(ctx context.Context, agent *models.Agent, now time.Time) (*models.Run, error) {
	graph, err := s.store.FlowGraphByID(ctx, agent.FlowGraphID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow graph %s: %w", agent.FlowGraphID, err)
	}

	for _, node := range graph.NodesOfType(models.NodeTypeScheduleTrigger) {
		schedule, err := models.ParseSchedule(node.Config["schedule"])
		if err != nil {
			s.logger.WarnContext(ctx, "Ignoring invalid schedule",
				"agent_id", agent.ID,
				"node_id", node.ID,
				"error", err)

			continue
		}

		if !schedule.Matches(now) {
			continue
		}

		from, to := schedule.Window(now)

		exists, err := s.store.RunExists(ctx, models.RunFilter{
			AgentID:        agent.ID,
			AgentVersionID: agent.ActiveVersionID,
			TriggerType:    models.TriggerTypeSchedule,
			CreatedFrom:    from,
			CreatedTo:      to,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check existing runs: %w", err)
		}

		if exists {
			s.logger.DebugContext(ctx, "Schedule already ran in window",
				"agent_id", agent.ID,
				"schedule", schedule.String(),
				"window_start", from)

			continue
		}

		run, err := s.runs.Create(ctx, agent, models.TriggerTypeSchedule, map[string]any{
			"schedule":     schedule.String(),
			"scheduled_at": now.Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create scheduled run: %w", err)
		}

		s.logger.InfoContext(ctx, "Scheduled run created",
			"agent_id", agent.ID,
			"run_id", run.ID,
			"schedule", schedule.String())

		return run, nil
	}

	return nil, nil
}
