package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence/file"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/dukex/flowrun/pkg/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

type fixture struct {
	scheduler *Scheduler
	store     *file.Persistence
	jobs      *queue.Memory
	clock     *fakeClock
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, wrap func(*services.Runs) RunCreator) *fixture {
	t.Helper()

	f := &fixture{
		store: file.NewPersistence(t.TempDir()),
		jobs:  queue.NewMemory(),
		clock: &fakeClock{now: time.Date(2024, 6, 3, 9, 0, 10, 0, time.UTC)},
	}

	runs := services.NewRuns(discard(), f.store, f.jobs,
		services.WithClock(f.clock.Now),
		services.WithIDGenerator(uuid.NewString),
	)

	var creator RunCreator = runs
	if wrap != nil {
		creator = wrap(runs)
	}

	f.scheduler = New(discard(), f.store, creator,
		WithClock(f.clock.Now),
		WithLocation(time.UTC),
	)

	return f
}

func (f *fixture) addAgent(t *testing.T, id string, schedule any) {
	t.Helper()

	graphID := "graph-" + id

	require.NoError(t, f.store.SaveFlowGraph(t.Context(), &models.FlowGraph{
		ID: graphID,
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeScheduleTrigger, Config: map[string]any{"schedule": schedule}},
			{ID: "out", Type: models.NodeTypeOutput},
		},
		Edges: []*models.Edge{{ID: "e1", From: "trigger", To: "out"}},
	}))

	require.NoError(t, f.store.SaveAgent(t.Context(), &models.Agent{
		ID:              id,
		WorkspaceID:     "ws-1",
		Name:            id,
		ActiveVersionID: "v1",
		FlowGraphID:     graphID,
	}))
}

func TestTick_DailyScheduleDedup(t *testing.T) {
	f := newFixture(t, nil)
	f.addAgent(t, "agent-1", "daily")

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.TriggerTypeSchedule, created[0].TriggerType)
	assert.Equal(t, "daily", created[0].TriggerPayload["schedule"])
	assert.Equal(t, 1, f.jobs.Len())

	created, err = f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Empty(t, created, "same day must not create a second run")

	f.clock.Set(time.Date(2024, 6, 4, 9, 0, 5, 0, time.UTC))

	created, err = f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Len(t, created, 1, "next day creates a new run")
	assert.Equal(t, 2, f.jobs.Len())
}

func TestTick_NotDue(t *testing.T) {
	f := newFixture(t, nil)
	f.addAgent(t, "agent-1", "daily")
	f.addAgent(t, "agent-2", "manual")
	f.addAgent(t, "agent-3", map[string]any{"hour": 9, "minute": 0, "days": []any{0, 6}})

	f.clock.Set(time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 0, f.jobs.Len())
}

func TestTick_StructuredAndCron(t *testing.T) {
	f := newFixture(t, nil)
	// 2024-06-03 is a Monday.
	f.addAgent(t, "weekday", map[string]any{"hour": 9, "minute": 0, "days": []any{1, 2, 3, 4, 5}})
	f.addAgent(t, "cron", "0 9 * * 1")
	f.addAgent(t, "hourly", "hourly")

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Len(t, created, 3)
}

func TestTick_OneRunPerCalendarDay(t *testing.T) {
	f := newFixture(t, nil)
	// 2024-06-03 is a Monday.
	f.addAgent(t, "hourly", "hourly")
	f.addAgent(t, "mondays", map[string]any{"days": []any{1}})

	total := 0

	for _, tick := range []time.Time{
		time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 10, 1, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 10, 2, 0, 0, time.UTC),
	} {
		f.clock.Set(tick)

		created, err := f.scheduler.Tick(t.Context())
		require.NoError(t, err)

		total += len(created)
	}

	assert.Equal(t, 2, total)
	assert.Equal(t, 2, f.jobs.Len())

	f.clock.Set(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC))

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	require.Len(t, created, 1, "the next day opens a new window")
	assert.Equal(t, "hourly", created[0].AgentID)
}

func TestTick_EmptyDaysNeverFires(t *testing.T) {
	f := newFixture(t, nil)
	f.addAgent(t, "agent-1", map[string]any{"days": []any{}})

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestTick_UsesLocation(t *testing.T) {
	f := newFixture(t, nil)
	f.addAgent(t, "agent-1", "daily")

	zone := time.FixedZone("UTC+2", 2*60*60)
	f.scheduler.location = zone

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Empty(t, created, "09:00 UTC is 11:00 in the configured location")

	f.clock.Set(time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC))

	created, err = f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestTick_AgentErrorsAreIsolated(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.store.SaveAgent(t.Context(), &models.Agent{
		ID:              "broken",
		WorkspaceID:     "ws-1",
		Name:            "broken",
		ActiveVersionID: "v1",
		FlowGraphID:     "missing-graph",
	}))
	f.addAgent(t, "invalid", "every tuesday")
	f.addAgent(t, "healthy", "daily")

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "healthy", created[0].AgentID)
}

type blockingCreator struct {
	RunCreator

	entered chan struct{}
	release chan struct{}
}

func (b *blockingCreator) Create(ctx context.Context, agent *models.Agent, triggerType models.TriggerType, payload map[string]any) (*models.Run, error) {
	close(b.entered)
	<-b.release

	return b.RunCreator.Create(ctx, agent, triggerType, payload)
}

func TestTick_OverlappingTickIsSkipped(t *testing.T) {
	blocking := &blockingCreator{entered: make(chan struct{}), release: make(chan struct{})}

	f := newFixture(t, func(runs *services.Runs) RunCreator {
		blocking.RunCreator = runs

		return blocking
	})
	f.addAgent(t, "agent-1", "daily")

	first := make(chan []*models.Run, 1)

	go func() {
		created, err := f.scheduler.Tick(context.Background())
		assert.NoError(t, err)
		first <- created
	}()

	<-blocking.entered

	created, err := f.scheduler.Tick(t.Context())
	require.NoError(t, err)
	assert.Nil(t, created)

	close(blocking.release)
	assert.Len(t, <-first, 1)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, nil)
	f.addAgent(t, "agent-1", "daily")
	f.scheduler.interval = 10 * time.Millisecond

	require.NoError(t, f.scheduler.Start(t.Context()))
	require.NoError(t, f.scheduler.Start(t.Context()))

	assert.Eventually(t, func() bool {
		return f.jobs.Len() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.scheduler.Stop(t.Context()))
	require.NoError(t, f.scheduler.Stop(t.Context()))

	assert.Equal(t, 1, f.jobs.Len(), "dedup holds across ticks")
}
