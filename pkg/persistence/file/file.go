// Package file provides file-based persistence: one JSON document per record
// under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
)

const (
	runsDir       = "runs"
	runNodesDir   = "run_nodes"
	agentsDir     = "agents"
	flowGraphsDir = "flow_graphs"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return fmt.Errorf("persistence root %s: %w", fp.root, os.ErrNotExist)
	}

	return nil
}

func (fp *Persistence) path(parts ...string) string {
	return filepath.Join(append([]string{fp.root}, parts...)...)
}

func (fp *Persistence) write(target string, value any) error {
	err := os.MkdirAll(filepath.Dir(target), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", target, err)
	}

	temporary := target + ".tmp"

	err = os.WriteFile(temporary, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	return os.Rename(temporary, target)
}

// read decodes target into value; found is false when the file does not exist.
func (fp *Persistence) read(target string, value any) (bool, error) {
	body, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", target, err)
	}

	err = json.Unmarshal(body, value)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", target, err)
	}

	return true, nil
}

func (fp *Persistence) documents(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.Strings(matches)

	return matches, nil
}

func (fp *Persistence) CreateRun(_ context.Context, run *models.Run) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	target := fp.path(runsDir, run.ID+".json")
	if _, err := os.Stat(target); err == nil {
		return persistence.NewRunError("CreateRun", run.ID, persistence.ErrRunAlreadyExists)
	}

	return fp.write(target, run)
}

func (fp *Persistence) RunByID(_ context.Context, id string) (*models.Run, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.runByID(id)
}

func (fp *Persistence) runByID(id string) (*models.Run, error) {
	var run models.Run

	found, err := fp.read(fp.path(runsDir, id+".json"), &run)
	if err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	if !found {
		return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
	}

	return &run, nil
}

func (fp *Persistence) UpdateRunStatus(_ context.Context, id string, update models.RunStatusUpdate) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	run, err := fp.runByID(id)
	if err != nil {
		return err
	}

	update.Apply(run)

	return fp.write(fp.path(runsDir, id+".json"), run)
}

func (fp *Persistence) RunExists(_ context.Context, filter models.RunFilter) (bool, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	files, err := fp.documents(fp.path(runsDir))
	if err != nil {
		return false, err
	}

	for _, file := range files {
		var run models.Run

		if _, err := fp.read(file, &run); err != nil {
			return false, err
		}

		if filter.Matches(&run) {
			return true, nil
		}
	}

	return false, nil
}

func (fp *Persistence) CreateRunNode(_ context.Context, runNode *models.RunNode) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.write(fp.path(runNodesDir, runNode.RunID, runNode.ID+".json"), runNode)
}

func (fp *Persistence) UpdateRunNode(_ context.Context, runNode *models.RunNode) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	target := fp.path(runNodesDir, runNode.RunID, runNode.ID+".json")

	var stored models.RunNode

	found, err := fp.read(target, &stored)
	if err != nil {
		return persistence.NewRunError("UpdateRunNode", runNode.RunID, err)
	}

	if !found {
		return persistence.NewRunError("UpdateRunNode", runNode.RunID, persistence.ErrRunNodeNotFound)
	}

	stored.Status = runNode.Status
	stored.Output = runNode.Output
	stored.ErrorMessage = runNode.ErrorMessage
	stored.FinishedAt = runNode.FinishedAt

	return fp.write(target, &stored)
}

func (fp *Persistence) RunNodes(_ context.Context, runID string) ([]*models.RunNode, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	files, err := fp.documents(fp.path(runNodesDir, runID))
	if err != nil {
		return nil, err
	}

	runNodes := make([]*models.RunNode, 0, len(files))

	for _, file := range files {
		var runNode models.RunNode

		if _, err := fp.read(file, &runNode); err != nil {
			return nil, err
		}

		runNodes = append(runNodes, &runNode)
	}

	sort.SliceStable(runNodes, func(i, j int) bool {
		a, b := runNodes[i].StartedAt, runNodes[j].StartedAt
		if a == nil || b == nil {
			return a != nil
		}

		return a.Before(*b)
	})

	return runNodes, nil
}

func (fp *Persistence) SaveAgent(_ context.Context, agent *models.Agent) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	target := fp.path(agentsDir, agent.ID+".json")

	var stored models.Agent

	found, err := fp.read(target, &stored)
	if err != nil {
		return err
	}

	saved := *agent
	if found {
		saved.CreatedAt = stored.CreatedAt
	}

	return fp.write(target, &saved)
}

func (fp *Persistence) AgentByID(_ context.Context, id string) (*models.Agent, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var agent models.Agent

	found, err := fp.read(fp.path(agentsDir, id+".json"), &agent)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", persistence.ErrAgentNotFound, id)
	}

	return &agent, nil
}

func (fp *Persistence) ActiveAgents(_ context.Context) ([]*models.Agent, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	files, err := fp.documents(fp.path(agentsDir))
	if err != nil {
		return nil, err
	}

	agents := make([]*models.Agent, 0, len(files))

	for _, file := range files {
		var agent models.Agent

		if _, err := fp.read(file, &agent); err != nil {
			return nil, err
		}

		if agent.IsActive() {
			agents = append(agents, &agent)
		}
	}

	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})

	return agents, nil
}

func (fp *Persistence) SaveFlowGraph(_ context.Context, graph *models.FlowGraph) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.write(fp.path(flowGraphsDir, graph.ID+".json"), graph)
}

func (fp *Persistence) FlowGraphByID(_ context.Context, id string) (*models.FlowGraph, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var graph models.FlowGraph

	found, err := fp.read(fp.path(flowGraphsDir, id+".json"), &graph)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", persistence.ErrFlowGraphNotFound, id)
	}

	return &graph, nil
}
