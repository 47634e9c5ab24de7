// Package runctx holds the per-run memoization cache and scratch variables.
package runctx

import (
	"sync"
)

// Global variable names seeded by the executor.
const (
	VarTriggerPayload = "trigger_payload"
	VarTriggerType    = "trigger_type"
)

// RunContext is the transient state of one run: memoized node outputs and
// global variables. It is owned by a single executeRun invocation.
type RunContext struct {
	runID       string
	workspaceID string

	mu          sync.RWMutex
	nodeOutputs map[string]map[string]any
	globalVars  map[string]any
}

// New creates an empty context for a run.
func New(runID, workspaceID string) *RunContext {
	return &RunContext{
		runID:       runID,
		workspaceID: workspaceID,
		nodeOutputs: make(map[string]map[string]any),
		globalVars:  make(map[string]any),
	}
}

func (c *RunContext) RunID() string {
	return c.runID
}

func (c *RunContext) WorkspaceID() string {
	return c.workspaceID
}

// NodeOutput returns the memoized output of nodeID.
func (c *RunContext) NodeOutput(nodeID string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	output, ok := c.nodeOutputs[nodeID]

	return output, ok
}

// SetNodeOutput memoizes the output of nodeID. A nil output is stored as an
// empty map so the node still counts as executed.
func (c *RunContext) SetNodeOutput(nodeID string, output map[string]any) {
	if output == nil {
		output = map[string]any{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nodeOutputs[nodeID] = output
}

// HasNodeOutput reports whether nodeID already ran in this context.
func (c *RunContext) HasNodeOutput(nodeID string) bool {
	_, ok := c.NodeOutput(nodeID)

	return ok
}

// ExecutedNodes returns the number of memoized node outputs.
func (c *RunContext) ExecutedNodes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.nodeOutputs)
}

func (c *RunContext) GlobalVar(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.globalVars[key]

	return value, ok
}

func (c *RunContext) SetGlobalVar(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.globalVars[key] = value
}

// reset drops every stored value.
func (c *RunContext) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.nodeOutputs)
	clear(c.globalVars)
}
