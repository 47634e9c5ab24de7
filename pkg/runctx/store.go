package runctx

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrContextNotFound is returned for a run without a live context.
	ErrContextNotFound = errors.New("run context not found")

	// ErrContextExists is returned when a run already owns a live context.
	ErrContextExists = errors.New("run context already exists")
)

// Store tracks the live contexts of the runs executing in this process.
// Contexts are released by the func returned from Create; Clear exists for
// callers that only hold the run id.
type Store struct {
	mu       sync.RWMutex
	contexts map[string]*RunContext
}

func NewStore() *Store {
	return &Store{contexts: make(map[string]*RunContext)}
}

// Create registers a fresh context for runID and returns it with its release
// func. Calling release more than once is safe.
func (s *Store) Create(runID, workspaceID string) (*RunContext, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contexts[runID]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrContextExists, runID)
	}

	rc := New(runID, workspaceID)
	s.contexts[runID] = rc

	var once sync.Once

	release := func() {
		once.Do(func() {
			s.release(runID, rc)
		})
	}

	return rc, release, nil
}

func (s *Store) release(runID string, rc *RunContext) {
	s.mu.Lock()
	if current, ok := s.contexts[runID]; ok && current == rc {
		delete(s.contexts, runID)
	}
	s.mu.Unlock()

	rc.reset()
}

// Get returns the live context of runID.
func (s *Store) Get(runID string) (*RunContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rc, ok := s.contexts[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContextNotFound, runID)
	}

	return rc, nil
}

// NodeOutput returns a memoized output for nodeID under runID only.
func (s *Store) NodeOutput(runID, nodeID string) (map[string]any, bool) {
	rc, err := s.Get(runID)
	if err != nil {
		return nil, false
	}

	return rc.NodeOutput(nodeID)
}

func (s *Store) SetNodeOutput(runID, nodeID string, output map[string]any) error {
	rc, err := s.Get(runID)
	if err != nil {
		return err
	}

	rc.SetNodeOutput(nodeID, output)

	return nil
}

func (s *Store) GlobalVar(runID, key string) (any, bool) {
	rc, err := s.Get(runID)
	if err != nil {
		return nil, false
	}

	return rc.GlobalVar(key)
}

func (s *Store) SetGlobalVar(runID, key string, value any) error {
	rc, err := s.Get(runID)
	if err != nil {
		return err
	}

	rc.SetGlobalVar(key, value)

	return nil
}

// Clear drops the context of runID if present.
func (s *Store) Clear(runID string) {
	s.mu.Lock()
	rc, ok := s.contexts[runID]
	delete(s.contexts, runID)
	s.mu.Unlock()

	if ok {
		rc.reset()
	}
}

// Len returns the number of live contexts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.contexts)
}
