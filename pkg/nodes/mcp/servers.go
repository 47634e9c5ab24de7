// Package mcp calls tools exposed by external Model Context Protocol servers.
package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
)

// Transports.
const (
	TransportStreamable = "streamable"
	TransportSSE        = "sse"
)

// Server is one MCP server a workspace may call. A nil Scopes list allows
// every tool; an empty one allows none.
type Server struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	URL       string            `json:"url"`
	Transport string            `json:"transport,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Scopes    []string          `json:"scopes"`
	Enabled   bool              `json:"enabled"`
}

// Allows reports whether toolName is within the server's scopes.
func (s *Server) Allows(toolName string) bool {
	if s.Scopes == nil {
		return true
	}

	return slices.Contains(s.Scopes, toolName)
}

// Servers is the table of known MCP servers.
type Servers struct {
	mu      sync.RWMutex
	servers map[string]*Server
}

func NewServers(servers ...*Server) *Servers {
	table := &Servers{servers: make(map[string]*Server, len(servers))}
	for _, server := range servers {
		table.servers[server.ID] = server
	}

	return table
}

// LoadServers reads a JSON array of servers. An empty path yields an empty table.
func LoadServers(path string) (*Servers, error) {
	if path == "" {
		return NewServers(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MCP servers file: %w", err)
	}

	var servers []*Server
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, fmt.Errorf("failed to parse MCP servers file %s: %w", path, err)
	}

	for _, server := range servers {
		if server.ID == "" || server.URL == "" {
			return nil, fmt.Errorf("MCP server entries in %s need an id and a url", path)
		}
	}

	return NewServers(servers...), nil
}

// Enabled returns the server with id when it exists and is enabled.
func (s *Servers) Enabled(id string) (*Server, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	server, ok := s.servers[id]
	if !ok || !server.Enabled {
		return nil, false
	}

	return server, true
}

func (s *Servers) Put(server *Server) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.servers[server.ID] = server
}
