package sqlite

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flow_graphs (
				id TEXT PRIMARY KEY,
				graph TEXT NOT NULL
			);

			CREATE TABLE agents (
				id TEXT PRIMARY KEY,
				workspace_id TEXT NOT NULL,
				name TEXT NOT NULL,
				active_version_id TEXT,
				flow_graph_id TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE INDEX idx_agents_active_version_id ON agents(active_version_id);

			CREATE TABLE runs (
				id TEXT PRIMARY KEY,
				agent_id TEXT NOT NULL,
				agent_version_id TEXT NOT NULL,
				workspace_id TEXT NOT NULL,
				trigger_type TEXT NOT NULL CHECK (trigger_type IN ('manual', 'schedule', 'webhook')),
				trigger_payload TEXT,
				status TEXT NOT NULL,
				started_at TEXT,
				finished_at TEXT,
				error_message TEXT,
				created_at TEXT NOT NULL
			);

			CREATE INDEX idx_runs_dedup ON runs(agent_id, agent_version_id, trigger_type, created_at);
		`,
		2: `
			CREATE TABLE run_nodes (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				node_id TEXT NOT NULL,
				node_type TEXT NOT NULL,
				status TEXT NOT NULL,
				input TEXT,
				output TEXT,
				error_message TEXT,
				started_at TEXT,
				finished_at TEXT
			);

			CREATE INDEX idx_run_nodes_run_id ON run_nodes(run_id);
		`,
	}
}
