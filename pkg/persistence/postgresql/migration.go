package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flow_graphs (
				id VARCHAR(255) PRIMARY KEY,
				graph JSONB NOT NULL
			);

			CREATE TABLE agents (
				id VARCHAR(255) PRIMARY KEY,
				workspace_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				active_version_id VARCHAR(255),
				flow_graph_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_agents_active_version_id ON agents(active_version_id);

			CREATE TABLE runs (
				id VARCHAR(255) PRIMARY KEY,
				agent_id VARCHAR(255) NOT NULL,
				agent_version_id VARCHAR(255) NOT NULL,
				workspace_id VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL CHECK (trigger_type IN ('manual', 'schedule', 'webhook')),
				trigger_payload JSONB,
				status VARCHAR(50) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE,
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_runs_dedup ON runs(agent_id, agent_version_id, trigger_type, created_at);
			CREATE INDEX idx_runs_status ON runs(status);
		`,
		2: `
			CREATE TABLE run_nodes (
				seq BIGSERIAL,
				id VARCHAR(255) PRIMARY KEY,
				run_id VARCHAR(255) NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				input JSONB,
				output JSONB,
				error_message TEXT,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_run_nodes_run_id ON run_nodes(run_id);
			CREATE INDEX idx_run_nodes_status ON run_nodes(status);
		`,
	}
}
