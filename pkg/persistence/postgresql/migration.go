package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				is_active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_tenant_id ON workflows(tenant_id);
			CREATE INDEX idx_workflows_is_active ON workflows(is_active);

			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255) NOT NULL,
				session_id VARCHAR(255) NOT NULL,
				contact_id VARCHAR(255) NOT NULL,
				current_node_id VARCHAR(255),
				status VARCHAR(50) NOT NULL CHECK (status IN ('RUNNING', 'WAITING', 'COMPLETED', 'EXPIRED', 'ERROR')),
				context JSONB NOT NULL DEFAULT '{}',
				interaction_count INTEGER NOT NULL DEFAULT 0,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				error TEXT,
				output JSONB
			);

			CREATE INDEX idx_executions_workflow_id ON executions(workflow_id);
			CREATE INDEX idx_executions_status ON executions(status);
			CREATE INDEX idx_executions_session_contact ON executions(session_id, contact_id, status);
			CREATE INDEX idx_executions_expires_at ON executions(expires_at) WHERE status = 'WAITING';
		`,
	}
}
