package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflow_definitions (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL,
				entity_type VARCHAR(50) NOT NULL,
				conditions JSONB,
				actions JSONB NOT NULL,
				days_before_deadline INTEGER NOT NULL DEFAULT 0,
				created_by VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_definitions_lookup
				ON workflow_definitions(tenant_id, entity_type, trigger_type, status);

			CREATE TABLE trigger_rules (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				entity_type VARCHAR(50) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL,
				predicates JSONB NOT NULL,
				workflow_id UUID NOT NULL,
				priority INTEGER NOT NULL DEFAULT 0,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_trigger_rules_lookup
				ON trigger_rules(tenant_id, entity_type, trigger_type)
				WHERE deleted_at IS NULL;

			CREATE TABLE executions (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				workflow_id UUID NOT NULL REFERENCES workflow_definitions(id),
				entity_type VARCHAR(50) NOT NULL,
				entity_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				input_data JSONB,
				output_data JSONB,
				error_message TEXT,
				assigned_to_id VARCHAR(255),
				triggered_by VARCHAR(255),
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_executions_workflow ON executions(workflow_id);
			CREATE INDEX idx_executions_entity ON executions(entity_type, entity_id);
			CREATE INDEX idx_executions_status ON executions(status);

			CREATE TABLE approvals (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
				approver_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				comments TEXT,
				step_order INTEGER NOT NULL DEFAULT 0,
				signature JSONB,
				responded_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_approvals_execution ON approvals(execution_id);
			CREATE INDEX idx_approvals_approver ON approvals(approver_id, status);

			CREATE TABLE tasks (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				title VARCHAR(255) NOT NULL,
				description TEXT,
				priority VARCHAR(50),
				due_date TIMESTAMP WITH TIME ZONE,
				assignee_id VARCHAR(255),
				entity_type VARCHAR(50) NOT NULL,
				entity_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_entity ON tasks(entity_type, entity_id);
			CREATE INDEX idx_tasks_assignee ON tasks(assignee_id);
		`,
	}
}
