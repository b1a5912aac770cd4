// Package rules matches trigger events against declarative trigger rules.
package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// Matcher evaluates active trigger rules against entity snapshots.
type Matcher struct {
	rules  persistence.RuleRepository
	logger *slog.Logger
}

func NewMatcher(rules persistence.RuleRepository, logger *slog.Logger) *Matcher {
	return &Matcher{
		rules:  rules,
		logger: logger.With("module", "rule_matcher"),
	}
}

// MatchWorkflows returns the target workflow id of every active rule for
// (entityType, trigger) whose predicates all pass against the snapshot.
// Fields absent from the snapshot compare as nil. No side effects.
func (m *Matcher) MatchWorkflows(
	ctx context.Context,
	tenantID string,
	entityType models.EntityType,
	trigger models.TriggerType,
	snapshot map[string]any,
) ([]string, error) {
	candidates, err := m.rules.Rules(ctx, persistence.RuleFilter{
		TenantID:   tenantID,
		EntityType: entityType,
		Trigger:    trigger,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load trigger rules: %w", err)
	}

	matched := make([]string, 0)

	for _, rule := range candidates {
		if !rule.Matches(snapshot) {
			continue
		}

		matched = append(matched, rule.WorkflowID)

		m.logger.DebugContext(ctx, "Trigger rule matched",
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"workflow_id", rule.WorkflowID,
			"priority", rule.Priority)
	}

	m.logger.DebugContext(ctx, "Completed rule matching",
		"entity_type", entityType,
		"trigger", trigger,
		"rules_evaluated", len(candidates),
		"matches", len(matched))

	return matched, nil
}
