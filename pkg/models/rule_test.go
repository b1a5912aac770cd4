package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateEvaluate(t *testing.T) {
	snapshot := map[string]any{
		"status":     "draft",
		"risk_score": 7.5,
		"owner":      "compliance team",
		"severity":   3,
	}

	tests := []struct {
		name      string
		predicate Predicate
		expected  bool
	}{
		{
			name:      "eq matches",
			predicate: Predicate{Field: "status", Operator: OperatorEquals, Value: "draft"},
			expected:  true,
		},
		{
			name:      "eq mismatch",
			predicate: Predicate{Field: "status", Operator: OperatorEquals, Value: "published"},
			expected:  false,
		},
		{
			name:      "eq numeric across int and float",
			predicate: Predicate{Field: "severity", Operator: OperatorEquals, Value: 3.0},
			expected:  true,
		},
		{
			name:      "neq",
			predicate: Predicate{Field: "status", Operator: OperatorNotEquals, Value: "published"},
			expected:  true,
		},
		{
			name:      "gt numeric",
			predicate: Predicate{Field: "risk_score", Operator: OperatorGreaterThan, Value: 5},
			expected:  true,
		},
		{
			name:      "gt equal values do not match",
			predicate: Predicate{Field: "risk_score", Operator: OperatorGreaterThan, Value: 7.5},
			expected:  false,
		},
		{
			name:      "lt numeric",
			predicate: Predicate{Field: "risk_score", Operator: OperatorLessThan, Value: 10},
			expected:  true,
		},
		{
			name:      "contains substring",
			predicate: Predicate{Field: "owner", Operator: OperatorContains, Value: "compliance"},
			expected:  true,
		},
		{
			name:      "contains on non-string fails closed",
			predicate: Predicate{Field: "risk_score", Operator: OperatorContains, Value: "7"},
			expected:  false,
		},
		{
			name:      "in list",
			predicate: Predicate{Field: "status", Operator: OperatorIn, Value: []any{"draft", "review"}},
			expected:  true,
		},
		{
			name:      "in list mismatch",
			predicate: Predicate{Field: "status", Operator: OperatorIn, Value: []any{"published", "archived"}},
			expected:  false,
		},
		{
			name:      "in string slice",
			predicate: Predicate{Field: "status", Operator: OperatorIn, Value: []string{"draft"}},
			expected:  true,
		},
		{
			name:      "missing field evaluates against nil",
			predicate: Predicate{Field: "unknown", Operator: OperatorEquals, Value: "x"},
			expected:  false,
		},
		{
			name:      "unknown operator fails closed",
			predicate: Predicate{Field: "status", Operator: "matches", Value: "draft"},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.predicate.Evaluate(snapshot))
		})
	}
}

func TestPredicateValidate(t *testing.T) {
	err := Predicate{Field: "status", Operator: "regex", Value: ".*"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown predicate operator")

	err = Predicate{Operator: OperatorEquals}.Validate()
	require.Error(t, err)

	err = Predicate{Field: "status", Operator: OperatorEquals, Value: "draft"}.Validate()
	require.NoError(t, err)
}

func TestTriggerRuleMatchesAllPredicates(t *testing.T) {
	rule := &TriggerRule{
		Predicates: []Predicate{
			{Field: "status", Operator: OperatorEquals, Value: "draft"},
			{Field: "risk_score", Operator: OperatorGreaterThan, Value: 5},
		},
	}

	assert.True(t, rule.Matches(map[string]any{"status": "draft", "risk_score": 9}))
	assert.False(t, rule.Matches(map[string]any{"status": "draft", "risk_score": 2}))
	assert.False(t, rule.Matches(map[string]any{"status": "published", "risk_score": 9}))
}

func TestTriggerRuleEmptyPredicatesAlwaysMatch(t *testing.T) {
	rule := &TriggerRule{}

	assert.True(t, rule.Matches(map[string]any{"anything": "goes"}))
	assert.True(t, rule.Matches(nil))
}

func TestWorkflowDefinitionMatchesConditions(t *testing.T) {
	workflow := &WorkflowDefinition{
		Conditions: map[string]any{"status": "draft", "severity": 3},
	}

	assert.True(t, workflow.MatchesConditions(map[string]any{"status": "draft", "severity": 3.0}))
	assert.False(t, workflow.MatchesConditions(map[string]any{"status": "draft", "severity": 4}))
	assert.False(t, workflow.MatchesConditions(map[string]any{"severity": 3}))

	empty := &WorkflowDefinition{}
	assert.True(t, empty.MatchesConditions(nil))
}

func TestWorkflowDefinitionWithinDeadlineWindow(t *testing.T) {
	reminder := &WorkflowDefinition{
		Trigger:            TriggerOnDeadlineApproaching,
		DaysBeforeDeadline: 3,
	}

	assert.False(t, reminder.WithinDeadlineWindow(map[string]any{"days_until_deadline": 29}))
	assert.True(t, reminder.WithinDeadlineWindow(map[string]any{"days_until_deadline": 3}))
	assert.True(t, reminder.WithinDeadlineWindow(map[string]any{"days_until_deadline": 2.0}))

	// Nothing to compare against: the window cannot be enforced.
	assert.True(t, reminder.WithinDeadlineWindow(nil))
	assert.True(t, reminder.WithinDeadlineWindow(map[string]any{"days_until_deadline": "soon"}))

	// No window configured, or not a deadline trigger.
	open := &WorkflowDefinition{Trigger: TriggerOnDeadlineApproaching}
	assert.True(t, open.WithinDeadlineWindow(map[string]any{"days_until_deadline": 29}))

	update := &WorkflowDefinition{Trigger: TriggerOnUpdate, DaysBeforeDeadline: 3}
	assert.True(t, update.WithinDeadlineWindow(map[string]any{"days_until_deadline": 29}))
}

func TestValidOperator(t *testing.T) {
	for _, op := range []PredicateOperator{
		OperatorEquals, OperatorNotEquals, OperatorGreaterThan,
		OperatorLessThan, OperatorContains, OperatorIn,
	} {
		assert.True(t, ValidOperator(op), string(op))
	}

	assert.False(t, ValidOperator("regex"))
	assert.False(t, ValidOperator(""))
}
