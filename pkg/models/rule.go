package models

import (
	"fmt"
	"strings"
	"time"
)

// PredicateOperator is the closed set of comparison operators a trigger rule
// predicate may use. Unknown operators are rejected at write time; if one
// reaches evaluation anyway it fails closed (the rule does not match).
type PredicateOperator string

const (
	OperatorEquals      PredicateOperator = "eq"
	OperatorNotEquals   PredicateOperator = "neq"
	OperatorGreaterThan PredicateOperator = "gt"
	OperatorLessThan    PredicateOperator = "lt"
	OperatorContains    PredicateOperator = "contains"
	OperatorIn          PredicateOperator = "in"
)

// ValidOperator reports whether op is a member of the operator enum.
func ValidOperator(op PredicateOperator) bool {
	switch op {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan,
		OperatorLessThan, OperatorContains, OperatorIn:
		return true
	default:
		return false
	}
}

// Predicate is a single field comparison inside a trigger rule.
type Predicate struct {
	Field    string            `json:"field"    validate:"required"`
	Operator PredicateOperator `json:"operator" validate:"required"`
	Value    any               `json:"value"`
}

// Evaluate applies the predicate to an entity snapshot. Fields absent from
// the snapshot evaluate against a nil value.
func (p Predicate) Evaluate(snapshot map[string]any) bool {
	actual := snapshot[p.Field]

	switch p.Operator {
	case OperatorEquals:
		return LooseEqual(actual, p.Value)
	case OperatorNotEquals:
		return !LooseEqual(actual, p.Value)
	case OperatorGreaterThan:
		result, ok := compareOrdered(actual, p.Value)
		return ok && result > 0
	case OperatorLessThan:
		result, ok := compareOrdered(actual, p.Value)
		return ok && result < 0
	case OperatorContains:
		haystack, ok := actual.(string)
		if !ok {
			return false
		}

		needle, ok := p.Value.(string)

		return ok && strings.Contains(haystack, needle)
	case OperatorIn:
		return valueIn(p.Value, actual)
	default:
		return false
	}
}

// Validate rejects predicates with unknown operators or empty fields.
func (p Predicate) Validate() error {
	if p.Field == "" {
		return fmt.Errorf("predicate field is required")
	}

	if !ValidOperator(p.Operator) {
		return fmt.Errorf("unknown predicate operator %q", p.Operator)
	}

	return nil
}

// TriggerRule is a declarative, prioritized, multi-predicate alternative to a
// workflow definition's flat conditions map. A rule matches a snapshot iff
// every predicate evaluates true; an empty predicate list always matches.
type TriggerRule struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenant_id"   validate:"required"`
	Name       string      `json:"name"        validate:"required,min=3"`
	EntityType EntityType  `json:"entity_type" validate:"required"`
	Trigger    TriggerType `json:"trigger"     validate:"required"`
	Predicates []Predicate `json:"predicates"`
	WorkflowID string      `json:"workflow_id" validate:"required"`

	// Priority orders evaluation for display/inspection. All matching rules
	// fire regardless of priority.
	Priority int `json:"priority"`

	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Matches evaluates all predicates against the snapshot with AND semantics.
func (r *TriggerRule) Matches(snapshot map[string]any) bool {
	for _, predicate := range r.Predicates {
		if !predicate.Evaluate(snapshot) {
			return false
		}
	}

	return true
}

// Validate checks every predicate against the operator enum.
func (r *TriggerRule) Validate() error {
	for i, predicate := range r.Predicates {
		if err := predicate.Validate(); err != nil {
			return fmt.Errorf("predicate %d: %w", i, err)
		}
	}

	return nil
}
