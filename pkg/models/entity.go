package models

// EntityType identifies a governed entity kind the engine can react to and
// mutate. The engine never touches entity internals directly; mutation goes
// through the EntityMutator registry.
type EntityType string

const (
	EntityPolicy                EntityType = "policy"
	EntitySOP                   EntityType = "sop"
	EntityRisk                  EntityType = "risk"
	EntityAsset                 EntityType = "asset"
	EntitySupplier              EntityType = "supplier"
	EntityComplianceRequirement EntityType = "compliance_requirement"
	EntityTask                  EntityType = "task"
)

// KnownEntityTypes lists every governed entity kind, for write-time validation.
func KnownEntityTypes() []EntityType {
	return []EntityType{
		EntityPolicy,
		EntitySOP,
		EntityRisk,
		EntityAsset,
		EntitySupplier,
		EntityComplianceRequirement,
		EntityTask,
	}
}

// ValidEntityType reports whether t names a governed entity kind.
func ValidEntityType(t EntityType) bool {
	for _, known := range KnownEntityTypes() {
		if t == known {
			return true
		}
	}

	return false
}
