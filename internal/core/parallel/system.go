// Package parallel implements the ECS parallel scheduler (spec.md §4.9):
// systems declare their component and resource access, a per-frame plan
// topologically sorts them honoring user ordering and data conflicts, then
// partitions the order into conflict-free waves dispatched onto the job
// package.
package parallel

import (
	"github.com/totodo713/ecscore/internal/core/ecs"
)

// SystemID identifies a registered system for order_constraints references.
type SystemID string

// AccessDeclaration is one system's component and resource access footprint
// (spec.md §4.9 "Inputs to a frame step").
type AccessDeclaration struct {
	Reads          ecs.Signature
	Writes         ecs.Signature
	ResourceReads  map[ecs.ResourceTag]struct{}
	ResourceWrites map[ecs.ResourceTag]struct{}
}

// Constraint is a user-declared ordering requirement beyond what data
// dependency implies.
type Constraint struct {
	Before SystemID
	After  SystemID
}

// RunFunc is a system's per-frame body. ctx carries whatever the caller
// threads through frames (typically a *core.Context); it is passed through
// unexamined by the scheduler.
type RunFunc func(r *ecs.Registry, ctx interface{}) error

// System is one unit registered with a Scheduler.
type System struct {
	ID          SystemID
	Access      AccessDeclaration
	Constraints []Constraint
	Run         RunFunc
}

// conflicts reports whether a and b may not run concurrently, per spec.md
// §4.9's conflict rule: writes(A) ∩ (reads(B) ∪ writes(B)) ≠ ∅, symmetric,
// with resource tags treated identically to component types.
func conflicts(a, b AccessDeclaration) bool {
	if a.Writes.Intersects(b.Reads.Union(b.Writes)) {
		return true
	}
	if b.Writes.Intersects(a.Reads.Union(a.Writes)) {
		return true
	}
	if resourceSetsConflict(a.ResourceWrites, b.ResourceReads) || resourceSetsConflict(a.ResourceWrites, b.ResourceWrites) {
		return true
	}
	if resourceSetsConflict(b.ResourceWrites, a.ResourceReads) || resourceSetsConflict(b.ResourceWrites, a.ResourceWrites) {
		return true
	}
	return false
}

func resourceSetsConflict(writes, other map[ecs.ResourceTag]struct{}) bool {
	if len(writes) == 0 || len(other) == 0 {
		return false
	}
	for tag := range writes {
		if _, ok := other[tag]; ok {
			return true
		}
	}
	return false
}
