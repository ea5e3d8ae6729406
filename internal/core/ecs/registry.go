package ecs

import (
	"sort"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Registry orchestrates entity lifecycle and component storage: create,
// destroy, add, remove, get, set, has, and the archetype migrations those
// operations trigger (spec.md §4.5 "Registry"). It holds the single
// exclusive/shared lock writers and readers contend on — see Design Notes
// §9's resolution of "global singletons": one Registry per CoreContext,
// never a package-level instance.
type Registry struct {
	mu  sync.RWMutex
	reg *ComponentTypeRegistry

	chunkPayloadBytes int
	archetypes        map[Signature]*Archetype
	dir               *entityDirectory

	log *logrus.Logger
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*Registry)

// WithChunkPayloadBytes overrides the design-target chunk payload size used
// when sizing new archetypes' chunks.
func WithChunkPayloadBytes(n int) RegistryOption {
	return func(r *Registry) { r.chunkPayloadBytes = n }
}

// WithLogger attaches a logger that receives a debug-level entry for every
// archetype migration (add/remove component). Omit it (or pass nil) to
// disable this logging entirely rather than pay for a discard writer.
func WithLogger(l *logrus.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry constructs a Registry bound to reg's component type table.
func NewRegistry(reg *ComponentTypeRegistry, opts ...RegistryOption) *Registry {
	r := &Registry{
		reg:               reg,
		chunkPayloadBytes: defaultChunkPayloadBytes,
		archetypes:        make(map[Signature]*Archetype),
		dir:               newEntityDirectory(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) logMigration(e Entity, from, to Signature) {
	if r.log == nil {
		return
	}
	r.log.WithFields(logrus.Fields{
		"entity": e.String(),
		"from":   from.Len(),
		"to":     to.Len(),
	}).Debug("ecs: archetype migration")
}

func (r *Registry) archetypeFor(sig Signature) (*Archetype, error) {
	if a, ok := r.archetypes[sig]; ok {
		return a, nil
	}
	a, err := newArchetype(sig, r.reg, r.chunkPayloadBytes)
	if err != nil {
		return nil, err
	}
	r.archetypes[sig] = a
	return a, nil
}

// Create allocates a new entity with the empty signature (no components).
func (r *Registry) Create() (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	empty, err := r.archetypeFor(Signature(0))
	if err != nil {
		return NullEntity, err
	}
	e := r.dir.create()
	flat := empty.appendRow(e)
	slot, err := r.dir.resolve(e)
	if err != nil {
		return NullEntity, err
	}
	slot.set(empty, flat)
	return e, nil
}

// Destroy removes e and every component it carries.
func (r *Registry) Destroy(e Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return err
	}
	a := slot.archetype
	flat := slot.row
	moved := a.removeRow(flat, r.reg)
	if err := r.dir.destroy(e); err != nil {
		return err
	}
	if !moved.IsNull() {
		movedSlot, _ := r.dir.resolve(moved)
		movedSlot.set(a, flat)
	}
	return nil
}

// Has reports whether e currently carries a component of type t.
func (r *Registry) Has(e Entity, t ComponentType) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return false, err
	}
	return slot.archetype.signature.Has(t), nil
}

// Signature returns e's current component signature.
func (r *Registry) Signature(e Entity) (Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return 0, err
	}
	return slot.archetype.signature, nil
}

// Add attaches value as e's component of type T, migrating e to a new
// archetype. It returns ErrDuplicateComponent if e already carries T — use
// Set to overwrite an existing component's value instead (spec.md §4.5/§6.1
// "add<T>" vs. "set<T>" are distinct operations).
func Add[T any](r *Registry, e Entity, value T) error {
	t, ok := IDOf[T](r.reg)
	if !ok {
		return &Error{Kind: ErrMissingComponent, Entity: e, Message: "component type not registered"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return err
	}

	srcArch := slot.archetype
	if srcArch.signature.Has(t) {
		return newComponentErr(ErrDuplicateComponent, e, t, "entity already carries this component")
	}

	flat := slot.row
	dstSig := srcArch.signature.With(t)
	dstArch, err := r.archetypeFor(dstSig)
	if err != nil {
		return err
	}
	newFlat, moved := srcArch.moveRowTo(flat, dstArch, r.reg)
	if !moved.IsNull() {
		movedSlot, _ := r.dir.resolve(moved)
		movedSlot.set(srcArch, flat)
	}
	r.logMigration(e, srcArch.signature, dstSig)
	slot.set(dstArch, newFlat)

	chunk, row, col := dstArch.componentPtr(newFlat, t, unsafe.Sizeof(value))
	ptr := chunk.rowPtr(col, row, unsafe.Sizeof(value))
	*(*T)(ptr) = value
	return nil
}

// Set overwrites the value of e's existing component of type T. It returns
// ErrMissingComponent if e does not already carry T — use Add to attach a
// new component instead (spec.md §4.5/§6.1).
func Set[T any](r *Registry, e Entity, value T) error {
	t, ok := IDOf[T](r.reg)
	if !ok {
		return &Error{Kind: ErrMissingComponent, Entity: e, Message: "component type not registered"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return err
	}

	srcArch := slot.archetype
	if !srcArch.signature.Has(t) {
		return newComponentErr(ErrMissingComponent, e, t, "entity does not carry this component")
	}

	chunk, row, col := srcArch.componentPtr(slot.row, t, unsafe.Sizeof(value))
	ptr := chunk.rowPtr(col, row, unsafe.Sizeof(value))
	*(*T)(ptr) = value
	return nil
}

// Get returns a copy of e's component of type T.
func Get[T any](r *Registry, e Entity) (T, error) {
	var zero T
	t, ok := IDOf[T](r.reg)
	if !ok {
		return zero, &Error{Kind: ErrMissingComponent, Entity: e, Message: "component type not registered"}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return zero, err
	}
	if !slot.archetype.signature.Has(t) {
		return zero, newComponentErr(ErrMissingComponent, e, t, "entity does not carry this component")
	}
	chunk, row, col := slot.archetype.componentPtr(slot.row, t, unsafe.Sizeof(zero))
	ptr := chunk.rowPtr(col, row, unsafe.Sizeof(zero))
	return *(*T)(ptr), nil
}

// GetMut returns a pointer directly into the archetype chunk's column
// storage for in-place mutation. The pointer is invalidated by any
// structural change (add/remove component, destroy) to any entity sharing
// the archetype, per spec.md §4.5's documented aliasing caveat — callers
// must not retain it across such calls.
func GetMut[T any](r *Registry, e Entity) (*T, error) {
	var zero T
	t, ok := IDOf[T](r.reg)
	if !ok {
		return nil, &Error{Kind: ErrMissingComponent, Entity: e, Message: "component type not registered"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return nil, err
	}
	if !slot.archetype.signature.Has(t) {
		return nil, newComponentErr(ErrMissingComponent, e, t, "entity does not carry this component")
	}
	chunk, row, col := slot.archetype.componentPtr(slot.row, t, unsafe.Sizeof(zero))
	ptr := chunk.rowPtr(col, row, unsafe.Sizeof(zero))
	return (*T)(ptr), nil
}

// Remove drops e's component of type T, migrating e to a narrower archetype.
// It is a no-op (returns ErrMissingComponent) if e did not carry T.
func Remove[T any](r *Registry, e Entity) error {
	t, ok := IDOf[T](r.reg)
	if !ok {
		return &Error{Kind: ErrMissingComponent, Entity: e, Message: "component type not registered"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.dir.resolve(e)
	if err != nil {
		return err
	}
	srcArch := slot.archetype
	if !srcArch.signature.Has(t) {
		return newComponentErr(ErrMissingComponent, e, t, "entity does not carry this component")
	}

	flat := slot.row
	dstSig := srcArch.signature.Without(t)
	dstArch, err := r.archetypeFor(dstSig)
	if err != nil {
		return err
	}
	newFlat, moved := srcArch.moveRowTo(flat, dstArch, r.reg)
	if !moved.IsNull() {
		movedSlot, _ := r.dir.resolve(moved)
		movedSlot.set(srcArch, flat)
	}
	r.logMigration(e, srcArch.signature, dstSig)
	slot.set(dstArch, newFlat)
	return nil
}

// EntityCount returns the number of live entities across every archetype.
func (r *Registry) EntityCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, a := range r.archetypes {
		total += a.rows
	}
	return total
}

// CollectGarbage releases archetypes that currently hold zero entities,
// other than the empty-signature archetype, which is always kept, and
// returns how many it released, reclaiming their chunk slabs (SPEC_FULL.md
// §4.11 supplement: without this,
// a workload that briefly visits a rare component combination keeps that
// archetype's bookkeeping allocated forever).
func (r *Registry) CollectGarbage() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for sig, a := range r.archetypes {
		if a.rows == 0 && sig != Signature(0) {
			delete(r.archetypes, sig)
			removed++
		}
	}
	return removed
}

// DebugArchetypeInfo is a snapshot of one archetype's occupancy, returned by
// DebugInfo (SPEC_FULL.md §4.12 supplement).
type DebugArchetypeInfo struct {
	Signature  Signature
	EntityRows int
	ChunkCount int
	Capacity   int
}

// DebugInfo returns a point-in-time snapshot of every live archetype,
// ordered by signature for deterministic output.
func (r *Registry) DebugInfo() []DebugArchetypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DebugArchetypeInfo, 0, len(r.archetypes))
	for sig, a := range r.archetypes {
		out = append(out, DebugArchetypeInfo{
			Signature:  sig,
			EntityRows: a.rows,
			ChunkCount: len(a.chunks),
			Capacity:   a.capacity,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// ValidateIntegrity walks every archetype and confirms each live entity's
// directory slot actually points back at the row it claims to occupy. It
// exists for tests and debug tooling, not the hot path (SPEC_FULL.md §4.12).
func (r *Registry) ValidateIntegrity() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.archetypes {
		for flat := 0; flat < a.rows; flat++ {
			e := a.entityAt(flat)
			slot, err := r.dir.resolve(e)
			if err != nil {
				return err
			}
			if slot.archetype != a || slot.row != flat {
				return newEntityErr(ErrUnknownEntity, e, "directory/archetype row mismatch")
			}
		}
	}
	return nil
}
