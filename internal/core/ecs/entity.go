package ecs

import "fmt"

// Entity is an opaque handle: a 32-bit index paired with a 32-bit generation
// that detects use of a stale handle after its index has been recycled
// (spec.md §3 "Entity").
type Entity struct {
	index      uint32
	generation uint32
}

// NullEntity is the reserved "no entity" handle.
var NullEntity = Entity{}

// IsNull reports whether e is the reserved null entity.
func (e Entity) IsNull() bool { return e == NullEntity }

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.index, e.generation)
}

// entitySlot is one row of the entity directory (spec.md §4.4). A slot is
// either free (part of the intrusive freelist, nextFree pointing at the next
// free slot or -1) or occupied (naming where the entity currently lives).
type entitySlot struct {
	generation uint32
	occupied   bool
	nextFree   int32 // -1 terminates the freelist

	archetype *Archetype
	row       int
}

// entityDirectory maps an Entity's index to its (archetype, row), recycling
// indices through an intrusive freelist and bumping the generation on reuse
// so stale handles resolve to ErrStaleEntity (spec.md §4.4).
type entityDirectory struct {
	slots    []entitySlot
	freeHead int32 // -1 when the freelist is empty
}

func newEntityDirectory() *entityDirectory {
	return &entityDirectory{freeHead: -1}
}

// create allocates a fresh Entity, reusing a freed index when available.
func (d *entityDirectory) create() Entity {
	if d.freeHead != -1 {
		idx := d.freeHead
		slot := &d.slots[idx]
		d.freeHead = slot.nextFree
		slot.occupied = true
		return Entity{index: uint32(idx), generation: slot.generation}
	}

	// Generations start at 1, not 0: index 0's first-ever allocation would
	// otherwise produce Entity{0, 0}, which is byte-identical to NullEntity
	// and would make resolve(e) reject a perfectly live handle as "null".
	idx := uint32(len(d.slots))
	d.slots = append(d.slots, entitySlot{occupied: true, generation: 1})
	return Entity{index: idx, generation: 1}
}

// resolve validates e against the directory and, if live, returns a pointer
// to its slot for the caller to read or update.
func (d *entityDirectory) resolve(e Entity) (*entitySlot, error) {
	if e.IsNull() || int(e.index) >= len(d.slots) {
		return nil, newEntityErr(ErrUnknownEntity, e, "index out of range")
	}
	slot := &d.slots[e.index]
	if !slot.occupied {
		return nil, newEntityErr(ErrUnknownEntity, e, "index is free")
	}
	if slot.generation != e.generation {
		return nil, newEntityErr(ErrStaleEntity, e, "generation mismatch")
	}
	return slot, nil
}

// destroy pushes e's index back onto the freelist and bumps its generation
// so any remaining copy of e now resolves as stale (spec.md §4.4's documented
// wraparound caveat: after 2^32 reuses of one index the generation wraps and
// a very long-lived stale handle could alias a live one again — acceptable
// per spec.md §9's note that any wrap "in practice... is a bug surface").
func (d *entityDirectory) destroy(e Entity) error {
	slot, err := d.resolve(e)
	if err != nil {
		return err
	}
	slot.occupied = false
	slot.archetype = nil
	slot.row = 0
	slot.generation++
	slot.nextFree = d.freeHead
	d.freeHead = int32(e.index)
	return nil
}

// set updates the (archetype, row) pair stored for a live entity. Callers
// must have already validated the entity via resolve in the same critical
// section.
func (slot *entitySlot) set(a *Archetype, row int) {
	slot.archetype = a
	slot.row = row
}
