package ecs

import "unsafe"

// QueryBuilder incrementally constructs a Query's include/exclude/optional
// masks (spec.md §4.6 "Query Engine"). Optional components don't affect
// matching but are tracked so a compiled Query can expose per-chunk presence
// to callers that want to branch on them.
type QueryBuilder struct {
	r        *Registry
	include  Signature
	exclude  Signature
	optional Signature
}

// NewQuery starts building a query against r.
func NewQuery(r *Registry) *QueryBuilder {
	return &QueryBuilder{r: r}
}

// With requires T to be present on every matched entity.
func With[T any](b *QueryBuilder) *QueryBuilder {
	if t, ok := IDOf[T](b.r.reg); ok {
		b.include = b.include.With(t)
	}
	return b
}

// Without excludes entities carrying T.
func Without[T any](b *QueryBuilder) *QueryBuilder {
	if t, ok := IDOf[T](b.r.reg); ok {
		b.exclude = b.exclude.With(t)
	}
	return b
}

// OptionalComponent marks T as a component the query may read when present,
// without requiring or excluding it.
func OptionalComponent[T any](b *QueryBuilder) *QueryBuilder {
	if t, ok := IDOf[T](b.r.reg); ok {
		b.optional = b.optional.With(t)
	}
	return b
}

// Query is a compiled, cacheable view over the registry's archetypes
// matching a fixed include/exclude/optional mask. The matched archetype list
// is memoized and only recomputed when the registry's archetype set has
// grown since the last Resolve (spec.md §4.6 "result caching").
type Query struct {
	r        *Registry
	include  Signature
	exclude  Signature
	optional Signature

	cachedArchetypeCount int
	cachedMatches        []*Archetype
}

// Resolve finalizes the builder into a reusable Query.
func (b *QueryBuilder) Resolve() *Query {
	return &Query{r: b.r, include: b.include, exclude: b.exclude, optional: b.optional}
}

// refresh recomputes the matched archetype list if the registry has gained
// archetypes since the cache was built. Archetypes are never removed from
// the matched set by CollectGarbage alone (an emptied archetype still
// matches the signature test; it simply contributes zero rows), so growth
// of the archetype map is the only event that can invalidate the cache.
// Callers must hold q.r.mu (read or write) across refresh and their use of
// cachedMatches.
func (q *Query) refresh() {
	if len(q.r.archetypes) == q.cachedArchetypeCount {
		return
	}
	q.cachedMatches = q.cachedMatches[:0]
	for _, a := range q.r.archetypes {
		if a.signature.Matches(q.include, q.exclude) {
			q.cachedMatches = append(q.cachedMatches, a)
		}
	}
	q.cachedArchetypeCount = len(q.r.archetypes)
}

// ChunkView exposes one matched chunk's live rows to a query callback
// without copying column data out.
type ChunkView struct {
	archetype *Archetype
	chunk     *Chunk
	rowCount  int
}

// Len returns the number of live rows in this chunk.
func (v *ChunkView) Len() int { return v.rowCount }

// Entity returns the entity handle owning row i of this chunk.
func (v *ChunkView) Entity(i int) Entity { return v.chunk.entities[i] }

// Has reports whether every row of this chunk carries component type t
// (true for every row of a matched chunk when t is in the query's include
// mask, and possibly true for an optional t depending on the archetype).
func (v *ChunkView) Has(t ComponentType) bool { return v.archetype.signature.Has(t) }

// Component returns a pointer to row i's instance of T, or nil if the
// chunk's archetype doesn't carry T (only possible for optional components).
func Component[T any](v *ChunkView, reg *ComponentTypeRegistry, i int) *T {
	t, ok := IDOf[T](reg)
	if !ok {
		return nil
	}
	col := v.archetype.columnIndex(t)
	if col < 0 {
		return nil
	}
	var zero T
	ptr := v.chunk.rowPtr(col, i, unsafe.Sizeof(zero))
	return (*T)(ptr)
}

// ForEachChunk invokes fn once per matched chunk holding at least one live
// row (spec.md §4.6 "for_each_chunk"). fn may be called concurrently by the
// parallel scheduler's job workers; it must not mutate the query's own
// include/exclude/optional masks.
func (q *Query) ForEachChunk(fn func(*ChunkView)) {
	q.r.mu.RLock()
	defer q.r.mu.RUnlock()
	q.refresh()
	for _, a := range q.cachedMatches {
		for _, c := range a.chunks {
			if c.rowCount == 0 {
				continue
			}
			fn(&ChunkView{archetype: a, chunk: c, rowCount: c.rowCount})
		}
	}
}

// ForEachRow invokes fn once per matched live row, across every matched
// chunk (spec.md §4.6 "for_each_row"). This is the convenience form; hot
// loops over large archetypes should prefer ForEachChunk plus a manual inner
// loop to amortize the view construction.
func (q *Query) ForEachRow(fn func(*ChunkView, int)) {
	q.ForEachChunk(func(v *ChunkView) {
		for i := 0; i < v.Len(); i++ {
			fn(v, i)
		}
	})
}

// Count returns the total number of live rows across every matched
// archetype, without invoking a per-row callback.
func (q *Query) Count() int {
	q.r.mu.RLock()
	defer q.r.mu.RUnlock()
	q.refresh()
	total := 0
	for _, a := range q.cachedMatches {
		total += a.rows
	}
	return total
}

// MatchedArchetypeCount reports how many archetypes currently satisfy the
// query's mask. Exposed for tests and debug tooling.
func (q *Query) MatchedArchetypeCount() int {
	q.r.mu.RLock()
	defer q.r.mu.RUnlock()
	q.refresh()
	return len(q.cachedMatches)
}
