package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Query_MatchesEntitiesWithIncludedComponent(t *testing.T) {
	// Arrange
	r, reg := newTestRegistry(t)
	Register[positionComponent](reg, defaultChunkPayloadBytes)
	Register[velocityComponent](reg, defaultChunkPayloadBytes)

	moving, _ := r.Create()
	require.NoError(t, Add(r, moving, positionComponent{X: 1}))
	require.NoError(t, Add(r, moving, velocityComponent{DX: 1}))

	still, _ := r.Create()
	require.NoError(t, Add(r, still, positionComponent{X: 2}))

	q := With[velocityComponent](NewQuery(r)).Resolve()

	// Act
	count := q.Count()

	// Assert
	assert.Equal(t, 1, count)
}

func Test_Query_WithoutExcludesEntities(t *testing.T) {
	// Arrange
	r, reg := newTestRegistry(t)
	Register[positionComponent](reg, defaultChunkPayloadBytes)
	Register[velocityComponent](reg, defaultChunkPayloadBytes)

	moving, _ := r.Create()
	require.NoError(t, Add(r, moving, positionComponent{X: 1}))
	require.NoError(t, Add(r, moving, velocityComponent{DX: 1}))

	still, _ := r.Create()
	require.NoError(t, Add(r, still, positionComponent{X: 2}))

	q := Without[velocityComponent](With[positionComponent](NewQuery(r))).Resolve()

	// Act
	var seen []Entity
	q.ForEachRow(func(v *ChunkView, i int) {
		seen = append(seen, v.Entity(i))
	})

	// Assert
	require.Len(t, seen, 1)
	assert.Equal(t, still, seen[0])
}

func Test_Query_ForEachChunkExposesComponentData(t *testing.T) {
	// Arrange
	r, reg := newTestRegistry(t)
	Register[positionComponent](reg, defaultChunkPayloadBytes)
	e, _ := r.Create()
	require.NoError(t, Add(r, e, positionComponent{X: 42}))

	q := With[positionComponent](NewQuery(r)).Resolve()

	// Act
	var sum float64
	q.ForEachChunk(func(v *ChunkView) {
		for i := 0; i < v.Len(); i++ {
			p := Component[positionComponent](v, reg, i)
			sum += p.X
		}
	})

	// Assert
	assert.Equal(t, 42.0, sum)
}

func Test_Query_CacheInvalidatesWhenArchetypesGrow(t *testing.T) {
	// Arrange
	r, reg := newTestRegistry(t)
	Register[positionComponent](reg, defaultChunkPayloadBytes)
	q := With[positionComponent](NewQuery(r)).Resolve()
	assert.Equal(t, 0, q.Count())

	// Act: the first Add call introduces a new archetype carrying positionComponent.
	e, _ := r.Create()
	require.NoError(t, Add(r, e, positionComponent{X: 1}))

	// Assert
	assert.Equal(t, 1, q.Count())
}

func Test_Query_OptionalComponentDoesNotConstrainMatch(t *testing.T) {
	// Arrange
	r, reg := newTestRegistry(t)
	Register[positionComponent](reg, defaultChunkPayloadBytes)
	Register[velocityComponent](reg, defaultChunkPayloadBytes)

	withVel, _ := r.Create()
	require.NoError(t, Add(r, withVel, positionComponent{X: 1}))
	require.NoError(t, Add(r, withVel, velocityComponent{DX: 1}))

	withoutVel, _ := r.Create()
	require.NoError(t, Add(r, withoutVel, positionComponent{X: 2}))

	q := OptionalComponent[velocityComponent](With[positionComponent](NewQuery(r))).Resolve()

	// Act
	count := q.Count()

	// Assert: both entities match; velocity is optional, not required.
	assert.Equal(t, 2, count)
}
