package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_EntityDirectory_CreateAssignsDistinctEntities(t *testing.T) {
	// Arrange
	d := newEntityDirectory()

	// Act
	a := d.create()
	b := d.create()

	// Assert
	assert.NotEqual(t, a, b)
}

func Test_EntityDirectory_ResolveUnknownEntityFails(t *testing.T) {
	// Arrange
	d := newEntityDirectory()

	// Act
	_, err := d.resolve(Entity{index: 7})

	// Assert
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func Test_EntityDirectory_DestroyThenResolveIsStale(t *testing.T) {
	// Arrange
	d := newEntityDirectory()
	e := d.create()

	// Act
	err := d.destroy(e)
	_, resolveErr := d.resolve(e)

	// Assert
	assert.NoError(t, err)
	assert.ErrorIs(t, resolveErr, ErrStaleEntity)
}

func Test_EntityDirectory_RecyclesFreedIndexWithBumpedGeneration(t *testing.T) {
	// Arrange
	d := newEntityDirectory()
	e := d.create()
	_ = d.destroy(e)

	// Act
	recycled := d.create()

	// Assert
	assert.Equal(t, e.index, recycled.index)
	assert.Equal(t, e.generation+1, recycled.generation)
}

func Test_Entity_IsNull(t *testing.T) {
	// Arrange & Act & Assert
	assert.True(t, NullEntity.IsNull())
	assert.False(t, Entity{index: 1}.IsNull())
}
