package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type transformComponent struct {
	X, Y float64
}

type tinyComponent struct {
	Flag bool
}

func Test_ComponentTypeRegistry_RegisterAssignsStableID(t *testing.T) {
	// Arrange
	reg := NewComponentTypeRegistry()

	// Act
	first, err := Register[transformComponent](reg, defaultChunkPayloadBytes)
	second, err2 := Register[transformComponent](reg, defaultChunkPayloadBytes)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

func Test_ComponentTypeRegistry_DistinctTypesGetDistinctIDs(t *testing.T) {
	// Arrange
	reg := NewComponentTypeRegistry()

	// Act
	a, _ := Register[transformComponent](reg, defaultChunkPayloadBytes)
	b, _ := Register[tinyComponent](reg, defaultChunkPayloadBytes)

	// Assert
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Count())
}

func Test_ComponentTypeRegistry_IDOfUnregisteredTypeIsNotFound(t *testing.T) {
	// Arrange
	reg := NewComponentTypeRegistry()

	// Act
	_, ok := IDOf[transformComponent](reg)

	// Assert
	assert.False(t, ok)
}

func Test_ComponentTypeRegistry_ExceedingMaxComponentsFails(t *testing.T) {
	// Arrange
	r := NewComponentTypeRegistry()
	r.next = MaxComponents

	// Act
	_, err := Register[transformComponent](r, defaultChunkPayloadBytes)

	// Assert
	assert.ErrorIs(t, err, ErrTooManyComponentTypes)
}

func Test_ComponentTypeRegistry_OversizedComponentFails(t *testing.T) {
	// Arrange
	r := NewComponentTypeRegistry()

	// Act
	_, err := Register[transformComponent](r, 8) // smaller than chunkHeaderBytes alone

	// Assert
	var ecsErr *Error
	assert.True(t, errors.As(err, &ecsErr))
	assert.ErrorIs(t, err, ErrComponentTooLarge)
}

func Test_ComponentTypeRegistry_NameReturnsRegisteredTypeName(t *testing.T) {
	// Arrange
	r := NewComponentTypeRegistry()
	id, _ := Register[transformComponent](r, defaultChunkPayloadBytes)

	// Act
	name := r.Name(id)

	// Assert
	assert.Contains(t, name, "transformComponent")
}
