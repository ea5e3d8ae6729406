package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Signature_WithAndHas(t *testing.T) {
	// Arrange
	var s Signature

	// Act
	s = s.With(3).With(5)

	// Assert
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(5))
	assert.False(t, s.Has(4))
	assert.Equal(t, 2, s.Len())
}

func Test_Signature_Without(t *testing.T) {
	// Arrange
	s := NewSignature(1, 2, 3)

	// Act
	s = s.Without(2)

	// Assert
	assert.True(t, s.Has(1))
	assert.False(t, s.Has(2))
	assert.True(t, s.Has(3))
}

func Test_Signature_UnionIntersectDifference(t *testing.T) {
	// Arrange
	a := NewSignature(1, 2, 3)
	b := NewSignature(2, 3, 4)

	// Act & Assert
	assert.Equal(t, NewSignature(1, 2, 3, 4), a.Union(b))
	assert.Equal(t, NewSignature(2, 3), a.Intersect(b))
	assert.Equal(t, NewSignature(1), a.Difference(b))
}

func Test_Signature_IsSubsetOf(t *testing.T) {
	// Arrange
	sub := NewSignature(1, 2)
	full := NewSignature(1, 2, 3)

	// Act & Assert
	assert.True(t, sub.IsSubsetOf(full))
	assert.False(t, full.IsSubsetOf(sub))
}

func Test_Signature_Matches(t *testing.T) {
	// Arrange
	s := NewSignature(1, 2, 3)
	include := NewSignature(1, 2)
	exclude := NewSignature(4)

	// Act & Assert
	assert.True(t, s.Matches(include, exclude))
	assert.False(t, s.Matches(include, NewSignature(3)))
	assert.False(t, s.Matches(NewSignature(1, 9), exclude))
}

func Test_Signature_ForEachVisitsAscending(t *testing.T) {
	// Arrange
	s := NewSignature(5, 1, 3)
	var seen []ComponentType

	// Act
	s.ForEach(func(t ComponentType) bool {
		seen = append(seen, t)
		return true
	})

	// Assert
	assert.Equal(t, []ComponentType{1, 3, 5}, seen)
}

func Test_Signature_ForEachStopsEarly(t *testing.T) {
	// Arrange
	s := NewSignature(1, 2, 3)
	count := 0

	// Act
	s.ForEach(func(ComponentType) bool {
		count++
		return count < 2
	})

	// Assert
	assert.Equal(t, 2, count)
}

func Test_Signature_DebugNames(t *testing.T) {
	// Arrange
	reg := NewComponentTypeRegistry()
	id, _ := Register[transformComponent](reg, defaultChunkPayloadBytes)
	s := NewSignature(id)

	// Act
	out := s.DebugNames(reg)

	// Assert
	assert.Contains(t, out, "transformComponent")
}
