package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestJob(id uint64) *job {
	return newJob(id, PriorityNormal, func() error { return nil }, 0)
}

func Test_Deque_PushPopBottomIsLIFO(t *testing.T) {
	// Arrange
	d := newDeque(4)
	a, b := newTestJob(1), newTestJob(2)

	// Act
	assert.True(t, d.pushBottom(a))
	assert.True(t, d.pushBottom(b))

	// Assert
	assert.Equal(t, b, d.popBottom())
	assert.Equal(t, a, d.popBottom())
	assert.Nil(t, d.popBottom())
}

func Test_Deque_PushFailsWhenFull(t *testing.T) {
	// Arrange
	d := newDeque(2)

	// Act
	first := d.pushBottom(newTestJob(1))
	second := d.pushBottom(newTestJob(2))
	third := d.pushBottom(newTestJob(3))

	// Assert
	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third)
}

func Test_Deque_StealTakesOldestJob(t *testing.T) {
	// Arrange
	d := newDeque(4)
	a, b := newTestJob(1), newTestJob(2)
	d.pushBottom(a)
	d.pushBottom(b)

	// Act
	stolen := d.steal()

	// Assert: a was pushed first, so it's oldest and should be stolen.
	assert.Equal(t, a, stolen)
	assert.Equal(t, b, d.popBottom())
}

func Test_Deque_StealOnEmptyReturnsNil(t *testing.T) {
	// Arrange
	d := newDeque(4)

	// Act & Assert
	assert.Nil(t, d.steal())
}

func Test_Deque_LenTracksOutstandingJobs(t *testing.T) {
	// Arrange
	d := newDeque(4)
	d.pushBottom(newTestJob(1))
	d.pushBottom(newTestJob(2))

	// Act
	n := d.len()

	// Assert
	assert.Equal(t, 2, n)
}
