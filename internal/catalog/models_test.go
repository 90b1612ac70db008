package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatLabel(t *testing.T) {
	assert.Equal(t, "A1", SeatLabel(0, 0))
	assert.Equal(t, "A10", SeatLabel(0, 9))
	assert.Equal(t, "C4", SeatLabel(2, 3))
	assert.Equal(t, "H10", SeatLabel(7, 9))
}

func TestGridLabels(t *testing.T) {
	labels := GridLabels(2, 3)
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, labels)

	assert.Len(t, GridLabels(8, 10), 80)
	assert.Empty(t, GridLabels(0, 5))
}
