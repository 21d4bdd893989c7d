package weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMondayKey(t *testing.T) {
	// 2024-01-03 is a Wednesday; the preceding Monday is 2024-01-01.
	wed := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", MondayKey(wed))

	mon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", MondayKey(mon))

	sun := time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", MondayKey(sun))
}

func TestInRange(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	since := base.AddDate(0, 0, -1)
	to := base.AddDate(0, 0, 1)
	assert.True(t, InRange(base, &since, &to))
	assert.False(t, InRange(base.AddDate(0, 0, -2), &since, &to))
	assert.True(t, InRange(base, nil, nil))
}
