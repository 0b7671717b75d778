package hr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkedHours(t *testing.T) {
	hours, overtime, err := workedHours("2026-03-01 07:00:00", "2026-03-01 17:30:00")
	require.NoError(t, err)
	assert.Equal(t, 10.5, hours)
	assert.Equal(t, 2.5, overtime)

	hours, overtime, err = workedHours("2026-03-01 08:00:00", "2026-03-01 12:20:00")
	require.NoError(t, err)
	assert.Equal(t, 4.33, hours)
	assert.Equal(t, 0.0, overtime)

	_, _, err = workedHours("2026-03-01 12:00:00", "2026-03-01 08:00:00")
	assert.Error(t, err)

	_, _, err = workedHours("yesterday", "2026-03-01 08:00:00")
	assert.Error(t, err)
}
