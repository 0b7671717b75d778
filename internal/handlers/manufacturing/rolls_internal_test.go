package manufacturing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestApplyPatch(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	user := ptr(int64(7))

	roll := models.Roll{CurrentStage: "extrusion", Status: "processing"}
	require.NoError(t, applyPatch(&roll, RollPatch{CurrentStage: ptr("printing")}, user, now))
	assert.Nil(t, roll.PrintedAt, "entering printing does not stamp it")

	require.NoError(t, applyPatch(&roll, RollPatch{CurrentStage: ptr("cutting")}, user, now))
	require.NotNil(t, roll.PrintedAt)
	assert.Equal(t, "2024-03-01 10:00:00", *roll.PrintedAt)
	assert.Equal(t, user, roll.PrintedByID)

	later := now.Add(2 * time.Hour)
	require.NoError(t, applyPatch(&roll, RollPatch{CurrentStage: ptr("completed")}, ptr(int64(9)), later))
	assert.Equal(t, "2024-03-01 10:00:00", *roll.PrintedAt, "printed stamp is kept")
	require.NotNil(t, roll.CutAt)
	assert.Equal(t, "2024-03-01 12:00:00", *roll.CutAt)
	assert.Equal(t, int64(9), *roll.CutByID)
	assert.Equal(t, "completed", roll.Status)

	err := applyPatch(&roll, RollPatch{CurrentStage: ptr("printing")}, user, now)
	assert.EqualError(t, err, "cannot move roll from completed back to printing")
}
