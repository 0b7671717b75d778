package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

func TestLoad_DatasetIsValid(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, d.Sections)
	assert.NotEmpty(t, d.Customers)

	for _, ct := range d.QualityCheckTypes {
		assert.Contains(t, validation.ValidQualityStages, ct.TargetStage, ct.ID)
	}
	for _, p := range d.PlatePricingParameters {
		assert.Contains(t, validation.ValidPlateParameterTypes, p.Type)
	}
	for _, tpl := range d.SmsTemplates {
		assert.Contains(t, validation.ValidSmsMessageTypes, tpl.MessageType)
	}
	for _, o := range d.Orders {
		assert.Contains(t, validation.ValidOrderStatuses, o.Status)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	store := testutil.SetupStore(t)
	ctx := context.Background()

	res, err := Seed(ctx, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created["sections"])
	assert.Equal(t, 5, res.Created["machines"])
	assert.Equal(t, 3, res.Created["customers"])
	assert.Equal(t, 4, res.Created["customer_products"])
	assert.Equal(t, 2, res.Created["orders"])
	assert.Equal(t, 3, res.Created["job_orders"])
	assert.Equal(t, 3, res.Created["plate_pricing_parameters"])
	assert.Empty(t, res.Skipped)

	jos, err := store.ListJobOrders(ctx)
	require.NoError(t, err)
	require.Len(t, jos, 3)
	for _, jo := range jos {
		assert.NotEmpty(t, jo.CustomerID)
	}

	again, err := Seed(ctx, store, nil)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, 3, again.Skipped["customers"])
	assert.Equal(t, 2, again.Skipped["orders"])

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestSeed_KeepsExistingRecords(t *testing.T) {
	store := testutil.SetupStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSection(ctx, &models.Section{ID: "EXT", Name: "Blown Film"}))

	res, err := Seed(ctx, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped["sections"])
	assert.Equal(t, 3, res.Created["sections"])

	sec, err := store.GetSection(ctx, "EXT")
	require.NoError(t, err)
	assert.Equal(t, "Blown Film", sec.Name)
}
