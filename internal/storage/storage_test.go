package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/database"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "erp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

// seedJobOrder creates the catalog rows, customer and order a job order
// needs and returns the job order.
func seedJobOrder(t *testing.T, s *Store) models.JobOrder {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "CAT01", Name: "Bags", Code: "BG"}))
	require.NoError(t, s.CreateItem(ctx, &models.Item{ID: "ITM01", CategoryID: "CAT01", Name: "T-shirt bag"}))
	cust := &models.Customer{Code: "ACME", Name: "Acme Plastics", Phone: "+966500000000"}
	require.NoError(t, s.CreateCustomer(ctx, cust))
	cp := &models.CustomerProduct{CustomerID: cust.ID, CategoryID: "CAT01", ItemID: "ITM01", Width: 30}
	require.NoError(t, s.CreateCustomerProduct(ctx, cp))

	order := &models.Order{CustomerID: cust.ID}
	jos, err := s.CreateOrder(ctx, order, []models.JobOrder{{CustomerProductID: cp.ID, Quantity: 500}})
	require.NoError(t, err)
	require.Len(t, jos, 1)
	return jos[0]
}

func TestCreateOrder_DefaultsAndJobOrders(t *testing.T) {
	s := newStore(t)
	jo := seedJobOrder(t, s)

	order, err := s.GetOrder(context.Background(), jo.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "pending", order.Status)
	assert.NotEmpty(t, order.Date)
	assert.Equal(t, order.CustomerID, jo.CustomerID)
	assert.Equal(t, "pending", jo.Status)
}

func TestCreateCustomer_GeneratesSequentialIDs(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := &models.Customer{Code: "A", Name: "Alpha"}
	b := &models.Customer{Code: "B", Name: "Beta"}
	require.NoError(t, s.CreateCustomer(ctx, a))
	require.NoError(t, s.CreateCustomer(ctx, b))
	assert.Equal(t, "CID0001", a.ID)
	assert.Equal(t, "CID0002", b.ID)
}

func TestCreateRoll_NumbersPerJobOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	jo := seedJobOrder(t, s)

	first := &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 100, Status: "completed", CurrentStage: "cutting"}
	require.NoError(t, s.CreateRoll(ctx, first))
	second := &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 80}
	require.NoError(t, s.CreateRoll(ctx, second))

	assert.Equal(t, "EX-0001-001", first.ID)
	assert.Equal(t, "001", first.SerialNumber)
	assert.Equal(t, "EX-0001-002", second.ID)

	got, err := s.GetRoll(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
	assert.Equal(t, "extrusion", got.CurrentStage)

	rolls, err := s.ListRollsByJobOrder(ctx, jo.ID)
	require.NoError(t, err)
	assert.Len(t, rolls, 2)
}

func TestCreateRoll_SkipsSerialsOfDeletedRolls(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	jo := seedJobOrder(t, s)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateRoll(ctx, &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 50}))
	}
	require.NoError(t, s.DeleteRoll(ctx, "EX-0001-002"))

	next := &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 50}
	require.NoError(t, s.CreateRoll(ctx, next))
	assert.Equal(t, "EX-0001-004", next.ID)

	after := &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 50}
	require.NoError(t, s.CreateRoll(ctx, after))
	assert.Equal(t, "EX-0001-005", after.ID)
}

func TestRollID(t *testing.T) {
	id, serial := RollID(12, 3)
	assert.Equal(t, "EX-0012-003", id)
	assert.Equal(t, "003", serial)
}

func TestDeleteCategory_Guarded(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "C1", Name: "Film", Code: "FL"}))
	require.NoError(t, s.CreateItem(ctx, &models.Item{ID: "I1", CategoryID: "C1", Name: "Shrink"}))

	assert.ErrorIs(t, s.DeleteCategory(ctx, "C1"), ErrReferenced)
	assert.ErrorIs(t, s.DeleteCategory(ctx, "missing"), ErrNotFound)

	require.NoError(t, s.DeleteItem(ctx, "I1"))
	require.NoError(t, s.DeleteCategory(ctx, "C1"))
}

func TestCreateCategory_DuplicateCodeConflicts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "C1", Name: "Film", Code: "FL"}))

	err := s.CreateCategory(ctx, &models.Category{ID: "C2", Name: "Foil", Code: "FL"})
	assert.ErrorIs(t, err, ErrConflict)

	taken, err := s.CategoryCodeTaken(ctx, "FL", "C1")
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = s.CategoryCodeTaken(ctx, "FL", "C2")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetOrder(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetRoll(ctx, "EX-0042-001")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteJobOrder(ctx, 42), ErrNotFound)
}

func stock(t *testing.T, s *Store, id int64) float64 {
	t.Helper()
	m, err := s.GetRawMaterial(context.Background(), id)
	require.NoError(t, err)
	return m.Quantity
}

func TestMixItems_StockAndPercentages(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	pe := &models.RawMaterial{Name: "HDPE", Type: "resin", Quantity: 100, Unit: "kg"}
	require.NoError(t, s.CreateRawMaterial(ctx, pe))
	cc := &models.RawMaterial{Name: "Calcium", Type: "filler", Quantity: 50, Unit: "kg"}
	require.NoError(t, s.CreateRawMaterial(ctx, cc))

	mix := &models.MixMaterial{}
	require.NoError(t, s.CreateMixMaterial(ctx, mix, []models.MixItem{
		{RawMaterialID: pe.ID, Quantity: 30},
		{RawMaterialID: cc.ID, Quantity: 10},
	}))
	assert.InDelta(t, 40, mix.TotalQuantity, 1e-9)
	assert.InDelta(t, 70, stock(t, s, pe.ID), 1e-9)
	assert.InDelta(t, 40, stock(t, s, cc.ID), 1e-9)

	items, err := s.ListMixItemsByMix(ctx, mix.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.InDelta(t, 75, items[0].Percentage, 1e-9)
	assert.InDelta(t, 25, items[1].Percentage, 1e-9)

	// Update draws only the delta.
	up := items[0]
	up.Quantity = 90
	require.NoError(t, s.UpdateMixItem(ctx, &up))
	assert.InDelta(t, 10, stock(t, s, pe.ID), 1e-9)
	assert.InDelta(t, 90, up.Percentage, 1e-9)

	got, err := s.GetMixMaterial(ctx, mix.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, got.TotalQuantity, 1e-9)

	require.NoError(t, s.DeleteMixItem(ctx, items[1].ID))
	assert.InDelta(t, 50, stock(t, s, cc.ID), 1e-9)
	remaining, err := s.ListMixItemsByMix(ctx, mix.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.InDelta(t, 100, remaining[0].Percentage, 1e-9)

	require.NoError(t, s.DeleteMixMaterial(ctx, mix.ID))
	assert.InDelta(t, 100, stock(t, s, pe.ID), 1e-9)
}

func TestMixItems_RejectedMutationsLeaveStock(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	pe := &models.RawMaterial{Name: "LDPE", Type: "resin", Quantity: 20, Unit: "kg"}
	require.NoError(t, s.CreateRawMaterial(ctx, pe))
	mix := &models.MixMaterial{}
	require.NoError(t, s.CreateMixMaterial(ctx, mix, nil))

	err := s.CreateMixItem(ctx, &models.MixItem{MixID: mix.ID, RawMaterialID: pe.ID, Quantity: 25})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	err = s.CreateMixItem(ctx, &models.MixItem{MixID: mix.ID, RawMaterialID: pe.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.InDelta(t, 20, stock(t, s, pe.ID), 1e-9)

	it := &models.MixItem{MixID: mix.ID, RawMaterialID: pe.ID, Quantity: 15}
	require.NoError(t, s.CreateMixItem(ctx, it))
	it.Quantity = 40
	assert.ErrorIs(t, s.UpdateMixItem(ctx, it), ErrInsufficientStock)
	assert.InDelta(t, 5, stock(t, s, pe.ID), 1e-9)

	// A failing item rolls back the whole mix.
	before, err := s.ListMixMaterials(ctx)
	require.NoError(t, err)
	err = s.CreateMixMaterial(ctx, &models.MixMaterial{}, []models.MixItem{
		{RawMaterialID: pe.ID, Quantity: 1},
		{RawMaterialID: pe.ID, Quantity: 100},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	after, err := s.ListMixMaterials(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.InDelta(t, 5, stock(t, s, pe.ID), 1e-9)
}

func TestMaterialInput_AddsAndReversesStock(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	pe := &models.RawMaterial{Name: "HDPE", Type: "resin", Quantity: 10, Unit: "kg"}
	require.NoError(t, s.CreateRawMaterial(ctx, pe))

	in := &models.MaterialInput{Items: []models.MaterialInputItem{{RawMaterialID: pe.ID, Quantity: 40}}}
	require.NoError(t, s.CreateMaterialInput(ctx, in))
	assert.InDelta(t, 50, stock(t, s, pe.ID), 1e-9)

	got, err := s.GetMaterialInput(ctx, in.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	require.NoError(t, s.DeleteMaterialInput(ctx, in.ID))
	assert.InDelta(t, 10, stock(t, s, pe.ID), 1e-9)

	in2 := &models.MaterialInput{Items: []models.MaterialInputItem{{RawMaterialID: pe.ID, Quantity: 40}}}
	require.NoError(t, s.CreateMaterialInput(ctx, in2))
	mix := &models.MixMaterial{}
	require.NoError(t, s.CreateMixMaterial(ctx, mix, []models.MixItem{{RawMaterialID: pe.ID, Quantity: 45}}))
	assert.ErrorIs(t, s.DeleteMaterialInput(ctx, in2.ID), ErrInsufficientStock)
}

func TestSearchCustomers_Fuzzy(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCustomer(ctx, &models.Customer{Code: "GP", Name: "Gulf Packaging"}))
	require.NoError(t, s.CreateCustomer(ctx, &models.Customer{Code: "RP", Name: "Riyadh Plastics"}))

	hits, err := s.SearchCustomers(ctx, "gulf", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Gulf Packaging", hits[0].Name)
	assert.Zero(t, hits[0].Distance)

	hits, err = s.SearchCustomers(ctx, "plastiks", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Riyadh Plastics", hits[0].Name)
	assert.Equal(t, 1, hits[0].Distance)

	hits, err = s.SearchCustomers(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAbaConfig_SingleDefault(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := &models.AbaMaterialConfig{Name: "A", ConfigData: `{}`, IsDefault: true}
	b := &models.AbaMaterialConfig{Name: "B", ConfigData: `{}`, IsDefault: true}
	require.NoError(t, s.CreateAbaMaterialConfig(ctx, a))
	require.NoError(t, s.CreateAbaMaterialConfig(ctx, b))

	got, err := s.GetAbaMaterialConfig(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)

	require.NoError(t, s.SetDefaultAbaMaterialConfig(ctx, a.ID))
	got, err = s.GetAbaMaterialConfig(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
}

func TestPlateParameterValue_LatestActive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, ok, err := s.PlateParameterValue(ctx, "base_price")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.CreatePlatePricingParameter(ctx, &models.PlatePricingParameter{
		Name: "old", Value: 0.4, Type: "base_price", IsActive: false,
	}))
	require.NoError(t, s.CreatePlatePricingParameter(ctx, &models.PlatePricingParameter{
		Name: "current", Value: 0.7, Type: "base_price", IsActive: true,
	}))
	v, ok, err := s.PlateParameterValue(ctx, "base_price")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.7, v, 1e-9)
}

func TestTimeAttendance_OnePerDay(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := &models.User{Username: "operator", Password: "x", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))

	day := time.Now().Format(models.DateLayout)
	require.NoError(t, s.CreateTimeAttendance(ctx, &models.TimeAttendance{UserID: u.ID, Date: day}))
	err := s.CreateTimeAttendance(ctx, &models.TimeAttendance{UserID: u.ID, Date: day})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetTimeAttendanceForDay(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, "present", got.Status)
}

func TestMaintenance_RequestNumbersAndActions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateMachine(ctx, &models.Machine{ID: "EXT-1", Name: "Extruder 1", IsActive: true}))

	r1 := &models.MaintenanceRequest{MachineID: "EXT-1", DamageType: "motor", Severity: "high", Description: "noise"}
	r2 := &models.MaintenanceRequest{MachineID: "EXT-1", DamageType: "belt", Severity: "low", Description: "worn"}
	require.NoError(t, s.CreateMaintenanceRequest(ctx, r1))
	require.NoError(t, s.CreateMaintenanceRequest(ctx, r2))

	prefix := "MR-" + time.Now().Format("20060102") + "-"
	assert.Equal(t, prefix+"001", r1.RequestNumber)
	assert.Equal(t, prefix+"002", r2.RequestNumber)
	assert.Equal(t, "pending", r1.Status)

	act := &models.MaintenanceAction{RequestID: r1.ID, ActionType: "repair", Description: "replaced bearing", Hours: 2, Status: "completed"}
	require.NoError(t, s.CreateMaintenanceAction(ctx, act))
	assert.Equal(t, "EXT-1", act.MachineID)

	got, err := s.GetMaintenanceRequest(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.InDelta(t, 2, got.ActualRepairTime, 1e-9)

	assert.ErrorIs(t, s.DeleteMachine(ctx, "EXT-1"), ErrReferenced)
}

func TestMaintenance_RequestNumberAfterDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateMachine(ctx, &models.Machine{ID: "EXT-1", Name: "Extruder 1", IsActive: true}))

	newRequest := func() *models.MaintenanceRequest {
		r := &models.MaintenanceRequest{MachineID: "EXT-1", DamageType: "motor", Severity: "low", Description: "check"}
		require.NoError(t, s.CreateMaintenanceRequest(ctx, r))
		return r
	}
	first := newRequest()
	newRequest()
	require.NoError(t, s.DeleteMaintenanceRequest(ctx, first.ID))

	prefix := "MR-" + time.Now().Format("20060102") + "-"
	assert.Equal(t, prefix+"003", newRequest().RequestNumber)
	assert.Equal(t, prefix+"004", newRequest().RequestNumber)
}

func TestGenerateDueMaintenance_RollsForward(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateMachine(ctx, &models.Machine{ID: "CUT-1", Name: "Cutter", IsActive: true}))

	asOf := time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local)
	due := &models.MaintenanceSchedule{MachineID: "CUT-1", TaskName: "Grease", Frequency: "weekly", NextDue: "2024-03-01"}
	later := &models.MaintenanceSchedule{MachineID: "CUT-1", TaskName: "Inspect", Frequency: "monthly", NextDue: "2024-04-01"}
	require.NoError(t, s.CreateMaintenanceSchedule(ctx, due))
	require.NoError(t, s.CreateMaintenanceSchedule(ctx, later))

	created, err := s.GenerateDueMaintenance(ctx, asOf, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "CUT-1", created[0].MachineID)
	assert.True(t, strings.HasPrefix(created[0].Description, "Grease"))

	got, err := s.GetMaintenanceSchedule(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-22", got.NextDue)

	again, err := s.GenerateDueMaintenance(ctx, asOf, nil)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestAdvanceDue(t *testing.T) {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-16", AdvanceDue(base, "daily").Format(models.DateLayout))
	assert.Equal(t, "2024-01-22", AdvanceDue(base, "weekly").Format(models.DateLayout))
	assert.Equal(t, "2024-02-15", AdvanceDue(base, "monthly").Format(models.DateLayout))
	assert.Equal(t, "2024-04-15", AdvanceDue(base, "quarterly").Format(models.DateLayout))
	assert.Equal(t, "2025-01-15", AdvanceDue(base, "yearly").Format(models.DateLayout))
}

func TestSessions_ExpireAndLockout(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := &models.User{Username: "clerk", Password: "hash", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))

	require.NoError(t, s.CreateSession(ctx, "live", u.ID, time.Now().Add(time.Hour)))
	require.NoError(t, s.CreateSession(ctx, "stale", u.ID, time.Now().Add(-time.Hour)))

	su, err := s.GetSessionUser(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "clerk", su.Username)
	_, err = s.GetSessionUser(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordFailedLogin(ctx, "clerk", 3, 15*time.Minute))
	}
	until, err := s.LockedUntil(ctx, "clerk")
	require.NoError(t, err)
	assert.True(t, until.After(time.Now()))

	require.NoError(t, s.ResetFailedLogins(ctx, "clerk"))
	until, err = s.LockedUntil(ctx, "clerk")
	require.NoError(t, err)
	assert.True(t, until.IsZero())
}

func TestPermissionGrants_JoinModules(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSection(ctx, &models.Section{ID: "SEC-EXT", Name: "Extrusion"}))
	mod := &models.Module{Name: "Rolls", DisplayName: "Rolls", IsActive: true}
	require.NoError(t, s.CreateModule(ctx, mod))
	require.NoError(t, s.CreatePermission(ctx, &models.Permission{
		SectionID: "SEC-EXT", ModuleID: mod.ID, CanView: true, CanCreate: true, IsActive: true,
	}))

	err := s.CreatePermission(ctx, &models.Permission{SectionID: "SEC-EXT", ModuleID: mod.ID, IsActive: true})
	assert.ErrorIs(t, err, ErrConflict)

	grants, err := s.ListPermissionGrants(ctx)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "Rolls", grants[0].Module)
	assert.True(t, grants[0].CanCreate)
	assert.False(t, grants[0].CanDelete)
}

func TestEncodeDecodeList(t *testing.T) {
	assert.Equal(t, "[]", EncodeList(nil))
	assert.Equal(t, []string{"a", "b"}, DecodeList(EncodeList([]string{"a", "b"})))
	assert.Equal(t, []string{}, DecodeList(""))
	assert.Equal(t, []string{}, DecodeList("not json"))
}
