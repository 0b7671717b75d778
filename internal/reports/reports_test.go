package reports

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

var _ Store = (*storage.Store)(nil)

func ptr[T any](v T) *T { return &v }

func fixture() *Data {
	return &Data{
		Customers: []models.Customer{
			{ID: "CID0001", Code: "A", Name: "Alpha"},
			{ID: "CID0002", Code: "B", Name: "Beta"},
		},
		Users: []models.User{
			{ID: 1, Username: "ext", Name: "Extruder Op"},
			{ID: 2, Username: "prn", Name: "Printer Op"},
		},
		Orders: []models.Order{
			{ID: 1, Date: "2024-03-01", CustomerID: "CID0001", Status: "processing"},
			{ID: 2, Date: "2024-04-10", CustomerID: "CID0002", Status: "pending"},
		},
		JobOrders: []models.JobOrder{
			{ID: 1, OrderID: 1, CustomerID: "CID0001", Quantity: 100, Status: "in_progress"},
			{ID: 2, OrderID: 2, CustomerID: "CID0002", Quantity: 50, Status: "pending"},
		},
		Rolls: []models.Roll{
			{
				ID: "EX-0001-001", JobOrderID: 1, ExtrudingQty: 60, PrintingQty: 58, CuttingQty: 55, WasteQty: 5,
				CurrentStage: "completed", CreatedByID: ptr(int64(1)), PrintedByID: ptr(int64(2)), CutByID: ptr(int64(2)),
				CreatedAt: "2024-03-01 08:00:00", PrintedAt: ptr("2024-03-01 10:00:00"), CutAt: ptr("2024-03-01 14:00:00"),
			},
			{
				ID: "EX-0001-002", JobOrderID: 1, ExtrudingQty: 40, CurrentStage: "printing",
				CreatedAt: "2024-03-02 08:00:00", PrintedAt: ptr("2024-03-02 12:00:00"),
			},
			{
				ID: "EX-0002-001", JobOrderID: 2, ExtrudingQty: 50, WasteQty: 10, CurrentStage: "extrusion",
				CreatedByID: ptr(int64(1)), CreatedAt: "2024-04-11 08:00:00",
			},
		},
		RawMaterials: []models.RawMaterial{
			{ID: 1, Name: "HDPE", Type: "resin", Quantity: 500, Unit: "kg"},
			{ID: 2, Name: "LDPE", Type: "resin", Quantity: 50, Unit: "kg"},
			{ID: 3, Name: "Blue MB", Type: "masterbatch", Quantity: 20, Unit: "kg"},
		},
		FinalProducts: []models.FinalProduct{
			{ID: 1, JobOrderID: 1, Quantity: 30, CompletedDate: "2024-03-04", Status: "in-stock"},
			{ID: 2, JobOrderID: 1, Quantity: 25, CompletedDate: "2024-03-06", Status: "shipped"},
		},
		Checks: []models.QualityCheck{
			{ID: 1, CheckTypeID: "VIS", RollID: ptr("EX-0001-001"), Status: "passed", CheckedAt: "2024-03-01 11:00:00"},
			{ID: 2, CheckTypeID: "VIS", RollID: ptr("EX-0001-002"), Status: "failed", CheckedAt: "2024-03-02 13:00:00"},
			{ID: 3, CheckTypeID: "DIM", JobOrderID: ptr(int64(2)), Status: "warning", CheckedAt: "2024-04-11 09:00:00"},
			{ID: 4, CheckTypeID: "DIM", JobOrderID: ptr(int64(2)), Status: "pending", CheckedAt: "2024-04-11 10:00:00"},
			{ID: 5, CheckTypeID: "VIS", JobOrderID: ptr(int64(1)), Status: "passed", CheckedAt: "2024-03-03 09:00:00"},
		},
		Violations: []models.QualityViolation{
			{ID: 1, QualityCheckID: ptr(int64(2)), Severity: "high", Status: "open", ReportDate: "2024-03-02 14:00:00"},
			{ID: 2, QualityCheckID: ptr(int64(3)), Severity: "low", Status: "resolved", ReportDate: "2024-04-11 11:00:00"},
		},
		CorrectiveActions: []models.CorrectiveAction{
			{ID: 1, QualityCheckID: 2, Action: "Recalibrate", Status: "open"},
			{ID: 2, QualityCheckID: 3, Action: "Retrain", Status: "completed"},
		},
		Penalties: []models.QualityPenalty{
			{ID: 1, ViolationID: 1, Amount: 100.5, Status: "active"},
			{ID: 2, ViolationID: 1, Amount: 40, Status: "cancelled"},
			{ID: 3, ViolationID: 2, Amount: 10, Status: "pending"},
		},
	}
}

func TestProduction(t *testing.T) {
	r := Production(fixture(), Filter{})
	require.Len(t, r.Rows, 2)
	assert.Equal(t, 2, r.Summary.JobOrders)
	assert.Equal(t, 3, r.Summary.Rolls)
	assert.Equal(t, 150.0, r.Summary.Extruded)
	assert.Equal(t, 15.0, r.Summary.Waste)
	assert.Equal(t, 10.0, r.Summary.WastePercent)
	assert.Equal(t, 3.0, r.Summary.AvgExtrusionToPrintingHours)
	assert.Equal(t, 4.0, r.Summary.AvgPrintingToCuttingHours)
	assert.Equal(t, map[string]int{"completed": 1, "printing": 1, "extrusion": 1}, r.Summary.RollsByStage)

	jo1 := r.Rows[0]
	assert.Equal(t, "Alpha", jo1.CustomerName)
	assert.Equal(t, 2, jo1.Rolls)
	assert.Equal(t, 5.0, jo1.WastePercent)
	assert.Equal(t, 55.0, jo1.Progress)
}

func TestProduction_Filters(t *testing.T) {
	d := fixture()

	byCustomer := Production(d, Filter{CustomerID: "CID0001"})
	require.Len(t, byCustomer.Rows, 1)
	assert.Equal(t, int64(1), byCustomer.Rows[0].JobOrderID)

	q := url.Values{"start_date": {"2024-04-01"}, "end_date": {"2024-04-10"}}
	f, ve := ParseFilter(q)
	require.Nil(t, ve)
	byDate := Production(d, f)
	require.Len(t, byDate.Rows, 1, "end date includes the whole day")
	assert.Equal(t, int64(2), byDate.Rows[0].JobOrderID)
	assert.Equal(t, 20.0, byDate.Summary.WastePercent)

	byStatus := Production(d, Filter{Status: "PENDING"})
	require.Len(t, byStatus.Rows, 1)
	assert.Equal(t, "pending", byStatus.Rows[0].Status)
}

func TestParseFilter_Invalid(t *testing.T) {
	_, ve := ParseFilter(url.Values{"start_date": {"03/01/2024"}})
	require.NotNil(t, ve)
	assert.Contains(t, ve.Error(), "start_date")

	_, ve = ParseFilter(url.Values{"start_date": {"2024-05-01"}, "end_date": {"2024-04-01"}})
	require.NotNil(t, ve)
	assert.Contains(t, ve.Error(), "end_date")
}

func TestWarehouse(t *testing.T) {
	r := Warehouse(fixture(), Filter{}, 100)
	assert.Equal(t, 3, r.Summary.RawMaterials)
	assert.Equal(t, 2, r.Summary.LowStock)
	assert.Equal(t, 550.0, r.Summary.QuantityByType["resin"])
	assert.False(t, r.RawMaterials[0].LowStock)
	assert.True(t, r.RawMaterials[1].LowStock)
	assert.Equal(t, 30.0, r.Summary.InStockQuantity)
	assert.Equal(t, 25.0, r.Summary.ShippedQuantity)
	require.Len(t, r.FinalProducts, 2)
	assert.Equal(t, "CID0001", r.FinalProducts[0].CustomerID)

	shipped := Warehouse(fixture(), Filter{Status: "shipped"}, 100)
	assert.Equal(t, 1, shipped.Summary.FinalProducts)
}

func TestPassRate(t *testing.T) {
	checks := []models.QualityCheck{
		{Status: "passed"}, {Status: "failed"}, {Status: "warning"}, {Status: "pending"}, {Status: "passed"},
	}
	assert.Equal(t, 50.0, PassRate(checks))
	assert.Equal(t, 0.0, PassRate(nil))
}

func TestQuality(t *testing.T) {
	r := Quality(fixture(), Filter{})
	assert.Equal(t, 5, r.Summary.TotalChecks)
	assert.Equal(t, 50.0, r.Summary.PassRate)
	assert.Equal(t, 3, r.Summary.ChecksByType["VIS"])
	assert.Equal(t, 2, r.Summary.Violations)
	assert.Equal(t, 1, r.Summary.OpenViolations)
	assert.Equal(t, 1, r.Summary.OpenCorrectiveActions)
	assert.Equal(t, 3, r.Summary.Penalties)
	assert.Equal(t, 110.5, r.Summary.PenaltyAmount)

	// Roll checks resolve the customer through the roll's job order.
	alpha := Quality(fixture(), Filter{CustomerID: "CID0001"})
	assert.Equal(t, 3, alpha.Summary.TotalChecks)
	assert.InDelta(t, 66.67, alpha.Summary.PassRate, 0.001)
	assert.Equal(t, 1, alpha.Summary.Violations)
	assert.Equal(t, 100.5, alpha.Summary.PenaltyAmount)
}

func TestWorkflow(t *testing.T) {
	r := Workflow(fixture(), Filter{})
	require.Len(t, r.Rows, 2)
	o1 := r.Rows[0]
	assert.Equal(t, "2024-03-06", o1.CompletedDate)
	require.NotNil(t, o1.FulfilmentDays)
	assert.Equal(t, 5.0, *o1.FulfilmentDays)
	assert.Nil(t, r.Rows[1].FulfilmentDays)
	assert.Equal(t, 1, r.Summary.FulfilledOrders)
	assert.Equal(t, 5.0, r.Summary.AvgFulfilmentDays)
	assert.Equal(t, 1, r.Summary.OrdersByStatus["pending"])
	assert.Equal(t, 3, o1.Rolls+r.Rows[1].Rolls)
}

func TestPerformance(t *testing.T) {
	m := Performance(fixture(), Filter{})
	assert.Equal(t, 10.0, m.WastePercent)
	assert.Equal(t, 50.0, m.QualityPassRate)
	assert.Equal(t, 5.0, m.AvgFulfilmentDays)
	require.Len(t, m.Operators, 2)

	ext := m.Operators[0]
	assert.Equal(t, "ext", ext.Username)
	assert.Equal(t, 2, ext.RollsExtruded)
	assert.Equal(t, 110.0, ext.ExtrudedQty)
	assert.Equal(t, 13.64, ext.WastePercent)

	prn := m.Operators[1]
	assert.Equal(t, 1, prn.RollsPrinted)
	assert.Equal(t, 1, prn.RollsCut)
	assert.Equal(t, 55.0, prn.CutQty)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Production(fixture(), Filter{}).Sheets()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Job Orders", "Rolls By Stage"}, f.GetSheetList())
	v, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Metric", v)
	v, err = f.GetCellValue("Job Orders", "D2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", v)
}

func TestLoad(t *testing.T) {
	s := testutil.SetupStore(t)
	jo := testutil.SeedJobOrder(t, s)

	d, err := Load(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, d.JobOrders, 1)
	assert.Equal(t, jo.ID, d.JobOrders[0].ID)
	assert.Len(t, d.Orders, 1)

	r := Production(d, Filter{})
	require.Len(t, r.Rows, 1)
	assert.Equal(t, "Acme Plastics", r.Rows[0].CustomerName)
}
