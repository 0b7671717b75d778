// Package reports builds the production, warehouse, quality, workflow and
// performance reports. Rows are loaded once per request and filtered and
// aggregated in memory.
package reports

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// Store is the read access the reports need.
type Store interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListJobOrders(ctx context.Context) ([]models.JobOrder, error)
	ListRolls(ctx context.Context) ([]models.Roll, error)
	ListRawMaterials(ctx context.Context) ([]models.RawMaterial, error)
	ListFinalProducts(ctx context.Context) ([]models.FinalProduct, error)
	ListQualityChecks(ctx context.Context) ([]models.QualityCheck, error)
	ListQualityViolations(ctx context.Context) ([]models.QualityViolation, error)
	ListCorrectiveActions(ctx context.Context) ([]models.CorrectiveAction, error)
	ListQualityPenalties(ctx context.Context) ([]models.QualityPenalty, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Data is a snapshot of everything a report may read.
type Data struct {
	Orders            []models.Order
	JobOrders         []models.JobOrder
	Rolls             []models.Roll
	RawMaterials      []models.RawMaterial
	FinalProducts     []models.FinalProduct
	Checks            []models.QualityCheck
	Violations        []models.QualityViolation
	CorrectiveActions []models.CorrectiveAction
	Penalties         []models.QualityPenalty
	Customers         []models.Customer
	Users             []models.User
}

// Load reads a snapshot from s.
func Load(ctx context.Context, s Store) (*Data, error) {
	d := &Data{}
	var err error
	steps := []struct {
		name string
		fn   func() error
	}{
		{"orders", func() error { d.Orders, err = s.ListOrders(ctx); return err }},
		{"job orders", func() error { d.JobOrders, err = s.ListJobOrders(ctx); return err }},
		{"rolls", func() error { d.Rolls, err = s.ListRolls(ctx); return err }},
		{"raw materials", func() error { d.RawMaterials, err = s.ListRawMaterials(ctx); return err }},
		{"final products", func() error { d.FinalProducts, err = s.ListFinalProducts(ctx); return err }},
		{"quality checks", func() error { d.Checks, err = s.ListQualityChecks(ctx); return err }},
		{"quality violations", func() error { d.Violations, err = s.ListQualityViolations(ctx); return err }},
		{"corrective actions", func() error { d.CorrectiveActions, err = s.ListCorrectiveActions(ctx); return err }},
		{"quality penalties", func() error { d.Penalties, err = s.ListQualityPenalties(ctx); return err }},
		{"customers", func() error { d.Customers, err = s.ListCustomers(ctx); return err }},
		{"users", func() error { d.Users, err = s.ListUsers(ctx); return err }},
	}
	for _, st := range steps {
		if err := st.fn(); err != nil {
			return nil, fmt.Errorf("load %s: %w", st.name, err)
		}
	}
	return d, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(part / whole * 100)
}

func hoursBetween(from string, to *string) (float64, bool) {
	if to == nil {
		return 0, false
	}
	a, ok := parseTime(from)
	if !ok {
		return 0, false
	}
	b, ok := parseTime(*to)
	if !ok || b.Before(a) {
		return 0, false
	}
	return b.Sub(a).Hours(), true
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) { m.sum += v; m.n++ }

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return round2(m.sum / float64(m.n))
}

// index holds lookups shared by the report builders.
type index struct {
	orders    map[int64]models.Order
	jobOrders map[int64]models.JobOrder
	customers map[string]models.Customer
	rolls     map[string]models.Roll
}

func newIndex(d *Data) index {
	ix := index{
		orders:    make(map[int64]models.Order, len(d.Orders)),
		jobOrders: make(map[int64]models.JobOrder, len(d.JobOrders)),
		customers: make(map[string]models.Customer, len(d.Customers)),
		rolls:     make(map[string]models.Roll, len(d.Rolls)),
	}
	for _, o := range d.Orders {
		ix.orders[o.ID] = o
	}
	for _, jo := range d.JobOrders {
		ix.jobOrders[jo.ID] = jo
	}
	for _, c := range d.Customers {
		ix.customers[c.ID] = c
	}
	for _, r := range d.Rolls {
		ix.rolls[r.ID] = r
	}
	return ix
}

// jobOrderMatches applies the customer and order-date window to a job order.
func (ix index) jobOrderMatches(f Filter, jo models.JobOrder) bool {
	if !f.customer(jo.CustomerID) {
		return false
	}
	o, ok := ix.orders[jo.OrderID]
	return ok && f.inRange(o.Date)
}

// --- Production ---

type ProductionRow struct {
	JobOrderID   int64   `json:"job_order_id"`
	OrderID      int64   `json:"order_id"`
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Status       string  `json:"status"`
	Quantity     float64 `json:"quantity"`
	Rolls        int     `json:"rolls"`
	Extruded     float64 `json:"extruded"`
	Printed      float64 `json:"printed"`
	Cut          float64 `json:"cut"`
	Waste        float64 `json:"waste"`
	WastePercent float64 `json:"waste_percent"`
	Progress     float64 `json:"progress"`
}

type ProductionSummary struct {
	JobOrders                   int            `json:"job_orders"`
	Rolls                       int            `json:"rolls"`
	TotalQuantity               float64        `json:"total_quantity"`
	Extruded                    float64        `json:"extruded"`
	Printed                     float64        `json:"printed"`
	Cut                         float64        `json:"cut"`
	Waste                       float64        `json:"waste"`
	WastePercent                float64        `json:"waste_percent"`
	AvgExtrusionToPrintingHours float64        `json:"avg_extrusion_to_printing_hours"`
	AvgPrintingToCuttingHours   float64        `json:"avg_printing_to_cutting_hours"`
	RollsByStage                map[string]int `json:"rolls_by_stage"`
}

type ProductionReport struct {
	Summary ProductionSummary `json:"summary"`
	Rows    []ProductionRow   `json:"rows"`
}

// Production reports output and waste per job order. Status filters job
// order status.
func Production(d *Data, f Filter) ProductionReport {
	ix := newIndex(d)
	rows := map[int64]*ProductionRow{}
	var order []int64
	for _, jo := range d.JobOrders {
		if !ix.jobOrderMatches(f, jo) || !f.status(jo.Status) {
			continue
		}
		rows[jo.ID] = &ProductionRow{
			JobOrderID:   jo.ID,
			OrderID:      jo.OrderID,
			CustomerID:   jo.CustomerID,
			CustomerName: ix.customers[jo.CustomerID].Name,
			Status:       jo.Status,
			Quantity:     jo.Quantity,
		}
		order = append(order, jo.ID)
	}

	sum := ProductionSummary{RollsByStage: map[string]int{}}
	var extToPrint, printToCut mean
	for _, r := range d.Rolls {
		row, ok := rows[r.JobOrderID]
		if !ok {
			continue
		}
		row.Rolls++
		row.Extruded += r.ExtrudingQty
		row.Printed += r.PrintingQty
		row.Cut += r.CuttingQty
		row.Waste += r.WasteQty
		sum.RollsByStage[r.CurrentStage]++
		if h, ok := hoursBetween(r.CreatedAt, r.PrintedAt); ok {
			extToPrint.add(h)
		}
		if r.PrintedAt != nil {
			if h, ok := hoursBetween(*r.PrintedAt, r.CutAt); ok {
				printToCut.add(h)
			}
		}
	}

	out := ProductionReport{Rows: make([]ProductionRow, 0, len(order))}
	for _, id := range order {
		row := rows[id]
		row.WastePercent = percent(row.Waste, row.Extruded)
		row.Progress = percent(row.Cut, row.Quantity)
		out.Rows = append(out.Rows, *row)

		sum.JobOrders++
		sum.Rolls += row.Rolls
		sum.TotalQuantity += row.Quantity
		sum.Extruded += row.Extruded
		sum.Printed += row.Printed
		sum.Cut += row.Cut
		sum.Waste += row.Waste
	}
	sum.WastePercent = percent(sum.Waste, sum.Extruded)
	sum.AvgExtrusionToPrintingHours = extToPrint.value()
	sum.AvgPrintingToCuttingHours = printToCut.value()
	out.Summary = sum
	return out
}

// --- Warehouse ---

type RawMaterialRow struct {
	models.RawMaterial
	LowStock bool `json:"low_stock"`
}

type FinalProductRow struct {
	models.FinalProduct
	CustomerID string `json:"customer_id"`
}

type WarehouseSummary struct {
	RawMaterials    int                `json:"raw_materials"`
	LowStock        int                `json:"low_stock"`
	QuantityByType  map[string]float64 `json:"quantity_by_type"`
	FinalProducts   int                `json:"final_products"`
	InStockQuantity float64            `json:"in_stock_quantity"`
	ShippedQuantity float64            `json:"shipped_quantity"`
}

type WarehouseReport struct {
	Summary       WarehouseSummary  `json:"summary"`
	RawMaterials  []RawMaterialRow  `json:"raw_materials"`
	FinalProducts []FinalProductRow `json:"final_products"`
}

// Warehouse reports raw material stock against lowStock and finished goods.
// The date window, customer and status filter final products.
func Warehouse(d *Data, f Filter, lowStock float64) WarehouseReport {
	ix := newIndex(d)
	out := WarehouseReport{
		Summary:       WarehouseSummary{QuantityByType: map[string]float64{}},
		RawMaterials:  make([]RawMaterialRow, 0, len(d.RawMaterials)),
		FinalProducts: []FinalProductRow{},
	}
	for _, rm := range d.RawMaterials {
		row := RawMaterialRow{RawMaterial: rm, LowStock: rm.Quantity < lowStock}
		if row.LowStock {
			out.Summary.LowStock++
		}
		out.Summary.QuantityByType[rm.Type] += rm.Quantity
		out.RawMaterials = append(out.RawMaterials, row)
	}
	out.Summary.RawMaterials = len(out.RawMaterials)

	for _, fp := range d.FinalProducts {
		jo := ix.jobOrders[fp.JobOrderID]
		if !f.customer(jo.CustomerID) || !f.status(fp.Status) || !f.inRange(fp.CompletedDate) {
			continue
		}
		out.FinalProducts = append(out.FinalProducts, FinalProductRow{FinalProduct: fp, CustomerID: jo.CustomerID})
		switch fp.Status {
		case "shipped":
			out.Summary.ShippedQuantity += fp.Quantity
		default:
			out.Summary.InStockQuantity += fp.Quantity
		}
	}
	out.Summary.FinalProducts = len(out.FinalProducts)
	return out
}

// --- Quality ---

type QualityRow struct {
	ID            int64   `json:"id"`
	CheckTypeID   string  `json:"check_type_id"`
	RollID        *string `json:"roll_id"`
	JobOrderID    *int64  `json:"job_order_id"`
	Status        string  `json:"status"`
	IssueSeverity string  `json:"issue_severity"`
	Timestamp     string  `json:"timestamp"`
}

type QualitySummary struct {
	TotalChecks           int            `json:"total_checks"`
	ChecksByStatus        map[string]int `json:"checks_by_status"`
	ChecksByType          map[string]int `json:"checks_by_type"`
	PassRate              float64        `json:"pass_rate"`
	Violations            int            `json:"violations"`
	OpenViolations        int            `json:"open_violations"`
	ViolationsBySeverity  map[string]int `json:"violations_by_severity"`
	CorrectiveActions     int            `json:"corrective_actions"`
	OpenCorrectiveActions int            `json:"open_corrective_actions"`
	Penalties             int            `json:"penalties"`
	PenaltyAmount         float64        `json:"penalty_amount"`
}

type QualityReport struct {
	Summary QualitySummary `json:"summary"`
	Rows    []QualityRow   `json:"rows"`
}

// PassRate is passed checks over decided (non-pending) checks, in percent.
func PassRate(checks []models.QualityCheck) float64 {
	var passed, decided float64
	for _, c := range checks {
		if c.Status == "pending" || c.Status == "" {
			continue
		}
		decided++
		if c.Status == "passed" {
			passed++
		}
	}
	return percent(passed, decided)
}

func (ix index) checkJobOrder(c models.QualityCheck) (models.JobOrder, bool) {
	if c.JobOrderID != nil {
		jo, ok := ix.jobOrders[*c.JobOrderID]
		return jo, ok
	}
	if c.RollID != nil {
		if r, ok := ix.rolls[*c.RollID]; ok {
			jo, ok := ix.jobOrders[r.JobOrderID]
			return jo, ok
		}
	}
	return models.JobOrder{}, false
}

// Quality reports check outcomes, violations, corrective actions and
// penalties. The window applies to each record's own date; status filters
// check status.
func Quality(d *Data, f Filter) QualityReport {
	ix := newIndex(d)
	sum := QualitySummary{
		ChecksByStatus:       map[string]int{},
		ChecksByType:         map[string]int{},
		ViolationsBySeverity: map[string]int{},
	}
	out := QualityReport{Rows: []QualityRow{}}

	var kept []models.QualityCheck
	keptIDs := map[int64]bool{}
	for _, c := range d.Checks {
		if !f.inRange(c.CheckedAt) || !f.status(c.Status) {
			continue
		}
		if f.CustomerID != "" {
			jo, ok := ix.checkJobOrder(c)
			if !ok || jo.CustomerID != f.CustomerID {
				continue
			}
		}
		kept = append(kept, c)
		keptIDs[c.ID] = true
		sum.ChecksByStatus[c.Status]++
		sum.ChecksByType[c.CheckTypeID]++
		out.Rows = append(out.Rows, QualityRow{
			ID: c.ID, CheckTypeID: c.CheckTypeID, RollID: c.RollID, JobOrderID: c.JobOrderID,
			Status: c.Status, IssueSeverity: c.IssueSeverity, Timestamp: c.CheckedAt,
		})
	}
	sum.TotalChecks = len(kept)
	sum.PassRate = PassRate(kept)

	violationIDs := map[int64]bool{}
	for _, v := range d.Violations {
		if !f.inRange(v.ReportDate) {
			continue
		}
		if f.CustomerID != "" && (v.QualityCheckID == nil || !keptIDs[*v.QualityCheckID]) {
			continue
		}
		violationIDs[v.ID] = true
		sum.Violations++
		sum.ViolationsBySeverity[v.Severity]++
		if v.Status != "resolved" && v.Status != "closed" {
			sum.OpenViolations++
		}
	}
	for _, ca := range d.CorrectiveActions {
		if f.CustomerID != "" && !keptIDs[ca.QualityCheckID] {
			continue
		}
		if ca.ImplementationDate != "" && !f.inRange(ca.ImplementationDate) {
			continue
		}
		sum.CorrectiveActions++
		if ca.Status != "completed" && ca.Status != "verified" && ca.Status != "cancelled" {
			sum.OpenCorrectiveActions++
		}
	}
	for _, p := range d.Penalties {
		if !violationIDs[p.ViolationID] {
			continue
		}
		sum.Penalties++
		if p.Status != "cancelled" {
			sum.PenaltyAmount += p.Amount
		}
	}
	sum.PenaltyAmount = round2(sum.PenaltyAmount)
	out.Summary = sum
	return out
}

// --- Workflow ---

type WorkflowRow struct {
	OrderID        int64    `json:"order_id"`
	CustomerID     string   `json:"customer_id"`
	CustomerName   string   `json:"customer_name"`
	Date           string   `json:"date"`
	Status         string   `json:"status"`
	JobOrders      int      `json:"job_orders"`
	Rolls          int      `json:"rolls"`
	CompletedDate  string   `json:"completed_date"`
	FulfilmentDays *float64 `json:"fulfilment_days"`
}

type WorkflowSummary struct {
	Orders            int            `json:"orders"`
	OrdersByStatus    map[string]int `json:"orders_by_status"`
	JobOrdersByStatus map[string]int `json:"job_orders_by_status"`
	RollsByStage      map[string]int `json:"rolls_by_stage"`
	FulfilledOrders   int            `json:"fulfilled_orders"`
	AvgFulfilmentDays float64        `json:"avg_fulfilment_days"`
}

type WorkflowReport struct {
	Summary WorkflowSummary `json:"summary"`
	Rows    []WorkflowRow   `json:"rows"`
}

// Workflow follows orders through job orders and rolls. An order's
// fulfilment time runs from its date to the last completed final product of
// its job orders. Status filters order status.
func Workflow(d *Data, f Filter) WorkflowReport {
	ix := newIndex(d)
	sum := WorkflowSummary{
		OrdersByStatus:    map[string]int{},
		JobOrdersByStatus: map[string]int{},
		RollsByStage:      map[string]int{},
	}

	jobsByOrder := map[int64][]models.JobOrder{}
	for _, jo := range d.JobOrders {
		jobsByOrder[jo.OrderID] = append(jobsByOrder[jo.OrderID], jo)
	}
	rollsByJob := map[int64][]models.Roll{}
	for _, r := range d.Rolls {
		rollsByJob[r.JobOrderID] = append(rollsByJob[r.JobOrderID], r)
	}
	lastCompleted := map[int64]string{}
	for _, fp := range d.FinalProducts {
		if fp.CompletedDate > lastCompleted[fp.JobOrderID] {
			lastCompleted[fp.JobOrderID] = fp.CompletedDate
		}
	}

	out := WorkflowReport{Rows: []WorkflowRow{}}
	var days mean
	for _, o := range d.Orders {
		if !f.customer(o.CustomerID) || !f.inRange(o.Date) || !f.status(o.Status) {
			continue
		}
		row := WorkflowRow{
			OrderID:      o.ID,
			CustomerID:   o.CustomerID,
			CustomerName: ix.customers[o.CustomerID].Name,
			Date:         o.Date,
			Status:       o.Status,
		}
		for _, jo := range jobsByOrder[o.ID] {
			row.JobOrders++
			sum.JobOrdersByStatus[jo.Status]++
			for _, r := range rollsByJob[jo.ID] {
				row.Rolls++
				sum.RollsByStage[r.CurrentStage]++
			}
			if c := lastCompleted[jo.ID]; c > row.CompletedDate {
				row.CompletedDate = c
			}
		}
		if row.CompletedDate != "" {
			start, ok1 := parseTime(o.Date)
			end, ok2 := parseTime(row.CompletedDate)
			if ok1 && ok2 && !end.Before(start) {
				v := round2(end.Sub(start).Hours() / 24)
				row.FulfilmentDays = &v
				days.add(v)
			}
		}
		sum.Orders++
		sum.OrdersByStatus[o.Status]++
		out.Rows = append(out.Rows, row)
	}
	sum.FulfilledOrders = days.n
	sum.AvgFulfilmentDays = days.value()
	out.Summary = sum
	return out
}

// --- Performance ---

type OperatorRow struct {
	UserID        int64   `json:"user_id"`
	Username      string  `json:"username"`
	Name          string  `json:"name"`
	RollsExtruded int     `json:"rolls_extruded"`
	RollsPrinted  int     `json:"rolls_printed"`
	RollsCut      int     `json:"rolls_cut"`
	ExtrudedQty   float64 `json:"extruded_qty"`
	PrintedQty    float64 `json:"printed_qty"`
	CutQty        float64 `json:"cut_qty"`
	WasteQty      float64 `json:"waste_qty"`
	WastePercent  float64 `json:"waste_percent"`
}

type PerformanceMetrics struct {
	WastePercent                float64       `json:"waste_percent"`
	QualityPassRate             float64       `json:"quality_pass_rate"`
	AvgFulfilmentDays           float64       `json:"avg_fulfilment_days"`
	AvgExtrusionToPrintingHours float64       `json:"avg_extrusion_to_printing_hours"`
	AvgPrintingToCuttingHours   float64       `json:"avg_printing_to_cutting_hours"`
	CompletedJobOrders          int           `json:"completed_job_orders"`
	Operators                   []OperatorRow `json:"operators"`
}

// Performance combines the headline metrics with per-operator roll output.
// Extrusion waste is charged to the operator who created the roll.
func Performance(d *Data, f Filter) PerformanceMetrics {
	prod := Production(d, f)
	wf := Workflow(d, Filter{Start: f.Start, End: f.End, CustomerID: f.CustomerID})
	q := Quality(d, Filter{Start: f.Start, End: f.End, CustomerID: f.CustomerID})

	out := PerformanceMetrics{
		WastePercent:                prod.Summary.WastePercent,
		QualityPassRate:             q.Summary.PassRate,
		AvgFulfilmentDays:           wf.Summary.AvgFulfilmentDays,
		AvgExtrusionToPrintingHours: prod.Summary.AvgExtrusionToPrintingHours,
		AvgPrintingToCuttingHours:   prod.Summary.AvgPrintingToCuttingHours,
		Operators:                   []OperatorRow{},
	}
	included := map[int64]bool{}
	for _, row := range prod.Rows {
		included[row.JobOrderID] = true
		if row.Status == "completed" {
			out.CompletedJobOrders++
		}
	}

	users := map[int64]models.User{}
	for _, u := range d.Users {
		users[u.ID] = u
	}
	ops := map[int64]*OperatorRow{}
	get := func(id int64) *OperatorRow {
		if op, ok := ops[id]; ok {
			return op
		}
		u := users[id]
		op := &OperatorRow{UserID: id, Username: u.Username, Name: u.Name}
		ops[id] = op
		return op
	}
	for _, r := range d.Rolls {
		if !included[r.JobOrderID] {
			continue
		}
		if r.CreatedByID != nil {
			op := get(*r.CreatedByID)
			op.RollsExtruded++
			op.ExtrudedQty += r.ExtrudingQty
			op.WasteQty += r.WasteQty
		}
		if r.PrintedByID != nil {
			op := get(*r.PrintedByID)
			op.RollsPrinted++
			op.PrintedQty += r.PrintingQty
		}
		if r.CutByID != nil {
			op := get(*r.CutByID)
			op.RollsCut++
			op.CutQty += r.CuttingQty
		}
	}
	for _, op := range ops {
		op.WastePercent = percent(op.WasteQty, op.ExtrudedQty)
		out.Operators = append(out.Operators, *op)
	}
	sort.Slice(out.Operators, func(i, j int) bool { return out.Operators[i].UserID < out.Operators[j].UserID })
	return out
}
