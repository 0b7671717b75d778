package reports

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of an export.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// WriteXLSX writes sheets as a workbook to w. The first sheet is active.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	keepDefault := false
	for i, sh := range sheets {
		idx, err := f.NewSheet(sh.Name)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", sh.Name, err)
		}
		if sh.Name == "Sheet1" {
			keepDefault = true
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		for c, h := range sh.Header {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			f.SetCellValue(sh.Name, cell, h)
			f.SetCellStyle(sh.Name, cell, cell, headerStyle)
		}
		for r, row := range sh.Rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				f.SetCellValue(sh.Name, cell, v)
			}
		}
		if n := len(sh.Header); n > 0 {
			last, _ := excelize.ColumnNumberToName(n)
			f.SetColWidth(sh.Name, "A", last, 18)
		}
	}
	if !keepDefault && len(sheets) > 0 {
		f.DeleteSheet("Sheet1")
	}
	return f.Write(w)
}

func deref[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countSheet(name, label string, m map[string]int) Sheet {
	sh := Sheet{Name: name, Header: []string{label, "Count"}}
	for _, k := range sortedKeys(m) {
		sh.Rows = append(sh.Rows, []any{k, m[k]})
	}
	return sh
}

// Sheets renders the report for xlsx export.
func (r ProductionReport) Sheets() []Sheet {
	s := r.Summary
	summary := Sheet{Name: "Summary", Header: []string{"Metric", "Value"}, Rows: [][]any{
		{"Job orders", s.JobOrders},
		{"Rolls", s.Rolls},
		{"Total quantity", s.TotalQuantity},
		{"Extruded", s.Extruded},
		{"Printed", s.Printed},
		{"Cut", s.Cut},
		{"Waste", s.Waste},
		{"Waste %", s.WastePercent},
		{"Avg extrusion to printing (h)", s.AvgExtrusionToPrintingHours},
		{"Avg printing to cutting (h)", s.AvgPrintingToCuttingHours},
	}}
	detail := Sheet{Name: "Job Orders", Header: []string{
		"Job Order", "Order", "Customer", "Customer Name", "Status", "Quantity",
		"Rolls", "Extruded", "Printed", "Cut", "Waste", "Waste %", "Progress %",
	}}
	for _, row := range r.Rows {
		detail.Rows = append(detail.Rows, []any{
			row.JobOrderID, row.OrderID, row.CustomerID, row.CustomerName, row.Status, row.Quantity,
			row.Rolls, row.Extruded, row.Printed, row.Cut, row.Waste, row.WastePercent, row.Progress,
		})
	}
	return []Sheet{summary, detail, countSheet("Rolls By Stage", "Stage", s.RollsByStage)}
}

func (r WarehouseReport) Sheets() []Sheet {
	s := r.Summary
	summary := Sheet{Name: "Summary", Header: []string{"Metric", "Value"}, Rows: [][]any{
		{"Raw materials", s.RawMaterials},
		{"Low stock", s.LowStock},
		{"Final products", s.FinalProducts},
		{"In stock quantity", s.InStockQuantity},
		{"Shipped quantity", s.ShippedQuantity},
	}}
	for _, k := range sortedKeys(s.QuantityByType) {
		summary.Rows = append(summary.Rows, []any{"Quantity: " + k, s.QuantityByType[k]})
	}
	raw := Sheet{Name: "Raw Materials", Header: []string{"ID", "Name", "Type", "Quantity", "Unit", "Low Stock", "Last Updated"}}
	for _, rm := range r.RawMaterials {
		raw.Rows = append(raw.Rows, []any{rm.ID, rm.Name, rm.Type, rm.Quantity, rm.Unit, rm.LowStock, rm.LastUpdated})
	}
	fp := Sheet{Name: "Final Products", Header: []string{"ID", "Job Order", "Customer", "Quantity", "Completed", "Status"}}
	for _, p := range r.FinalProducts {
		fp.Rows = append(fp.Rows, []any{p.ID, p.JobOrderID, p.CustomerID, p.Quantity, p.CompletedDate, p.Status})
	}
	return []Sheet{summary, raw, fp}
}

func (r QualityReport) Sheets() []Sheet {
	s := r.Summary
	summary := Sheet{Name: "Summary", Header: []string{"Metric", "Value"}, Rows: [][]any{
		{"Total checks", s.TotalChecks},
		{"Pass rate %", s.PassRate},
		{"Violations", s.Violations},
		{"Open violations", s.OpenViolations},
		{"Corrective actions", s.CorrectiveActions},
		{"Open corrective actions", s.OpenCorrectiveActions},
		{"Penalties", s.Penalties},
		{"Penalty amount", s.PenaltyAmount},
	}}
	checks := Sheet{Name: "Checks", Header: []string{"ID", "Check Type", "Roll", "Job Order", "Status", "Severity", "Timestamp"}}
	for _, c := range r.Rows {
		checks.Rows = append(checks.Rows, []any{c.ID, c.CheckTypeID, deref(c.RollID), deref(c.JobOrderID), c.Status, c.IssueSeverity, c.Timestamp})
	}
	return []Sheet{
		summary, checks,
		countSheet("By Status", "Status", s.ChecksByStatus),
		countSheet("Violations By Severity", "Severity", s.ViolationsBySeverity),
	}
}

func (r WorkflowReport) Sheets() []Sheet {
	s := r.Summary
	summary := Sheet{Name: "Summary", Header: []string{"Metric", "Value"}, Rows: [][]any{
		{"Orders", s.Orders},
		{"Fulfilled orders", s.FulfilledOrders},
		{"Avg fulfilment days", s.AvgFulfilmentDays},
	}}
	orders := Sheet{Name: "Orders", Header: []string{"Order", "Customer", "Customer Name", "Date", "Status", "Job Orders", "Rolls", "Completed", "Fulfilment Days"}}
	for _, o := range r.Rows {
		orders.Rows = append(orders.Rows, []any{o.OrderID, o.CustomerID, o.CustomerName, o.Date, o.Status, o.JobOrders, o.Rolls, o.CompletedDate, deref(o.FulfilmentDays)})
	}
	return []Sheet{
		summary, orders,
		countSheet("Orders By Status", "Status", s.OrdersByStatus),
		countSheet("Job Orders By Status", "Status", s.JobOrdersByStatus),
		countSheet("Rolls By Stage", "Stage", s.RollsByStage),
	}
}

func (m PerformanceMetrics) Sheets() []Sheet {
	summary := Sheet{Name: "Summary", Header: []string{"Metric", "Value"}, Rows: [][]any{
		{"Waste %", m.WastePercent},
		{"Quality pass rate %", m.QualityPassRate},
		{"Avg fulfilment days", m.AvgFulfilmentDays},
		{"Avg extrusion to printing (h)", m.AvgExtrusionToPrintingHours},
		{"Avg printing to cutting (h)", m.AvgPrintingToCuttingHours},
		{"Completed job orders", m.CompletedJobOrders},
	}}
	ops := Sheet{Name: "Operators", Header: []string{"User", "Username", "Name", "Extruded Rolls", "Printed Rolls", "Cut Rolls", "Extruded", "Printed", "Cut", "Waste", "Waste %"}}
	for _, o := range m.Operators {
		ops.Rows = append(ops.Rows, []any{o.UserID, o.Username, o.Name, o.RollsExtruded, o.RollsPrinted, o.RollsCut, o.ExtrudedQty, o.PrintedQty, o.CutQty, o.WasteQty, o.WastePercent})
	}
	return []Sheet{summary, ops}
}
