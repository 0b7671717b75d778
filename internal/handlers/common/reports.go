package common

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/reports"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// serveReport loads the report data once, builds the report and writes it as
// JSON, or as a download when format is xlsx or csv.
func (h *Handler) serveReport(w http.ResponseWriter, r *http.Request, name string, build func(*reports.Data, reports.Filter) Exporter) {
	q := r.URL.Query()
	f, ve := reports.ParseFilter(q)
	if ve != nil {
		response.Invalid(w, ve)
		return
	}
	format := q.Get("format")
	switch format {
	case "", "json", "xlsx", "csv":
	default:
		response.Err(w, "format must be json, xlsx or csv", http.StatusBadRequest)
		return
	}

	data, err := reports.Load(r.Context(), h.Store)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load report data", err)
		return
	}
	rep := build(data, f)

	switch format {
	case "xlsx":
		sheets := rep.Sheets()
		h.Audit.Export(r.Context(), "reports", format, rowCount(sheets))
		ExportExcel(w, name+"-report", sheets)
	case "csv":
		sheets := rep.Sheets()
		h.Audit.Export(r.Context(), "reports", format, rowCount(sheets))
		ExportCSV(w, name+"-report", sheets)
	default:
		response.OK(w, rep)
	}
}

// ProductionReport handles GET /api/reports/production.
func (h *Handler) ProductionReport(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, "production", func(d *reports.Data, f reports.Filter) Exporter {
		return reports.Production(d, f)
	})
}

// WarehouseReport handles GET /api/reports/warehouse.
func (h *Handler) WarehouseReport(w http.ResponseWriter, r *http.Request) {
	threshold := h.Config.Reports.LowStockThreshold
	h.serveReport(w, r, "warehouse", func(d *reports.Data, f reports.Filter) Exporter {
		return reports.Warehouse(d, f, threshold)
	})
}

// QualityReport handles GET /api/reports/quality.
func (h *Handler) QualityReport(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, "quality", func(d *reports.Data, f reports.Filter) Exporter {
		return reports.Quality(d, f)
	})
}

// WorkflowReport handles GET /api/reports/workflow.
func (h *Handler) WorkflowReport(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, "workflow", func(d *reports.Data, f reports.Filter) Exporter {
		return reports.Workflow(d, f)
	})
}

// PerformanceMetrics handles GET /api/reports/performance-metrics.
func (h *Handler) PerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, "performance", func(d *reports.Data, f reports.Filter) Exporter {
		return reports.Performance(d, f)
	})
}
