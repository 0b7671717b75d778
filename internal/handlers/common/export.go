package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/modplast83/MPBF-S-sub000/internal/reports"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// Exporter is a report that can render itself as worksheets.
type Exporter interface {
	Sheets() []reports.Sheet
}

// ExportCSV writes the first sheet of an export as CSV.
func ExportCSV(w http.ResponseWriter, filename string, sheets []reports.Sheet) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))

	cw := csv.NewWriter(w)
	if len(sheets) > 0 {
		cw.Write(sheets[0].Header)
		for _, row := range sheets[0].Rows {
			rec := make([]string, len(row))
			for i, v := range row {
				if v != nil {
					rec[i] = fmt.Sprint(v)
				}
			}
			cw.Write(rec)
		}
	}
	cw.Flush()
}

// ExportExcel writes sheets as an xlsx workbook. The workbook is built in
// memory first so a failure can still produce a JSON error.
func ExportExcel(w http.ResponseWriter, filename string, sheets []reports.Sheet) {
	var buf bytes.Buffer
	if err := reports.WriteXLSX(&buf, sheets); err != nil {
		response.Err(w, "Failed to build workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(filename)))
	w.Write(buf.Bytes())
}

// rowCount sums the data rows across sheets.
func rowCount(sheets []reports.Sheet) int {
	n := 0
	for _, s := range sheets {
		n += len(s.Rows)
	}
	return n
}
