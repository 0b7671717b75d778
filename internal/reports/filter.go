package reports

import (
	"net/url"
	"strings"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// Filter narrows a report. Zero values mean "no restriction". End is
// inclusive of the whole day.
type Filter struct {
	Start      time.Time
	End        time.Time
	CustomerID string
	Status     string
}

// ParseFilter reads start_date, end_date, customer_id and status.
func ParseFilter(q url.Values) (Filter, *validation.ValidationErrors) {
	ve := &validation.ValidationErrors{}
	var f Filter
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.ParseInLocation(models.DateLayout, s, time.Local)
		if err != nil {
			ve.Add("start_date", "must be a valid date (YYYY-MM-DD)")
		}
		f.Start = t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.ParseInLocation(models.DateLayout, s, time.Local)
		if err != nil {
			ve.Add("end_date", "must be a valid date (YYYY-MM-DD)")
		}
		f.End = t
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		ve.Add("end_date", "must not be before start_date")
	}
	f.CustomerID = strings.TrimSpace(q.Get("customer_id"))
	f.Status = strings.TrimSpace(q.Get("status"))
	if ve.HasErrors() {
		return f, ve
	}
	return f, nil
}

// inRange reports whether the timestamp or date ts falls inside the window.
// Unparseable timestamps only match an open window.
func (f Filter) inRange(ts string) bool {
	if f.Start.IsZero() && f.End.IsZero() {
		return true
	}
	t, ok := parseTime(ts)
	if !ok {
		return false
	}
	if !f.Start.IsZero() && t.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !t.Before(f.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (f Filter) customer(id string) bool {
	return f.CustomerID == "" || f.CustomerID == id
}

func (f Filter) status(s string) bool {
	return f.Status == "" || strings.EqualFold(f.Status, s)
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{models.TimeLayout, models.DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
