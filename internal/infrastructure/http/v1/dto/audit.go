package dto

import (
	"strconv"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/filter"
)

// AuditQuery is the query string of the audit log listing.
type AuditQuery struct {
	filter.Page
	Search         string     `form:"searchTerm"`
	UserID         *int64     `form:"userId"`
	EntityName     string     `form:"entityName"`
	Action         string     `form:"action"`
	From           *time.Time `form:"fromDate" time_format:"2006-01-02"`
	To             *time.Time `form:"toDate" time_format:"2006-01-02"`
	SortBy         string     `form:"sortBy"`
	SortDescending *bool      `form:"sortDescending"`
}

// ToFilter converts the query to a domain filter. The action may be given by
// name or by its numeric value.
func (q *AuditQuery) ToFilter() (audit.Filter, error) {
	f := audit.DefaultFilter()
	f.Page = q.Page
	f.Search = q.Search
	f.UserID = q.UserID
	f.EntityName = q.EntityName
	f.From = q.From
	if q.To != nil {
		// toDate is inclusive.
		end := q.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if q.SortBy != "" {
		f.SortBy = q.SortBy
	}
	if q.SortDescending != nil {
		f.SortDescending = *q.SortDescending
	}

	if q.Action != "" {
		action, ok := audit.ParseAction(q.Action)
		if !ok {
			action = parseActionNumber(q.Action)
		}
		if !action.Valid() {
			return f, apperror.NewValidation("unknown audit action").WithDetail("action", q.Action)
		}
		f.Action = &action
	}
	return f, nil
}

func parseActionNumber(s string) audit.Action {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return audit.Action(n)
}
