package order

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SortDirection controls the ordering of SortByDate.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Stats holds aggregate statistics over a history, used by the dashboard.
type Stats struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalProducts int             `json:"totalProducts"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	TotalSaved    decimal.Decimal `json:"totalSaved"`
}

// Stats computes aggregate statistics. An empty history yields all zeros.
func (h History) Stats() Stats {
	s := Stats{
		TotalSpent: decimal.Zero,
		TotalSaved: decimal.Zero,
	}
	for _, o := range h {
		s.TotalOrders++
		for _, line := range o.Lines {
			s.TotalProducts += line.Quantity
		}
		s.TotalSpent = s.TotalSpent.Add(o.TotalPaid)
		s.TotalSaved = s.TotalSaved.Add(o.TotalSavings)
	}
	return s
}

// UpdateStatus returns a new history where only the matching order's status
// is replaced. All other orders and fields are untouched; when no order
// matches, the result equals the input by value.
func (h History) UpdateStatus(orderID string, status Status) History {
	out := make(History, len(h))
	for i, o := range h {
		if o.OrderID == orderID {
			o.Status = status
		}
		out[i] = o
	}
	return out
}

// SortByDate returns a new history ordered chronologically by timestamp,
// falling back to the calendar date for orders without one. It is a view
// operation: the receiver's insertion order is never mutated.
func (h History) SortByDate(direction SortDirection) History {
	out := make(History, len(h))
	copy(out, h)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := sortTime(out[i]), sortTime(out[j])
		if direction == SortAsc {
			return a.Before(b)
		}
		return b.Before(a)
	})
	return out
}

func sortTime(o Order) time.Time {
	if !o.Timestamp.IsZero() {
		return o.Timestamp
	}
	t, err := time.Parse("2006-01-02", o.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
