package core

import (
	"math"
	"sort"
	"strings"
	"time"
)

// CategoryTotal is the summed amount for one category label.
type CategoryTotal struct {
	Category string
	Total    float64
}

// CurrentMonth returns the YYYY-MM month of t.
func CurrentMonth(t time.Time) string {
	return t.Format("2006-01")
}

// DistinctMonths returns the month prefixes present in expenses, newest first.
func DistinctMonths(expenses []Expense) []string {
	seen := make(map[string]struct{}, len(expenses))
	months := make([]string, 0, len(expenses))
	for _, e := range expenses {
		m := e.Month()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// CategoryTotals sums amounts per category. An empty month includes every
// expense; otherwise only dates that textually start with month count.
// The result is sorted by category name.
func CategoryTotals(expenses []Expense, month string) []CategoryTotal {
	sums := make(map[string]float64)
	for _, e := range expenses {
		if month != "" && !strings.HasPrefix(e.Date, month) {
			continue
		}
		sums[e.Category] += e.Amount
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for name, total := range sums {
		totals = append(totals, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Category < totals[j].Category })
	return totals
}

// SelectDefaultMonth picks the chart month: the current month when it has
// data, else the latest available month. available must be sorted
// newest first.
func SelectDefaultMonth(available []string, current string) (string, bool) {
	for _, m := range available {
		if m == current {
			return m, true
		}
	}
	if len(available) == 0 {
		return "", false
	}
	return available[0], true
}

// MonthlyTotal sums the amounts of every expense dated in month.
func MonthlyTotal(expenses []Expense, month string) float64 {
	var total float64
	for _, e := range expenses {
		if strings.HasPrefix(e.Date, month) {
			total += e.Amount
		}
	}
	return total
}

// HighestCategory returns the category with the greatest total. Ties go to
// the lexicographically smallest name; no totals yields "".
func HighestCategory(totals []CategoryTotal) string {
	var (
		best  string
		max   float64
		found bool
	)
	for _, t := range totals {
		if !found || t.Total > max || (t.Total == max && t.Category < best) {
			best, max, found = t.Category, t.Total, true
		}
	}
	return best
}

// ChartSeries splits totals into parallel label and value slices. Sums
// that overflowed to an infinity are clamped to the largest finite float
// so the series always encodes as JSON.
func ChartSeries(totals []CategoryTotal) ([]string, []float64) {
	labels := make([]string, len(totals))
	data := make([]float64, len(totals))
	for i, t := range totals {
		labels[i] = t.Category
		data[i] = clampFinite(t.Total)
	}
	return labels, data
}

func clampFinite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	case math.IsNaN(v):
		return 0
	default:
		return v
	}
}
