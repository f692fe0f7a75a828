package view

import "time"

// period is a document date filter cycled with the "d" key.
type period int

const (
	periodAll period = iota
	periodThisMonth
	periodLastMonth
	periodThisYear
	periodCount
)

func (p period) String() string {
	switch p {
	case periodThisMonth:
		return "This Month"
	case periodLastMonth:
		return "Last Month"
	case periodThisYear:
		return "This Year"
	}

	return "All Time"
}

// bounds returns the first and last day of the period, or nils for
// periodAll.
func (p period) bounds(now time.Time) (*time.Time, *time.Time) {
	var start time.Time

	switch p {
	case periodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case periodLastMonth:
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	case periodThisYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)

		return &start, &end
	default:
		return nil, nil
	}

	end := start.AddDate(0, 1, -1)

	return &start, &end
}
