package analytics

import (
	"fmt"
	"sort"
	"time"
)

// TrendPoint is one dated install count.
type TrendPoint struct {
	Date     time.Time
	Installs int
}

// BuildTrend buckets install records by calendar date and returns the points
// in ascending date order. Dates with no records do not appear.
func BuildTrend(installs Dataset) ([]TrendPoint, error) {
	counts := installs.bucketByDate(installTimeField)
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no dated install records", ErrInsufficientData)
	}

	dates := make([]string, 0, len(counts))
	for date := range counts {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]TrendPoint, 0, len(dates))
	for _, date := range dates {
		day, err := time.Parse(dateLayout, date)
		if err != nil {
			continue
		}
		points = append(points, TrendPoint{Date: day, Installs: counts[date]})
	}
	return points, nil
}

// Trend renders install counts per day as a single line series.
func Trend(req Request, installs Dataset) ([]byte, error) {
	points, err := BuildTrend(installs)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Install Trends: %s\n%s - %s",
		req.OfferName, req.From.Format(dateLayout), req.To.Format(dateLayout))
	return renderTrendChart(title, points)
}
