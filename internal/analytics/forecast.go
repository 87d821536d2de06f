package analytics

import (
	"fmt"
	"time"
)

// ForecastSeries holds the historical daily revenue over the request range and
// the projected continuation.
type ForecastSeries struct {
	Dates      []time.Time
	Revenue    []float64
	Forecast   []time.Time
	Projection []float64
}

// BuildForecast buckets event records by calendar date, converts counts to
// revenue using the offer payout, fits a degree-2 polynomial over the day
// index and projects the next ForecastHorizonDays days, clamped at zero.
func BuildForecast(req Request, events Dataset) (*ForecastSeries, error) {
	days := req.rangeDays()
	if days < minForecastDays {
		return nil, fmt.Errorf("%w: forecast needs at least %d days, got %d", ErrInsufficientData, minForecastDays, days)
	}

	counts := events.bucketByDate(eventTimeField)

	series := &ForecastSeries{
		Dates:   make([]time.Time, days),
		Revenue: make([]float64, days),
	}
	xs := make([]float64, days)
	for i := 0; i < days; i++ {
		day := req.From.AddDate(0, 0, i)
		series.Dates[i] = day
		series.Revenue[i] = float64(counts[day.Format(dateLayout)]) * req.Payout
		xs[i] = float64(i)
	}

	coeffs, err := polyfit(xs, series.Revenue, 2)
	if err != nil {
		return nil, err
	}

	series.Forecast = make([]time.Time, ForecastHorizonDays)
	series.Projection = make([]float64, ForecastHorizonDays)
	for i := 0; i < ForecastHorizonDays; i++ {
		series.Forecast[i] = req.From.AddDate(0, 0, days+i)
		predicted := polyval(coeffs, float64(days+i))
		if predicted < 0 {
			predicted = 0
		}
		series.Projection[i] = predicted
	}
	return series, nil
}

// Forecast renders the historical revenue and its 7-day projection as a
// two-series line chart.
func Forecast(req Request, events Dataset) ([]byte, error) {
	series, err := BuildForecast(req, events)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Revenue Forecast\nPayout: $%.2f/event", req.Payout)
	return renderForecastChart(title, series)
}
