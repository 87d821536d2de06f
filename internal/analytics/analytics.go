package analytics

import (
	"errors"
	"time"
)

// Kind selects which analysis to run.
type Kind string

const (
	KindConversion Kind = "conversion"
	KindForecast   Kind = "forecast"
	KindTrend      Kind = "trend"
)

// ForecastHorizonDays is the fixed window projected beyond the requested range.
const ForecastHorizonDays = 7

// minForecastDays is the smallest request range the regression accepts.
const minForecastDays = 5

// ErrInsufficientData signals the requested analysis cannot be computed from
// the given range or dataset.
var ErrInsufficientData = errors.New("insufficient data")

// Request describes one analysis run. Datasets are fetched by the caller; the
// pipeline itself performs no I/O.
type Request struct {
	Kind        Kind
	OfferName   string
	Payout      float64
	From        time.Time
	To          time.Time
	MediaSource string // empty means all sources
}

// rangeDays returns the number of calendar days in the closed request range.
func (r Request) rangeDays() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}
