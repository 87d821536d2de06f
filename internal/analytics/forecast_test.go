package analytics

import (
	"errors"
	"testing"
	"time"
)

func forecastRequest(days int) Request {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return Request{
		Kind:      KindForecast,
		OfferName: "Test Offer",
		Payout:    2.0,
		From:      from,
		To:        from.AddDate(0, 0, days-1),
	}
}

func TestBuildForecastRejectsShortRange(t *testing.T) {
	_, err := BuildForecast(forecastRequest(4), eventCSV("2024-01-01"))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildForecastRevenueBuckets(t *testing.T) {
	series, err := BuildForecast(forecastRequest(5), eventCSV(
		"2024-01-01", "2024-01-01", "2024-01-03"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Revenue) != 5 {
		t.Fatalf("expected 5 revenue days, got %d", len(series.Revenue))
	}
	want := []float64{4, 0, 2, 0, 0}
	for i, w := range want {
		if series.Revenue[i] != w {
			t.Fatalf("day %d: expected revenue %v, got %v", i, w, series.Revenue[i])
		}
	}
}

func TestBuildForecastProjectsSevenDays(t *testing.T) {
	series, err := BuildForecast(forecastRequest(6), eventCSV(
		"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Forecast) != ForecastHorizonDays || len(series.Projection) != ForecastHorizonDays {
		t.Fatalf("expected %d forecast days, got %d dates and %d values",
			ForecastHorizonDays, len(series.Forecast), len(series.Projection))
	}
	wantFirst := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	if !series.Forecast[0].Equal(wantFirst) {
		t.Fatalf("expected forecast to start at %v, got %v", wantFirst, series.Forecast[0])
	}
	for i, v := range series.Projection {
		if v < 0 {
			t.Fatalf("projection day %d is negative: %v", i, v)
		}
	}
}

func TestBuildForecastZeroEventsStaysZero(t *testing.T) {
	series, err := BuildForecast(forecastRequest(5), eventCSV())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range series.Projection {
		if v != 0 {
			t.Fatalf("projection day %d: expected 0, got %v", i, v)
		}
	}
}
