package analytics

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func installCSVAt(dates ...string) Dataset {
	var b strings.Builder
	b.WriteString("AppsFlyer ID,Install Time,Media Source\n")
	for _, date := range dates {
		b.WriteString("id," + date + " 10:00:00,organic\n")
	}
	return NewDataset([]byte(b.String()))
}

func TestBuildTrendSparseOrdered(t *testing.T) {
	points, err := BuildTrend(installCSVAt(
		"2024-01-03", "2024-01-01", "2024-01-01", "2024-01-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || points[0].Installs != 3 {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if !points[1].Date.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) || points[1].Installs != 1 {
		t.Fatalf("unexpected second point: %+v", points[1])
	}
}

func TestBuildTrendRequiresRecords(t *testing.T) {
	_, err := BuildTrend(installCSVAt())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrendRendersSinglePoint(t *testing.T) {
	req := Request{
		Kind:      KindTrend,
		OfferName: "Test Offer",
		From:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}
	png, err := Trend(req, installCSVAt("2024-01-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("expected PNG output")
	}
}
