package analytics

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func installCSV(rows int) Dataset {
	var b strings.Builder
	b.WriteString("AppsFlyer ID,Install Time,Media Source\n")
	for i := 0; i < rows; i++ {
		b.WriteString("id,2024-01-01 10:00:00,organic\n")
	}
	return NewDataset([]byte(b.String()))
}

func eventCSV(dates ...string) Dataset {
	var b strings.Builder
	b.WriteString("AppsFlyer ID,Install Time,Event Name,Event Time\n")
	for _, date := range dates {
		b.WriteString("id,2024-01-01 10:00:00,purchase," + date + " 12:00:00\n")
	}
	return NewDataset([]byte(b.String()))
}

func TestConversionRate(t *testing.T) {
	if got := ConversionRate(installCSV(100), eventCSV("2024-01-01", "2024-01-01", "2024-01-01", "2024-01-01", "2024-01-01")); got != 5.0 {
		t.Fatalf("expected 5.0%%, got %v", got)
	}
}

func TestConversionRateZeroInstalls(t *testing.T) {
	if got := ConversionRate(installCSV(0), eventCSV("2024-01-01")); got != 0 {
		t.Fatalf("expected 0 on zero installs, got %v", got)
	}
}

func TestConversionRendersPNG(t *testing.T) {
	req := Request{
		Kind:      KindConversion,
		OfferName: "Test Offer",
		From:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}
	png, err := Conversion(req, installCSV(50), eventCSV("2024-01-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected PNG output, got %d bytes", len(png))
	}
}
