package report

import (
	"bytes"
	"testing"

	"affibot/internal/repo"
)

func TestBuildProducesPDF(t *testing.T) {
	data := Data{
		Campaigns: []string{"Summer Promo", ""},
		Offers: []repo.Offer{
			{Name: "Offer A", Payout: 2.5, KPI: "Retention D7 > 10%"},
			{Name: "Offer B", Payout: 1.0},
		},
		Attribution: &AttributionSummary{
			Campaigns: []string{"Offer A"},
			Stats:     []Stat{{Name: "Offer A installs", Value: "120 records"}},
		},
	}

	pdf, err := Build(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %d bytes", len(pdf))
	}
}

func TestSummarizeCountsRecords(t *testing.T) {
	stat := Summarize("installs", []byte("h1,h2\n1,2\n3,4\n"))
	if stat.Value != "2 records" {
		t.Fatalf("expected 2 records, got %s", stat.Value)
	}
}

func TestSummarizeEmptyData(t *testing.T) {
	if stat := Summarize("installs", nil); stat.Value != "0 records" {
		t.Fatalf("expected 0 records, got %s", stat.Value)
	}
	if stat := Summarize("installs", []byte("header only\n")); stat.Value != "0 records" {
		t.Fatalf("expected 0 records for header-only data, got %s", stat.Value)
	}
}
