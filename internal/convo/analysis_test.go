package convo

import (
	"context"
	"strings"
	"testing"

	"affibot/internal/attribution"
	"affibot/internal/repo"
)

type fakeFetcher struct {
	reports []attribution.Report
	params  []attribution.Params
	data    map[attribution.Report][]byte
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, report attribution.Report, p attribution.Params) ([]byte, error) {
	f.reports = append(f.reports, report)
	f.params = append(f.params, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.data[report], nil
}

func attributedOffer() repo.Offer {
	return repo.Offer{
		ID:             5,
		Name:           "Super App",
		Payout:         2.5,
		AppsFlyerAppID: "com.super.app",
		EventName:      "af_purchase",
	}
}

func newAnalysisEngine(t *testing.T, fetcher *fakeFetcher) (*Engine, *fakeStore, *fakeResponder) {
	t.Helper()
	engine, store, responder := newTestEngine(t)
	engine.fetcher = fetcher
	store.offers[5] = attributedOffer()
	store.nextID = 5
	return engine, store, responder
}

func TestAnalysisConversionFlow(t *testing.T) {
	fetcher := &fakeFetcher{data: map[attribution.Report][]byte{
		attribution.ReportInstalls:    []byte("h1,h2\na,2024-01-01 10:00:00\nb,2024-01-02 10:00:00\n"),
		attribution.ReportInAppEvents: []byte("h1,h2,h3,h4\na,b,c,2024-01-01 12:00:00\n"),
	}}
	engine, _, responder := newAnalysisEngine(t, fetcher)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("analyze"))
	engine.HandleEvent(ctx, adminCallback("analysis_conversion"))
	engine.HandleEvent(ctx, adminCallback("anoffer_5"))
	engine.HandleEvent(ctx, adminText("2024-01-01 2024-01-07"))
	engine.HandleEvent(ctx, adminCallback("an_src_all"))
	engine.HandleEvent(ctx, adminCallback("an_src_confirm"))

	if !strings.Contains(responder.last(), "Conversion rate") {
		t.Fatalf("expected a conversion chart caption, got %q", responder.last())
	}
	if len(fetcher.reports) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(fetcher.reports))
	}
	if fetcher.reports[0] != attribution.ReportInstalls || fetcher.reports[1] != attribution.ReportInAppEvents {
		t.Fatalf("unexpected report order: %v", fetcher.reports)
	}
	if fetcher.params[1].EventName != "af_purchase" {
		t.Fatalf("events fetch must filter by the offer event, got %q", fetcher.params[1].EventName)
	}

	// The workflow is done; plain text falls back to the idle response.
	engine.HandleEvent(ctx, adminText("anything"))
	if !strings.Contains(responder.last(), "not supported") {
		t.Fatalf("expected the session to be closed, got %q", responder.last())
	}
}

func TestAnalysisForecastShortRange(t *testing.T) {
	fetcher := &fakeFetcher{data: map[attribution.Report][]byte{
		attribution.ReportInAppEvents: []byte("h1,h2,h3,h4\n"),
	}}
	engine, _, responder := newAnalysisEngine(t, fetcher)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("analyze"))
	engine.HandleEvent(ctx, adminCallback("analysis_forecast"))
	engine.HandleEvent(ctx, adminCallback("anoffer_5"))
	engine.HandleEvent(ctx, adminText("2024-01-01 2024-01-03"))
	engine.HandleEvent(ctx, adminCallback("an_src_all"))
	engine.HandleEvent(ctx, adminCallback("an_src_confirm"))

	if !strings.Contains(responder.last(), "Not enough data") {
		t.Fatalf("expected an insufficient data message, got %q", responder.last())
	}
}

func TestAnalysisRejectsOfferWithoutAttribution(t *testing.T) {
	engine, store, responder := newAnalysisEngine(t, &fakeFetcher{})
	store.offers[6] = repo.Offer{ID: 6, Name: "Bare Offer", Payout: 1.0}
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("analyze"))
	engine.HandleEvent(ctx, adminCallback("analysis_trend"))
	engine.HandleEvent(ctx, adminCallback("anoffer_6"))

	if !strings.Contains(responder.last(), "no AppsFlyer app ID") {
		t.Fatalf("expected attribution rejection, got %q", responder.last())
	}

	// Still at the offer stage: picking an attributed offer proceeds.
	engine.HandleEvent(ctx, adminCallback("anoffer_5"))
	if !strings.Contains(responder.last(), "date range") {
		t.Fatalf("expected date prompt, got %q", responder.last())
	}
}

func TestAnalysisMediaSourceFilter(t *testing.T) {
	fetcher := &fakeFetcher{data: map[attribution.Report][]byte{
		attribution.ReportInstalls: []byte("h1,h2\na,2024-01-01 10:00:00\n"),
	}}
	engine, _, _ := newAnalysisEngine(t, fetcher)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("analyze"))
	engine.HandleEvent(ctx, adminCallback("analysis_trend"))
	engine.HandleEvent(ctx, adminCallback("anoffer_5"))
	engine.HandleEvent(ctx, adminText("2024-01-01 2024-01-07"))
	engine.HandleEvent(ctx, adminCallback("an_src_specific"))
	engine.HandleEvent(ctx, adminText("googleadwords_int"))
	engine.HandleEvent(ctx, adminCallback("an_src_confirm"))

	if len(fetcher.params) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(fetcher.params))
	}
	if fetcher.params[0].MediaSource != "googleadwords_int" {
		t.Fatalf("expected media source filter, got %q", fetcher.params[0].MediaSource)
	}
}

func TestReportFlowDeliversCSV(t *testing.T) {
	fetcher := &fakeFetcher{data: map[attribution.Report][]byte{
		attribution.ReportInstalls: []byte("h1,h2\na,2024-01-01 10:00:00\n"),
	}}
	engine, _, responder := newAnalysisEngine(t, fetcher)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("report"))
	engine.HandleEvent(ctx, adminCallback("report_installs"))
	engine.HandleEvent(ctx, adminText("2024-01-01 2024-01-31"))
	engine.HandleEvent(ctx, adminCallback("rep_offer_5"))

	if !strings.Contains(responder.last(), "installs report") {
		t.Fatalf("expected a report document caption, got %q", responder.last())
	}
	if len(fetcher.reports) != 1 || fetcher.reports[0] != attribution.ReportInstalls {
		t.Fatalf("unexpected fetches: %v", fetcher.reports)
	}
	if fetcher.params[0].From != "2024-01-01" || fetcher.params[0].To != "2024-01-31" {
		t.Fatalf("unexpected range: %+v", fetcher.params[0])
	}
}

func TestPostAttributionReportFiltersByOffer(t *testing.T) {
	fetcher := &fakeFetcher{data: map[attribution.Report][]byte{
		attribution.ReportPostAttribution: []byte("h\n"),
	}}
	engine, _, _ := newAnalysisEngine(t, fetcher)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("report"))
	engine.HandleEvent(ctx, adminCallback("report_post"))
	engine.HandleEvent(ctx, adminCallback("rep_fields_all"))
	engine.HandleEvent(ctx, adminText("2024-01-01 2024-01-31"))
	engine.HandleEvent(ctx, adminCallback("rep_offer_5"))

	if len(fetcher.params) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(fetcher.params))
	}
	p := fetcher.params[0]
	if p.EventName != "offer_5" {
		t.Fatalf("expected offer-tagged event filter, got %q", p.EventName)
	}
	if len(p.AdditionalFields) != len(attribution.PostAttributionFields) {
		t.Fatalf("expected the full field set, got %d fields", len(p.AdditionalFields))
	}
}
