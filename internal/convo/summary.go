package convo

import (
	"context"
	"time"

	"affibot/internal/attribution"
	"affibot/internal/report"
)

// summaryWindowDays is the trailing range the summary document covers.
const summaryWindowDays = 30

// runSummary assembles the marketing summary PDF: the current offer catalog
// plus a fresh install count per attributed offer over the trailing window.
func (e *Engine) runSummary(ctx context.Context, ev Event) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}

	offers, err := e.store.ListOffers(ctx)
	if err != nil {
		e.logger.Error("list offers failed", "error", err)
		e.send(ev.ChatID, "❌ Failed to load offers.")
		return
	}
	if len(offers) == 0 {
		e.send(ev.ChatID, "No active offers.")
		return
	}

	e.send(ev.ChatID, "⏳ Building the summary report...")

	to := time.Now()
	from := to.AddDate(0, 0, -summaryWindowDays)

	data := report.Data{Offers: offers}
	summary := &report.AttributionSummary{}
	for _, offer := range offers {
		data.Campaigns = append(data.Campaigns, offer.Name)
		if !offer.HasAttribution() {
			continue
		}
		csv, err := e.fetcher.Fetch(ctx, attribution.ReportInstalls, attribution.Params{
			AppID: offer.AppsFlyerAppID,
			From:  from.Format(dateLayout),
			To:    to.Format(dateLayout),
		})
		if err != nil {
			// A single failed fetch does not sink the document; the offer is
			// simply absent from the attribution section.
			e.logger.Warn("summary fetch failed", "error", err, "offer_id", offer.ID)
			continue
		}
		summary.Campaigns = append(summary.Campaigns, offer.Name)
		summary.Stats = append(summary.Stats, report.Summarize(offer.Name+" installs", csv))
	}
	if len(summary.Stats) > 0 {
		data.Attribution = summary
	}

	pdf, err := report.Build(data)
	if err != nil {
		e.logger.Error("build summary pdf failed", "error", err)
		e.send(ev.ChatID, "❌ Failed to build the summary report.")
		return
	}

	filename := "marketing_summary_" + to.Format(dateLayout) + ".pdf"
	if err := e.responder.SendDocument(ev.ChatID, filename, pdf, "📄 Marketing summary"); err != nil {
		e.logger.Error("send summary failed", "error", err, "chat_id", ev.ChatID)
	}
}
