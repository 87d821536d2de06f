package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"affibot/internal/attribution"
	"affibot/internal/repo"
)

// startReport opens the raw-data report workflow. Reports expose payout and
// event configuration, so they stay admin-only.
func (e *Engine) startReport(ctx context.Context, ev Event) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}

	session := &Session{
		UserID: ev.UserID,
		ChatID: ev.ChatID,
		Flow:   FlowReport,
		Report: &reportState{Stage: repStageKind},
	}
	if err := e.sessions.start(session); err != nil {
		e.send(ev.ChatID, "⚠️ Another operation is in progress. Finish it or send /cancel first.")
		return
	}
	e.countWorkflow(string(FlowReport), "started")

	e.sendMenu(ev.ChatID, "📑 Which report do you need?", [][]Button{
		{{Label: "📥 Installs", Data: "report_installs"}},
		{{Label: "🎯 In-app Events", Data: "report_events"}},
		{{Label: "🛡 Post-attribution", Data: "report_post"}},
		{{Label: "📄 Summary PDF", Data: "report_summary"}},
	})
}

func (e *Engine) advanceReport(ctx context.Context, session *Session, ev Event) {
	state := session.Report
	if state == nil {
		e.sessions.drop(session.UserID)
		return
	}

	switch state.Stage {
	case repStageKind:
		e.reportPickKind(ctx, session, ev)
	case repStageEventChoice:
		e.reportPickEventChoice(session, ev)
	case repStageEventName:
		e.reportPickEventName(session, ev)
	case repStageFields:
		e.reportPickFields(session, ev)
	case repStageCustomFields:
		e.reportPickCustomFields(session, ev)
	case repStageDates:
		e.reportPickDates(ctx, session, ev)
	case repStageOffer:
		e.reportPickOffer(ctx, session, ev)
	}
}

func (e *Engine) reportPickKind(ctx context.Context, session *Session, ev Event) {
	switch ev.Callback {
	case "report_installs":
		session.Report.Kind = "installs"
		session.Report.Stage = repStageDates
		e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
	case "report_events":
		session.Report.Kind = "events"
		session.Report.Stage = repStageEventChoice
		e.sendMenu(session.ChatID, "Which event should the report cover?", [][]Button{
			{{Label: "Use the offer's event", Data: "rep_event_offer"}},
			{{Label: "Enter a custom event", Data: "rep_event_custom"}},
		})
	case "report_post":
		session.Report.Kind = "post_attribution"
		session.Report.Stage = repStageFields
		e.sendMenu(session.ChatID, "Which extra columns should be included?", [][]Button{
			{{Label: "All available fields", Data: "rep_fields_all"}},
			{{Label: "Standard columns only", Data: "rep_fields_none"}},
			{{Label: "Custom field list", Data: "rep_fields_custom"}},
		})
	case "report_summary":
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowReport), "committed")
		e.runSummary(ctx, ev)
	default:
		e.send(session.ChatID, "Please pick a report type from the menu above.")
	}
}

func (e *Engine) reportPickEventChoice(session *Session, ev Event) {
	switch ev.Callback {
	case "rep_event_offer":
		session.Report.EventName = ""
		session.Report.Stage = repStageDates
		e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
	case "rep_event_custom":
		session.Report.Stage = repStageEventName
		e.send(session.ChatID, "Enter the event name:")
	default:
		e.send(session.ChatID, "Please pick an option from the menu above.")
	}
}

func (e *Engine) reportPickEventName(session *Session, ev Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		e.send(session.ChatID, "Enter the event name:")
		return
	}
	session.Report.EventName = text
	session.Report.Stage = repStageDates
	e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
}

func (e *Engine) reportPickFields(session *Session, ev Event) {
	switch ev.Callback {
	case "rep_fields_all":
		session.Report.AdditionalFields = "all"
	case "rep_fields_none":
		session.Report.AdditionalFields = ""
	case "rep_fields_custom":
		session.Report.Stage = repStageCustomFields
		e.send(session.ChatID, "Enter the field names, comma-separated:")
		return
	default:
		e.send(session.ChatID, "Please pick an option from the menu above.")
		return
	}
	session.Report.Stage = repStageDates
	e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
}

func (e *Engine) reportPickCustomFields(session *Session, ev Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		e.send(session.ChatID, "Enter the field names, comma-separated:")
		return
	}
	session.Report.AdditionalFields = text
	session.Report.Stage = repStageDates
	e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
}

func (e *Engine) reportPickDates(ctx context.Context, session *Session, ev Event) {
	if ev.Text == "" {
		e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
		return
	}
	from, to, err := parseDateRange(ev.Text)
	if err != nil {
		e.send(session.ChatID, "❌ "+err.Error()+". Try again:")
		return
	}
	session.Report.From = from
	session.Report.To = to

	offers, err := e.store.ListOffers(ctx)
	if err != nil {
		e.logger.Error("list offers failed", "error", err)
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowReport), "failed")
		e.send(session.ChatID, "❌ Failed to load offers.")
		return
	}
	if len(offers) == 0 {
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowReport), "failed")
		e.send(session.ChatID, "No active offers.")
		return
	}

	rows := make([][]Button, 0, len(offers)+1)
	for _, offer := range offers {
		rows = append(rows, []Button{{Label: offer.Name, Data: fmt.Sprintf("rep_offer_%d", offer.ID)}})
	}
	rows = append(rows, []Button{{Label: "❌ Cancel", Data: "rep_cancel"}})
	session.Report.Stage = repStageOffer
	e.sendMenu(session.ChatID, "Select an offer for the report:", rows)
}

func (e *Engine) reportPickOffer(ctx context.Context, session *Session, ev Event) {
	if ev.Callback == "rep_cancel" {
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowReport), "cancelled")
		e.send(session.ChatID, "❌ Operation cancelled.")
		return
	}
	if !strings.HasPrefix(ev.Callback, "rep_offer_") {
		e.send(session.ChatID, "Please pick an offer from the menu above.")
		return
	}

	id := parseID(ev.Callback)
	offer, err := e.store.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			e.send(session.ChatID, "Offer not found. Pick another one.")
			return
		}
		e.logger.Error("get offer failed", "error", err, "offer_id", id)
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowReport), "failed")
		e.send(session.ChatID, "❌ Failed to load the offer.")
		return
	}
	if offer.AppsFlyerAppID == "" {
		e.send(session.ChatID, "❌ This offer has no AppsFlyer app ID configured. Pick another one.")
		return
	}

	e.runReport(ctx, session, offer)
}

// runReport fetches the configured raw-data report and delivers it as a CSV
// document. The session ends either way.
func (e *Engine) runReport(ctx context.Context, session *Session, offer *repo.Offer) {
	state := session.Report
	defer e.sessions.drop(session.UserID)

	e.send(session.ChatID, "⏳ Fetching the report...")

	params := attribution.Params{
		AppID: offer.AppsFlyerAppID,
		From:  state.From.Format(dateLayout),
		To:    state.To.Format(dateLayout),
	}

	var report attribution.Report
	switch state.Kind {
	case "installs":
		report = attribution.ReportInstalls
	case "events":
		report = attribution.ReportInAppEvents
		params.EventName = state.EventName
		if params.EventName == "" {
			params.EventName = offer.EventName
		}
	case "post_attribution":
		report = attribution.ReportPostAttribution
		params = params.WithOfferFilter(offer.ID)
		switch state.AdditionalFields {
		case "all":
			// WithOfferFilter already requests the full column set.
		case "":
			params.AdditionalFields = nil
		default:
			params.AdditionalFields = splitFields(state.AdditionalFields)
		}
	}

	data, err := e.fetcher.Fetch(ctx, report, params)
	if err != nil {
		e.countWorkflow(string(FlowReport), "failed")
		if errors.Is(err, attribution.ErrUpstream) {
			e.send(session.ChatID, "❌ AppsFlyer did not return data for this range. Try again later.")
			return
		}
		e.logger.Error("report fetch failed", "error", err, "report", string(report), "offer_id", offer.ID)
		e.send(session.ChatID, "❌ Report generation failed. Try again later.")
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.csv", state.Kind, params.From, params.To)
	caption := fmt.Sprintf("📑 %s report for %s (%s - %s)", state.Kind, offer.Name, params.From, params.To)
	if err := e.responder.SendDocument(session.ChatID, filename, data, caption); err != nil {
		e.logger.Error("send report failed", "error", err, "chat_id", session.ChatID)
		e.countWorkflow(string(FlowReport), "failed")
		return
	}
	e.countWorkflow(string(FlowReport), "committed")
}

func splitFields(list string) []string {
	parts := strings.Split(list, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return fields
}
