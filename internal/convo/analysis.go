package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"affibot/internal/analytics"
	"affibot/internal/attribution"
	"affibot/internal/repo"
)

// startAnalysis opens the analysis workflow: pick a kind, pick an offer, give
// a date range, optionally narrow to a media source, confirm, run.
func (e *Engine) startAnalysis(ctx context.Context, ev Event) {
	session := &Session{
		UserID:   ev.UserID,
		ChatID:   ev.ChatID,
		Flow:     FlowAnalysis,
		Analysis: &analysisState{Stage: anStageKind},
	}
	if err := e.sessions.start(session); err != nil {
		e.send(ev.ChatID, "⚠️ Another operation is in progress. Finish it or send /cancel first.")
		return
	}
	e.countWorkflow(string(FlowAnalysis), "started")

	e.sendMenu(ev.ChatID, "📊 What would you like to analyze?", [][]Button{
		{{Label: "📈 Conversion Rate", Data: "analysis_conversion"}},
		{{Label: "🔮 Revenue Forecast", Data: "analysis_forecast"}},
		{{Label: "📊 Install Trends", Data: "analysis_trend"}},
	})
}

func (e *Engine) advanceAnalysis(ctx context.Context, session *Session, ev Event) {
	state := session.Analysis
	if state == nil {
		e.sessions.drop(session.UserID)
		return
	}

	switch state.Stage {
	case anStageKind:
		e.analysisPickKind(ctx, session, ev)
	case anStageOffer:
		e.analysisPickOffer(ctx, session, ev)
	case anStageDates:
		e.analysisPickDates(session, ev)
	case anStageSourceChoice:
		e.analysisPickSourceChoice(session, ev)
	case anStageMediaSource:
		e.analysisPickMediaSource(session, ev)
	case anStageConfirm:
		e.analysisConfirm(ctx, session, ev)
	}
}

func (e *Engine) analysisPickKind(ctx context.Context, session *Session, ev Event) {
	kind, ok := strings.CutPrefix(ev.Callback, "analysis_")
	if !ok {
		e.send(session.ChatID, "Please pick an analysis type from the menu above.")
		return
	}
	switch analytics.Kind(kind) {
	case analytics.KindConversion, analytics.KindForecast, analytics.KindTrend:
		session.Analysis.Kind = analytics.Kind(kind)
	default:
		e.send(session.ChatID, "Please pick an analysis type from the menu above.")
		return
	}

	offers, err := e.store.ListOffers(ctx)
	if err != nil {
		e.logger.Error("list offers failed", "error", err)
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowAnalysis), "failed")
		e.send(session.ChatID, "❌ Failed to load offers.")
		return
	}
	if len(offers) == 0 {
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(FlowAnalysis), "failed")
		e.send(session.ChatID, "No active offers.")
		return
	}

	rows := make([][]Button, 0, len(offers))
	for _, offer := range offers {
		rows = append(rows, []Button{{Label: offer.Name, Data: fmt.Sprintf("anoffer_%d", offer.ID)}})
	}
	session.Analysis.Stage = anStageOffer
	e.sendMenu(session.ChatID, "Select an offer to analyze:", rows)
}

func (e *Engine) analysisPickOffer(ctx context.Context, session *Session, ev Event) {
	if !strings.HasPrefix(ev.Callback, "anoffer_") {
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
		e.countWorkflow(string(FlowAnalysis), "failed")
		e.send(session.ChatID, "❌ Failed to load the offer.")
		return
	}
	if !offer.HasAttribution() {
		e.send(session.ChatID, "❌ This offer has no AppsFlyer app ID or event name configured. Pick another one.")
		return
	}

	session.Analysis.OfferID = offer.ID
	session.Analysis.Stage = anStageDates
	e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
}

func (e *Engine) analysisPickDates(session *Session, ev Event) {
	if ev.Text == "" {
		e.send(session.ChatID, "Enter the date range as two dates (YYYY-MM-DD YYYY-MM-DD):")
		return
	}
	from, to, err := parseDateRange(ev.Text)
	if err != nil {
		e.send(session.ChatID, "❌ "+err.Error()+". Try again:")
		return
	}
	session.Analysis.From = from
	session.Analysis.To = to
	session.Analysis.Stage = anStageSourceChoice
	e.sendAnalysisSourceMenu(session)
}

func (e *Engine) sendAnalysisSourceMenu(session *Session) {
	e.sendMenu(session.ChatID, "Narrow the data to one media source?", [][]Button{
		{{Label: "🌐 All sources", Data: "an_src_all"}},
		{{Label: "🎯 Specific source", Data: "an_src_specific"}},
	})
}

func (e *Engine) analysisPickSourceChoice(session *Session, ev Event) {
	switch ev.Callback {
	case "an_src_all":
		session.Analysis.MediaSource = ""
		session.Analysis.Stage = anStageConfirm
		e.sendAnalysisConfirm(session)
	case "an_src_specific":
		session.Analysis.Stage = anStageMediaSource
		e.send(session.ChatID, "Enter the media source name (e.g. googleadwords_int):")
	default:
		e.sendAnalysisSourceMenu(session)
	}
}

func (e *Engine) analysisPickMediaSource(session *Session, ev Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		e.send(session.ChatID, "Enter the media source name (e.g. googleadwords_int):")
		return
	}
	session.Analysis.MediaSource = text
	session.Analysis.Stage = anStageConfirm
	e.sendAnalysisConfirm(session)
}

func (e *Engine) sendAnalysisConfirm(session *Session) {
	state := session.Analysis
	source := state.MediaSource
	if source == "" {
		source = "all sources"
	}
	text := fmt.Sprintf("🔎 %s\nRange: %s - %s\nSource: %s\n\nRun the analysis?",
		state.Kind, state.From.Format(dateLayout), state.To.Format(dateLayout), source)
	e.sendMenu(session.ChatID, text, [][]Button{
		{{Label: "✅ Run", Data: "an_src_confirm"}},
		{{Label: "✏️ Change source", Data: "an_src_change"}},
	})
}

func (e *Engine) analysisConfirm(ctx context.Context, session *Session, ev Event) {
	switch ev.Callback {
	case "an_src_confirm":
		e.performAnalysis(ctx, session)
	case "an_src_change":
		session.Analysis.Stage = anStageSourceChoice
		e.sendAnalysisSourceMenu(session)
	default:
		e.sendAnalysisConfirm(session)
	}
}

// performAnalysis fetches the datasets the chosen kind needs, runs the
// pipeline and sends the rendered chart. The session ends either way.
func (e *Engine) performAnalysis(ctx context.Context, session *Session) {
	state := session.Analysis
	defer e.sessions.drop(session.UserID)

	offer, err := e.store.GetOffer(ctx, state.OfferID)
	if err != nil {
		e.logger.Error("get offer failed", "error", err, "offer_id", state.OfferID)
		e.countWorkflow(string(FlowAnalysis), "failed")
		e.send(session.ChatID, "❌ Failed to load the offer.")
		return
	}

	e.send(session.ChatID, "⏳ Fetching attribution data...")

	params := attribution.Params{
		AppID:       offer.AppsFlyerAppID,
		From:        state.From.Format(dateLayout),
		To:          state.To.Format(dateLayout),
		MediaSource: state.MediaSource,
	}
	req := analytics.Request{
		Kind:        state.Kind,
		OfferName:   offer.Name,
		Payout:      offer.Payout,
		From:        state.From,
		To:          state.To,
		MediaSource: state.MediaSource,
	}

	var png []byte
	switch state.Kind {
	case analytics.KindConversion:
		var installs, events []byte
		installs, err = e.fetcher.Fetch(ctx, attribution.ReportInstalls, params)
		if err == nil {
			eventParams := params
			eventParams.EventName = offer.EventName
			events, err = e.fetcher.Fetch(ctx, attribution.ReportInAppEvents, eventParams)
		}
		if err == nil {
			png, err = analytics.Conversion(req, analytics.NewDataset(installs), analytics.NewDataset(events))
		}
	case analytics.KindForecast:
		var events []byte
		eventParams := params
		eventParams.EventName = offer.EventName
		events, err = e.fetcher.Fetch(ctx, attribution.ReportInAppEvents, eventParams)
		if err == nil {
			png, err = analytics.Forecast(req, analytics.NewDataset(events))
		}
	case analytics.KindTrend:
		var installs []byte
		installs, err = e.fetcher.Fetch(ctx, attribution.ReportInstalls, params)
		if err == nil {
			png, err = analytics.Trend(req, analytics.NewDataset(installs))
		}
	}

	if err != nil {
		e.countAnalysis(string(state.Kind), "error")
		e.countWorkflow(string(FlowAnalysis), "failed")
		switch {
		case errors.Is(err, analytics.ErrInsufficientData):
			e.send(session.ChatID, "❌ Not enough data for this analysis. "+
				"Forecasting needs at least a 5-day range with recorded events.")
		case errors.Is(err, attribution.ErrUpstream):
			e.send(session.ChatID, "❌ AppsFlyer did not return data for this range. Try again later.")
		default:
			e.logger.Error("analysis failed", "error", err, "kind", string(state.Kind), "offer_id", offer.ID)
			e.send(session.ChatID, "❌ Analysis failed. Try again later.")
		}
		return
	}

	caption := fmt.Sprintf("%s for %s (%s - %s)",
		analysisCaption(state.Kind), offer.Name,
		state.From.Format(dateLayout), state.To.Format(dateLayout))
	if err := e.responder.SendPhoto(session.ChatID, caption, png); err != nil {
		e.logger.Error("send chart failed", "error", err, "chat_id", session.ChatID)
		e.countAnalysis(string(state.Kind), "error")
		e.countWorkflow(string(FlowAnalysis), "failed")
		return
	}
	e.countAnalysis(string(state.Kind), "ok")
	e.countWorkflow(string(FlowAnalysis), "committed")
}

func (e *Engine) countAnalysis(kind, outcome string) {
	if e.metrics != nil {
		e.metrics.Analyses.WithLabelValues(kind, outcome).Inc()
	}
}

func analysisCaption(kind analytics.Kind) string {
	switch kind {
	case analytics.KindConversion:
		return "📈 Conversion rate"
	case analytics.KindForecast:
		return "🔮 Revenue forecast"
	default:
		return "📊 Install trend"
	}
}
