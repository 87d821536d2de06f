package convo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"affibot/internal/repo"
)

func (e *Engine) listOffers(ctx context.Context, ev Event) {
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

	admin := e.isAdmin(ctx, ev.UserID)
	rows := make([][]Button, 0, len(offers))
	for _, offer := range offers {
		label := fmt.Sprintf("%s ($%.2f)", offer.Name, offer.Payout)
		row := []Button{{Label: label, Data: fmt.Sprintf("offer_view_%d", offer.ID)}}
		if admin {
			row = append(row,
				Button{Label: "✏️ Edit", Data: fmt.Sprintf("offer_edit_%d", offer.ID)},
				Button{Label: "❌ Delete", Data: fmt.Sprintf("offer_delete_%d", offer.ID)},
			)
		}
		rows = append(rows, row)
	}
	e.sendMenu(ev.ChatID, "📋 Active Offers:", rows)
}

func (e *Engine) listSources(ctx context.Context, ev Event) {
	sources, err := e.store.ListSources(ctx)
	if err != nil {
		e.logger.Error("list sources failed", "error", err)
		e.send(ev.ChatID, "❌ Failed to load traffic sources.")
		return
	}
	if len(sources) == 0 {
		e.send(ev.ChatID, "No traffic sources yet.")
		return
	}

	admin := e.isAdmin(ctx, ev.UserID)
	rows := make([][]Button, 0, len(sources))
	for _, src := range sources {
		label := fmt.Sprintf("%s ($%.2f)", src.Name, src.Cost)
		row := []Button{{Label: label, Data: fmt.Sprintf("src_view_%d", src.ID)}}
		if admin {
			row = append(row,
				Button{Label: "✏️ Edit", Data: fmt.Sprintf("src_edit_%d", src.ID)},
				Button{Label: "❌ Delete", Data: fmt.Sprintf("src_delete_%d", src.ID)},
			)
		}
		rows = append(rows, row)
	}
	e.sendMenu(ev.ChatID, "📋 Traffic Sources:", rows)
}

// handleStandaloneCallback serves inline buttons that work outside an active
// workflow: entity views, edit entry points and deletions.
func (e *Engine) handleStandaloneCallback(ctx context.Context, ev Event) {
	data := ev.Callback
	switch {
	case data == "offers_list":
		e.listOffers(ctx, ev)
	case data == "sources_list":
		e.listSources(ctx, ev)
	case strings.HasPrefix(data, "offer_view_"):
		e.viewOffer(ctx, ev, parseID(data))
	case strings.HasPrefix(data, "src_view_"):
		e.viewSource(ctx, ev, parseID(data))
	case strings.HasPrefix(data, "offer_edit_"):
		e.startEdit(ctx, ev, FlowEditOffer, parseID(data))
	case strings.HasPrefix(data, "src_edit_"):
		e.startEdit(ctx, ev, FlowEditSource, parseID(data))
	case strings.HasPrefix(data, "offer_delete_"):
		e.confirmDelete(ctx, ev, "offer", parseID(data))
	case strings.HasPrefix(data, "src_delete_"):
		e.confirmDelete(ctx, ev, "src", parseID(data))
	case strings.HasPrefix(data, "offer_confirmdel_"):
		e.deleteOffer(ctx, ev, parseID(data))
	case strings.HasPrefix(data, "src_confirmdel_"):
		e.deleteSource(ctx, ev, parseID(data))
	default:
		e.logger.Debug("unhandled callback", "data", data, "user_id", ev.UserID)
	}
}

func (e *Engine) viewOffer(ctx context.Context, ev Event, id int64) {
	offer, err := e.store.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			e.send(ev.ChatID, "Offer not found")
			return
		}
		e.logger.Error("get offer failed", "error", err, "offer_id", id)
		e.send(ev.ChatID, "❌ Failed to load the offer.")
		return
	}

	text := fmt.Sprintf(`📌 %s
💰 Payout: $%.2f
🌍 GEO: %s
📊 Vertical: %s
✅ KPI:
%s
🔗 Tracker: %s
🛡️ Anti-fraud: %s
📈 Daily limit: %d
Event: %s`,
		offer.Name, offer.Payout, offer.Geo, offer.Vertical, offer.KPI,
		offer.Tracker, offer.Antifraud, offer.DailyLimit, offer.EventName)

	e.sendMenu(ev.ChatID, text, [][]Button{{{Label: "← Back to offers", Data: "offers_list"}}})
}

func (e *Engine) viewSource(ctx context.Context, ev Event, id int64) {
	src, err := e.store.GetSource(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			e.send(ev.ChatID, "Traffic source not found")
			return
		}
		e.logger.Error("get source failed", "error", err, "source_id", id)
		e.send(ev.ChatID, "❌ Failed to load the traffic source.")
		return
	}

	text := fmt.Sprintf(`📌 %s
📈 Conversion: %.2f%%
💰 Cost: $%.2f
🚦 Capacity: %d
🌍 GEO: %s
📝 Performance:
%s`,
		src.Name, src.Conversion, src.Cost, src.Capacity, src.Geo, src.Performance)

	e.sendMenu(ev.ChatID, text, [][]Button{{{Label: "← Back to sources", Data: "sources_list"}}})
}

func (e *Engine) confirmDelete(ctx context.Context, ev Event, kind string, id int64) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}
	back := "offers_list"
	if kind == "src" {
		back = "sources_list"
	}
	e.sendMenu(ev.ChatID, "⚠️ Delete permanently?", [][]Button{
		{{Label: "✅ Confirm", Data: fmt.Sprintf("%s_confirmdel_%d", kind, id)}},
		{{Label: "← Back", Data: back}},
	})
}

func (e *Engine) deleteOffer(ctx context.Context, ev Event, id int64) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}
	affected, err := e.store.DeleteOffer(ctx, id)
	if err != nil {
		e.logger.Error("delete offer failed", "error", err, "offer_id", id)
		e.send(ev.ChatID, "❌ Failed to delete the offer.")
		return
	}
	if !affected {
		e.send(ev.ChatID, "Offer not found")
		return
	}
	e.send(ev.ChatID, "🗑 Offer deleted.")
}

func (e *Engine) deleteSource(ctx context.Context, ev Event, id int64) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}
	affected, err := e.store.DeleteSource(ctx, id)
	if err != nil {
		e.logger.Error("delete source failed", "error", err, "source_id", id)
		e.send(ev.ChatID, "❌ Failed to delete the traffic source.")
		return
	}
	if !affected {
		e.send(ev.ChatID, "Traffic source not found")
		return
	}
	e.send(ev.ChatID, "🗑 Traffic source deleted.")
}

// parseID extracts the trailing numeric id from a callback payload.
func parseID(data string) int64 {
	idx := strings.LastIndex(data, "_")
	if idx < 0 {
		return 0
	}
	id, err := strconv.ParseInt(data[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
