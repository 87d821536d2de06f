package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"affibot/internal/repo"
)

// startEdit opens the field menu loop for an existing entity. Unlike the
// creation flows, editing is non-linear: the operator picks a field, the
// change is persisted immediately, and control returns to the menu until an
// explicit back.
func (e *Engine) startEdit(ctx context.Context, ev Event, flow Flow, id int64) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}
	if e.sessions.get(ev.UserID) != nil {
		e.send(ev.ChatID, "⚠️ Another operation is in progress. Finish it or send /cancel first.")
		return
	}

	session := &Session{
		UserID:    ev.UserID,
		ChatID:    ev.ChatID,
		Flow:      flow,
		EditID:    id,
		EditStage: editStageMenu,
	}
	if err := e.refreshSnapshot(ctx, session); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			e.send(ev.ChatID, "❌ Not found.")
			return
		}
		e.logger.Error("load edit snapshot failed", "error", err, "id", id)
		e.send(ev.ChatID, "❌ Failed to load the entity.")
		return
	}
	if err := e.sessions.start(session); err != nil {
		e.send(ev.ChatID, "⚠️ Another operation is in progress. Finish it or send /cancel first.")
		return
	}
	e.countWorkflow(string(flow), "started")
	e.sendEditMenu(session)
}

func (e *Engine) advanceEdit(ctx context.Context, session *Session, ev Event) {
	switch session.EditStage {
	case editStageMenu:
		e.editMenuSelect(session, ev)
	case editStageInput:
		e.editApplyInput(ctx, session, ev)
	}
}

func (e *Engine) editMenuSelect(session *Session, ev Event) {
	if ev.Callback == "edit_back" {
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(session.Flow), "committed")
		e.send(ev.ChatID, "✅ Editing finished.")
		return
	}

	key, ok := strings.CutPrefix(ev.Callback, "editf_")
	if !ok {
		e.sendEditMenu(session)
		return
	}
	field := findField(flowFields(session.Flow), key)
	if field == nil {
		e.sendEditMenu(session)
		return
	}

	session.EditField = field
	session.EditStage = editStageInput
	e.send(session.ChatID, field.Prompt)
}

// editApplyInput validates one field value and writes it through immediately,
// then returns to the menu with a refreshed snapshot.
func (e *Engine) editApplyInput(ctx context.Context, session *Session, ev Event) {
	field := session.EditField
	if field == nil {
		session.EditStage = editStageMenu
		e.sendEditMenu(session)
		return
	}
	if ev.Text == "" {
		e.send(session.ChatID, field.Prompt)
		return
	}

	value, err := field.Validate(ev.Text)
	if err != nil {
		retry := field.Retry
		if retry == "" {
			retry = "❌ " + err.Error() + "."
		}
		e.send(session.ChatID, retry+" Try again:")
		return
	}

	var affected bool
	if session.Flow == FlowEditOffer {
		affected, err = e.store.UpdateOfferField(ctx, session.EditID, field.Column, value)
	} else {
		affected, err = e.store.UpdateSourceField(ctx, session.EditID, field.Column, value)
	}
	if err != nil {
		e.logger.Error("update field failed", "error", err, "column", field.Column, "id", session.EditID)
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(session.Flow), "failed")
		e.send(session.ChatID, "❌ Failed to save the change.")
		return
	}
	if !affected {
		e.sessions.drop(session.UserID)
		e.countWorkflow(string(session.Flow), "failed")
		e.send(session.ChatID, "❌ Not found.")
		return
	}

	if err := e.refreshSnapshot(ctx, session); err != nil {
		e.logger.Warn("refresh edit snapshot failed", "error", err, "id", session.EditID)
	}
	session.EditField = nil
	session.EditStage = editStageMenu
	e.send(session.ChatID, "✅ Updated.")
	e.sendEditMenu(session)
}

func (e *Engine) refreshSnapshot(ctx context.Context, session *Session) error {
	if session.Flow == FlowEditOffer {
		offer, err := e.store.GetOffer(ctx, session.EditID)
		if err != nil {
			return err
		}
		session.OfferSnapshot = offer
		return nil
	}
	src, err := e.store.GetSource(ctx, session.EditID)
	if err != nil {
		return err
	}
	session.SourceSnapshot = src
	return nil
}

func (e *Engine) sendEditMenu(session *Session) {
	fields := flowFields(session.Flow)
	rows := make([][]Button, 0, len(fields)+1)
	for _, field := range fields {
		label := fmt.Sprintf("%s: %s", field.Label, e.snapshotValue(session, field.Column))
		rows = append(rows, []Button{{Label: label, Data: "editf_" + field.Key}})
	}
	rows = append(rows, []Button{{Label: "← Back", Data: "edit_back"}})

	title := "✏️ Editing offer. Pick a field:"
	if session.Flow == FlowEditSource {
		title = "✏️ Editing traffic source. Pick a field:"
	}
	e.sendMenu(session.ChatID, title, rows)
}

func (e *Engine) snapshotValue(session *Session, column string) string {
	if session.Flow == FlowEditOffer && session.OfferSnapshot != nil {
		o := session.OfferSnapshot
		switch column {
		case "name":
			return o.Name
		case "description":
			return o.Description
		case "payout":
			return fmt.Sprintf("%.2f", o.Payout)
		case "geo":
			return o.Geo
		case "vertical":
			return o.Vertical
		case "kpi":
			return o.KPI
		case "tracker":
			return o.Tracker
		case "antifraud":
			return o.Antifraud
		case "appsflyer_app_id":
			return o.AppsFlyerAppID
		case "event_name":
			return o.EventName
		case "daily_limit":
			return fmt.Sprintf("%d", o.DailyLimit)
		}
	}
	if session.Flow == FlowEditSource && session.SourceSnapshot != nil {
		s := session.SourceSnapshot
		switch column {
		case "name":
			return s.Name
		case "conversion":
			return fmt.Sprintf("%.2f", s.Conversion)
		case "cost":
			return fmt.Sprintf("%.2f", s.Cost)
		case "capacity":
			return fmt.Sprintf("%d", s.Capacity)
		case "geo":
			return s.Geo
		case "performance":
			return s.Performance
		}
	}
	return ""
}
