package convo

import (
	"context"
)

// startCreate begins a linear field-collection workflow. Creation is
// admin-only; a failed role check leaves the user idle.
func (e *Engine) startCreate(ctx context.Context, ev Event, flow Flow) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}

	session := &Session{
		UserID: ev.UserID,
		ChatID: ev.ChatID,
		Flow:   flow,
		Draft:  make(map[string]any),
	}
	if err := e.sessions.start(session); err != nil {
		e.send(ev.ChatID, "⚠️ Another operation is in progress. Finish it or send /cancel first.")
		return
	}
	e.countWorkflow(string(flow), "started")

	fields := flowFields(flow)
	if flow == FlowCreateOffer {
		e.send(ev.ChatID, "Let's add a new offer. "+fields[0].Prompt)
	} else {
		e.send(ev.ChatID, "Let's add a new traffic source. "+fields[0].Prompt)
	}
}

// advanceCreate consumes one input for the current field. Invalid input
// re-prompts the same state; the last valid field triggers the commit.
func (e *Engine) advanceCreate(ctx context.Context, session *Session, ev Event) {
	fields := flowFields(session.Flow)
	field := fields[session.Step]

	if ev.Text == "" {
		e.send(ev.ChatID, field.Prompt)
		return
	}

	value, err := field.Validate(ev.Text)
	if err != nil {
		retry := field.Retry
		if retry == "" {
			retry = "❌ " + err.Error() + "."
		}
		e.send(ev.ChatID, retry+" Try again:")
		return
	}

	session.Draft[field.Column] = value
	session.Step++
	if session.Step < len(fields) {
		e.send(ev.ChatID, fields[session.Step].Prompt)
		return
	}

	e.commitCreate(ctx, session, ev)
}

func (e *Engine) commitCreate(ctx context.Context, session *Session, ev Event) {
	var err error
	var created string
	switch session.Flow {
	case FlowCreateOffer:
		_, err = e.store.CreateOffer(ctx, offerFromDraft(session.Draft))
		created = "✅ Offer successfully added!"
	case FlowCreateSource:
		_, err = e.store.CreateSource(ctx, sourceFromDraft(session.Draft))
		created = "✅ Traffic source successfully added!"
	}

	e.sessions.drop(session.UserID)
	if err != nil {
		e.logger.Error("commit create failed", "error", err, "flow", string(session.Flow), "user_id", session.UserID)
		e.countWorkflow(string(session.Flow), "failed")
		e.send(ev.ChatID, "❌ Failed to save. Please try again later.")
		return
	}
	e.countWorkflow(string(session.Flow), "committed")
	e.send(ev.ChatID, created)
}

func flowFields(flow Flow) []Field {
	switch flow {
	case FlowCreateOffer, FlowEditOffer:
		return offerFields
	default:
		return sourceFields
	}
}
