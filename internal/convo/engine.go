package convo

import (
	"context"
	"log/slog"
	"sync"

	"affibot/internal/attribution"
	"affibot/internal/metrics"
	"affibot/internal/repo"
)

// Event is one inbound chat event, already stripped of transport detail.
type Event struct {
	UserID   int64
	ChatID   int64
	Username string
	Command  string // command name without the slash, empty otherwise
	Args     string // text after the command
	Text     string // plain message text
	Callback string // inline button payload, empty for messages
}

// Button is one inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// Responder delivers outbound messages; the Telegram client implements it.
type Responder interface {
	SendText(chatID int64, text string) error
	SendMenu(chatID int64, text string, rows [][]Button) error
	SendPhoto(chatID int64, caption string, png []byte) error
	SendDocument(chatID int64, filename string, data []byte, caption string) error
}

// Fetcher pulls raw attribution datasets; satisfied by *attribution.Client.
type Fetcher interface {
	Fetch(ctx context.Context, report attribution.Report, p attribution.Params) ([]byte, error)
}

// Engine routes chat events into per-user workflows: entity creation and
// editing, analytics and report generation.
type Engine struct {
	store     repo.Store
	fetcher   Fetcher
	responder Responder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	sessions  *sessionStore

	lockMu    sync.Mutex
	userLocks map[int64]*userLock
}

// userLock serializes events for one user. Holders are counted so the map
// entry can be dropped once nobody holds or waits on it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a workflow engine.
func New(store repo.Store, fetcher Fetcher, responder Responder, metricRegistry *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		fetcher:   fetcher,
		responder: responder,
		metrics:   metricRegistry,
		logger:    logger.With("component", "convo"),
		sessions:  newSessionStore(),
		userLocks: make(map[int64]*userLock),
	}
}

// HandleEvent processes one inbound event to completion. Events from the same
// user are serialized; different users never contend.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) {
	lock := e.acquireUser(ev.UserID)
	defer e.releaseUser(ev.UserID, lock)

	if ev.Command == "cancel" {
		e.cancel(ev)
		return
	}
	if ev.Command != "" {
		e.handleCommand(ctx, ev)
		return
	}

	session := e.sessions.get(ev.UserID)
	if session == nil {
		if ev.Callback != "" {
			e.handleStandaloneCallback(ctx, ev)
			return
		}
		e.send(ev.ChatID, "❌ Text commands are not supported.\nPlease use the command menu or type /help to see all available commands.")
		return
	}

	switch session.Flow {
	case FlowCreateOffer, FlowCreateSource:
		e.advanceCreate(ctx, session, ev)
	case FlowEditOffer, FlowEditSource:
		e.advanceEdit(ctx, session, ev)
	case FlowAnalysis:
		e.advanceAnalysis(ctx, session, ev)
	case FlowReport:
		e.advanceReport(ctx, session, ev)
	default:
		e.logger.Warn("unknown flow in session", "flow", string(session.Flow), "user_id", ev.UserID)
		e.sessions.drop(ev.UserID)
	}
}

func (e *Engine) handleCommand(ctx context.Context, ev Event) {
	// A new workflow may not start over an active draft.
	starts := map[string]bool{"addoffer": true, "addsource": true, "analyze": true, "report": true, "summary": true}
	if starts[ev.Command] && e.sessions.get(ev.UserID) != nil {
		e.send(ev.ChatID, "⚠️ Another operation is in progress. Finish it or send /cancel first.")
		return
	}

	switch ev.Command {
	case "start":
		e.handleStart(ctx, ev)
	case "help":
		e.send(ev.ChatID, helpText)
	case "offers":
		e.listOffers(ctx, ev)
	case "sources":
		e.listSources(ctx, ev)
	case "addoffer":
		e.startCreate(ctx, ev, FlowCreateOffer)
	case "addsource":
		e.startCreate(ctx, ev, FlowCreateSource)
	case "analyze":
		e.startAnalysis(ctx, ev)
	case "report":
		e.startReport(ctx, ev)
	case "summary":
		e.runSummary(ctx, ev)
	case "grant_admin":
		e.grantAdmin(ctx, ev)
	default:
		e.send(ev.ChatID, "❓ Unknown command. Type /help to see all available commands.")
	}
}

func (e *Engine) handleStart(ctx context.Context, ev Event) {
	if err := e.store.CreateUser(ctx, ev.UserID, ev.Username, repo.RolePartner); err != nil {
		// Duplicate identities are swallowed by the store; anything else is
		// logged and the greeting still goes out.
		e.logger.Warn("register user failed", "error", err, "user_id", ev.UserID)
	}
	e.send(ev.ChatID, "👋 Hello! I'm your Affiliate Marketing Assistant.\n"+
		"I can help you manage partner campaigns, offers and analyze performance.\n\n"+
		"🔍 Type /help to see all available commands and their descriptions.")
}

// cancel clears the draft from any state and returns the user to idle. It must
// stay reachable from every workflow state.
func (e *Engine) cancel(ev Event) {
	session := e.sessions.get(ev.UserID)
	if session == nil {
		e.send(ev.ChatID, "Nothing to cancel.")
		return
	}
	e.sessions.drop(ev.UserID)
	e.countWorkflow(string(session.Flow), "cancelled")
	e.send(ev.ChatID, "❌ Operation cancelled.")
}

func (e *Engine) isAdmin(ctx context.Context, userID int64) bool {
	role, err := e.store.GetUserRole(ctx, userID)
	if err != nil {
		e.logger.Error("get user role failed", "error", err, "user_id", userID)
		return false
	}
	return role == repo.RoleAdmin
}

func (e *Engine) grantAdmin(ctx context.Context, ev Event) {
	if !e.isAdmin(ctx, ev.UserID) {
		e.send(ev.ChatID, permissionDenied)
		return
	}
	if ev.Args == "" {
		e.send(ev.ChatID, "Usage: /grant_admin @username")
		return
	}
	affected, err := e.store.SetUserRole(ctx, ev.Args, repo.RoleAdmin)
	if err != nil {
		e.logger.Error("grant admin failed", "error", err, "username", ev.Args)
		e.send(ev.ChatID, "❌ Failed to update the user role.")
		return
	}
	if !affected {
		e.send(ev.ChatID, "❌ User not found.")
		return
	}
	e.send(ev.ChatID, "✅ User "+ev.Args+" has been granted admin rights.")
}

func (e *Engine) acquireUser(userID int64) *userLock {
	e.lockMu.Lock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &userLock{}
		e.userLocks[userID] = lock
	}
	lock.refs++
	e.lockMu.Unlock()

	lock.mu.Lock()
	return lock
}

func (e *Engine) releaseUser(userID int64, lock *userLock) {
	lock.mu.Unlock()
	e.lockMu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(e.userLocks, userID)
	}
	e.lockMu.Unlock()
}

func (e *Engine) send(chatID int64, text string) {
	if err := e.responder.SendText(chatID, text); err != nil {
		e.logger.Error("send message failed", "error", err, "chat_id", chatID)
		e.countError()
	}
}

func (e *Engine) sendMenu(chatID int64, text string, rows [][]Button) {
	if err := e.responder.SendMenu(chatID, text, rows); err != nil {
		e.logger.Error("send menu failed", "error", err, "chat_id", chatID)
		e.countError()
	}
}

func (e *Engine) countWorkflow(kind, outcome string) {
	if e.metrics != nil {
		e.metrics.Workflows.WithLabelValues(kind, outcome).Inc()
	}
}

func (e *Engine) countError() {
	if e.metrics != nil {
		e.metrics.Errors.WithLabelValues("convo").Inc()
	}
}

const permissionDenied = "🚫 You don't have permission to perform this action."

const helpText = `📚 Available Commands:
/start - Start working with bot
/help - Help information
/offers - List of offers
/sources - List of traffic sources
/report - Generate report with offer selection
/summary - Marketing summary PDF
/analyze - Analytics and forecasting
/cancel - Cancel current operation

👨💻 Admin Commands:
/addoffer - Add new offer
/addsource - Add new traffic source
/grant_admin @user - Grant admin rights`
