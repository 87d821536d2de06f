package convo

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"affibot/internal/repo"
)

type fakeStore struct {
	offers  map[int64]repo.Offer
	sources map[int64]repo.TrafficSource
	users   map[int64]repo.User
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		offers:  make(map[int64]repo.Offer),
		sources: make(map[int64]repo.TrafficSource),
		users:   make(map[int64]repo.User),
	}
}

func (s *fakeStore) Close()                                     {}
func (s *fakeStore) Ping(context.Context) error                 { return nil }
func (s *fakeStore) RunMigrations(context.Context, fs.FS) error { return nil }

func (s *fakeStore) CreateOffer(_ context.Context, offer repo.Offer) (*repo.Offer, error) {
	s.nextID++
	offer.ID = s.nextID
	s.offers[offer.ID] = offer
	return &offer, nil
}

func (s *fakeStore) ListOffers(context.Context) ([]repo.Offer, error) {
	out := make([]repo.Offer, 0, len(s.offers))
	for _, offer := range s.offers {
		out = append(out, offer)
	}
	return out, nil
}

func (s *fakeStore) GetOffer(_ context.Context, id int64) (*repo.Offer, error) {
	offer, ok := s.offers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &offer, nil
}

func (s *fakeStore) UpdateOfferField(_ context.Context, id int64, column string, value any) (bool, error) {
	offer, ok := s.offers[id]
	if !ok {
		return false, nil
	}
	switch column {
	case "name":
		offer.Name = value.(string)
	case "description":
		offer.Description = value.(string)
	case "payout":
		offer.Payout = value.(float64)
	case "geo":
		offer.Geo = value.(string)
	case "daily_limit":
		offer.DailyLimit = value.(int64)
	default:
		return false, fmt.Errorf("column not updatable: %s", column)
	}
	s.offers[id] = offer
	return true, nil
}

func (s *fakeStore) DeleteOffer(_ context.Context, id int64) (bool, error) {
	if _, ok := s.offers[id]; !ok {
		return false, nil
	}
	delete(s.offers, id)
	return true, nil
}

func (s *fakeStore) CreateSource(_ context.Context, src repo.TrafficSource) (*repo.TrafficSource, error) {
	s.nextID++
	src.ID = s.nextID
	s.sources[src.ID] = src
	return &src, nil
}

func (s *fakeStore) ListSources(context.Context) ([]repo.TrafficSource, error) {
	out := make([]repo.TrafficSource, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, src)
	}
	return out, nil
}

func (s *fakeStore) GetSource(_ context.Context, id int64) (*repo.TrafficSource, error) {
	src, ok := s.sources[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &src, nil
}

func (s *fakeStore) UpdateSourceField(_ context.Context, id int64, column string, value any) (bool, error) {
	src, ok := s.sources[id]
	if !ok {
		return false, nil
	}
	switch column {
	case "name":
		src.Name = value.(string)
	case "cost":
		src.Cost = value.(float64)
	default:
		return false, fmt.Errorf("column not updatable: %s", column)
	}
	s.sources[id] = src
	return true, nil
}

func (s *fakeStore) DeleteSource(_ context.Context, id int64) (bool, error) {
	if _, ok := s.sources[id]; !ok {
		return false, nil
	}
	delete(s.sources, id)
	return true, nil
}

func (s *fakeStore) CreateUser(_ context.Context, userID int64, username, role string) error {
	if _, ok := s.users[userID]; ok {
		return nil
	}
	s.users[userID] = repo.User{UserID: userID, Username: username, Role: role}
	return nil
}

func (s *fakeStore) GetUserRole(_ context.Context, userID int64) (string, error) {
	if user, ok := s.users[userID]; ok {
		return user.Role, nil
	}
	return repo.RolePartner, nil
}

func (s *fakeStore) SetUserRole(_ context.Context, username, role string) (bool, error) {
	username = strings.TrimPrefix(username, "@")
	for id, user := range s.users {
		if user.Username == username {
			user.Role = role
			s.users[id] = user
			return true, nil
		}
	}
	return false, nil
}

type fakeResponder struct {
	texts []string
	menus []string
}

func (r *fakeResponder) SendText(_ int64, text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *fakeResponder) SendMenu(_ int64, text string, _ [][]Button) error {
	r.menus = append(r.menus, text)
	r.texts = append(r.texts, text)
	return nil
}

func (r *fakeResponder) SendPhoto(_ int64, caption string, _ []byte) error {
	r.texts = append(r.texts, caption)
	return nil
}

func (r *fakeResponder) SendDocument(_ int64, _ string, _ []byte, caption string) error {
	r.texts = append(r.texts, caption)
	return nil
}

func (r *fakeResponder) last() string {
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

const testAdminID = int64(1)

func newTestEngine(t *testing.T) (*Engine, *fakeStore, *fakeResponder) {
	t.Helper()
	store := newFakeStore()
	store.users[testAdminID] = repo.User{UserID: testAdminID, Username: "boss", Role: repo.RoleAdmin}
	responder := &fakeResponder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, nil, responder, nil, logger), store, responder
}

func adminCommand(command string) Event {
	return Event{UserID: testAdminID, ChatID: 10, Username: "boss", Command: command}
}

func adminText(text string) Event {
	return Event{UserID: testAdminID, ChatID: 10, Username: "boss", Text: text}
}

func adminCallback(data string) Event {
	return Event{UserID: testAdminID, ChatID: 10, Username: "boss", Callback: data}
}

func TestOfferCreationFlow(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("addoffer"))
	if !strings.Contains(responder.last(), "offer name") {
		t.Fatalf("expected name prompt, got %q", responder.last())
	}

	answers := []string{
		"Super App", "Install and sign up", "2.5", "US,CA", "Games",
		"Retention D7 > 10%", "AppsFlyer", "Protect360", "com.super.app",
		"af_purchase", "500",
	}
	for _, answer := range answers {
		engine.HandleEvent(ctx, adminText(answer))
	}

	if !strings.Contains(responder.last(), "successfully added") {
		t.Fatalf("expected success message, got %q", responder.last())
	}
	if len(store.offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(store.offers))
	}
	offer := store.offers[1]
	if offer.Name != "Super App" || offer.Payout != 2.5 || offer.Geo != "US,CA" {
		t.Fatalf("unexpected offer: %+v", offer)
	}
	if offer.AppsFlyerAppID != "com.super.app" || offer.EventName != "af_purchase" || offer.DailyLimit != 500 {
		t.Fatalf("unexpected offer attribution fields: %+v", offer)
	}
}

func TestCreationRepromptsOnInvalidInput(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("addoffer"))
	engine.HandleEvent(ctx, adminText("Super App"))
	engine.HandleEvent(ctx, adminText("Some description"))

	engine.HandleEvent(ctx, adminText("not a number"))
	if !strings.Contains(responder.last(), "valid number") {
		t.Fatalf("expected payout retry, got %q", responder.last())
	}

	engine.HandleEvent(ctx, adminText("2.5"))
	if !strings.Contains(responder.last(), "GEO") {
		t.Fatalf("expected GEO prompt after valid payout, got %q", responder.last())
	}
	if len(store.offers) != 0 {
		t.Fatal("no offer should exist mid-flow")
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("addoffer"))
	engine.HandleEvent(ctx, adminText("Super App"))
	engine.HandleEvent(ctx, adminCommand("cancel"))

	if !strings.Contains(responder.last(), "cancelled") {
		t.Fatalf("expected cancellation message, got %q", responder.last())
	}
	if len(store.offers) != 0 {
		t.Fatal("cancelled draft must not be persisted")
	}

	engine.HandleEvent(ctx, adminText("Super App"))
	if !strings.Contains(responder.last(), "not supported") {
		t.Fatalf("expected idle response after cancel, got %q", responder.last())
	}
}

func TestCancelWithoutSession(t *testing.T) {
	engine, _, responder := newTestEngine(t)
	engine.HandleEvent(context.Background(), adminCommand("cancel"))
	if !strings.Contains(responder.last(), "Nothing to cancel") {
		t.Fatalf("unexpected response: %q", responder.last())
	}
}

func TestSecondWorkflowStartRejected(t *testing.T) {
	engine, _, responder := newTestEngine(t)
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("addoffer"))
	engine.HandleEvent(ctx, adminCommand("addsource"))

	if !strings.Contains(responder.last(), "Another operation is in progress") {
		t.Fatalf("expected rejection, got %q", responder.last())
	}

	// The original draft is still live and keeps consuming input.
	engine.HandleEvent(ctx, adminText("Super App"))
	if !strings.Contains(responder.last(), "description") {
		t.Fatalf("expected the offer flow to continue, got %q", responder.last())
	}
}

func TestNonAdminCannotCreate(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()

	partner := Event{UserID: 99, ChatID: 11, Username: "guest", Command: "addoffer"}
	engine.HandleEvent(ctx, partner)

	if !strings.Contains(responder.last(), "permission") {
		t.Fatalf("expected permission denial, got %q", responder.last())
	}
	engine.HandleEvent(ctx, Event{UserID: 99, ChatID: 11, Text: "Super App"})
	if len(store.offers) != 0 {
		t.Fatal("non-admin input must not create anything")
	}
}

func TestEditWritesThroughImmediately(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()
	store.offers[5] = repo.Offer{ID: 5, Name: "Old Name", Payout: 1.0}
	store.nextID = 5

	engine.HandleEvent(ctx, adminCallback("offer_edit_5"))
	if !strings.Contains(responder.last(), "Pick a field") {
		t.Fatalf("expected edit menu, got %q", responder.last())
	}

	engine.HandleEvent(ctx, adminCallback("editf_payout"))
	engine.HandleEvent(ctx, adminText("9.99"))

	if store.offers[5].Payout != 9.99 {
		t.Fatalf("payout not persisted, got %v", store.offers[5].Payout)
	}
	if !strings.Contains(responder.last(), "Pick a field") {
		t.Fatalf("expected to return to the edit menu, got %q", responder.last())
	}

	engine.HandleEvent(ctx, adminCallback("editf_name"))
	engine.HandleEvent(ctx, adminText("New Name"))
	if store.offers[5].Name != "New Name" {
		t.Fatalf("name not persisted, got %q", store.offers[5].Name)
	}

	engine.HandleEvent(ctx, adminCallback("edit_back"))
	if !strings.Contains(responder.last(), "Editing finished") {
		t.Fatalf("expected edit to finish, got %q", responder.last())
	}
}

func TestEditRejectsInvalidValue(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()
	store.offers[5] = repo.Offer{ID: 5, Name: "Old Name", Payout: 1.0}

	engine.HandleEvent(ctx, adminCallback("offer_edit_5"))
	engine.HandleEvent(ctx, adminCallback("editf_payout"))
	engine.HandleEvent(ctx, adminText("lots"))

	if store.offers[5].Payout != 1.0 {
		t.Fatalf("invalid value must not be persisted, got %v", store.offers[5].Payout)
	}
	if !strings.Contains(responder.last(), "Try again") {
		t.Fatalf("expected retry prompt, got %q", responder.last())
	}
}

func TestGrantAdmin(t *testing.T) {
	engine, store, responder := newTestEngine(t)
	ctx := context.Background()
	store.users[50] = repo.User{UserID: 50, Username: "newbie", Role: repo.RolePartner}

	ev := adminCommand("grant_admin")
	ev.Args = "@newbie"
	engine.HandleEvent(ctx, ev)

	if store.users[50].Role != repo.RoleAdmin {
		t.Fatalf("expected admin role, got %s", store.users[50].Role)
	}
	if !strings.Contains(responder.last(), "granted admin rights") {
		t.Fatalf("unexpected response: %q", responder.last())
	}
}

func TestUserLocksDoNotAccumulate(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	for id := int64(100); id < 120; id++ {
		engine.HandleEvent(ctx, Event{UserID: id, ChatID: id, Command: "help"})
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.HandleEvent(ctx, adminCommand("help"))
		}()
	}
	wg.Wait()

	engine.lockMu.Lock()
	retained := len(engine.userLocks)
	engine.lockMu.Unlock()
	if retained != 0 {
		t.Fatalf("expected no retained user locks, got %d", retained)
	}
}

func TestStartRegistersPartner(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	engine.HandleEvent(context.Background(), Event{UserID: 77, ChatID: 12, Username: "fresh", Command: "start"})

	user, ok := store.users[77]
	if !ok {
		t.Fatal("expected user to be registered")
	}
	if user.Role != repo.RolePartner {
		t.Fatalf("expected partner role, got %s", user.Role)
	}
}
