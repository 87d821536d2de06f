package convo

import (
	"fmt"
	"sync"
	"time"

	"affibot/internal/analytics"
	"affibot/internal/repo"
)

// Flow names an active workflow kind.
type Flow string

const (
	FlowCreateOffer  Flow = "create_offer"
	FlowCreateSource Flow = "create_source"
	FlowEditOffer    Flow = "edit_offer"
	FlowEditSource   Flow = "edit_source"
	FlowAnalysis     Flow = "analysis"
	FlowReport       Flow = "report"
)

type editStage int

const (
	editStageMenu editStage = iota
	editStageInput
)

type analysisStage int

const (
	anStageKind analysisStage = iota
	anStageOffer
	anStageDates
	anStageSourceChoice
	anStageMediaSource
	anStageConfirm
)

type analysisState struct {
	Stage       analysisStage
	Kind        analytics.Kind
	OfferID     int64
	From        time.Time
	To          time.Time
	MediaSource string // empty means all sources
}

type reportStage int

const (
	repStageKind reportStage = iota
	repStageEventChoice
	repStageEventName
	repStageFields
	repStageCustomFields
	repStageDates
	repStageOffer
)

type reportState struct {
	Stage            reportStage
	Kind             string // installs | events | post_attribution | summary
	EventName        string // manual event override, empty uses the offer's
	AdditionalFields string // "", "all", or comma-separated custom list
	From             time.Time
	To               time.Time
}

// Session is the per-user draft context of one active workflow. A user has at
// most one session; it lives from the starting command until commit or cancel.
type Session struct {
	UserID int64
	ChatID int64
	Flow   Flow

	// linear creation flows
	Step  int
	Draft map[string]any

	// edit menu loop
	EditID         int64
	EditStage      editStage
	EditField      *Field
	OfferSnapshot  *repo.Offer
	SourceSnapshot *repo.TrafficSource

	Analysis *analysisState
	Report   *reportState
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*Session)}
}

func (s *sessionStore) get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// start registers a new session. A user may only hold one draft at a time;
// starting another workflow while one is active is rejected, not overwritten.
func (s *sessionStore) start(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[session.UserID]; ok {
		return fmt.Errorf("workflow %s already in progress", existing.Flow)
	}
	s.sessions[session.UserID] = session
	return nil
}

func (s *sessionStore) drop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
