package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session lifecycle states. Status only ever advances; PAID is reached via
// the payment settlement callback.
const (
	SessionInProgress     = "IN_PROGRESS"
	SessionCompleted      = "COMPLETED"
	SessionPaymentPending = "PAYMENT_PENDING"
	SessionPaid           = "PAID"
)

var sessionStatusRank = map[string]int{
	SessionInProgress:     0,
	SessionCompleted:      1,
	SessionPaymentPending: 2,
	SessionPaid:           3,
}

// Response values accepted for a session response.
const (
	ResponseYes           = "yes"
	ResponseNo            = "no"
	ResponseSometimes     = "sometimes"
	ResponseNotApplicable = "not_applicable"
)

func validResponseValue(v string) bool {
	switch v {
	case ResponseYes, ResponseNo, ResponseSometimes, ResponseNotApplicable:
		return true
	}
	return false
}

// Session is one questionnaire pass for a child.
type Session struct {
	ID              string
	FamilyID        string
	ChildName       string
	ChildAgeMonths  int
	AgeBand         string
	Status          string
	PaymentIntentID string
	CreatedAt       time.Time
}

// SessionResponse is one answer to one catalog question within a session.
// The question text is snapshotted at save time.
type SessionResponse struct {
	ID                string
	SessionID         string
	QuestionID        string
	QuestionText      string
	Category          Category
	ResponseValue     string
	MilestoneAgeMonth int
	CreatedAt         time.Time
}

type SessionStore interface {
	InsertSession(s *Session) (*Session, error)
	GetSession(id string) (*Session, error)
	UpdateSessionStatus(id, status string, paymentIntentID *string) error
	ListFamilySessions(familyID string) ([]*Session, error)
	InsertResponse(r *SessionResponse) (*SessionResponse, error)
	ListSessionResponses(sessionID string) ([]*SessionResponse, error)
	GetAnalysisBySession(sessionID string) (*Analysis, error)
}

// PaymentIntentCreator is the slice of the payment subsystem the session
// workflow needs: creating an intent for a completed screening.
type PaymentIntentCreator interface {
	CreateIntent(userID, familyID, clinicID string, amount int, method string) (*PaymentIntent, error)
}

// AnalysisDispatcher hands analysis generation to a background worker; the
// call must not block and must not fail completion.
type AnalysisDispatcher interface {
	Enqueue(sessionID string)
}

// Screening payments are addressed to a single configured clinic for now.
const defaultClinicID = "00000000-0000-0000-0000-000000000001"

const paymentMethodBalance = "USDC_BALANCE"

// SessionService sequences the session workflow: creation, response capture,
// completion, analysis dispatch, payment-intent creation.
type SessionService struct {
	store         SessionStore
	payments      PaymentIntentCreator
	dispatcher    AnalysisDispatcher
	log           *zap.Logger
	paymentAmount int
	now           func() time.Time
	idGen         func() string
}

func NewSessionService(store SessionStore, payments PaymentIntentCreator, dispatcher AnalysisDispatcher, paymentAmount int, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		store:         store,
		payments:      payments,
		dispatcher:    dispatcher,
		log:           log,
		paymentAmount: paymentAmount,
		now:           func() time.Time { return time.Now().UTC() },
		idGen:         uuid.NewString,
	}
}

// Create starts a new screening session in IN_PROGRESS.
func (s *SessionService) Create(familyID, childName string, ageMonths int) (*Session, error) {
	if strings.TrimSpace(familyID) == "" || strings.TrimSpace(childName) == "" {
		return nil, NewInvalidError("family_id and child_name required")
	}
	if ageMonths < 0 || ageMonths > 36 {
		return nil, NewInvalidError("child_age_months must be within 0-36")
	}
	sess := &Session{
		ID:             s.idGen(),
		FamilyID:       familyID,
		ChildName:      strings.TrimSpace(childName),
		ChildAgeMonths: ageMonths,
		AgeBand:        AssignBand(ageMonths),
		Status:         SessionInProgress,
		CreatedAt:      s.now(),
	}
	stored, err := s.store.InsertSession(sess)
	if err != nil {
		return nil, NewUpstreamError("failed to create screening session: " + err.Error())
	}
	if stored != nil {
		sess = stored
	}
	return sess, nil
}

// SaveResponse records one answer. Responses are only accepted while the
// session is IN_PROGRESS, and must reference a catalog question.
func (s *SessionService) SaveResponse(sessionID, questionID, responseValue string) (*SessionResponse, error) {
	if sessionID == "" || questionID == "" || responseValue == "" {
		return nil, NewInvalidError("session_id, question_id and response_value required")
	}
	if !validResponseValue(responseValue) {
		return nil, NewInvalidError("invalid response_value")
	}
	q, ok := QuestionByID(questionID)
	if !ok {
		return nil, NewInvalidError("unknown question_id")
	}
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != SessionInProgress {
		return nil, NewPreconditionError("responses are no longer accepted for this session")
	}
	resp := &SessionResponse{
		ID:                s.idGen(),
		SessionID:         sessionID,
		QuestionID:        q.ID,
		QuestionText:      q.Text,
		Category:          q.Category,
		ResponseValue:     responseValue,
		MilestoneAgeMonth: q.MilestoneAgeMonth,
		CreatedAt:         s.now(),
	}
	stored, err := s.store.InsertResponse(resp)
	if err != nil {
		return nil, NewUpstreamError("failed to save screening response: " + err.Error())
	}
	if stored != nil {
		resp = stored
	}
	return resp, nil
}

// CompleteResult reports completion. Warning carries the payment failure
// message for the documented partial-success case; the completion itself is
// still authoritative.
type CompleteResult struct {
	SessionID       string
	PaymentIntentID string
	Warning         string
}

// Complete marks the session COMPLETED, enqueues analysis generation and
// creates the screening payment intent. Completion is never rolled back by a
// payment failure. Calling Complete on an already COMPLETED session re-runs
// the downstream steps; sessions past the payment transition are rejected.
func (s *SessionService) Complete(sessionID, userID, familyID string) (*CompleteResult, error) {
	if sessionID == "" || userID == "" || familyID == "" {
		return nil, NewInvalidError("session_id, user_id and family_id required")
	}
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sessionStatusRank[sess.Status] > sessionStatusRank[SessionCompleted] {
		return nil, NewPreconditionError("session is already in payment flow")
	}
	if err := s.store.UpdateSessionStatus(sessionID, SessionCompleted, nil); err != nil {
		return nil, NewUpstreamError("failed to complete session: " + err.Error())
	}

	// fire-and-forget: analysis latency and failures never affect completion
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(sessionID)
	}

	intent, err := s.payments.CreateIntent(userID, familyID, defaultClinicID, s.paymentAmount, paymentMethodBalance)
	if err != nil {
		s.log.Error("payment intent creation failed", zap.String("session_id", sessionID), zap.Error(err))
		return &CompleteResult{
			SessionID: sessionID,
			Warning:   fmt.Sprintf("Screening completed but payment intent creation failed: %v", err),
		}, nil
	}
	if err := s.store.UpdateSessionStatus(sessionID, SessionPaymentPending, &intent.ID); err != nil {
		s.log.Error("failed to link payment intent", zap.String("session_id", sessionID), zap.Error(err))
		return &CompleteResult{
			SessionID: sessionID,
			Warning:   fmt.Sprintf("Screening completed but payment intent creation failed: %v", err),
		}, nil
	}
	return &CompleteResult{SessionID: sessionID, PaymentIntentID: intent.ID}, nil
}

// SessionResults bundles everything a results page needs. Analysis is nil
// while generation is pending or after terminal failure; AnalysisStatus
// distinguishes the two.
type SessionResults struct {
	Session        *Session
	Responses      []*SessionResponse
	Analysis       *Analysis
	AnalysisStatus string
}

func (s *SessionService) Results(sessionID string) (*SessionResults, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListSessionResponses(sessionID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening responses: " + err.Error())
	}
	analysis, err := s.store.GetAnalysisBySession(sessionID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening analysis: " + err.Error())
	}
	res := &SessionResults{Session: sess, Responses: responses, Analysis: analysis}
	switch {
	case analysis != nil:
		res.AnalysisStatus = analysis.Status
	case sessionStatusRank[sess.Status] >= sessionStatusRank[SessionCompleted]:
		res.AnalysisStatus = AnalysisPending
	}
	return res, nil
}

// FamilySessions lists a family's sessions, newest first.
func (s *SessionService) FamilySessions(familyID string) ([]*Session, error) {
	if strings.TrimSpace(familyID) == "" {
		return nil, NewInvalidError("family_id required")
	}
	out, err := s.store.ListFamilySessions(familyID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch family screening sessions: " + err.Error())
	}
	return out, nil
}

func (s *SessionService) getSession(sessionID string) (*Session, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening session: " + err.Error())
	}
	if sess == nil {
		return nil, NewNotFoundError("screening session not found")
	}
	return sess, nil
}
