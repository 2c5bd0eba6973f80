package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payment intent statuses. SETTLED is the terminal success state that makes
// a screening clinic-visible.
const (
	IntentPending = "PENDING"
	IntentSettled = "SETTLED"
	IntentFailed  = "FAILED"
)

// PaymentIntent links a payment to a screening without exposing the payer
// to the clinic side.
type PaymentIntent struct {
	ID          string
	UserID      string
	FamilyID    string
	ClinicID    string
	ScreeningID string // optional link to a legacy screening row
	Amount      int
	Method      string
	Status      string
	CreatedAt   time.Time
}

type PaymentStore interface {
	InsertPaymentIntent(pi *PaymentIntent) (*PaymentIntent, error)
	GetPaymentIntent(id string) (*PaymentIntent, error)
	UpdatePaymentIntentStatus(id, status string) error
	ListSessionsByPaymentIntent(intentID string) ([]*Session, error)
	UpdateSessionStatus(id, status string, paymentIntentID *string) error
}

// PaymentService owns payment-intent creation and the settlement callback.
type PaymentService struct {
	store PaymentStore
	log   *zap.Logger
	now   func() time.Time
	idGen func() string
}

func NewPaymentService(store PaymentStore, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

// CreateIntent opens a PENDING payment intent.
func (s *PaymentService) CreateIntent(userID, familyID, clinicID string, amount int, method string) (*PaymentIntent, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(familyID) == "" || strings.TrimSpace(clinicID) == "" {
		return nil, NewInvalidError("user_id, family_id and clinic_id required")
	}
	if amount <= 0 {
		return nil, NewInvalidError("amount must be positive")
	}
	pi := &PaymentIntent{
		ID:        s.idGen(),
		UserID:    userID,
		FamilyID:  familyID,
		ClinicID:  clinicID,
		Amount:    amount,
		Method:    method,
		Status:    IntentPending,
		CreatedAt: s.now(),
	}
	stored, err := s.store.InsertPaymentIntent(pi)
	if err != nil {
		return nil, NewUpstreamError("failed to create payment intent: " + err.Error())
	}
	if stored != nil {
		pi = stored
	}
	return pi, nil
}

// Settle marks an intent SETTLED and advances any session linked to it from
// PAYMENT_PENDING to PAID. Settling an already settled intent is a no-op.
func (s *PaymentService) Settle(intentID string) (*PaymentIntent, error) {
	if intentID == "" {
		return nil, NewInvalidError("intent_id required")
	}
	pi, err := s.store.GetPaymentIntent(intentID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch payment intent: " + err.Error())
	}
	if pi == nil {
		return nil, NewNotFoundError("payment intent not found")
	}
	if pi.Status == IntentSettled {
		return pi, nil
	}
	if err := s.store.UpdatePaymentIntentStatus(intentID, IntentSettled); err != nil {
		return nil, NewUpstreamError("failed to settle payment intent: " + err.Error())
	}
	pi.Status = IntentSettled

	sessions, err := s.store.ListSessionsByPaymentIntent(intentID)
	if err != nil {
		// the settlement itself succeeded; session advancement is repairable
		s.log.Error("failed to list sessions for settled intent", zap.String("intent_id", intentID), zap.Error(err))
		return pi, nil
	}
	for _, sess := range sessions {
		if sess.Status != SessionPaymentPending {
			continue
		}
		if err := s.store.UpdateSessionStatus(sess.ID, SessionPaid, nil); err != nil {
			s.log.Error("failed to advance session to PAID", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	return pi, nil
}
