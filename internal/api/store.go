package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/rezapearce/kiddyguard-solana-zcash/internal/services"
)

// MemoryStore is the in-memory Store used by tests and by the server when no
// sqlite path is configured. It mirrors the sqlite store's behavior,
// including the uniqueness constraint on analyses.
type MemoryStore struct {
	mu             sync.RWMutex
	screenings     []*services.Screening
	sessions       map[string]*services.Session
	sessionOrder   []string
	responses      []*services.SessionResponse
	analyses       map[string]*services.Analysis // keyed by session id
	paymentIntents map[string]*services.PaymentIntent
	reviews        map[string]*services.ClinicalReview
	usersByEmail   map[string]*services.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:       map[string]*services.Session{},
		analyses:       map[string]*services.Analysis{},
		paymentIntents: map[string]*services.PaymentIntent{},
		reviews:        map[string]*services.ClinicalReview{},
		usersByEmail:   map[string]*services.User{},
	}
}

// --- screenings (legacy single-shot rows) ---

func (s *MemoryStore) InsertScreening(sc *services.Screening) (*services.Screening, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sc
	s.screenings = append(s.screenings, &cp)
	return &cp, nil
}

func (s *MemoryStore) ListFamilyScreenings(familyID string) ([]*services.Screening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Screening{}
	for _, sc := range s.screenings {
		if sc.FamilyID == familyID {
			out = append(out, sc)
		}
	}
	sortScreeningsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListScreenings() ([]*services.Screening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]*services.Screening(nil), s.screenings...)
	sortScreeningsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) GetScreening(id string) (*services.Screening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.screenings {
		if sc.ID == id {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, nil
}

func sortScreeningsNewestFirst(out []*services.Screening) {
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
}

// --- sessions ---

func (s *MemoryStore) InsertSession(sess *services.Session) (*services.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[cp.ID] = &cp
	s.sessionOrder = append(s.sessionOrder, cp.ID)
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetSession(id string) (*services.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) UpdateSessionStatus(id, status string, paymentIntentID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return services.NewNotFoundError("screening session not found")
	}
	sess.Status = status
	if paymentIntentID != nil {
		sess.PaymentIntentID = *paymentIntentID
	}
	return nil
}

func (s *MemoryStore) ListFamilySessions(familyID string) ([]*services.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Session{}
	// iterate newest-first over insertion order
	for i := len(s.sessionOrder) - 1; i >= 0; i-- {
		sess := s.sessions[s.sessionOrder[i]]
		if sess != nil && sess.FamilyID == familyID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListSessionsByPaymentIntent(intentID string) ([]*services.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Session{}
	for _, id := range s.sessionOrder {
		sess := s.sessions[id]
		if sess != nil && sess.PaymentIntentID == intentID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- session responses ---

func (s *MemoryStore) InsertResponse(r *services.SessionResponse) (*services.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.responses = append(s.responses, &cp)
	out := cp
	return &out, nil
}

func (s *MemoryStore) ListSessionResponses(sessionID string) ([]*services.SessionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.SessionResponse{}
	for _, r := range s.responses {
		if r.SessionID == sessionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- analyses ---

func (s *MemoryStore) GetAnalysisBySession(sessionID string) (*services.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) InsertAnalysis(a *services.Analysis) (*services.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.analyses[a.SessionID]; exists {
		return nil, services.ErrDuplicateAnalysis
	}
	cp := *a
	s.analyses[cp.SessionID] = &cp
	out := cp
	return &out, nil
}

// --- payment intents ---

func (s *MemoryStore) InsertPaymentIntent(pi *services.PaymentIntent) (*services.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pi
	s.paymentIntents[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetPaymentIntent(id string) (*services.PaymentIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pi, ok := s.paymentIntents[id]
	if !ok {
		return nil, nil
	}
	cp := *pi
	return &cp, nil
}

func (s *MemoryStore) UpdatePaymentIntentStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.paymentIntents[id]
	if !ok {
		return services.NewNotFoundError("payment intent not found")
	}
	pi.Status = status
	return nil
}

func (s *MemoryStore) ListPaymentIntents() ([]*services.PaymentIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.PaymentIntent, 0, len(s.paymentIntents))
	for _, pi := range s.paymentIntents {
		cp := *pi
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListSettledScreeningIntents() ([]*services.PaymentIntent, error) {
	all, _ := s.ListPaymentIntents()
	out := []*services.PaymentIntent{}
	for _, pi := range all {
		if pi.Status == services.IntentSettled && pi.ScreeningID != "" {
			out = append(out, pi)
		}
	}
	return out, nil
}

// --- clinical reviews ---

func (s *MemoryStore) InsertClinicalReview(cr *services.ClinicalReview) (*services.ClinicalReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cr
	s.reviews[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetClinicalReview(id string) (*services.ClinicalReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cr, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *cr
	return &cp, nil
}

func (s *MemoryStore) ListClinicalReviews() ([]*services.ClinicalReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.ClinicalReview, 0, len(s.reviews))
	for _, cr := range s.reviews {
		cp := *cr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- clinic staff ---

func (s *MemoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usersByEmail[strings.ToLower(cp.Email)] = &cp
	return nil
}

func (s *MemoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}
