package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Screening is the legacy single-submission representation: one row with the
// embedded answer array and rule-engine verdict. It coexists with the
// session-based representation and the two are deliberately not unified.
type Screening struct {
	ID             string
	FamilyID       string
	ChildName      string
	ChildAgeMonths int
	Answers        []ScoredAnswer
	AIRiskScore    int
	AISummary      string
	Status         string
	CreatedAt      time.Time
}

// ScreeningStatusPendingReview is the initial status of a submitted screening.
const ScreeningStatusPendingReview = "PENDING_REVIEW"

type ScreeningStore interface {
	InsertScreening(sc *Screening) (*Screening, error)
	ListFamilyScreenings(familyID string) ([]*Screening, error)
}

// ScreeningService hosts the single-shot screening workflow: rule-engine
// scoring plus persistence of the verdict.
type ScreeningService struct {
	store ScreeningStore
	log   *zap.Logger
	now   func() time.Time
	idGen func() string
}

type SubmitScreeningResult struct {
	ScreeningID string
	RiskLevel   RuleRiskLevel
	RiskScore   int
	Summary     string
}

func NewScreeningService(store ScreeningStore, log *zap.Logger) *ScreeningService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScreeningService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

// Submit validates the input, scores the answers with the rule engine and
// persists the screening. Not-applicable answers must be excluded by the
// caller; the answers map carries only achieved/not-achieved.
func (s *ScreeningService) Submit(familyID, childName string, ageMonths int, answers map[string]bool) (*SubmitScreeningResult, error) {
	if strings.TrimSpace(familyID) == "" || strings.TrimSpace(childName) == "" {
		return nil, NewInvalidError("family_id and child_name required")
	}
	if ageMonths < 0 || ageMonths > 36 {
		return nil, NewInvalidError("child_age_months must be within 0-36")
	}

	verdict, err := ScoreAnswers(answers)
	if err != nil {
		return nil, err
	}
	for _, id := range verdict.DroppedIDs {
		s.log.Warn("dropping answer for unknown question", zap.String("question_id", id))
	}

	sc := &Screening{
		ID:             s.idGen(),
		FamilyID:       familyID,
		ChildName:      strings.TrimSpace(childName),
		ChildAgeMonths: ageMonths,
		Answers:        verdict.Answers,
		AIRiskScore:    verdict.Score,
		AISummary:      verdict.Summary,
		Status:         ScreeningStatusPendingReview,
		CreatedAt:      s.now(),
	}
	stored, err := s.store.InsertScreening(sc)
	if err != nil {
		return nil, NewUpstreamError("failed to save screening: " + err.Error())
	}
	if stored != nil {
		sc = stored
	}
	return &SubmitScreeningResult{
		ScreeningID: sc.ID,
		RiskLevel:   verdict.Level,
		RiskScore:   verdict.Score,
		Summary:     verdict.Summary,
	}, nil
}

// FamilyScreenings lists a family's screenings, newest first.
func (s *ScreeningService) FamilyScreenings(familyID string) ([]*Screening, error) {
	if strings.TrimSpace(familyID) == "" {
		return nil, NewInvalidError("family_id required")
	}
	out, err := s.store.ListFamilyScreenings(familyID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screenings: " + err.Error())
	}
	return out, nil
}
