package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClinicalReview is a pediatrician's recorded judgment on a screening. Its
// existence removes the screening from the reviewer queue; its content hash
// binds the review to the screening for later verification.
type ClinicalReview struct {
	ID              string
	ScreeningID     string
	ReviewerID      string
	FinalDiagnosis  string
	Recommendations string
	RiskLevel       string
	SocialScore     int
	FineMotorScore  int
	LanguageScore   int
	GrossMotorScore int
	ContentHash     string
	ReviewedAt      time.Time
}

type ReviewStore interface {
	GetScreening(id string) (*Screening, error)
	InsertClinicalReview(cr *ClinicalReview) (*ClinicalReview, error)
	GetClinicalReview(id string) (*ClinicalReview, error)
}

type ReviewService struct {
	store ReviewStore
	now   func() time.Time
	idGen func() string
}

// ReviewInput carries the reviewer's judgment. Nil scores default to 0 in
// the content hash, matching the digest contract.
type ReviewInput struct {
	ScreeningID     string
	FinalDiagnosis  string
	Recommendations string
	RiskLevel       string
	SocialScore     *int
	FineMotorScore  *int
	LanguageScore   *int
	GrossMotorScore *int
}

func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

func validClinicalRiskLevel(v string) bool {
	switch v {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// Submit records a clinical review with its content hash.
func (s *ReviewService) Submit(reviewerID string, in ReviewInput) (*ClinicalReview, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return nil, NewUnauthorizedError("reviewer required")
	}
	if strings.TrimSpace(in.ScreeningID) == "" {
		return nil, NewInvalidError("screening_id required")
	}
	if !validClinicalRiskLevel(in.RiskLevel) {
		return nil, NewInvalidError("risk_level must be LOW, MODERATE or HIGH")
	}
	sc, err := s.store.GetScreening(in.ScreeningID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening: " + err.Error())
	}
	if sc == nil {
		return nil, NewNotFoundError("screening not found")
	}

	reviewedAt := s.now()
	cr := &ClinicalReview{
		ID:              s.idGen(),
		ScreeningID:     in.ScreeningID,
		ReviewerID:      reviewerID,
		FinalDiagnosis:  strings.TrimSpace(in.FinalDiagnosis),
		Recommendations: strings.TrimSpace(in.Recommendations),
		RiskLevel:       in.RiskLevel,
		ReviewedAt:      reviewedAt,
	}
	if in.SocialScore != nil {
		cr.SocialScore = *in.SocialScore
	}
	if in.FineMotorScore != nil {
		cr.FineMotorScore = *in.FineMotorScore
	}
	if in.LanguageScore != nil {
		cr.LanguageScore = *in.LanguageScore
	}
	if in.GrossMotorScore != nil {
		cr.GrossMotorScore = *in.GrossMotorScore
	}
	cr.ContentHash = GenerateReviewHash(reviewHashData(cr))

	stored, err := s.store.InsertClinicalReview(cr)
	if err != nil {
		return nil, NewUpstreamError("failed to save clinical review: " + err.Error())
	}
	if stored != nil {
		cr = stored
	}
	return cr, nil
}

// VerifyStored recomputes a stored review's digest and reports whether it
// still matches the recorded hash.
func (s *ReviewService) VerifyStored(reviewID string) (bool, error) {
	if strings.TrimSpace(reviewID) == "" {
		return false, NewInvalidError("review_id required")
	}
	cr, err := s.store.GetClinicalReview(reviewID)
	if err != nil {
		return false, NewUpstreamError("failed to fetch clinical review: " + err.Error())
	}
	if cr == nil {
		return false, NewNotFoundError("clinical review not found")
	}
	return VerifyReviewHash(reviewHashData(cr), cr.ContentHash), nil
}

func reviewHashData(cr *ClinicalReview) ClinicalReviewHashData {
	return ClinicalReviewHashData{
		ScreeningID:     cr.ScreeningID,
		ReviewID:        cr.ID,
		FinalDiagnosis:  &cr.FinalDiagnosis,
		Recommendations: &cr.Recommendations,
		SocialScore:     &cr.SocialScore,
		FineMotorScore:  &cr.FineMotorScore,
		LanguageScore:   &cr.LanguageScore,
		GrossMotorScore: &cr.GrossMotorScore,
		ReviewedAt:      cr.ReviewedAt.UTC().Format(time.RFC3339),
	}
}
