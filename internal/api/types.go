package api

import (
	"time"

	"github.com/rezapearce/kiddyguard-solana-zcash/internal/services"
)

// Wire representations of the domain records. The services own the domain
// types; these carry the JSON contract.

type questionJSON struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	Category          string `json:"category"`
	AgeBand           string `json:"ageBand"`
	MilestoneAgeMonth int    `json:"milestoneAgeMonths"`
}

func toQuestionJSON(q services.Question) questionJSON {
	return questionJSON{
		ID:                q.ID,
		Text:              q.Text,
		Category:          string(q.Category),
		AgeBand:           q.AgeBand,
		MilestoneAgeMonth: q.MilestoneAgeMonth,
	}
}

type screeningJSON struct {
	ID             string                  `json:"id"`
	FamilyID       string                  `json:"familyId"`
	ChildName      string                  `json:"childName"`
	ChildAgeMonths int                     `json:"childAgeMonths"`
	Answers        []services.ScoredAnswer `json:"answers"`
	AIRiskScore    int                     `json:"aiRiskScore"`
	AISummary      string                  `json:"aiSummary"`
	Status         string                  `json:"status"`
	CreatedAt      time.Time               `json:"createdAt"`
}

func toScreeningJSON(sc *services.Screening) screeningJSON {
	return screeningJSON{
		ID:             sc.ID,
		FamilyID:       sc.FamilyID,
		ChildName:      sc.ChildName,
		ChildAgeMonths: sc.ChildAgeMonths,
		Answers:        sc.Answers,
		AIRiskScore:    sc.AIRiskScore,
		AISummary:      sc.AISummary,
		Status:         sc.Status,
		CreatedAt:      sc.CreatedAt,
	}
}

type sessionJSON struct {
	ID              string    `json:"id"`
	FamilyID        string    `json:"familyId"`
	ChildName       string    `json:"childName"`
	ChildAgeMonths  int       `json:"childAgeMonths"`
	AgeBand         string    `json:"ageBand"`
	Status          string    `json:"status"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toSessionJSON(s *services.Session) sessionJSON {
	return sessionJSON{
		ID:              s.ID,
		FamilyID:        s.FamilyID,
		ChildName:       s.ChildName,
		ChildAgeMonths:  s.ChildAgeMonths,
		AgeBand:         s.AgeBand,
		Status:          s.Status,
		PaymentIntentID: s.PaymentIntentID,
		CreatedAt:       s.CreatedAt,
	}
}

type responseJSON struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"sessionId"`
	QuestionID        string    `json:"questionId"`
	QuestionText      string    `json:"questionText"`
	Category          string    `json:"category"`
	ResponseValue     string    `json:"responseValue"`
	MilestoneAgeMonth int       `json:"milestoneAgeMonths"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toResponseJSON(r *services.SessionResponse) responseJSON {
	return responseJSON{
		ID:                r.ID,
		SessionID:         r.SessionID,
		QuestionID:        r.QuestionID,
		QuestionText:      r.QuestionText,
		Category:          string(r.Category),
		ResponseValue:     r.ResponseValue,
		MilestoneAgeMonth: r.MilestoneAgeMonth,
		CreatedAt:         r.CreatedAt,
	}
}

type analysisJSON struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	RiskLevel       string    `json:"riskLevel"`
	RiskScore       float64   `json:"riskScore"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	Model           string    `json:"model"`
	Provider        string    `json:"provider"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toAnalysisJSON(a *services.Analysis) *analysisJSON {
	if a == nil {
		return nil
	}
	return &analysisJSON{
		ID:              a.ID,
		SessionID:       a.SessionID,
		RiskLevel:       a.RiskLevel,
		RiskScore:       a.RiskScore,
		Summary:         a.Summary,
		Recommendations: a.Recommendations,
		Model:           a.Model,
		Provider:        a.Provider,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
	}
}

type paymentIntentJSON struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	FamilyID    string    `json:"familyId"`
	ClinicID    string    `json:"clinicId"`
	ScreeningID string    `json:"screeningId,omitempty"`
	Amount      int       `json:"amount"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toPaymentIntentJSON(pi *services.PaymentIntent) paymentIntentJSON {
	return paymentIntentJSON{
		ID:          pi.ID,
		UserID:      pi.UserID,
		FamilyID:    pi.FamilyID,
		ClinicID:    pi.ClinicID,
		ScreeningID: pi.ScreeningID,
		Amount:      pi.Amount,
		Method:      pi.Method,
		Status:      pi.Status,
		CreatedAt:   pi.CreatedAt,
	}
}

type reviewJSON struct {
	ID              string    `json:"id"`
	ScreeningID     string    `json:"screeningId"`
	ReviewerID      string    `json:"reviewerId"`
	FinalDiagnosis  string    `json:"finalDiagnosis"`
	Recommendations string    `json:"recommendations"`
	RiskLevel       string    `json:"riskLevel"`
	SocialScore     int       `json:"socialScore"`
	FineMotorScore  int       `json:"fineMotorScore"`
	LanguageScore   int       `json:"languageScore"`
	GrossMotorScore int       `json:"grossMotorScore"`
	ContentHash     string    `json:"contentHash"`
	ReviewedAt      time.Time `json:"reviewedAt"`
}

func toReviewJSON(cr *services.ClinicalReview) reviewJSON {
	return reviewJSON{
		ID:              cr.ID,
		ScreeningID:     cr.ScreeningID,
		ReviewerID:      cr.ReviewerID,
		FinalDiagnosis:  cr.FinalDiagnosis,
		Recommendations: cr.Recommendations,
		RiskLevel:       cr.RiskLevel,
		SocialScore:     cr.SocialScore,
		FineMotorScore:  cr.FineMotorScore,
		LanguageScore:   cr.LanguageScore,
		GrossMotorScore: cr.GrossMotorScore,
		ContentHash:     cr.ContentHash,
		ReviewedAt:      cr.ReviewedAt,
	}
}
