package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Risk levels of the AI analysis path. Three-level, unlike the binary rule
// engine.
const (
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
)

// Analysis record statuses. A missing record means generation is pending;
// rows are written once with their terminal status and never updated.
const (
	AnalysisPending = "PENDING"
	AnalysisReady   = "READY"
	AnalysisFailed  = "FAILED"
)

const maxRecommendations = 5

const fallbackSummaryPlaceholder = "Analysis completed. Please review individual responses."

// ErrDuplicateAnalysis is returned by stores when the UNIQUE(session_id)
// constraint rejects a second analysis for the same session. The constraint,
// not the existence check, is what enforces the at-most-one invariant.
var ErrDuplicateAnalysis = errors.New("analysis already exists for session")

// Analysis is the risk verdict for a session. At most one per session.
type Analysis struct {
	ID              string
	SessionID       string
	RiskLevel       string
	RiskScore       float64
	Summary         string
	Recommendations []string
	Model           string
	Provider        string
	Status          string
	CreatedAt       time.Time
}

// RiskAnalyzer produces a single JSON object verdict from a prompt. The Groq
// client implements it; tests substitute fakes.
type RiskAnalyzer interface {
	CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error)
	Model() string
	Provider() string
}

type AnalysisStore interface {
	GetSession(id string) (*Session, error)
	ListSessionResponses(sessionID string) ([]*SessionResponse, error)
	GetAnalysisBySession(sessionID string) (*Analysis, error)
	InsertAnalysis(a *Analysis) (*Analysis, error)
}

// AnalysisService generates the AI risk verdict for completed sessions,
// falling back to a deterministic concern-rate analysis when the remote
// analyzer is unavailable or misbehaves.
type AnalysisService struct {
	store    AnalysisStore
	analyzer RiskAnalyzer
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
}

func NewAnalysisService(store AnalysisStore, analyzer RiskAnalyzer, log *zap.Logger) *AnalysisService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisService{
		store:    store,
		analyzer: analyzer,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
	}
}

// Generate creates the analysis for a completed session. A second call for
// the same session returns the existing record unchanged. Concurrent calls
// are resolved by the storage layer's uniqueness constraint.
func (s *AnalysisService) Generate(ctx context.Context, sessionID string) (*Analysis, error) {
	if sessionID == "" {
		return nil, NewInvalidError("session_id required")
	}
	existing, err := s.store.GetAnalysisBySession(sessionID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening analysis: " + err.Error())
	}
	if existing != nil {
		return existing, nil
	}

	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening session: " + err.Error())
	}
	if sess == nil {
		return nil, NewNotFoundError("screening session not found")
	}
	if sessionStatusRank[sess.Status] < sessionStatusRank[SessionCompleted] {
		return nil, NewPreconditionError("screening session is not completed yet")
	}

	responses, err := s.store.ListSessionResponses(sessionID)
	if err != nil {
		return nil, NewUpstreamError("failed to fetch screening responses: " + err.Error())
	}
	if len(responses) == 0 {
		return nil, NewPreconditionError("no responses found for screening session")
	}

	result := s.analyze(ctx, responses, sess.ChildAgeMonths)

	a := &Analysis{
		ID:              s.idGen(),
		SessionID:       sessionID,
		RiskLevel:       result.RiskLevel,
		RiskScore:       result.RiskScore,
		Summary:         result.Summary,
		Recommendations: result.Recommendations,
		Model:           result.Model,
		Provider:        result.Provider,
		Status:          AnalysisReady,
		CreatedAt:       s.now(),
	}
	stored, err := s.store.InsertAnalysis(a)
	if errors.Is(err, ErrDuplicateAnalysis) {
		// lost the race; the winner's record is authoritative
		winner, rerr := s.store.GetAnalysisBySession(sessionID)
		if rerr != nil || winner == nil {
			return nil, NewUpstreamError("failed to save screening analysis: " + err.Error())
		}
		return winner, nil
	}
	if err != nil {
		return nil, NewUpstreamError("failed to save screening analysis: " + err.Error())
	}
	if stored != nil {
		return stored, nil
	}
	return a, nil
}

// MarkFailed records a terminal FAILED analysis after the background worker
// exhausts its retries. A concurrent successful insert wins.
func (s *AnalysisService) MarkFailed(sessionID, reason string) error {
	a := &Analysis{
		ID:        s.idGen(),
		SessionID: sessionID,
		Summary:   reason,
		Status:    AnalysisFailed,
		CreatedAt: s.now(),
	}
	if _, err := s.store.InsertAnalysis(a); err != nil && !errors.Is(err, ErrDuplicateAnalysis) {
		return NewUpstreamError("failed to record analysis failure: " + err.Error())
	}
	return nil
}

// analysisResult is the normalized verdict regardless of origin.
type analysisResult struct {
	RiskLevel       string
	RiskScore       float64
	Summary         string
	Recommendations []string
	Model           string
	Provider        string
}

// analyze calls the remote analyzer and normalizes its verdict. Any failure
// of the remote path resolves to the deterministic local fallback; this is
// the terminal error boundary for the component.
func (s *AnalysisService) analyze(ctx context.Context, responses []*SessionResponse, childAgeMonths int) analysisResult {
	concerns, total, concernRate := concernStats(responses)

	if s.analyzer == nil {
		return fallbackAnalysis(concerns, total, concernRate)
	}

	raw, err := s.analyzer.CompleteJSON(ctx, analysisSystemPrompt, buildAnalysisPrompt(responses, childAgeMonths, concerns, total, concernRate))
	if err != nil {
		s.log.Warn("remote analysis failed, using fallback", zap.Error(err))
		return fallbackAnalysis(concerns, total, concernRate)
	}

	// Fields are decoded leniently and normalized one by one: a field of the
	// wrong type gets its default while the rest of the verdict is kept.
	// Only a body that is not a JSON object at all falls back wholesale.
	var parsed struct {
		RiskLevel       json.RawMessage `json:"riskLevel"`
		RiskScore       json.RawMessage `json:"riskScore"`
		Summary         json.RawMessage `json:"summary"`
		Recommendations json.RawMessage `json:"recommendations"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.log.Warn("malformed analysis response, using fallback", zap.Error(err))
		return fallbackAnalysis(concerns, total, concernRate)
	}

	out := analysisResult{Model: s.analyzer.Model(), Provider: s.analyzer.Provider()}

	switch level := asJSONString(parsed.RiskLevel); level {
	case RiskLow, RiskModerate, RiskHigh:
		out.RiskLevel = level
	default:
		out.RiskLevel = RiskModerate
	}

	var score float64
	if err := json.Unmarshal(parsed.RiskScore, &score); err == nil {
		out.RiskScore = clampScore(score)
	} else {
		// absent or non-numeric
		out.RiskScore = concernRate
	}

	if summary := strings.TrimSpace(asJSONString(parsed.Summary)); summary != "" {
		out.Summary = summary
	} else {
		out.Summary = fallbackSummaryPlaceholder
	}

	var recs []json.RawMessage
	if err := json.Unmarshal(parsed.Recommendations, &recs); err != nil {
		recs = nil // absent or not an array: no recommendations
	}
	for _, rec := range recs {
		var str string
		if err := json.Unmarshal(rec, &str); err != nil {
			continue // non-string entries are dropped
		}
		out.Recommendations = append(out.Recommendations, str)
		if len(out.Recommendations) == maxRecommendations {
			break
		}
	}
	return out
}

// asJSONString decodes a raw value as a string, returning "" for absent or
// non-string values.
func asJSONString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func concernStats(responses []*SessionResponse) (concerns, total int, rate float64) {
	total = len(responses)
	for _, r := range responses {
		if r.ResponseValue == ResponseNo {
			concerns++
		}
	}
	if total > 0 {
		rate = float64(concerns) / float64(total) * 100
	}
	return concerns, total, rate
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// fallbackAnalysis recomputes the verdict purely from the concern rate using
// two thresholds. It never fails.
func fallbackAnalysis(concerns, total int, concernRate float64) analysisResult {
	level := RiskLow
	advice := "Continue monitoring normal development."
	switch {
	case concernRate > 50:
		level = RiskHigh
		advice = "Consider professional evaluation."
	case concernRate > 25:
		level = RiskModerate
		advice = "Monitor development and consider early intervention."
	}
	return analysisResult{
		RiskLevel: level,
		RiskScore: concernRate,
		Summary:   fmt.Sprintf("Screening completed. %d out of %d milestones not yet achieved. %s", concerns, total, advice),
		Recommendations: []string{
			"Continue regular developmental monitoring",
			"Engage in age-appropriate activities",
			"Consult with pediatrician if concerns persist",
		},
		Model:    "rule-fallback",
		Provider: "local",
	}
}

const analysisSystemPrompt = "You are a pediatric developmental screening AI assistant. Analyze Denver II screening results and provide risk assessment with actionable recommendations."

func achievementStatus(responseValue string) string {
	switch responseValue {
	case ResponseYes:
		return "ACHIEVED"
	case ResponseNo:
		return "NOT_ACHIEVED"
	case ResponseSometimes:
		return "PARTIAL"
	}
	return "NOT_APPLICABLE"
}

// buildAnalysisPrompt embeds every response with its catalog metadata plus
// the precomputed concern statistics. The output is deterministic for a
// given response list.
func buildAnalysisPrompt(responses []*SessionResponse, childAgeMonths, concerns, total int, concernRate float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a pediatric developmental screening AI assistant analyzing Denver II screening results.\n\n")
	fmt.Fprintf(&b, "Child Age: %d months\n\nScreening Responses:\n", childAgeMonths)
	for _, r := range responses {
		fmt.Fprintf(&b, "- %s: %s (Expected at %d months) - %s\n",
			strings.ToUpper(string(r.Category)), r.QuestionText, r.MilestoneAgeMonth, achievementStatus(r.ResponseValue))
	}
	fmt.Fprintf(&b, "\nTotal Questions: %d\nConcerns (Not Achieved): %d\nConcern Rate: %.1f%%\n\n", total, concerns, concernRate)
	b.WriteString(`Please analyze these screening results and provide:
1. Risk Level: LOW, MODERATE, or HIGH
2. Risk Score: A number from 0-100
3. Summary: A brief 2-3 sentence summary of the child's developmental status
4. Recommendations: A JSON array of 3-5 specific, actionable recommendations (strings)

Respond in the following JSON format:
{
  "riskLevel": "LOW" | "MODERATE" | "HIGH",
  "riskScore": <number 0-100>,
  "summary": "<2-3 sentence summary>",
  "recommendations": ["<recommendation 1>", "<recommendation 2>", ...]
}

Be professional, supportive, and evidence-based. Remember that developmental milestones have a range, and some variation is normal.`)
	return b.String()
}
