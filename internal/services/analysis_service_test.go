package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubAnalysisStore struct {
	session   *Session
	responses []*SessionResponse
	analysis  *Analysis

	insertErr error
	inserted  []*Analysis

	// raceWinner simulates a concurrent insert winning between the existence
	// check and the insert: reads after the first return it.
	raceWinner    *Analysis
	analysisReads int
}

func (s *stubAnalysisStore) GetSession(id string) (*Session, error) {
	if s.session != nil && s.session.ID == id {
		return s.session, nil
	}
	return nil, nil
}

func (s *stubAnalysisStore) ListSessionResponses(sessionID string) ([]*SessionResponse, error) {
	return s.responses, nil
}

func (s *stubAnalysisStore) GetAnalysisBySession(sessionID string) (*Analysis, error) {
	s.analysisReads++
	if s.raceWinner != nil && s.analysisReads > 1 {
		return s.raceWinner, nil
	}
	return s.analysis, nil
}

func (s *stubAnalysisStore) InsertAnalysis(a *Analysis) (*Analysis, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	cp := *a
	s.inserted = append(s.inserted, &cp)
	s.analysis = &cp
	return &cp, nil
}

type fakeAnalyzer struct {
	raw json.RawMessage
	err error
}

func (f *fakeAnalyzer) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	return f.raw, f.err
}

func (f *fakeAnalyzer) Model() string    { return "test-model" }
func (f *fakeAnalyzer) Provider() string { return "test" }

func analysisResponses(values ...string) []*SessionResponse {
	out := make([]*SessionResponse, 0, len(values))
	for i, v := range values {
		out = append(out, &SessionResponse{
			ID:                "R" + string(rune('1'+i)),
			SessionID:         "SES1",
			QuestionID:        denverQuestions[i].ID,
			QuestionText:      denverQuestions[i].Text,
			Category:          denverQuestions[i].Category,
			ResponseValue:     v,
			MilestoneAgeMonth: denverQuestions[i].MilestoneAgeMonth,
		})
	}
	return out
}

func newTestAnalysisService(store *stubAnalysisStore, analyzer RiskAnalyzer) *AnalysisService {
	svc := NewAnalysisService(store, analyzer, nil)
	svc.now = func() time.Time { return time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "AN1" }
	return svc
}

func TestGenerateAnalysisFromAnalyzer(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseYes, ResponseNo, ResponseYes),
	}
	analyzer := &fakeAnalyzer{raw: json.RawMessage(`{
		"riskLevel": "MODERATE",
		"riskScore": 42.5,
		"summary": "Some delays observed.",
		"recommendations": ["See a pediatrician", "Practice daily"]
	}`)}
	svc := newTestAnalysisService(store, analyzer)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.RiskLevel != RiskModerate || a.RiskScore != 42.5 {
		t.Fatalf("verdict = (%s, %v)", a.RiskLevel, a.RiskScore)
	}
	if a.Status != AnalysisReady || a.Model != "test-model" || a.Provider != "test" {
		t.Fatalf("record metadata = %+v", a)
	}
	if len(a.Recommendations) != 2 {
		t.Fatalf("recommendations = %v", a.Recommendations)
	}
}

func TestGenerateAnalysisNormalization(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseNo, ResponseNo, ResponseYes, ResponseYes),
	}
	analyzer := &fakeAnalyzer{raw: json.RawMessage(`{
		"riskLevel": "CRITICAL",
		"riskScore": 250,
		"summary": "   ",
		"recommendations": ["one", 2, "three", "four", "five", "six", "seven"]
	}`)}
	svc := newTestAnalysisService(store, analyzer)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.RiskLevel != RiskModerate {
		t.Fatalf("unknown level should normalize to MODERATE, got %q", a.RiskLevel)
	}
	if a.RiskScore != 100 {
		t.Fatalf("score should clamp to 100, got %v", a.RiskScore)
	}
	if a.Summary != fallbackSummaryPlaceholder {
		t.Fatalf("blank summary should use placeholder, got %q", a.Summary)
	}
	if len(a.Recommendations) != maxRecommendations {
		t.Fatalf("recommendations = %v, want %d string entries", a.Recommendations, maxRecommendations)
	}
	if a.Recommendations[1] != "three" {
		t.Fatalf("non-string entry should be dropped, got %v", a.Recommendations)
	}
}

func TestGenerateAnalysisNonNumericScoreKeepsVerdict(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseNo, ResponseNo, ResponseYes, ResponseYes),
	}
	analyzer := &fakeAnalyzer{raw: json.RawMessage(`{
		"riskLevel": "HIGH",
		"riskScore": "90",
		"summary": "Concerning results.",
		"recommendations": ["See a doctor"]
	}`)}
	svc := newTestAnalysisService(store, analyzer)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.RiskLevel != RiskHigh {
		t.Fatalf("level = %q, want HIGH kept despite the bad score", a.RiskLevel)
	}
	if a.RiskScore != 50 {
		t.Fatalf("non-numeric score should default to concern rate 50, got %v", a.RiskScore)
	}
	if a.Summary != "Concerning results." {
		t.Fatalf("summary = %q, want the analyzer's kept", a.Summary)
	}
	if a.Model != "test-model" || a.Provider != "test" {
		t.Fatalf("provenance = (%s, %s), want the analyzer's", a.Model, a.Provider)
	}
}

func TestGenerateAnalysisNonArrayRecommendations(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseNo, ResponseYes, ResponseYes, ResponseYes),
	}
	analyzer := &fakeAnalyzer{raw: json.RawMessage(`{
		"riskLevel": "LOW",
		"riskScore": 12,
		"summary": "Mostly on track.",
		"recommendations": "see a doctor"
	}`)}
	svc := newTestAnalysisService(store, analyzer)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.RiskLevel != RiskLow || a.RiskScore != 12 || a.Summary != "Mostly on track." {
		t.Fatalf("verdict = %+v, want it kept", a)
	}
	if len(a.Recommendations) != 0 {
		t.Fatalf("non-array recommendations should default to empty, got %v", a.Recommendations)
	}
	if a.Provider != "test" {
		t.Fatalf("provider = %q, want the analyzer's", a.Provider)
	}
}

func TestGenerateAnalysisMissingScore(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseNo, ResponseYes, ResponseYes, ResponseYes),
	}
	analyzer := &fakeAnalyzer{raw: json.RawMessage(`{"riskLevel": "LOW", "summary": "Fine."}`)}
	svc := newTestAnalysisService(store, analyzer)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.RiskScore != 25 {
		t.Fatalf("missing score should default to concern rate 25, got %v", a.RiskScore)
	}
}

func TestGenerateAnalysisFallback(t *testing.T) {
	cases := []struct {
		name      string
		values    []string
		wantLevel string
	}{
		{"high", []string{ResponseNo, ResponseNo, ResponseNo, ResponseYes}, RiskHigh},
		{"moderate", []string{ResponseNo, ResponseNo, ResponseYes, ResponseYes, ResponseYes}, RiskModerate},
		{"low", []string{ResponseNo, ResponseYes, ResponseYes, ResponseYes}, RiskLow},
		{"boundary 50 stays moderate", []string{ResponseNo, ResponseNo, ResponseYes, ResponseYes}, RiskModerate},
		{"boundary 25 stays low", []string{ResponseNo, ResponseYes, ResponseYes, ResponseYes}, RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubAnalysisStore{
				session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
				responses: analysisResponses(tc.values...),
			}
			svc := newTestAnalysisService(store, &fakeAnalyzer{err: errors.New("upstream timeout")})

			a, err := svc.Generate(context.Background(), "SES1")
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if a.RiskLevel != tc.wantLevel {
				t.Fatalf("level = %q, want %q", a.RiskLevel, tc.wantLevel)
			}
			if a.Model != "rule-fallback" || a.Provider != "local" {
				t.Fatalf("fallback provenance = (%s, %s)", a.Model, a.Provider)
			}
			if a.Status != AnalysisReady {
				t.Fatalf("fallback analysis must still be READY, got %q", a.Status)
			}
			if !strings.Contains(a.Summary, "milestones not yet achieved") {
				t.Fatalf("summary = %q", a.Summary)
			}
		})
	}
}

func TestGenerateAnalysisMalformedJSONFallsBack(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseYes, ResponseYes),
	}
	svc := newTestAnalysisService(store, &fakeAnalyzer{raw: json.RawMessage(`not json`)})

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.Provider != "local" {
		t.Fatalf("malformed response should fall back, got provider %q", a.Provider)
	}
}

func TestGenerateAnalysisWithoutAnalyzer(t *testing.T) {
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseYes, ResponseYes),
	}
	svc := newTestAnalysisService(store, nil)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.Provider != "local" || a.RiskLevel != RiskLow {
		t.Fatalf("expected local LOW verdict, got %+v", a)
	}
}

func TestGenerateAnalysisIdempotent(t *testing.T) {
	existing := &Analysis{ID: "AN0", SessionID: "SES1", RiskLevel: RiskLow, Status: AnalysisReady}
	store := &stubAnalysisStore{
		session:  &Session{ID: "SES1", Status: SessionCompleted},
		analysis: existing,
	}
	svc := newTestAnalysisService(store, &fakeAnalyzer{})

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.ID != "AN0" {
		t.Fatalf("existing analysis should be returned unchanged, got %+v", a)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("no insert expected, got %d", len(store.inserted))
	}
}

func TestGenerateAnalysisDuplicateRace(t *testing.T) {
	winner := &Analysis{ID: "AN0", SessionID: "SES1", RiskLevel: RiskHigh, Status: AnalysisReady}
	store := &stubAnalysisStore{
		session:   &Session{ID: "SES1", Status: SessionCompleted, ChildAgeMonths: 10},
		responses: analysisResponses(ResponseNo, ResponseNo),
		insertErr:  ErrDuplicateAnalysis,
		raceWinner: winner,
	}
	svc := newTestAnalysisService(store, nil)

	a, err := svc.Generate(context.Background(), "SES1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.ID != "AN0" {
		t.Fatalf("expected race winner's record, got %+v", a)
	}
}

func TestGenerateAnalysisPreconditions(t *testing.T) {
	store := &stubAnalysisStore{
		session: &Session{ID: "SES1", Status: SessionInProgress},
	}
	svc := newTestAnalysisService(store, nil)

	_, err := svc.Generate(context.Background(), "SES1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorPrecondition {
		t.Fatalf("expected precondition for in-progress session, got %v", err)
	}

	_, err = svc.Generate(context.Background(), "missing")
	se, ok = AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	store.session.Status = SessionCompleted
	_, err = svc.Generate(context.Background(), "SES1")
	se, ok = AsServiceError(err)
	if !ok || se.Code != ErrorPrecondition {
		t.Fatalf("expected precondition for empty responses, got %v", err)
	}
}

func TestMarkFailed(t *testing.T) {
	store := &stubAnalysisStore{}
	svc := newTestAnalysisService(store, nil)

	if err := svc.MarkFailed("SES1", "analyzer unavailable"); err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.inserted))
	}
	rec := store.inserted[0]
	if rec.Status != AnalysisFailed || rec.Summary != "analyzer unavailable" {
		t.Fatalf("failure record = %+v", rec)
	}

	// a concurrent successful insert wins silently
	store.insertErr = ErrDuplicateAnalysis
	if err := svc.MarkFailed("SES1", "analyzer unavailable"); err != nil {
		t.Fatalf("MarkFailed on duplicate should succeed: %v", err)
	}
}
