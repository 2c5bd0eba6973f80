package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/rezapearce/kiddyguard-solana-zcash/internal/api"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/services"
)

// Open opens (creating if needed) the sqlite database file.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	return sql.Open("sqlite3", dsn)
}

// SQLiteStore is the production api.Store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

var _ api.Store = (*SQLiteStore)(nil)

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// --- screenings (legacy single-shot rows) ---

func (s *SQLiteStore) InsertScreening(sc *services.Screening) (*services.Screening, error) {
	answers, err := json.Marshal(sc.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO screenings
		(id, family_id, child_name, child_age_months, answers_json, ai_risk_score, ai_summary, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.FamilyID, sc.ChildName, sc.ChildAgeMonths, string(answers), sc.AIRiskScore, sc.AISummary, sc.Status, sc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert screening: %w", err)
	}
	return sc, nil
}

const screeningColumns = `id, family_id, child_name, child_age_months, answers_json, ai_risk_score, ai_summary, status, created_at`

func scanScreening(row interface{ Scan(...any) error }) (*services.Screening, error) {
	var sc services.Screening
	var answers string
	if err := row.Scan(&sc.ID, &sc.FamilyID, &sc.ChildName, &sc.ChildAgeMonths, &answers, &sc.AIRiskScore, &sc.AISummary, &sc.Status, &sc.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &sc.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return &sc, nil
}

func (s *SQLiteStore) GetScreening(id string) (*services.Screening, error) {
	row := s.db.QueryRow(`SELECT `+screeningColumns+` FROM screenings WHERE id = ?`, id)
	sc, err := scanScreening(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get screening: %w", err)
	}
	return sc, nil
}

func (s *SQLiteStore) queryScreenings(query string, args ...any) ([]*services.Screening, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Screening{}
	for rows.Next() {
		sc, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListFamilyScreenings(familyID string) ([]*services.Screening, error) {
	out, err := s.queryScreenings(`SELECT `+screeningColumns+` FROM screenings WHERE family_id = ? ORDER BY created_at DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family screenings: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ListScreenings() ([]*services.Screening, error) {
	out, err := s.queryScreenings(`SELECT ` + screeningColumns + ` FROM screenings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list screenings: %w", err)
	}
	return out, nil
}

// --- sessions ---

func (s *SQLiteStore) InsertSession(sess *services.Session) (*services.Session, error) {
	_, err := s.db.Exec(`INSERT INTO screening_sessions
		(id, family_id, child_name, child_age_months, age_band, status, payment_intent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.FamilyID, sess.ChildName, sess.ChildAgeMonths, sess.AgeBand, sess.Status, toNullString(sess.PaymentIntentID), sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

const sessionColumns = `id, family_id, child_name, child_age_months, age_band, status, payment_intent_id, created_at`

func scanSession(row interface{ Scan(...any) error }) (*services.Session, error) {
	var sess services.Session
	var intentID sql.NullString
	if err := row.Scan(&sess.ID, &sess.FamilyID, &sess.ChildName, &sess.ChildAgeMonths, &sess.AgeBand, &sess.Status, &intentID, &sess.CreatedAt); err != nil {
		return nil, err
	}
	sess.PaymentIntentID = intentID.String
	return &sess, nil
}

func (s *SQLiteStore) GetSession(id string) (*services.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM screening_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) UpdateSessionStatus(id, status string, paymentIntentID *string) error {
	var res sql.Result
	var err error
	if paymentIntentID != nil {
		res, err = s.db.Exec(`UPDATE screening_sessions SET status = ?, payment_intent_id = ? WHERE id = ?`, status, *paymentIntentID, id)
	} else {
		res, err = s.db.Exec(`UPDATE screening_sessions SET status = ? WHERE id = ?`, status, id)
	}
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("screening session not found")
	}
	return nil
}

func (s *SQLiteStore) querySessions(query string, args ...any) ([]*services.Session, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListFamilySessions(familyID string) ([]*services.Session, error) {
	out, err := s.querySessions(`SELECT `+sessionColumns+` FROM screening_sessions WHERE family_id = ? ORDER BY created_at DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family sessions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ListSessionsByPaymentIntent(intentID string) ([]*services.Session, error) {
	out, err := s.querySessions(`SELECT `+sessionColumns+` FROM screening_sessions WHERE payment_intent_id = ?`, intentID)
	if err != nil {
		return nil, fmt.Errorf("list sessions by payment intent: %w", err)
	}
	return out, nil
}

// --- session responses ---

func (s *SQLiteStore) InsertResponse(r *services.SessionResponse) (*services.SessionResponse, error) {
	_, err := s.db.Exec(`INSERT INTO screening_responses
		(id, session_id, question_id, question_text, category, response_value, milestone_age_months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.QuestionID, r.QuestionText, string(r.Category), r.ResponseValue, r.MilestoneAgeMonth, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListSessionResponses(sessionID string) ([]*services.SessionResponse, error) {
	rows, err := s.db.Query(`SELECT id, session_id, question_id, question_text, category, response_value, milestone_age_months, created_at
		FROM screening_responses WHERE session_id = ? ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session responses: %w", err)
	}
	defer rows.Close()
	out := []*services.SessionResponse{}
	for rows.Next() {
		var r services.SessionResponse
		var category string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionID, &r.QuestionText, &category, &r.ResponseValue, &r.MilestoneAgeMonth, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.Category = services.Category(category)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- analyses ---

func (s *SQLiteStore) GetAnalysisBySession(sessionID string) (*services.Analysis, error) {
	row := s.db.QueryRow(`SELECT id, session_id, risk_level, risk_score, summary, recommendations_json, model, provider, status, created_at
		FROM screening_analysis WHERE session_id = ?`, sessionID)
	var a services.Analysis
	var recs string
	err := row.Scan(&a.ID, &a.SessionID, &a.RiskLevel, &a.RiskScore, &a.Summary, &recs, &a.Model, &a.Provider, &a.Status, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) InsertAnalysis(a *services.Analysis) (*services.Analysis, error) {
	recs := a.Recommendations
	if recs == nil {
		recs = []string{}
	}
	encoded, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO screening_analysis
		(id, session_id, risk_level, risk_score, summary, recommendations_json, model, provider, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.RiskLevel, a.RiskScore, a.Summary, string(encoded), a.Model, a.Provider, a.Status, a.CreatedAt)
	if isUniqueViolation(err) {
		return nil, services.ErrDuplicateAnalysis
	}
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return a, nil
}

// --- payment intents ---

func (s *SQLiteStore) InsertPaymentIntent(pi *services.PaymentIntent) (*services.PaymentIntent, error) {
	_, err := s.db.Exec(`INSERT INTO payment_intents
		(id, user_id, family_id, clinic_id, screening_id, amount, method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pi.ID, pi.UserID, pi.FamilyID, pi.ClinicID, toNullString(pi.ScreeningID), pi.Amount, pi.Method, pi.Status, pi.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert payment intent: %w", err)
	}
	return pi, nil
}

const paymentIntentColumns = `id, user_id, family_id, clinic_id, screening_id, amount, method, status, created_at`

func scanPaymentIntent(row interface{ Scan(...any) error }) (*services.PaymentIntent, error) {
	var pi services.PaymentIntent
	var screeningID sql.NullString
	if err := row.Scan(&pi.ID, &pi.UserID, &pi.FamilyID, &pi.ClinicID, &screeningID, &pi.Amount, &pi.Method, &pi.Status, &pi.CreatedAt); err != nil {
		return nil, err
	}
	pi.ScreeningID = screeningID.String
	return &pi, nil
}

func (s *SQLiteStore) GetPaymentIntent(id string) (*services.PaymentIntent, error) {
	row := s.db.QueryRow(`SELECT `+paymentIntentColumns+` FROM payment_intents WHERE id = ?`, id)
	pi, err := scanPaymentIntent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return pi, nil
}

func (s *SQLiteStore) UpdatePaymentIntentStatus(id, status string) error {
	res, err := s.db.Exec(`UPDATE payment_intents SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update payment intent status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("payment intent not found")
	}
	return nil
}

func (s *SQLiteStore) queryPaymentIntents(query string, args ...any) ([]*services.PaymentIntent, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.PaymentIntent{}
	for rows.Next() {
		pi, err := scanPaymentIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pi)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListPaymentIntents() ([]*services.PaymentIntent, error) {
	out, err := s.queryPaymentIntents(`SELECT ` + paymentIntentColumns + ` FROM payment_intents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payment intents: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ListSettledScreeningIntents() ([]*services.PaymentIntent, error) {
	out, err := s.queryPaymentIntents(`SELECT `+paymentIntentColumns+` FROM payment_intents
		WHERE status = ? AND screening_id IS NOT NULL ORDER BY created_at DESC`, services.IntentSettled)
	if err != nil {
		return nil, fmt.Errorf("list settled screening intents: %w", err)
	}
	return out, nil
}

// --- clinical reviews ---

func (s *SQLiteStore) InsertClinicalReview(cr *services.ClinicalReview) (*services.ClinicalReview, error) {
	_, err := s.db.Exec(`INSERT INTO clinical_reviews
		(id, screening_id, reviewer_id, final_diagnosis, recommendations, risk_level,
		 social_score, fine_motor_score, language_score, gross_motor_score, content_hash, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cr.ID, cr.ScreeningID, cr.ReviewerID, cr.FinalDiagnosis, cr.Recommendations, cr.RiskLevel,
		cr.SocialScore, cr.FineMotorScore, cr.LanguageScore, cr.GrossMotorScore, cr.ContentHash, cr.ReviewedAt)
	if err != nil {
		return nil, fmt.Errorf("insert clinical review: %w", err)
	}
	return cr, nil
}

const reviewColumns = `id, screening_id, reviewer_id, final_diagnosis, recommendations, risk_level,
	social_score, fine_motor_score, language_score, gross_motor_score, content_hash, reviewed_at`

func scanReview(row interface{ Scan(...any) error }) (*services.ClinicalReview, error) {
	var cr services.ClinicalReview
	if err := row.Scan(&cr.ID, &cr.ScreeningID, &cr.ReviewerID, &cr.FinalDiagnosis, &cr.Recommendations, &cr.RiskLevel,
		&cr.SocialScore, &cr.FineMotorScore, &cr.LanguageScore, &cr.GrossMotorScore, &cr.ContentHash, &cr.ReviewedAt); err != nil {
		return nil, err
	}
	return &cr, nil
}

func (s *SQLiteStore) GetClinicalReview(id string) (*services.ClinicalReview, error) {
	row := s.db.QueryRow(`SELECT `+reviewColumns+` FROM clinical_reviews WHERE id = ?`, id)
	cr, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clinical review: %w", err)
	}
	return cr, nil
}

func (s *SQLiteStore) ListClinicalReviews() ([]*services.ClinicalReview, error) {
	rows, err := s.db.Query(`SELECT ` + reviewColumns + ` FROM clinical_reviews ORDER BY reviewed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list clinical reviews: %w", err)
	}
	defer rows.Close()
	out := []*services.ClinicalReview{}
	for rows.Next() {
		cr, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// --- clinic staff ---

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PassHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return services.NewConflictError("email exists")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, email, name, pass_hash, created_at FROM users WHERE email = ?`, strings.ToLower(email))
	var u services.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
