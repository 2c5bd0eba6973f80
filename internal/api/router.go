package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rezapearce/kiddyguard-solana-zcash/internal/middleware"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/services"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/storage"
)

const maxEvidenceUploadBytes = 10 << 20

// Deps are the constructed services the router exposes over HTTP.
type Deps struct {
	Auth       *services.AuthService
	Screenings *services.ScreeningService
	Sessions   *services.SessionService
	Clinic     *services.ClinicService
	Payments   *services.PaymentService
	Reviews    *services.ReviewService
	Evidence   *storage.EvidenceStore
	Log        *zap.Logger
	Version    string
}

type Router struct {
	d Deps
}

func NewRouter(d Deps) *Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Router{d: d}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("GET /version", rt.handleVersion)

	mux.HandleFunc("GET /api/questions", rt.handleQuestions)

	mux.HandleFunc("POST /api/screenings", rt.handleSubmitScreening)
	mux.HandleFunc("GET /api/families/{id}/screenings", rt.handleFamilyScreenings)

	mux.HandleFunc("POST /api/sessions", rt.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/{id}/responses", rt.handleSaveResponse)
	mux.HandleFunc("POST /api/sessions/{id}/complete", rt.handleCompleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/results", rt.handleSessionResults)
	mux.HandleFunc("GET /api/families/{id}/sessions", rt.handleFamilySessions)

	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)

	mux.Handle("GET /api/clinic/screenings", middleware.RequireAuth(http.HandlerFunc(rt.handleClinicScreenings)))
	mux.Handle("POST /api/clinic/reviews", middleware.RequireAuth(http.HandlerFunc(rt.handleSubmitReview)))
	mux.Handle("POST /api/clinic/reviews/verify", middleware.RequireAuth(http.HandlerFunc(rt.handleVerifyReview)))

	mux.HandleFunc("POST /api/payments/{id}/settle", rt.handleSettlePayment)
	mux.HandleFunc("POST /api/uploads/evidence", rt.handleUploadEvidence)
}

// envelope is the uniform response shape for /api routes. A partial success
// (completion with payment-intent failure) sets Success with a non-empty
// Error describing the warning.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (rt *Router) writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	if se, ok := services.AsServiceError(err); ok {
		msg = se.Message
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict, services.ErrorPrecondition:
			status = http.StatusConflict
		case services.ErrorUpstream:
			status = http.StatusBadGateway
		case services.ErrorNotConfigured:
			status = http.StatusServiceUnavailable
		}
	} else {
		rt.d.Log.Error("unhandled error", zap.Error(err))
	}
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid JSON body"})
		return false
	}
	return true
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	rt.writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	rt.writeData(w, http.StatusOK, map[string]string{"version": rt.d.Version})
}

// GET /api/questions?age_months=N
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("age_months")
	age, err := strconv.Atoi(raw)
	if err != nil {
		rt.writeError(w, services.NewInvalidError("age_months must be an integer"))
		return
	}
	if age < 0 || age > 36 {
		rt.writeError(w, services.NewInvalidError("age_months must be within 0-36"))
		return
	}
	qs := services.QuestionsForAge(age)
	out := make([]questionJSON, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuestionJSON(q))
	}
	rt.writeData(w, http.StatusOK, map[string]any{
		"ageBand":   services.AssignBand(age),
		"questions": out,
	})
}

// POST /api/screenings — legacy single-shot submit
func (rt *Router) handleSubmitScreening(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FamilyID       string          `json:"familyId"`
		ChildName      string          `json:"childName"`
		ChildAgeMonths int             `json:"childAgeMonths"`
		Answers        map[string]bool `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.d.Screenings.Submit(req.FamilyID, req.ChildName, req.ChildAgeMonths, req.Answers)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusCreated, map[string]any{
		"screeningId": res.ScreeningID,
		"riskLevel":   res.RiskLevel,
		"riskScore":   res.RiskScore,
		"summary":     res.Summary,
	})
}

// GET /api/families/{id}/screenings
func (rt *Router) handleFamilyScreenings(w http.ResponseWriter, r *http.Request) {
	scs, err := rt.d.Screenings.FamilyScreenings(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	out := make([]screeningJSON, 0, len(scs))
	for _, sc := range scs {
		out = append(out, toScreeningJSON(sc))
	}
	rt.writeData(w, http.StatusOK, out)
}

// POST /api/sessions
func (rt *Router) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FamilyID       string `json:"familyId"`
		ChildName      string `json:"childName"`
		ChildAgeMonths int    `json:"childAgeMonths"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := rt.d.Sessions.Create(req.FamilyID, req.ChildName, req.ChildAgeMonths)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusCreated, toSessionJSON(sess))
}

// POST /api/sessions/{id}/responses
func (rt *Router) handleSaveResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID    string `json:"questionId"`
		ResponseValue string `json:"responseValue"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := rt.d.Sessions.SaveResponse(r.PathValue("id"), req.QuestionID, req.ResponseValue)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusCreated, toResponseJSON(resp))
}

// POST /api/sessions/{id}/complete
func (rt *Router) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		FamilyID string `json:"familyId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.d.Sessions.Complete(r.PathValue("id"), req.UserID, req.FamilyID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	data := map[string]any{"sessionId": res.SessionID}
	if res.PaymentIntentID != "" {
		data["paymentIntentId"] = res.PaymentIntentID
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Error: res.Warning})
}

// GET /api/sessions/{id}/results
func (rt *Router) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	res, err := rt.d.Sessions.Results(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	responses := make([]responseJSON, 0, len(res.Responses))
	for _, resp := range res.Responses {
		responses = append(responses, toResponseJSON(resp))
	}
	rt.writeData(w, http.StatusOK, map[string]any{
		"session":        toSessionJSON(res.Session),
		"responses":      responses,
		"analysis":       toAnalysisJSON(res.Analysis),
		"analysisStatus": res.AnalysisStatus,
	})
}

// GET /api/families/{id}/sessions
func (rt *Router) handleFamilySessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := rt.d.Sessions.FamilySessions(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionJSON(sess))
	}
	rt.writeData(w, http.StatusOK, out)
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.d.Auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusCreated, map[string]string{"token": res.Token, "userId": res.UserID})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.d.Auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusOK, map[string]string{"token": res.Token, "userId": res.UserID})
}

// GET /api/clinic/screenings — reviewer queue
func (rt *Router) handleClinicScreenings(w http.ResponseWriter, r *http.Request) {
	scs, err := rt.d.Clinic.PendingScreenings()
	if err != nil {
		rt.writeError(w, err)
		return
	}
	out := make([]screeningJSON, 0, len(scs))
	for _, sc := range scs {
		out = append(out, toScreeningJSON(sc))
	}
	rt.writeData(w, http.StatusOK, out)
}

// POST /api/clinic/reviews
func (rt *Router) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	reviewerID, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		ScreeningID     string `json:"screeningId"`
		FinalDiagnosis  string `json:"finalDiagnosis"`
		Recommendations string `json:"recommendations"`
		RiskLevel       string `json:"riskLevel"`
		SocialScore     *int   `json:"socialScore"`
		FineMotorScore  *int   `json:"fineMotorScore"`
		LanguageScore   *int   `json:"languageScore"`
		GrossMotorScore *int   `json:"grossMotorScore"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	cr, err := rt.d.Reviews.Submit(reviewerID, services.ReviewInput{
		ScreeningID:     req.ScreeningID,
		FinalDiagnosis:  req.FinalDiagnosis,
		Recommendations: req.Recommendations,
		RiskLevel:       req.RiskLevel,
		SocialScore:     req.SocialScore,
		FineMotorScore:  req.FineMotorScore,
		LanguageScore:   req.LanguageScore,
		GrossMotorScore: req.GrossMotorScore,
	})
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusCreated, toReviewJSON(cr))
}

// POST /api/clinic/reviews/verify
func (rt *Router) handleVerifyReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReviewID string `json:"reviewId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	valid, err := rt.d.Reviews.VerifyStored(req.ReviewID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusOK, map[string]bool{"valid": valid})
}

// POST /api/payments/{id}/settle
func (rt *Router) handleSettlePayment(w http.ResponseWriter, r *http.Request) {
	pi, err := rt.d.Payments.Settle(r.PathValue("id"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusOK, toPaymentIntentJSON(pi))
}

// POST /api/uploads/evidence — multipart: screeningId, questionId, userId, file
func (rt *Router) handleUploadEvidence(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEvidenceUploadBytes); err != nil {
		rt.writeError(w, services.NewInvalidError("invalid multipart form"))
		return
	}
	screeningID := r.FormValue("screeningId")
	questionID := r.FormValue("questionId")
	userID := r.FormValue("userId")
	if screeningID == "" || questionID == "" || userID == "" {
		rt.writeError(w, services.NewInvalidError("screeningId, questionId and userId required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		rt.writeError(w, services.NewInvalidError("file required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxEvidenceUploadBytes))
	if err != nil {
		rt.writeError(w, services.NewInvalidError("failed to read file"))
		return
	}
	path, err := rt.d.Evidence.Save(storage.EvidencePath(screeningID, questionID, userID, header.Filename), data)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.writeData(w, http.StatusCreated, map[string]string{"path": path})
}
