package leads_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "relocation_quiz_backend/internal/http"
	"relocation_quiz_backend/internal/http/router"
	"relocation_quiz_backend/internal/leads"
	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/leads/leadstest"
	"relocation_quiz_backend/internal/leads/ratelimit"
	"relocation_quiz_backend/internal/savings"
	"relocation_quiz_backend/platform/config"
	"relocation_quiz_backend/platform/logger"
	"relocation_quiz_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const adminSecret = "test-admin-secret"

type testServer struct {
	engine *gin.Engine
	store  *leadstest.Store
	clock  *leadstest.Clock
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		CORSAllowAll:             true,
		PublicRateLimitPerMinute: 1000,
		AdminJWTSecret:           adminSecret,
		ContactRateWindow:        300 * time.Second,
		LeadMagnetRateWindow:     120 * time.Second,
		QuizRateWindow:           180 * time.Second,
		SubmissionTimeout:        5 * time.Second,
	}
	log := logger.NewWithWriter("test", io.Discard)

	brackets, err := savings.Default()
	if err != nil {
		t.Fatalf("load brackets: %v", err)
	}

	clock := leadstest.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := leadstest.NewStore(clock.Now)

	module, err := leads.NewModule(store, validator.New(), savings.NewCalculator(brackets), cfg, log, ratelimit.WithClock(clock))
	if err != nil {
		t.Fatalf("build module: %v", err)
	}

	engine := router.New(&apphttp.App{
		Config:  cfg,
		Logger:  log,
		Modules: []apphttp.Module{module},
	})
	return testServer{engine: engine, store: store, clock: clock}
}

func (s testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func quizBody(sessionID, email string) map[string]any {
	return map[string]any{
		"session_id":  sessionID,
		"first_name":  "Ana",
		"email":       email,
		"sms_consent": false,
		"answers": map[string]any{
			"housing_status": "rent",
			"monthly_cost":   "4000_6000",
			"income_bracket": "250k_400k",
			"frustration":    []string{"taxes"},
			"benefit":        "weather",
			"timeline":       "0-6mo",
		},
		"savings_calculation": map[string]any{"annual_savings": 38050},
	}
}

func adminToken(t *testing.T, roles ...string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "admin-1",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(adminSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestContactSuccess(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contact", map[string]any{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "jane@example.com",
		"phone":     "(212) 736-5000",
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["success"] != true {
		t.Fatalf("expected success body, got %s", rec.Body.String())
	}
	leadsStored := s.store.Leads()
	if len(leadsStored) != 1 || leadsStored[0].Phone != "+12127365000" {
		t.Fatalf("expected normalized phone, got %+v", leadsStored)
	}
}

func TestContactValidationErrorListsViolations(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contact", map[string]any{
		"firstName": "J",
		"lastName":  "Doe",
		"email":     "not-an-email",
	}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	details, ok := decode(t, rec)["details"].([]any)
	if !ok || len(details) != 2 {
		t.Fatalf("expected 2 violations, got %s", rec.Body.String())
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lead-magnet", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestContactRateLimitedSetsRetryAfter(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{"firstName": "Jane", "lastName": "Doe", "email": "jane@example.com"}

	if rec := s.do(t, http.MethodPost, "/api/v1/contact", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("first submission: %d", rec.Code)
	}
	s.clock.Advance(60 * time.Second)

	rec := s.do(t, http.MethodPost, "/api/v1/contact", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "240" {
		t.Fatalf("expected Retry-After 240, got %q", got)
	}
	if decode(t, rec)["error"] != "Please wait 5 minutes before submitting again." {
		t.Fatalf("unexpected wait message: %s", rec.Body.String())
	}
}

func TestQuizFlowAndDuplicate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/quiz/sessions", map[string]any{"session_id": "sess-12345678", "utm_source": "google"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/api/v1/quiz/sessions", map[string]any{"session_id": "sess-12345678"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing session, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/quiz/sessions/sess-12345678/answers", map[string]any{
		"step":         6,
		"question_key": "timeline",
		"answer_value": "0-6mo",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for answer, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/v1/quiz/submit", quizBody("sess-12345678", "ana@example.com"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["tier"] != "hot" || body["annual_savings"] != float64(38050) {
		t.Fatalf("unexpected quiz response: %s", rec.Body.String())
	}

	s.clock.Advance(181 * time.Second)
	rec = s.do(t, http.MethodPost, "/api/v1/quiz/submit", quizBody("sess-12345678", "ANA@example.com"), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["error"] != "You have already completed the quiz with this email address." {
		t.Fatalf("unexpected duplicate message: %s", rec.Body.String())
	}
}

func TestQuizUnknownSessionIsGenericInternalError(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/quiz/submit", quizBody("sess-missing1", "ana@example.com"), nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if decode(t, rec)["error"] != "Something went wrong. Please try again." {
		t.Fatalf("expected generic message, got %s", rec.Body.String())
	}
}

func TestSaveAnswerUnknownSessionIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/quiz/sessions/sess-missing1/answers", map[string]any{
		"step":         1,
		"question_key": "timeline",
		"answer_value": []string{"0-6mo"},
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPreflightReturnsEmptyNoContent(t *testing.T) {
	s := newTestServer(t)

	crossOrigin := http.Header{
		"Origin":                        []string{"https://www.site.test"},
		"Access-Control-Request-Method": []string{http.MethodPost},
	}
	for _, path := range []string{"/api/v1/contact", "/api/v1/lead-magnet", "/api/v1/quiz/submit"} {
		for _, header := range []http.Header{nil, crossOrigin} {
			rec := s.do(t, http.MethodOptions, path, nil, header)
			if rec.Code != http.StatusNoContent {
				t.Fatalf("%s: expected 204, got %d", path, rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Fatalf("%s: expected empty body, got %q", path, rec.Body.String())
			}
		}
	}

	for _, path := range []string{"/api/v1/quiz/submit", "/api/v1/lead-magnet"} {
		rec := s.do(t, http.MethodOptions, path, nil, crossOrigin)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s: expected permissive CORS header, got %q", path, got)
		}
	}
}

func TestAdminRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/leads", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/admin/leads", nil, http.Header{
		"Authorization": []string{"Bearer " + adminToken(t, "viewer")},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminListAndUpdate(t *testing.T) {
	s := newTestServer(t)
	auth := http.Header{"Authorization": []string{"Bearer " + adminToken(t, "admin")}}

	if rec := s.do(t, http.MethodPost, "/api/v1/lead-magnet", map[string]any{"email": "guide@example.com"}, nil); rec.Code != http.StatusOK {
		t.Fatalf("lead magnet submission: %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/admin/leads?form_type=lead_magnet", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	items, _ := body["items"].([]any)
	if body["total"] != float64(1) || len(items) != 1 {
		t.Fatalf("unexpected list: %s", rec.Body.String())
	}
	id := items[0].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/v1/admin/leads/"+id, map[string]any{"status": "qualified"}, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := s.store.Leads()[0].Status; got != domain.StatusQualified {
		t.Fatalf("expected qualified status, got %s", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/admin/leads/not-a-uuid", nil, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}
