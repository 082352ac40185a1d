package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relocation_quiz_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func runHandleError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	if !HandleError(c, err) {
		t.Fatalf("expected error to be handled")
	}

	var body ErrorResponse
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &body); decodeErr != nil {
		t.Fatalf("decode body: %v", decodeErr)
	}
	return rec, body
}

func TestHandleErrorRateLimitedSetsRetryAfter(t *testing.T) {
	rec, body := runHandleError(t, apperr.RateLimited("Please wait 3 minutes before submitting again.", 90500*time.Millisecond))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "91" {
		t.Fatalf("expected rounded-up Retry-After, got %q", got)
	}
	if body.Error != "Please wait 3 minutes before submitting again." {
		t.Fatalf("unexpected message %q", body.Error)
	}
}

func TestHandleErrorHidesInternalCauses(t *testing.T) {
	cases := []error{
		errors.New("dial tcp 10.0.0.5:5432: connection refused"),
		apperr.Wrap(apperr.KindInternal, "pool exhausted", errors.New("timeout")),
		apperr.Configuration("unknown income bracket \"999k\""),
	}
	for _, err := range cases {
		rec, body := runHandleError(t, err)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 for %v, got %d", err, rec.Code)
		}
		if body.Error != msgInternal || body.Details != nil {
			t.Fatalf("expected generic body for %v, got %+v", err, body)
		}
	}
}

func TestHandleErrorExposesValidationDetails(t *testing.T) {
	err := apperr.Validation("validation failed").WithDetails([]string{"email"})
	rec, body := runHandleError(t, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body.Details == nil {
		t.Fatalf("expected details in body")
	}
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	if HandleError(c, nil) {
		t.Fatalf("nil error must not be handled")
	}
}
