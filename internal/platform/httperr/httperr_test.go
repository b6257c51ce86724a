package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestError_Status(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Auth("bad credentials"), http.StatusUnauthorized},
		{Forbidden("not allowed"), http.StatusForbidden},
		{NotFound("no such user"), http.StatusNotFound},
		{Unavailable("engine timeout"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.err.Message, tt.status, got)
		}
	}
}

func TestError_WrappingAndKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("store unreachable").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	wrapped := fmt.Errorf("predict: %w", err)
	if !IsKind(wrapped, KindUnavailable) {
		t.Error("expected IsKind to see through wrapping")
	}
	if IsKind(wrapped, KindValidation) {
		t.Error("kind should not match validation")
	}
}

func newHandlerContext(t *testing.T) (echo.HTTPErrorHandler, echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	logger := zerolog.New(os.Stderr)
	return Handler(logger), c, rec
}

func TestHandler_RendersEnvelope(t *testing.T) {
	h, c, rec := newHandlerContext(t)

	h(Validation("unknown symptoms").WithDetail("invalid_symptoms", []string{"xyz_not_real"}), c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["success"] != false {
		t.Error("expected success=false")
	}
	if body["message"] != "unknown symptoms" {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if _, ok := body["invalid_symptoms"]; !ok {
		t.Error("expected invalid_symptoms detail in envelope")
	}
}

func TestHandler_OpaqueInternalError(t *testing.T) {
	h, c, rec := newHandlerContext(t)

	h(errors.New("pq: relation users does not exist"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "internal server error" {
		t.Errorf("internal detail leaked to client: %v", body["message"])
	}
}

func TestHandler_EchoHTTPError(t *testing.T) {
	h, c, rec := newHandlerContext(t)

	h(echo.NewHTTPError(http.StatusNotFound, "route not found"), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["success"] != false {
		t.Error("expected success=false")
	}
}
