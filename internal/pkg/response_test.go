package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/sitesapi/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testInput is used to generate real validator.ValidationErrors.
type testInput struct {
	Page int    `form:"page" validate:"min=1"`
	Name string `json:"siteName" validate:"required"`
}

// newResponseTestContext creates a gin context backed by an httptest.ResponseRecorder.
func newResponseTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func makeValidationErrors(t *testing.T) validator.ValidationErrors {
	t.Helper()
	err := validator.New().Struct(testInput{})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validator.ValidationErrors, got %T", err)
	}
	return ve
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestOK(t *testing.T) {
	c, w := newResponseTestContext()

	OK(c, NewPageResult([]string{"a"}, 1, 1, 10))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, field := range []string{`"items":["a"]`, `"totalCount":1`, `"pageNumber":1`, `"pageSize":10`, `"totalPages":1`, `"hasPrevious":false`, `"hasNext":false`} {
		if !strings.Contains(body, field) {
			t.Errorf("body %s missing %s", body, field)
		}
	}
}

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", domain.NewValidationError(domain.MsgInvalidFilter, errors.New("syntax")), http.StatusBadRequest, domain.MsgInvalidFilter},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not found"},
		{"already exists", domain.NewAppError(domain.CodeAlreadyExists, "site 7 already exists", nil), http.StatusConflict, "site 7 already exists"},
		{"internal app error hides message", domain.NewAppError(domain.CodeInternal, "database error", errors.New("dial tcp")), http.StatusInternalServerError, domain.MsgInternal},
		{"plain error", errors.New("connection refused"), http.StatusInternalServerError, domain.MsgInternal},
		{"wrapped validation", fmt.Errorf("bind: %w", domain.NewValidationError(domain.MsgInvalidRequestBody, nil)), http.StatusBadRequest, domain.MsgInvalidRequestBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContext()
			Error(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := decodeError(t, w); resp.Error != tt.wantMsg {
				t.Errorf("expected error %q, got %q", tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestError_DoesNotLeakCause(t *testing.T) {
	c, w := newResponseTestContext()
	Error(c, errors.New("pq: password authentication failed for user sites"))

	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("response leaked internal detail: %s", w.Body.String())
	}
}

func TestAbort(t *testing.T) {
	c, w := newResponseTestContext()
	Abort(c, http.StatusTooManyRequests, "too many requests")

	if !c.IsAborted() {
		t.Error("expected context to be aborted")
	}
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != "too many requests" {
		t.Errorf("expected error %q, got %q", "too many requests", resp.Error)
	}
}

func TestValidationError_WithValidatorErrors(t *testing.T) {
	c, w := newResponseTestContext()

	ValidationError(c, makeValidationErrors(t), &testInput{}, "unused")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != "validation error" {
		t.Errorf("expected error %q, got %q", "validation error", resp.Error)
	}
	if got := resp.Fields["page"]; got != "min=1" {
		t.Errorf("expected page error %q, got %q", "min=1", got)
	}
	if got := resp.Fields["siteName"]; got != "required" {
		t.Errorf("expected siteName error %q, got %q", "required", got)
	}
}

func TestValidationError_WithoutObjUsesLowercasedNames(t *testing.T) {
	c, w := newResponseTestContext()

	ValidationError(c, makeValidationErrors(t), nil, "unused")

	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := resp.Fields["name"]; !ok {
		t.Errorf("expected lowercased field 'name', got %v", resp.Fields)
	}
}

func TestValidationError_NonValidationError(t *testing.T) {
	c, w := newResponseTestContext()

	ValidationError(c, errors.New("strconv.ParseInt: parsing \"abc\": invalid syntax"), nil, "Invalid query parameters")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != "Invalid query parameters" {
		t.Errorf("expected fallback message, got %q", resp.Error)
	}
}

func TestParseTagName(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"-":              "",
		"siteName":       "siteName",
		"page,default=1": "page",
		",omitempty":     "",
	}
	for tag, want := range tests {
		if got := parseTagName(tag); got != want {
			t.Errorf("parseTagName(%q) = %q; want %q", tag, got, want)
		}
	}
}
