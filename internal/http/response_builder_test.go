package http

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerAccountUpdated("acc-1").
		TriggerFundCreated("acc-1", "fund-9").
		Write(w)

	trigger := w.Header().Get(HeaderHXTrigger)
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	expectedParts := []string{
		`"account:updated"`,
		`"fund:created"`,
		`"accountId":"acc-1"`,
		`"id":"fund-9"`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_RedirectAndRetarget(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Redirect("/login").
		Retarget("#main", "innerHTML").
		Write(w)

	if got := w.Header().Get(HeaderHXRedirect); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
	if got := w.Header().Get(HeaderHXRetarget); got != "#main" {
		t.Errorf("HX-Retarget = %q, want #main", got)
	}
	if got := w.Header().Get(HeaderHXReswap); got != "innerHTML" {
		t.Errorf("HX-Reswap = %q, want innerHTML", got)
	}
}

func TestHTMXResponseBuilder_BodyTemplate(t *testing.T) {
	tmpl := template.Must(template.New("greet").Parse(`<p>{{.}}</p>`))

	b := NewHTMXResponse()
	if err := b.BodyTemplate(tmpl, "greet", "<b>hi</b>"); err != nil {
		t.Fatalf("BodyTemplate: %v", err)
	}
	w := httptest.NewRecorder()
	b.Write(w)

	if w.Body.String() != "<p>&lt;b&gt;hi&lt;/b&gt;</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}

	if err := NewHTMXResponse().BodyTemplate(tmpl, "missing", nil); err == nil {
		t.Error("expected an error for an unknown template")
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error" role="alert">Invalid input</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error" role="alert">Something broke</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}
