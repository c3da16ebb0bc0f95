package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finmind/internal/core"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantJSON    bool
		want        map[string]string
	}{
		{
			name:        "json object",
			body:        `{"amount": 12.5, "category": " Dining ", "flag": true}`,
			contentType: "application/json",
			wantJSON:    true,
			want:        map[string]string{"amount": "12.5", "category": "Dining", "flag": "true", "missing": ""},
		},
		{
			name:        "form encoded",
			body:        "amount=12%2C50&category=Dining",
			contentType: "application/x-www-form-urlencoded",
			want:        map[string]string{"amount": "12,50", "category": "Dining"},
		},
		{
			name: "control characters stripped",
			body: "description=a%00b%07c",
			want: map[string]string{"description": "abc"},
		},
		{
			name:        "json number keeps every digit",
			body:        `{"amount": 1234567890123456.78, "small": 0.1}`,
			contentType: "application/json",
			wantJSON:    true,
			want:        map[string]string{"amount": "1234567890123456.78", "small": "0.1"},
		},
		{
			name: "empty body",
			body: "",
			want: map[string]string{"amount": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			for k, v := range tt.want {
				if got := p.Get(k); got != v {
					t.Errorf("Get(%q) = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken"`))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected error for malformed JSON")
	}

	big := strings.Repeat("a", MaxBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != errBodyTooLarge {
		t.Errorf("Parse() error = %v, want %v", err, errBodyTooLarge)
	}
	// Parse is memoized.
	if err := p.Parse(); err != errBodyTooLarge {
		t.Errorf("second Parse() error = %v", err)
	}
}

func TestRequestBodyParser_TrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a": 1} {"b": 2}`))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected error for data after the JSON object")
	}
}

func TestRequestBodyParser_GetSecret(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{"json", `{"password": "  pa ss\t "}`, "application/json"},
		{"form", "password=++pa+ss%09+", "application/x-www-form-urlencoded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got, want := p.GetSecret("password"), "  pa ss\t "; got != want {
				t.Errorf("GetSecret() = %q, want %q", got, want)
			}
			if got := p.Get("password"); got != "pa ss" {
				t.Errorf("Get() = %q, want sanitized value", got)
			}
			if got := p.GetSecret("missing"); got != "" {
				t.Errorf("GetSecret(missing) = %q, want empty", got)
			}
		})
	}
}

func TestParseAsOf(t *testing.T) {
	d, err := ParseAsOf(url.Values{})
	if err != nil || d.String() != core.Today().String() {
		t.Errorf("ParseAsOf(empty) = %v, %v", d, err)
	}
	d, err = ParseAsOf(url.Values{"as_of": {"2025-10-15"}})
	if err != nil || d.String() != "2025-10-15" {
		t.Errorf("ParseAsOf = %v, %v", d, err)
	}
	if _, err := ParseAsOf(url.Values{"as_of": {"15/10/2025"}}); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := sessionToken(req); got != "" {
		t.Errorf("sessionToken() = %q, want empty", got)
	}

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	if got := sessionToken(req); got != "from-cookie" {
		t.Errorf("sessionToken() = %q, want cookie value", got)
	}

	req.Header.Set("Authorization", "bearer abc")
	if got := sessionToken(req); got != "abc" {
		t.Errorf("sessionToken() = %q, want abc", got)
	}
}
