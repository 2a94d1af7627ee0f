package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
		wantErr     bool
		want        map[string]string
	}{
		{
			name:        "json with numbers",
			contentType: "application/json",
			body:        `{"title":"  Lunch ","amount":12.30,"category":"food"}`,
			wantJSON:    true,
			want:        map[string]string{"title": "Lunch", "amount": "12.30", "category": "food", "date": ""},
		},
		{
			name:     "json sniffed without content type",
			body:     `{"amount":"5"}`,
			wantJSON: true,
			want:     map[string]string{"amount": "5"},
		},
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			body:        "title=Bus+ticket&amount=2.5",
			want:        map[string]string{"title": "Bus ticket", "amount": "2.5"},
		},
		{
			name: "empty body",
			want: map[string]string{"title": ""},
		},
		{
			name: "control characters stripped",
			body: "title=a%00b%07c",
			want: map[string]string{"title": "abc"},
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"amount":`,
			wantErr:     true,
		},
		{
			name:        "json null",
			contentType: "application/json",
			body:        `null`,
			wantErr:     true,
		},
		{
			name:    "malformed form",
			body:    "a=%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			p := NewRequestBodyParser(req)
			err := p.Parse()
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("Parse() error = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Fatalf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			for k, want := range tt.want {
				if got := p.Get(k); got != want {
					t.Errorf("Get(%q) = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	body := "title=" + strings.Repeat("a", maxBodyBytes)
	p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if err := p.Parse(); !errors.Is(err, errBadRequest) {
		t.Fatalf("Parse() error = %v, want errBadRequest", err)
	}
}
