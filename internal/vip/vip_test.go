package vip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"none", None, false},
		{"", None, false},
		{"tier1", Tier1, false},
		{"Tier2", Tier2, false},
		{" 3 ", Tier3, false},
		{"platinum", None, true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTier(%q): expected error=%v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestStaticChecker(t *testing.T) {
	s := NewStatic()
	s.Set("alice", Tier2)

	got, err := s.Tier(context.Background(), "alice")
	if err != nil || got != Tier2 {
		t.Errorf("expected tier2 for alice, got %v (err %v)", got, err)
	}
	got, _ = s.Tier(context.Background(), "bob")
	if got != None {
		t.Errorf("expected none for unknown account, got %v", got)
	}
}

func TestHTTPChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/accounts/alice":
			w.Write([]byte(`{"tier":"tier3"}`))
		case "/accounts/garbage":
			w.Write([]byte(`{"tier":"diamond"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL+"/accounts/", "secret")
	ctx := context.Background()

	if got, err := c.Tier(ctx, "alice"); err != nil || got != Tier3 {
		t.Errorf("expected tier3, got %v (err %v)", got, err)
	}
	if got, err := c.Tier(ctx, "nobody"); err != nil || got != None {
		t.Errorf("expected none for 404, got %v (err %v)", got, err)
	}
	if _, err := c.Tier(ctx, "garbage"); err == nil {
		t.Error("expected error for unknown tier name in response")
	}

	unauth := NewHTTPChecker(srv.URL+"/accounts", "")
	if _, err := unauth.Tier(ctx, "alice"); err == nil {
		t.Error("expected error for unauthorized response")
	}
}

func TestNewHTTPCheckerEmptyURL(t *testing.T) {
	if c := NewHTTPChecker("", "key"); c != nil {
		t.Error("expected nil checker for empty base URL")
	}
}
