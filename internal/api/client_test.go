package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sundayezeilo/shortener-cli/internal/errx"
)

/***************
 * Mocks
 ***************/

// mockCredentials implements CredentialSource for testing.
type mockCredentials struct {
	token string
	held  bool
}

func (m *mockCredentials) Credential() (string, bool) {
	return m.token, m.held
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
	return c, srv
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	_ = json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Message: message,
		Data:    raw,
	})
}

/***************
 * Request augmentation
 ***************/

func TestClient_AttachesBearerCredential(t *testing.T) {
	t.Run("adds authorization header when credential is held", func(t *testing.T) {
		var gotAuth string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(w, http.StatusOK, "", LinkPage{Limit: 100})
		})
		c.SetCredentialSource(&mockCredentials{token: "tok-1", held: true})

		if _, err := c.ListLinks(context.Background()); err != nil {
			t.Fatalf("ListLinks() unexpected error: %v", err)
		}
		if got, want := gotAuth, "Bearer tok-1"; got != want {
			t.Errorf("Authorization = %q, want %q", got, want)
		}
	})

	t.Run("omits authorization header when no credential is held", func(t *testing.T) {
		var gotAuth string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(w, http.StatusOK, "", LinkPage{})
		})
		c.SetCredentialSource(&mockCredentials{held: false})

		if _, err := c.ListLinks(context.Background()); err != nil {
			t.Fatalf("ListLinks() unexpected error: %v", err)
		}
		if gotAuth != "" {
			t.Errorf("Authorization = %q, want empty", gotAuth)
		}
	})

	t.Run("reads credential fresh per request", func(t *testing.T) {
		var seen []string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, "", LinkPage{})
		})
		creds := &mockCredentials{token: "first", held: true}
		c.SetCredentialSource(creds)

		_, _ = c.ListLinks(context.Background())
		creds.token = "second"
		_, _ = c.ListLinks(context.Background())

		want := []string{"Bearer first", "Bearer second"}
		if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
			t.Errorf("Authorization headers = %v, want %v", seen, want)
		}
	})

	t.Run("stamps a request id on every request", func(t *testing.T) {
		var gotID string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotID = r.Header.Get(RequestIDHeader)
			writeEnvelope(w, http.StatusOK, "", LinkPage{})
		})

		_, _ = c.ListLinks(context.Background())
		if gotID == "" {
			t.Error("request id header not set")
		}
	})
}

/***************
 * Authorization rejection
 ***************/

func TestClient_UnauthorizedTeardown(t *testing.T) {
	t.Run("fires hook and still propagates the failure", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
		})

		hookCalls := 0
		c.OnUnauthorized(func() { hookCalls++ })

		_, err := c.ListLinks(context.Background())
		if err == nil {
			t.Fatal("ListLinks() expected error, got nil")
		}
		if got := errx.KindOf(err); got != errx.Unauthorized {
			t.Errorf("error kind = %v, want %v", got, errx.Unauthorized)
		}
		if got, want := errx.MessageOf(err), "token expired"; got != want {
			t.Errorf("message = %q, want %q", got, want)
		}
		if hookCalls != 1 {
			t.Errorf("hook called %d times, want 1", hookCalls)
		}
	})

	t.Run("fires hook regardless of which call was rejected", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, "invalid token", nil)
		})

		hookCalls := 0
		c.OnUnauthorized(func() { hookCalls++ })

		_, _ = c.CreateLink(context.Background(), "https://example.com")
		_ = c.DeleteLink(context.Background(), "abc")

		if hookCalls != 2 {
			t.Errorf("hook called %d times, want 2", hookCalls)
		}
	})

	t.Run("no hook bound is not an error", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, "invalid token", nil)
		})

		_, err := c.ListLinks(context.Background())
		if got := errx.KindOf(err); got != errx.Unauthorized {
			t.Errorf("error kind = %v, want %v", got, errx.Unauthorized)
		}
	})
}

/***************
 * Error mapping
 ***************/

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		message  string
		wantKind errx.Kind
		wantMsg  string
	}{
		{
			name:     "400 maps to Invalid with service message",
			status:   http.StatusBadRequest,
			message:  "invalid URL format",
			wantKind: errx.Invalid,
			wantMsg:  "invalid URL format",
		},
		{
			name:     "404 maps to NotFound",
			status:   http.StatusNotFound,
			message:  "URL not found",
			wantKind: errx.NotFound,
			wantMsg:  "URL not found",
		},
		{
			name:     "500 maps to Service",
			status:   http.StatusInternalServerError,
			message:  "something broke",
			wantKind: errx.Service,
			wantMsg:  "something broke",
		},
		{
			name:     "missing message gets generic fallback",
			status:   http.StatusInternalServerError,
			message:  "",
			wantKind: errx.Service,
			wantMsg:  "service returned status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.message, nil)
			})

			_, err := c.CreateLink(context.Background(), "https://example.com")
			if err == nil {
				t.Fatal("CreateLink() expected error, got nil")
			}
			if got := errx.KindOf(err); got != tt.wantKind {
				t.Errorf("error kind = %v, want %v", got, tt.wantKind)
			}
			if got := errx.MessageOf(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	t.Run("transport failure maps to Service", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		c := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second})
		_, err := c.ListLinks(context.Background())
		if err == nil {
			t.Fatal("ListLinks() expected error, got nil")
		}
		if got := errx.KindOf(err); got != errx.Service {
			t.Errorf("error kind = %v, want %v", got, errx.Service)
		}
	})
}

/***************
 * Payload handling
 ***************/

func TestClient_Endpoints(t *testing.T) {
	t.Run("register decodes user and token", func(t *testing.T) {
		var gotBody registerRequest
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/auth/register" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			writeEnvelope(w, http.StatusCreated, "registered", AuthResult{
				User:  User{ID: "u1", Name: "Ada", Email: "ada@example.com", URLCount: 0},
				Token: "tok-new",
			})
		})

		res, err := c.Register(context.Background(), "Ada", "ada@example.com", "secret")
		if err != nil {
			t.Fatalf("Register() unexpected error: %v", err)
		}
		if gotBody.Email != "ada@example.com" || gotBody.Name != "Ada" || gotBody.Password != "secret" {
			t.Errorf("request body = %+v", gotBody)
		}
		if res.Token != "tok-new" || res.User.ID != "u1" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("list decodes links with counts", func(t *testing.T) {
		created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, "", LinkPage{
				Links: []Link{
					{ID: "l2", OriginalURL: "https://b.example", ShortCode: "b2", Clicks: 3, CreatedAt: created},
					{ID: "l1", OriginalURL: "https://a.example", ShortCode: "a1", Clicks: 0, CreatedAt: created},
				},
				TotalCount: 2,
				Limit:      100,
			})
		})

		page, err := c.ListLinks(context.Background())
		if err != nil {
			t.Fatalf("ListLinks() unexpected error: %v", err)
		}
		if len(page.Links) != 2 || page.TotalCount != 2 || page.Limit != 100 {
			t.Errorf("page = %+v", page)
		}
		if page.Links[0].ID != "l2" {
			t.Errorf("first link = %q, want l2 (newest first)", page.Links[0].ID)
		}
		if !page.Links[0].CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", page.Links[0].CreatedAt, created)
		}
	})

	t.Run("delete hits the id path and returns nil", func(t *testing.T) {
		var gotPath string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			writeEnvelope(w, http.StatusOK, "deleted", nil)
		})

		if err := c.DeleteLink(context.Background(), "l1"); err != nil {
			t.Fatalf("DeleteLink() unexpected error: %v", err)
		}
		if got, want := gotPath, "/urls/l1"; got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})

	t.Run("missing data on a success is a Service error", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, "ok", nil)
		})

		_, err := c.ListLinks(context.Background())
		if err == nil {
			t.Fatal("ListLinks() expected error, got nil")
		}
		if got := errx.KindOf(err); got != errx.Service {
			t.Errorf("error kind = %v, want %v", got, errx.Service)
		}
	})
}
