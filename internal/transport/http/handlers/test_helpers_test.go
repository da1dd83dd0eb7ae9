package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/contacts-api/internal/application/auth"
	"github.com/baechuer/contacts-api/internal/application/contacts"
	"github.com/baechuer/contacts-api/internal/infrastructure/memory"
	"github.com/baechuer/contacts-api/internal/infrastructure/security"
	"github.com/baechuer/contacts-api/internal/infrastructure/storage"
	"github.com/baechuer/contacts-api/internal/transport/http/middleware"
	"github.com/baechuer/contacts-api/internal/transport/http/response"

	"github.com/rs/zerolog"
)

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type inlineDispatcher struct{}

func (inlineDispatcher) Submit(job func()) bool { job(); return true }

type testEnv struct {
	users     *memory.UserRepo
	mailer    *captureMailer
	avatarDir string
	h         http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := memory.NewUserRepo()
	mailer := &captureMailer{}
	svc := auth.NewService(
		users,
		security.NewBcryptHasher(4),
		security.NewJWTSigner("test-secret", time.Hour),
		security.NewRandomTokenGenerator(),
		mailer,
		inlineDispatcher{},
		auth.Config{PublicBaseURL: "http://localhost:3000"},
	)

	dir := t.TempDir()
	avatars, err := storage.NewLocalStore(dir, "/avatars", zerolog.Nop())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	uh := NewUsersHandler(svc, avatars, 1<<20)
	ch := NewContactsHandler(contacts.NewService(memory.NewContactRepo()))
	authMW := middleware.Auth(svc, response.WriteError)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Post("/api/users/register", uh.Register)
	r.Post("/api/users/login", uh.Login)
	r.Get("/api/users/verify/{verificationToken}", uh.VerifyEmail)
	r.Post("/api/users/verify", uh.ResendVerification)
	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Post("/api/users/logout", uh.Logout)
		r.Get("/api/users/current", uh.Current)
		r.Patch("/api/users", uh.UpdateSubscription)
		r.Patch("/api/users/avatars", uh.UpdateAvatar)

		r.Get("/api/contacts", ch.List)
		r.Post("/api/contacts", ch.Create)
		r.Get("/api/contacts/{contactId}", ch.Get)
		r.Put("/api/contacts/{contactId}", ch.Update)
		r.Delete("/api/contacts/{contactId}", ch.Delete)
		r.Patch("/api/contacts/{contactId}/favorite", ch.SetFavorite)
	})

	return &testEnv{users: users, mailer: mailer, avatarDir: dir, h: r}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) upload(t *testing.T, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPatch, "/api/users/avatars", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

// verificationToken reads the outstanding token straight from the store.
func (e *testEnv) verificationToken(t *testing.T, email string) string {
	t.Helper()
	u, err := e.users.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	return u.VerificationToken
}

// registerVerifiedAndLogin returns a bearer token for a fresh verified account.
func (e *testEnv) registerVerifiedAndLogin(t *testing.T, email, pw string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": pw}
	if rr := e.do(t, http.MethodPost, "/api/users/register", "", creds); rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}
	tok := e.verificationToken(t, email)
	if rr := e.do(t, http.MethodGet, "/api/users/verify/"+tok, "", nil); rr.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rr.Code, rr.Body.String())
	}
	rr := e.do(t, http.MethodPost, "/api/users/login", "", creds)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	decodeBody(t, rr, &out)
	return out.Data.Token
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	decodeBody(t, rr, &body)
	return body.Error.Code
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	if got := errCode(t, rr); got != code {
		t.Fatalf("expected code %q, got %q", code, got)
	}
}
