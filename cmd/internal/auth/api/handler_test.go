package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quest/cmd/identity"
	"quest/cmd/internal/auth"
	"quest/cmd/internal/auth/session"
	"quest/cmd/internal/lessons"
	"quest/cmd/internal/onboarding"
	"quest/cmd/internal/progress"
	"quest/cmd/security/password"
	"quest/cmd/security/token"
)

type testEnv struct {
	srv      *httptest.Server
	accounts *identity.MemoryStore
	prefs    *onboarding.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	accounts, err := identity.NewMemoryStore(password.DefaultConfig())
	require.NoError(t, err)

	sessions := session.NewMemoryStore(session.DefaultConfig(), token.NewHasher(nil))

	authSvc, err := auth.NewService(log, accounts, sessions)
	require.NoError(t, err)

	catalog := lessons.Default()
	progSvc := progress.NewService(log, progress.NewMemoryStore(), accounts, nil, nil)
	prefs := onboarding.NewMemoryStore()

	h, err := NewHandler(log, DefaultConfig(), authSvc, catalog, progSvc, prefs)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, accounts: accounts, prefs: prefs}
}

func (e *testEnv) do(t *testing.T, method, path, bearer, body string) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (e *testEnv) signup(t *testing.T, name, email, pw string) sessionResponse {
	t.Helper()

	body, err := json.Marshal(signupRequest{Name: name, Email: email, Password: pw})
	require.NoError(t, err)

	resp, raw := e.do(t, http.MethodPost, "/auth/signup", "", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out sessionResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func decodeError(t *testing.T, raw []byte) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestSignupSessionLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	created := env.signup(t, "Jo", "Jo@Example.com", "pw1")
	require.NotEmpty(t, created.Token)
	require.Equal(t, "jo@example.com", created.User.Email)
	require.Equal(t, 1, created.User.Level)
	require.Equal(t, 0, created.User.XP)
	require.Equal(t, 500, created.User.Gems)
	require.NotEmpty(t, created.User.AvatarURL)

	resp, raw := env.do(t, http.MethodGet, "/auth/session", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var current sessionResponse
	require.NoError(t, json.Unmarshal(raw, &current))
	require.Equal(t, created.Token, current.Token)
	require.Equal(t, created.User, current.User)

	resp, raw = env.do(t, http.MethodPost, "/auth/login", "", `{"email":"jo@example.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var logged sessionResponse
	require.NoError(t, json.Unmarshal(raw, &logged))
	require.NotEqual(t, created.Token, logged.Token)

	// The first session stays valid after a second login.
	resp, _ = env.do(t, http.MethodGet, "/auth/session", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, raw := env.do(t, http.MethodPost, "/auth/signup", "", `{"name":"Other","email":" JO@example.com ","password":"x"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "Account already exists", decodeError(t, raw).Detail)
	require.Equal(t, 1, env.accounts.Len())
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"bad email":      `{"name":"Jo","email":"not-an-email","password":"pw"}`,
		"missing name":   `{"name":"  ","email":"jo@example.com","password":"pw"}`,
		"empty password": `{"name":"Jo","email":"jo@example.com","password":""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, raw := env.do(t, http.MethodPost, "/auth/signup", "", body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(raw))
		})
	}

	resp, _ := env.do(t, http.MethodPost, "/auth/signup", "", `{"name":"Jo","email":"jo@example.com","password":"pw","admin":true}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 0, env.accounts.Len())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Jo", "jo@example.com", "pw1")

	r1, wrong := env.do(t, http.MethodPost, "/auth/login", "", `{"email":"jo@example.com","password":"nope"}`)
	r2, missing := env.do(t, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"nope"}`)

	require.Equal(t, http.StatusUnauthorized, r1.StatusCode)
	require.Equal(t, http.StatusUnauthorized, r2.StatusCode)
	require.True(t, bytes.Equal(wrong, missing), "bodies differ: %s vs %s", wrong, missing)
	require.Equal(t, "Invalid credentials", decodeError(t, wrong).Detail)
}

func TestSessionGateFailures(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, raw := env.do(t, http.MethodGet, "/auth/session", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Missing credentials", decodeError(t, raw).Detail)
	require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	resp, raw = env.do(t, http.MethodGet, "/auth/session", "garbage", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid session token", decodeError(t, raw).Detail)

	require.NoError(t, env.accounts.Delete(context.Background(), "jo@example.com"))

	resp, raw = env.do(t, http.MethodGet, "/auth/session", created.Token, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Account no longer exists", decodeError(t, raw).Detail)
}

func TestPasswordResetReportsExistence(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, raw := env.do(t, http.MethodPost, "/auth/reset", "", `{"email":"JO@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"sent":true,"existingAccount":true}`, string(raw))

	resp, raw = env.do(t, http.MethodPost, "/auth/reset", "", `{"email":"ghost@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"sent":true,"existingAccount":false}`, string(raw))

	// Existing password still works.
	resp, _ = env.do(t, http.MethodPost, "/auth/login", "", `{"email":"jo@example.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOnboardingPreferences(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.do(t, http.MethodPost, "/onboarding/preferences", "", `{"experience":"beginner","goal":"automation","cadence":"daily"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"stored":true}`, string(raw))
	require.Equal(t, 1, env.prefs.Len())

	resp, _ = env.do(t, http.MethodPost, "/onboarding/preferences", "", `{"experience":"beginner","goal":"","cadence":"daily"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, 1, env.prefs.Len())
}

func TestLessons(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, _ := env.do(t, http.MethodGet, "/lessons", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := env.do(t, http.MethodGet, "/lessons", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []lessonResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 3)
	require.Equal(t, "control-flow", list[0].ID)

	resp, raw = env.do(t, http.MethodGet, "/lessons/functions", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var one lessonResponse
	require.NoError(t, json.Unmarshal(raw, &one))
	require.Equal(t, 30, one.EstimatedMinutes)

	resp, raw = env.do(t, http.MethodGet, "/lessons/nope", created.Token, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Lesson not found", decodeError(t, raw).Detail)
}

func TestProgressRecordAndList(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, _ := env.do(t, http.MethodPost, "/progress", "", `{"lesson_id":"functions","status":"completed","xp_earned":50}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := env.do(t, http.MethodPost, "/progress", created.Token, `{"lesson_id":"functions","status":"completed","xp_earned":50,"gems_earned":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var entry progressEntryResponse
	require.NoError(t, json.Unmarshal(raw, &entry))
	require.Equal(t, created.User.ID, entry.UserID)
	require.Equal(t, "completed", entry.Status)

	resp, raw = env.do(t, http.MethodGet, "/auth/session", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current sessionResponse
	require.NoError(t, json.Unmarshal(raw, &current))
	require.Equal(t, 50, current.User.XP)
	require.Equal(t, 510, current.User.Gems)

	resp, raw = env.do(t, http.MethodGet, "/progress", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []progressEntryResponse
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID, entries[0].ID)
}

func TestProgressRejections(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, _ := env.do(t, http.MethodPost, "/progress", created.Token, `{"user_id":"user-99","lesson_id":"functions","status":"started"}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/progress", created.Token, `{"status":"started"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/progress", created.Token, `{"lesson_id":"functions","status":"completed","xp_earned":10001}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, raw := env.do(t, http.MethodGet, "/progress", created.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(raw))
}

func TestProgressAcceptsFreeFormLessonAndStatus(t *testing.T) {
	env := newTestEnv(t)
	created := env.signup(t, "Jo", "jo@example.com", "pw1")

	resp, raw := env.do(t, http.MethodPost, "/progress", created.Token, `{"lesson_id":"basics","status":"UNLOCKED"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var entry progressEntryResponse
	require.NoError(t, json.Unmarshal(raw, &entry))
	require.Equal(t, "basics", entry.LessonID)
	require.Equal(t, "UNLOCKED", entry.Status)
}

func TestClientIPTrustProxy(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	require.Equal(t, "10.0.0.1", clientIP(r, false).String())
	require.Equal(t, "203.0.113.9", clientIP(r, true).String())
}
