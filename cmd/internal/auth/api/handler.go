package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"quest/cmd/identity"
	"quest/cmd/internal/auth"
	"quest/cmd/internal/auth/session"
	"quest/cmd/internal/lessons"
	"quest/cmd/internal/onboarding"
	"quest/cmd/internal/progress"
	"quest/cmd/security/token"
)

// Handler wires the learner HTTP endpoints to the auth, lesson and progress services.
type Handler struct {
	log *slog.Logger
	cfg Config

	auth       *auth.Service
	lessons    *lessons.Catalog
	progress   *progress.Service
	onboarding *onboarding.MemoryStore
}

// NewHandler constructs a Handler. All dependencies are required.
func NewHandler(
	log *slog.Logger,
	cfg Config,
	authSvc *auth.Service,
	catalog *lessons.Catalog,
	progressSvc *progress.Service,
	prefs *onboarding.MemoryStore,
) (*Handler, error) {
	if authSvc == nil || catalog == nil || progressSvc == nil || prefs == nil {
		return nil, errors.New("authapi: nil dependency")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	return &Handler{
		log:        log,
		cfg:        cfg,
		auth:       authSvc,
		lessons:    catalog,
		progress:   progressSvc,
		onboarding: prefs,
	}, nil
}

// Register mounts the API routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /onboarding/preferences", h.handleOnboarding)

	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/session", h.handleSession)
	mux.HandleFunc("POST /auth/reset", h.handleReset)

	mux.HandleFunc("GET /lessons", h.handleListLessons)
	mux.HandleFunc("GET /lessons/{id}", h.handleGetLesson)

	mux.HandleFunc("POST /progress", h.handleRecordProgress)
	mux.HandleFunc("GET /progress", h.handleListProgress)
}

func (h *Handler) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	_, err := h.onboarding.Append(r.Context(), onboarding.Preferences{
		Experience: req.Experience,
		Goal:       req.Goal,
		Cadence:    req.Cadence,
	})
	if err != nil {
		if errors.Is(err, onboarding.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", "experience, goal and cadence are required")
			return
		}
		h.serverError(w, "onboarding.store.fail", err)
		return
	}

	writeJSON(w, http.StatusOK, storedResponse{Stored: true})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "name is required")
		return
	case !validEmail(req.Email):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "a valid email is required")
		return
	case req.Password == "":
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "password is required")
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case identity.IsAlreadyExists(err):
			h.auditSignupConflict(r, req.Email)
			writeError(w, http.StatusConflict, "account_exists", "Account already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid signup request")
		default:
			h.serverError(w, "auth.signup.fail", err)
		}
		return
	}

	h.auditSignup(r, res.Account.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(res))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if !validEmail(req.Email) || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "email and password are required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if identity.IsInvalidCredentials(err) {
			h.auditLoginFailed(r, req.Email)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
			return
		}
		h.serverError(w, "auth.login.fail", err)
		return
	}

	h.auditLoginSuccess(r, res.Account.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(res))
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	tok := token.FromAuthorizationHeader(r.Header.Get("Authorization"))

	res, err := h.auth.CurrentSession(r.Context(), tok)
	if err != nil {
		h.writeGateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(res))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "a valid email is required")
		return
	}

	res, err := h.auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.serverError(w, "auth.reset.fail", err)
		return
	}

	h.auditResetRequested(r, res.ExistingAccount)
	writeJSON(w, http.StatusOK, resetResponse{Sent: res.Sent, ExistingAccount: res.ExistingAccount})
}

func (h *Handler) handleListLessons(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAccount(w, r); !ok {
		return
	}

	ls := h.lessons.List()
	out := make([]lessonResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLessonResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAccount(w, r); !ok {
		return
	}

	l, err := h.lessons.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "lesson_not_found", "Lesson not found")
		return
	}
	writeJSON(w, http.StatusOK, toLessonResponse(l))
}

func (h *Handler) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.requireAccount(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.UserID != nil && strings.TrimSpace(*req.UserID) != acct.ID {
		writeError(w, http.StatusForbidden, "forbidden", "Cannot record progress for another user")
		return
	}

	entry, _, err := h.progress.Record(r.Context(), acct, progress.Update{
		LessonID:   req.LessonID,
		Status:     req.Status,
		XPEarned:   req.XPEarned,
		GemsEarned: req.GemsEarned,
	})
	if err != nil {
		switch {
		case errors.Is(err, progress.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", "Progress totals out of range")
		case identity.IsNotFound(err):
			// Account deleted between the gate and the credit.
			writeError(w, http.StatusUnauthorized, "account_gone", "Account no longer exists")
		default:
			h.serverError(w, "progress.record.fail", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toProgressEntryResponse(entry))
}

func (h *Handler) handleListProgress(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.requireAccount(w, r)
	if !ok {
		return
	}

	entries, err := h.progress.List(r.Context(), acct)
	if err != nil {
		h.serverError(w, "progress.list.fail", err)
		return
	}

	out := make([]progressEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toProgressEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) requireAccount(w http.ResponseWriter, r *http.Request) (identity.Account, bool) {
	tok := token.FromAuthorizationHeader(r.Header.Get("Authorization"))

	acct, err := h.auth.Authenticate(r.Context(), tok)
	if err != nil {
		h.writeGateError(w, err)
		return identity.Account{}, false
	}
	return acct, true
}

func (h *Handler) writeGateError(w http.ResponseWriter, err error) {
	code, detail := "", ""
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		code, detail = "missing_credentials", "Missing credentials"
	case errors.Is(err, session.ErrInvalidSession):
		code, detail = "invalid_session", "Invalid session token"
	case errors.Is(err, session.ErrAccountGone):
		code, detail = "account_gone", "Account no longer exists"
	default:
		h.serverError(w, "auth.gate.fail", err)
		return
	}

	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, code, detail)
}

func (h *Handler) serverError(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}
