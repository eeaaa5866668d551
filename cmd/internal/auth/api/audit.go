package authapi

import (
	"log/slog"
	"net/http"
	"strings"

	"quest/cmd/identity"
)

func (h *Handler) auditSignup(r *http.Request, userID string) {
	h.audit(r, "auth.signup.success", slog.String("user_id", userID))
}

func (h *Handler) auditSignupConflict(r *http.Request, email string) {
	h.audit(r, "auth.signup.conflict", slog.String("identifier", identity.NormalizeEmail(email)))
}

func (h *Handler) auditLoginFailed(r *http.Request, email string) {
	h.audit(r, "auth.login.failed", slog.String("identifier", identity.NormalizeEmail(email)))
}

func (h *Handler) auditLoginSuccess(r *http.Request, userID string) {
	h.audit(r, "auth.login.success", slog.String("user_id", userID))
}

func (h *Handler) auditResetRequested(r *http.Request, existing bool) {
	h.audit(r, "auth.reset.requested", slog.Bool("existing", existing))
}

// audit writes one structured audit record. Tokens and passwords are never passed here.
func (h *Handler) audit(r *http.Request, action string, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	meta := make([]any, 0, len(attrs)+2)
	if ip := clientIP(r, h.cfg.TrustProxy); ip != nil {
		meta = append(meta, slog.String("ip", ip.String()))
	}
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		meta = append(meta, slog.String("user_agent", ua))
	}
	for _, a := range attrs {
		meta = append(meta, a)
	}

	h.log.LogAttrs(r.Context(), slog.LevelInfo, action, slog.Group("audit", meta...))
}
