package authapi

import (
	"net"
	"net/http"
	"net/mail"
	"strings"

	"quest/cmd/identity"
	"quest/cmd/internal/auth"
	"quest/cmd/internal/lessons"
	"quest/cmd/internal/progress"
)

func toUserResponse(a identity.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Level:     a.Level,
		XP:        a.XP,
		Streak:    a.Streak,
		Gems:      a.Gems,
		AvatarURL: a.AvatarURL,
	}
}

func toSessionResponse(res auth.Result) sessionResponse {
	return sessionResponse{
		Token: res.Token,
		User:  toUserResponse(res.Account),
	}
}

func toLessonResponse(l lessons.Lesson) lessonResponse {
	return lessonResponse{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		EstimatedMinutes: l.EstimatedMinutes,
	}
}

func toProgressEntryResponse(e progress.Entry) progressEntryResponse {
	return progressEntryResponse{
		ID:         e.ID,
		UserID:     e.AccountID,
		LessonID:   e.LessonID,
		Status:     e.Status,
		XPEarned:   e.XPEarned,
		GemsEarned: e.GemsEarned,
		RecordedAt: e.RecordedAt,
	}
}

// validEmail accepts a bare addr-spec ("a@b.c"), not a display-name form.
func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
