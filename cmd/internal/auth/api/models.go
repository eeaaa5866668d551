package authapi

import "time"

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type onboardingRequest struct {
	Experience string `json:"experience"`
	Goal       string `json:"goal"`
	Cadence    string `json:"cadence"`
}

type progressRequest struct {
	// UserID is accepted for compatibility; it must match the caller when set.
	UserID     *string `json:"user_id"`
	LessonID   string  `json:"lesson_id"`
	Status     string  `json:"status"`
	XPEarned   int     `json:"xp_earned"`
	GemsEarned int     `json:"gems_earned"`
}

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Level     int    `json:"level"`
	XP        int    `json:"xp"`
	Streak    int    `json:"streak"`
	Gems      int    `json:"gems"`
	AvatarURL string `json:"avatarUrl"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type resetResponse struct {
	Sent            bool `json:"sent"`
	ExistingAccount bool `json:"existingAccount"`
}

type storedResponse struct {
	Stored bool `json:"stored"`
}

type lessonResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

type progressEntryResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	LessonID   string    `json:"lesson_id"`
	Status     string    `json:"status"`
	XPEarned   int       `json:"xp_earned"`
	GemsEarned int       `json:"gems_earned"`
	RecordedAt time.Time `json:"recorded_at"`
}
