package models

import "time"

// User is created on the first verified Telegram login.
type User struct {
	ID                   string
	TelegramID           int64
	Username             string
	FirstName            string
	LastName             string
	PhotoURL             string
	BalanceMinutes       int
	AgreedToPersonalData bool
	AgreedToTerms        bool
	OnboardingCompleted  bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Session maps an opaque token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    string
	UserAgent string
	IPAddress string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// UserStats aggregates usage for the profile page.
type UserStats struct {
	BalanceMinutes    int
	UsedMinutes       int
	AnalysesCompleted int
	FilesUploaded     int
}
