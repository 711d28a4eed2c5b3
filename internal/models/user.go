package models

import (
	"time"
)

type User struct {
	ID        string `gorm:"primaryKey"`
	GitHubID  int64  `gorm:"column:github_id;uniqueIndex;not null"` // GitHub account id, the stable identity key
	Username  string `gorm:"not null"`                              // GitHub login, may change between logins
	Email     string
	Name      string
	AvatarURL string

	// Profile counters captured at last login
	PublicRepos  int
	PrivateRepos int
	Followers    int
	Following    int

	// Content generation preferences
	Cadence  string `gorm:"default:'weekly'"` // "daily", "weekly" or "monthly"
	Tone     string `gorm:"default:'formal'"` // "formal" or "casual"
	Emojis   bool   `gorm:"default:false"`
	Hashtags bool   `gorm:"default:true"`

	// GitHub OAuth token, encrypted at rest
	EncryptedAccessToken string
	TokenExpiresAt       *time.Time // nil for non-expiring OAuth app tokens
	RefreshToken         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasToken returns true if the user has a stored GitHub token.
func (u *User) HasToken() bool {
	return u.EncryptedAccessToken != ""
}
