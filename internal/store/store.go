package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/izzyjosh/brandai/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// openDialector picks the gorm dialector for the configured driver. sqlite is
// the development and test default, postgres the deployment target.
func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := openDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) GetUserByGitHubID(githubID int64) (*models.User, error) {
	var user models.User
	if err := s.db.Where("github_id = ?", githubID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpsertGitHubUser creates or refreshes the account keyed by GitHub id. On a
// repeat login the profile fields and token are updated in place, so the same
// GitHub account never yields two rows.
func (s *Store) UpsertGitHubUser(profile *models.User) (*models.User, error) {
	var user models.User
	err := s.db.Where("github_id = ?", profile.GitHubID).First(&user).Error

	if err == nil {
		user.Username = profile.Username
		user.Email = profile.Email
		user.Name = profile.Name
		user.AvatarURL = profile.AvatarURL
		user.PublicRepos = profile.PublicRepos
		user.PrivateRepos = profile.PrivateRepos
		user.Followers = profile.Followers
		user.Following = profile.Following
		user.EncryptedAccessToken = profile.EncryptedAccessToken
		user.TokenExpiresAt = profile.TokenExpiresAt
		user.RefreshToken = profile.RefreshToken
		if err := s.db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user = *profile
	user.ID = uuid.New().String()
	// New accounts start with the default content preferences
	user.Cadence = "weekly"
	user.Tone = "formal"
	user.Emojis = false
	user.Hashtags = true

	if err := s.db.Create(&user).Error; err != nil {
		// A concurrent login can win the race on the github_id index
		var existing models.User
		if lookupErr := s.db.Where("github_id = ?", profile.GitHubID).
			First(&existing).Error; lookupErr == nil {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateGitHubToken replaces the stored token material for a user.
func (s *Store) UpdateGitHubToken(
	userID, encryptedToken, refreshToken string,
	expiresAt *time.Time,
) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"encrypted_access_token": encryptedToken,
		"refresh_token":          refreshToken,
		"token_expires_at":       expiresAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePreferences persists the content generation settings for a user.
func (s *Store) UpdatePreferences(userID, cadence, tone string, emojis, hashtags bool) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"cadence":  cadence,
		"tone":     tone,
		"emojis":   emojis,
		"hashtags": hashtags,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB exposes the underlying connection for tests
func (s *Store) DB() *gorm.DB {
	return s.db
}
