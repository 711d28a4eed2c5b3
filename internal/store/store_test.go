package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzyjosh/brandai/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func githubProfile() *models.User {
	return &models.User{
		GitHubID:             42,
		Username:             "octocat",
		Email:                "octocat@github.com",
		Name:                 "The Octocat",
		AvatarURL:            "https://avatars.githubusercontent.com/u/42",
		PublicRepos:          8,
		Followers:            100,
		Following:            9,
		EncryptedAccessToken: "ciphertext-1",
	}
}

func TestUpsertGitHubUser(t *testing.T) {
	t.Run("first login creates the account", func(t *testing.T) {
		s := newTestStore(t)

		user, err := s.UpsertGitHubUser(githubProfile())
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, int64(42), user.GitHubID)
		assert.Equal(t, "octocat", user.Username)
		assert.Equal(t, "weekly", user.Cadence)
		assert.Equal(t, "formal", user.Tone)
		assert.True(t, user.Hashtags)
		assert.False(t, user.Emojis)
	})

	t.Run("repeat login updates instead of duplicating", func(t *testing.T) {
		s := newTestStore(t)

		first, err := s.UpsertGitHubUser(githubProfile())
		require.NoError(t, err)

		renamed := githubProfile()
		renamed.Username = "octocat-renamed"
		renamed.PublicRepos = 12
		renamed.EncryptedAccessToken = "ciphertext-2"

		second, err := s.UpsertGitHubUser(renamed)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "octocat-renamed", second.Username)
		assert.Equal(t, 12, second.PublicRepos)
		assert.Equal(t, "ciphertext-2", second.EncryptedAccessToken)

		var count int64
		require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("repeat login keeps preferences", func(t *testing.T) {
		s := newTestStore(t)

		user, err := s.UpsertGitHubUser(githubProfile())
		require.NoError(t, err)
		require.NoError(t, s.UpdatePreferences(user.ID, "daily", "casual", true, false))

		again, err := s.UpsertGitHubUser(githubProfile())
		require.NoError(t, err)
		assert.Equal(t, "daily", again.Cadence)
		assert.Equal(t, "casual", again.Tone)
		assert.True(t, again.Emojis)
		assert.False(t, again.Hashtags)
	})
}

func TestGetUser(t *testing.T) {
	s := newTestStore(t)

	created, err := s.UpsertGitHubUser(githubProfile())
	require.NoError(t, err)

	t.Run("by github id", func(t *testing.T) {
		user, err := s.GetUserByGitHubID(42)
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("by id", func(t *testing.T) {
		user, err := s.GetUserByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.GitHubID)
	})

	t.Run("missing github id", func(t *testing.T) {
		_, err := s.GetUserByGitHubID(999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := s.GetUserByID("no-such-user")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpdateGitHubToken(t *testing.T) {
	s := newTestStore(t)

	created, err := s.UpsertGitHubUser(githubProfile())
	require.NoError(t, err)

	expiry := time.Now().Add(8 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateGitHubToken(created.ID, "ciphertext-3", "refresh-1", &expiry))

	user, err := s.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ciphertext-3", user.EncryptedAccessToken)
	assert.Equal(t, "refresh-1", user.RefreshToken)
	require.NotNil(t, user.TokenExpiresAt)
	assert.WithinDuration(t, expiry, *user.TokenExpiresAt, time.Second)

	t.Run("unknown user", func(t *testing.T) {
		err := s.UpdateGitHubToken("no-such-user", "x", "", nil)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpdatePreferences(t *testing.T) {
	s := newTestStore(t)

	created, err := s.UpsertGitHubUser(githubProfile())
	require.NoError(t, err)

	require.NoError(t, s.UpdatePreferences(created.ID, "monthly", "casual", true, false))

	user, err := s.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "monthly", user.Cadence)
	assert.Equal(t, "casual", user.Tone)
	assert.True(t, user.Emojis)
	assert.False(t, user.Hashtags)

	t.Run("unknown user", func(t *testing.T) {
		err := s.UpdatePreferences("no-such-user", "daily", "formal", false, true)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Health())
}
