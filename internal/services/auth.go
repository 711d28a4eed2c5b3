package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"

	"github.com/izzyjosh/brandai/internal/auth"
	"github.com/izzyjosh/brandai/internal/cache"
	"github.com/izzyjosh/brandai/internal/config"
	"github.com/izzyjosh/brandai/internal/crypto"
	"github.com/izzyjosh/brandai/internal/metrics"
	"github.com/izzyjosh/brandai/internal/models"
	"github.com/izzyjosh/brandai/internal/store"
	"github.com/izzyjosh/brandai/internal/token"
	"github.com/izzyjosh/brandai/internal/util"
)

var (
	// ErrInvalidState is returned when a callback carries a state that was
	// never issued or was already consumed.
	ErrInvalidState = errors.New("unknown or reused oauth state")
)

// Metric label values for login outcomes.
const (
	flowAuthCode = "authorization_code"
	flowDevice   = "device"

	resultSuccess = "success"
	resultFailure = "failure"
)

// AuthorizationRequest is the start of the browser redirect flow.
type AuthorizationRequest struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// DeviceFlowStart is returned to a device client so the person can approve
// the login on a second screen.
type DeviceFlowStart struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// SessionUser is the account summary attached to an issued session.
type SessionUser struct {
	ID        string `json:"id"`
	GitHubID  int64  `json:"github_id"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SessionIssued is the terminal result of either login flow.
type SessionIssued struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        SessionUser `json:"user"`
}

// AuthService drives both GitHub login flows and owns the session lifecycle:
// exchange with GitHub, profile fetch, token encryption, account upsert, and
// JWT issuance.
type AuthService struct {
	config   *config.Config
	provider *auth.Provider
	store    *store.Store
	issuer   *token.Issuer
	cipher   *crypto.Cipher
	states   cache.Cache[string]
	metrics  metrics.Recorder
}

func NewAuthService(
	cfg *config.Config,
	provider *auth.Provider,
	s *store.Store,
	issuer *token.Issuer,
	cipher *crypto.Cipher,
	states cache.Cache[string],
	rec metrics.Recorder,
) *AuthService {
	if rec == nil {
		rec = metrics.NewNoopMetrics()
	}
	return &AuthService{
		config:   cfg,
		provider: provider,
		store:    s,
		issuer:   issuer,
		cipher:   cipher,
		states:   states,
		metrics:  rec,
	}
}

// InitiateAuthorization produces the GitHub authorization URL with a CSRF
// state. A caller that manages its own CSRF token may supply one; otherwise a
// fresh state is generated. Either way the state is remembered so the
// callback can prove the redirect originated here.
func (s *AuthService) InitiateAuthorization(
	ctx context.Context,
	requestedState string,
) (*AuthorizationRequest, error) {
	if s.config.GitHubClientID == "" {
		return nil, fmt.Errorf("%w: github client id is not set", auth.ErrNotConfigured)
	}

	state := requestedState
	if state == "" {
		var err error
		state, err = util.RandomState()
		if err != nil {
			return nil, fmt.Errorf("failed to generate state: %w", err)
		}
	}

	if s.states != nil {
		if err := s.states.Set(ctx, stateKey(state), "pending", s.config.StateTTL); err != nil {
			return nil, fmt.Errorf("failed to record state: %w", err)
		}
	}

	return &AuthorizationRequest{
		AuthorizationURL: s.provider.AuthCodeURL(state),
		State:            state,
	}, nil
}

// CompleteAuthorization finishes the redirect flow: the temporary code from
// the callback is exchanged for a GitHub token and a session is issued. Each
// state is honored at most once.
func (s *AuthService) CompleteAuthorization(
	ctx context.Context,
	code, state string,
) (*SessionIssued, error) {
	if s.config.GitHubClientID == "" || s.config.GitHubClientSecret == "" {
		return nil, fmt.Errorf("%w: github oauth credentials are not set", auth.ErrNotConfigured)
	}

	if s.states != nil {
		if _, err := s.states.Get(ctx, stateKey(state)); err != nil {
			s.metrics.RecordLogin(flowAuthCode, resultFailure)
			return nil, ErrInvalidState
		}
		// Consume before the exchange so a replayed callback cannot race it
		_ = s.states.Delete(ctx, stateKey(state))
	}

	tok, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		s.metrics.RecordLogin(flowAuthCode, resultFailure)
		return nil, err
	}

	session, err := s.completeLogin(ctx, tok)
	if err != nil {
		s.metrics.RecordLogin(flowAuthCode, resultFailure)
		return nil, err
	}

	s.metrics.RecordLogin(flowAuthCode, resultSuccess)
	return session, nil
}

// InitiateDeviceFlow requests a device and user code pair from GitHub.
func (s *AuthService) InitiateDeviceFlow(ctx context.Context) (*DeviceFlowStart, error) {
	if s.config.GitHubDeviceClientID == "" {
		return nil, fmt.Errorf("%w: github device client id is not set", auth.ErrNotConfigured)
	}

	da, err := s.provider.RequestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}

	return &DeviceFlowStart{
		DeviceCode:              da.DeviceCode,
		UserCode:                da.UserCode,
		VerificationURI:         da.VerificationURI,
		VerificationURIComplete: da.VerificationURIComplete,
		ExpiresIn:               da.ExpiresIn,
		Interval:                da.Interval,
	}, nil
}

// CompleteDeviceFlow polls GitHub until the person approves the device code,
// then issues a session the same way the redirect flow does. userCode is the
// short code shown to the person; polling only needs the device code, so it
// is carried for logging.
func (s *AuthService) CompleteDeviceFlow(
	ctx context.Context,
	deviceCode, userCode string,
	interval int,
) (*SessionIssued, error) {
	if s.config.GitHubDeviceClientID == "" {
		return nil, fmt.Errorf("%w: github device client id is not set", auth.ErrNotConfigured)
	}

	accessToken, attempts, err := s.provider.PollDeviceToken(
		ctx, deviceCode, time.Duration(interval)*time.Second)
	s.metrics.RecordDevicePollAttempts(attempts)
	if err != nil {
		if userCode != "" {
			log.Printf("auth: device flow for user code %s failed after %d polls: %v", userCode, attempts, err)
		}
		s.metrics.RecordLogin(flowDevice, resultFailure)
		return nil, err
	}

	session, err := s.completeLogin(ctx, &oauth2.Token{AccessToken: accessToken})
	if err != nil {
		s.metrics.RecordLogin(flowDevice, resultFailure)
		return nil, err
	}

	s.metrics.RecordLogin(flowDevice, resultSuccess)
	return session, nil
}

// UpdatePreferences persists new content generation settings for a user.
func (s *AuthService) UpdatePreferences(userID, cadence, tone string, emojis, hashtags bool) error {
	return s.store.UpdatePreferences(userID, cadence, tone, emojis, hashtags)
}

// completeLogin is the shared tail of both flows: fetch the GitHub profile,
// encrypt the token, upsert the account, and mint the session JWT.
func (s *AuthService) completeLogin(
	ctx context.Context,
	tok *oauth2.Token,
) (*SessionIssued, error) {
	ghUser, err := s.provider.FetchUser(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return nil, err
	}

	profile := &models.User{
		GitHubID:             ghUser.ID,
		Username:             ghUser.Login,
		Email:                ghUser.Email,
		Name:                 ghUser.Name,
		AvatarURL:            ghUser.AvatarURL,
		PublicRepos:          ghUser.PublicRepos,
		PrivateRepos:         ghUser.TotalPrivateRepos,
		Followers:            ghUser.Followers,
		Following:            ghUser.Following,
		EncryptedAccessToken: encrypted,
		RefreshToken:         tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		profile.TokenExpiresAt = &expiry
	}

	user, err := s.store.UpsertGitHubUser(profile)
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("auth: session issued for github user %s (id %d)", user.Username, user.GitHubID)

	return &SessionIssued{
		AccessToken: sessionToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.config.JWTExpiration().Seconds()),
		User: SessionUser{
			ID:        user.ID,
			GitHubID:  user.GitHubID,
			Username:  user.Username,
			Name:      user.Name,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
