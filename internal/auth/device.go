package auth

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

const (
	// deviceGrantType is the RFC 8628 device-code grant type.
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// defaultPollInterval is used when the provider does not supply one.
	defaultPollInterval = 5 * time.Second

	// slowDownIncrement is added to the interval on each slow_down reply,
	// per GitHub's cooperative back-off protocol.
	slowDownIncrement = 5 * time.Second

	// maxPollAttempts bounds the polling loop so a device code the user
	// never approves cannot block a caller indefinitely.
	maxPollAttempts = 20
)

// Device-flow error codes returned by GitHub's token endpoint.
const (
	deviceErrAuthorizationPending = "authorization_pending"
	deviceErrSlowDown             = "slow_down"
	deviceErrExpiredToken         = "expired_token"
)

// DeviceAuthorization is GitHub's reply to a device-code request.
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// deviceTokenResponse is GitHub's reply to a device-token poll. GitHub
// signals pending/back-off conditions through the error field on a 200.
type deviceTokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// RequestDeviceCode starts the device flow: GitHub issues a device code for
// polling and a user code for the person to enter on a separate device.
func (p *Provider) RequestDeviceCode(ctx context.Context) (*DeviceAuthorization, error) {
	form := url.Values{
		"client_id": {p.deviceClientID},
		"scope":     {strings.Join(p.scopes, " ")},
	}

	var da DeviceAuthorization
	if err := p.postForm(ctx, p.deviceCodeURL, form, &da); err != nil {
		return nil, err
	}

	if da.Interval <= 0 {
		da.Interval = int(defaultPollInterval / time.Second)
	}
	return &da, nil
}

// PollDeviceToken polls GitHub's token endpoint until the device code is
// resolved. Per attempt the flow is in a single non-terminal state:
//
//	authorization_pending -> sleep the current interval and poll again
//	slow_down             -> grow the interval by 5s, sleep, poll again
//	expired_token         -> ErrDeviceCodeExpired, terminal
//	any other error code  -> ErrUpstreamAuth, terminal
//	access token present  -> success
//
// The loop is capped at 20 attempts; hitting the cap yields
// ErrDeviceFlowTimeout. The number of polls made is always returned for
// instrumentation.
func (p *Provider) PollDeviceToken(
	ctx context.Context,
	deviceCode string,
	interval time.Duration,
) (string, int, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	form := url.Values{
		"client_id":     {p.deviceClientID},
		"client_secret": {p.clientSecret},
		"device_code":   {deviceCode},
		"grant_type":    {deviceGrantType},
	}

	attempts := 0
	for attempts < maxPollAttempts {
		attempts++

		var reply deviceTokenResponse
		if err := p.postForm(ctx, p.deviceTokenURL, form, &reply); err != nil {
			return "", attempts, err
		}

		switch reply.ErrorCode {
		case deviceErrAuthorizationPending:
			if err := p.sleep(ctx, interval); err != nil {
				return "", attempts, err
			}
			continue

		case deviceErrSlowDown:
			interval += slowDownIncrement
			if err := p.sleep(ctx, interval); err != nil {
				return "", attempts, err
			}
			continue

		case deviceErrExpiredToken:
			return "", attempts, ErrDeviceCodeExpired

		case "":
			if reply.AccessToken == "" {
				return "", attempts, fmt.Errorf("%w: no access token received", ErrUpstreamAuth)
			}
			return reply.AccessToken, attempts, nil

		default:
			log.Printf("auth: device verification rejected: %s", reply.ErrorCode)
			return "", attempts, fmt.Errorf("%w: %s", ErrUpstreamAuth, reply.ErrorCode)
		}
	}

	return "", attempts, ErrDeviceFlowTimeout
}
