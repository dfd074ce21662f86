// Package spotify wraps the two Spotify Web API calls the tracker
// needs: reading the player state for an access token and exchanging
// a refresh token for a new access token.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// PlaybackState is the typed outcome of a player query.
type PlaybackState int

const (
	// StatePlaying means the provider confirmed active playback.
	StatePlaying PlaybackState = iota
	// StateNotPlaying means the provider answered and playback is
	// paused, stopped, or there is no active device.
	StateNotPlaying
	// StateUnauthorized means the access token was rejected (HTTP 401).
	StateUnauthorized
	// StateError covers transport failures and unexpected statuses.
	// Callers must treat it as "skip this cycle", never as idle time.
	StateError
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateNotPlaying:
		return "not playing"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}

// TokenPair holds the result of a refresh grant. RefreshToken is empty
// unless Spotify rotated it, in which case the caller must persist the
// new one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Client calls the Spotify player and token endpoints.
type Client struct {
	clientID     string
	clientSecret string
	playerURL    string
	tokenURL     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// New creates a Client. The limiter bounds total call volume across
// all users so a large registry can't hammer the API.
func New(clientID, clientSecret, playerURL, tokenURL string, logger *slog.Logger) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		playerURL:    playerURL,
		tokenURL:     tokenURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		logger:       logger,
	}
}

// CurrentPlayback queries the player endpoint with the given access
// token. A nil error means the state is definitive (Playing,
// NotPlaying, or Unauthorized); StateError always carries the cause.
func (c *Client) CurrentPlayback(ctx context.Context, accessToken string) (PlaybackState, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return StateError, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.playerURL, nil)
	if err != nil {
		return StateError, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StateError, fmt.Errorf("player request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			IsPlaying bool `json:"is_playing"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return StateError, fmt.Errorf("failed to decode player response: %w", err)
		}
		if body.IsPlaying {
			return StatePlaying, nil
		}
		return StateNotPlaying, nil
	case http.StatusNoContent:
		// No active device; definitive "not playing".
		return StateNotPlaying, nil
	case http.StatusUnauthorized:
		return StateUnauthorized, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return StateError, fmt.Errorf("spotify API error (%d): %s", resp.StatusCode, body)
	}
}

// RefreshAccessToken exchanges a refresh token for a new access token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := url.Values{}
	payload.Set("grant_type", "refresh_token")
	payload.Set("refresh_token", refreshToken)
	payload.Set("client_id", c.clientID)
	payload.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token refresh failed (%d): %s", resp.StatusCode, body)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("token refresh returned an empty access token")
	}

	c.logger.Debug("refreshed access token", "rotated", body.RefreshToken != "")

	return &TokenPair{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
	}, nil
}
