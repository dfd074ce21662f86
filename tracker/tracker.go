// Package tracker runs the listening-time polling loop: scan all
// users, query Spotify per user, refresh expired tokens, and attribute
// elapsed time to each user's accumulator.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/tunestats/tunestats/models"
	"github.com/tunestats/tunestats/spotify"
)

// Store is the persistence the tracker needs. The tracker is the only
// writer of listen_time and last_check_time; registration only ever
// creates records. Running two tracker instances against one store
// breaks that discipline.
type Store interface {
	GetAllUsers() ([]*models.User, error)
	UpdateUserTokens(email, accessToken, refreshToken string) error
	UpdateListenState(email string, listenTime, lastCheckTime int64) error
	TouchLastCheck(email string, lastCheckTime int64) error
}

// PlaybackProvider is the slice of the Spotify client the tracker uses.
type PlaybackProvider interface {
	CurrentPlayback(ctx context.Context, accessToken string) (spotify.PlaybackState, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*spotify.TokenPair, error)
}

// outcome is the per-user result of one cycle.
type outcome int

const (
	// outcomeAccumulated: playback confirmed, listen time advanced.
	outcomeAccumulated outcome = iota
	// outcomeIdle: definitive not-playing, checkpoint advanced only.
	outcomeIdle
	// outcomeSkipped: record has no refresh token, never queried.
	outcomeSkipped
	// outcomeDeferred: transient provider failure or unresolved 401,
	// nothing mutated, retried naturally next cycle.
	outcomeDeferred
	// outcomeFailed: a store write failed after a definitive answer.
	outcomeFailed
)

type cycleReport struct {
	users       int
	accumulated int
	idle        int
	skipped     int
	deferred    int
	failed      int
}

// Tracker drives the polling loop.
type Tracker struct {
	store    Store
	provider PlaybackProvider
	logger   *slog.Logger

	// now is swapped out in tests
	now func() int64
}

func New(store Store, provider PlaybackProvider, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:    store,
		provider: provider,
		logger:   logger,
		now:      func() int64 { return time.Now().UnixNano() },
	}
}

// Run polls every user on a fixed interval until ctx is cancelled.
// Everything inside a cycle is contained: a bad user, a provider
// outage, or a store failure never stops the loop.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	t.logger.Info("listen tracker started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("listen tracker stopped")
			return
		case <-ticker.C:
			t.runCycle(ctx)
		}
	}
}

// runCycle scans the user snapshot once and processes each user in
// order: query, maybe refresh-and-requery, accumulate, persist.
func (t *Tracker) runCycle(ctx context.Context) cycleReport {
	var report cycleReport

	users, err := t.store.GetAllUsers()
	if err != nil {
		t.logger.Error("failed to scan users", "error", err)
		return report
	}
	report.users = len(users)

	for _, user := range users {
		result := t.processUser(ctx, user)
		switch result {
		case outcomeAccumulated:
			report.accumulated++
		case outcomeIdle:
			report.idle++
		case outcomeSkipped:
			report.skipped++
		case outcomeDeferred:
			report.deferred++
		case outcomeFailed:
			report.failed++
		}
	}

	t.logger.Info("cycle complete",
		"users", report.users,
		"accumulated", report.accumulated,
		"idle", report.idle,
		"skipped", report.skipped,
		"deferred", report.deferred,
		"failed", report.failed)

	return report
}

// processUser runs the full per-user sequence for one cycle.
func (t *Tracker) processUser(ctx context.Context, user *models.User) outcome {
	if user.RefreshToken == "" {
		t.logger.Warn("skipping user with missing refresh token", "user", user.Email)
		return outcomeSkipped
	}

	state, err := t.provider.CurrentPlayback(ctx, user.AccessToken)
	if err != nil {
		t.logger.Error("player query failed", "user", user.Email, "error", err)
		return outcomeDeferred
	}

	if state == spotify.StateUnauthorized {
		state, err = t.refreshAndRequery(ctx, user)
		if err != nil {
			t.logger.Error("token refresh failed", "user", user.Email, "error", err)
			return outcomeDeferred
		}
		if state == spotify.StateUnauthorized {
			// Still rejected after one refresh; give up until next cycle.
			t.logger.Warn("token still rejected after refresh", "user", user.Email)
			return outcomeDeferred
		}
	}

	now := t.now()
	playing := state == spotify.StatePlaying
	newListenTime, newLastCheck := advance(user.ListenTime, user.LastCheckTime, now, playing)

	if playing {
		if err := t.store.UpdateListenState(user.Email, newListenTime, newLastCheck); err != nil {
			t.logger.Error("failed to persist listen state", "user", user.Email, "error", err)
			return outcomeFailed
		}
		t.logger.Info("updated listen time",
			"user", user.Email,
			"listenTime", time.Duration(newListenTime))
		return outcomeAccumulated
	}

	if err := t.store.TouchLastCheck(user.Email, newLastCheck); err != nil {
		t.logger.Error("failed to persist checkpoint", "user", user.Email, "error", err)
		return outcomeFailed
	}
	return outcomeIdle
}

// refreshAndRequery exchanges the refresh token, persists the new
// credentials, and retries the player query exactly once. The requery
// result is returned verbatim; errors from any step mean nothing else
// was mutated this cycle.
func (t *Tracker) refreshAndRequery(ctx context.Context, user *models.User) (spotify.PlaybackState, error) {
	pair, err := t.provider.RefreshAccessToken(ctx, user.RefreshToken)
	if err != nil {
		return spotify.StateError, err
	}

	// Keep the old refresh token unless Spotify rotated it.
	newRefresh := user.RefreshToken
	if pair.RefreshToken != "" {
		newRefresh = pair.RefreshToken
	}

	if err := t.store.UpdateUserTokens(user.Email, pair.AccessToken, newRefresh); err != nil {
		return spotify.StateError, err
	}
	user.AccessToken = pair.AccessToken
	user.RefreshToken = newRefresh

	t.logger.Info("access token refreshed", "user", user.Email)

	return t.provider.CurrentPlayback(ctx, user.AccessToken)
}
