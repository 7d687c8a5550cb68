// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tournament-wallet-service/metrics"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"

	"github.com/sirupsen/logrus"
)

// ProfileChange is one user record as returned by the sync service.
type ProfileChange struct {
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Currency   string    `json:"currency"`
	Country    string    `json:"country"`
	GameMode   string    `json:"game_mode"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetUserChangesResponse is the top-level structure of the sync service response.
type GetUserChangesResponse struct {
	Users []ProfileChange `json:"users"`
}

// UserSyncWorker mirrors profile-service users into the local users table.
type UserSyncWorker struct {
	users        store.UserStore
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
	log          *logrus.Entry
}

func NewUserSyncWorker(users store.UserStore, syncServiceBaseURL, endpointPath, serviceToken string, interval time.Duration) *UserSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &UserSyncWorker{
		users:        users,
		interval:     interval,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: utils.Component("user_sync"),
	}
}

func (w *UserSyncWorker) Start(ctx context.Context) {
	w.log.Info("🔁 Starting user sync worker (sync-service → users)")
	go w.run(ctx)
}

func (w *UserSyncWorker) run(ctx context.Context) {
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.log.Info("⏹️ User sync worker stopped")
			return
		}
	}
}

func (w *UserSyncWorker) tick(ctx context.Context) {
	since, err := w.users.LatestUserUpdate(ctx)
	if err != nil {
		w.log.WithError(err).Warn("⚠️ could not read sync cursor, resyncing from scratch")
		since = time.Time{}
	}
	_, err = w.SyncBatch(ctx, since)
	metrics.RecordJobRun("user_sync", err == nil)
	if err != nil {
		w.log.WithError(err).Error("❌ Sync batch failed")
	}
}

// SyncBatch fetches user changes since the cursor and upserts them. It returns how many were stored.
func (w *UserSyncWorker) SyncBatch(ctx context.Context, since time.Time) (int, error) {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid base sync service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("sync service returned %d: %s", resp.StatusCode, string(body))
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	if len(response.Users) == 0 {
		w.log.Debugf("✅ No user changes since %s", sinceStr)
		return 0, nil
	}

	var upserted, failed int
	for _, remote := range response.Users {
		if strings.TrimSpace(remote.ExternalID) == "" {
			failed++
			continue
		}
		currency, err := services.ParseCurrency(remote.Currency)
		if err != nil {
			currency = models.CurrencyUSD
		}
		updatedAt := remote.UpdatedAt
		local := &models.User{
			ExternalUserID:  remote.ExternalID,
			Username:        remote.Username,
			Email:           remote.Email,
			Currency:        currency,
			Country:         remote.Country,
			GameMode:        remote.GameMode,
			ProfileSyncedAt: &updatedAt,
		}
		if err := w.users.UpsertUserByExternalID(ctx, local); err != nil {
			failed++
			w.log.WithError(err).WithField("external_id", remote.ExternalID).Warn("⚠️ Failed to upsert user")
			continue
		}
		upserted++
	}

	w.log.WithFields(logrus.Fields{
		"received": len(response.Users),
		"upserted": upserted,
		"errors":   failed,
	}).Info("✅ Synced users")
	return upserted, nil
}
