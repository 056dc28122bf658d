package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/crypto"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
)

// State is the client's coarse connection state: after login, after a
// failed refresh.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateAuthenticated   State = "AUTHENTICATED"
)

// uploadRequest mirrors the service's POST /sync body.
type uploadRequest struct {
	UserID        string `json:"userId"`
	DeviceID      string `json:"deviceId"`
	EncryptedData string `json:"encryptedData"`
	Timestamp     int64  `json:"timestamp"`
	Version       int    `json:"version"`
	Force         bool   `json:"force"`
}

// UploadOutcome is the result of one upload attempt.
type UploadOutcome struct {
	Uploaded   bool
	Skipped    bool // content-hash short-circuit
	Conflict   bool
	ServerData *ServerRecord
	LastSyncAt int64
}

// ServerRecord mirrors the service's stored/returned blob shape.
type ServerRecord struct {
	EncryptedData string `json:"encryptedData"`
	DeviceID      string `json:"deviceId"`
	Timestamp     int64  `json:"timestamp"`
	Version       int    `json:"version"`
}

// ErrPayloadTooLarge, ErrRateLimited, and ErrServerUnavailable map the
// service's 413/429/5xx responses, which must surface to the caller
// without mutating local state.
var (
	ErrPayloadTooLarge   = fmt.Errorf("syncclient: payload too large")
	ErrRateLimited       = fmt.Errorf("syncclient: rate limited")
	ErrServerUnavailable = fmt.Errorf("syncclient: server unavailable")
	ErrUnauthenticated   = fmt.Errorf("syncclient: unauthenticated")
)

// Client drives the upload/download/delete protocol and owns the
// single-flight invariant: at most one sync operation runs at a time,
// a single-threaded cooperative scheduling model.
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	Store      kvStore
	Passphrase string

	mu             sync.Mutex
	inFlight       bool
	lastServerHash string
}

// NewClient creates a Client.
func NewClient(httpClient *http.Client, baseURL string, store kvStore, passphrase string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTP: httpClient, BaseURL: baseURL, Store: store, Passphrase: passphrase}
}

// TryBeginSync attempts to claim the single in-flight slot. If a sync
// is already running, it returns false — the caller should retry after
// a short delay rather than queueing a second concurrent operation.
func (c *Client) TryBeginSync() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	return true
}

// EndSync releases the in-flight slot.
func (c *Client) EndSync() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// Upload collects, encrypts, and uploads the current config store
// state, applying the content-hash short-circuit and force-upload
// timestamp-adoption rules.
func (c *Client) Upload(ctx context.Context, userID, deviceID string, force bool, nowMs int64) (UploadOutcome, error) {
	return c.upload(ctx, userID, deviceID, force, nowMs, false)
}

func (c *Client) upload(ctx context.Context, userID, deviceID string, force bool, nowMs int64, retried bool) (UploadOutcome, error) {
	env, err := Collect(c.Store, nowMs)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("syncclient: collect: %w", err)
	}

	hash, err := ContentHash(env)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("syncclient: hash: %w", err)
	}
	if !force && hash == c.lastServerHash && c.lastServerHash != "" {
		return UploadOutcome{Skipped: true}, nil
	}

	plaintext, err := json.Marshal(env)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("syncclient: marshal envelope: %w", err)
	}
	encrypted, err := crypto.Encrypt(plaintext, c.Passphrase)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("syncclient: encrypt: %w", err)
	}

	body, err := json.Marshal(uploadRequest{
		UserID:        userID,
		DeviceID:      deviceID,
		EncryptedData: encrypted,
		Timestamp:     nowMs,
		Version:       2,
		Force:         force,
	})
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("syncclient: marshal request: %w", err)
	}

	tokens, err := LoadTokens(c.Store)
	if err != nil {
		return UploadOutcome{}, err
	}
	if tokens.AccessToken == "" {
		return UploadOutcome{}, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(interception.WithSyntheticRequest(ctx), http.MethodPost, c.BaseURL+"/sync", bytes.NewReader(body))
	if err != nil {
		return UploadOutcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return UploadOutcome{}, fmt.Errorf("syncclient: upload: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var decoded struct {
			Success   bool  `json:"success"`
			Timestamp int64 `json:"timestamp"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return UploadOutcome{}, fmt.Errorf("syncclient: decode upload response: %w", err)
		}
		if err := c.Store.Set(configstore.KeySyncLastSync, fmt.Sprintf("%d", decoded.Timestamp)); err != nil {
			return UploadOutcome{}, err
		}
		c.lastServerHash = hash
		return UploadOutcome{Uploaded: true, LastSyncAt: decoded.Timestamp}, nil

	case http.StatusConflict:
		var decoded struct {
			ServerData ServerRecord `json:"serverData"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return UploadOutcome{}, fmt.Errorf("syncclient: decode conflict response: %w", err)
		}
		return UploadOutcome{Conflict: true, ServerData: &decoded.ServerData}, nil

	case http.StatusUnauthorized:
		if retried {
			return UploadOutcome{}, ErrUnauthenticated
		}
		if ok, err := c.Refresh(ctx); err != nil || !ok {
			_ = ClearTokens(c.Store)
			return UploadOutcome{}, ErrUnauthenticated
		}
		return c.upload(ctx, userID, deviceID, force, nowMs, true)

	case http.StatusRequestEntityTooLarge:
		return UploadOutcome{}, ErrPayloadTooLarge

	case http.StatusTooManyRequests:
		return UploadOutcome{}, ErrRateLimited

	default:
		if resp.StatusCode >= 500 {
			return UploadOutcome{}, ErrServerUnavailable
		}
		return UploadOutcome{}, fmt.Errorf("syncclient: upload: unexpected status %d", resp.StatusCode)
	}
}

// Refresh exchanges the persisted refresh token for a new token pair.
// It returns false (without error) when the refresh token itself is
// rejected, which the caller should treat as a transition to
// UNAUTHENTICATED.
func (c *Client) Refresh(ctx context.Context) (bool, error) {
	tokens, err := LoadTokens(c.Store)
	if err != nil {
		return false, err
	}
	if tokens.RefreshToken == "" {
		return false, nil
	}

	body, err := json.Marshal(struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: tokens.RefreshToken})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(interception.WithSyntheticRequest(ctx), http.MethodPost, c.BaseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("syncclient: refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("syncclient: refresh: unexpected status %d", resp.StatusCode)
	}

	var decoded struct {
		AccessToken      string `json:"accessToken"`
		RefreshToken     string `json:"refreshToken"`
		AccessExpiresAt  int64  `json:"accessExpiresAt"`
		RefreshExpiresAt int64  `json:"refreshExpiresAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("syncclient: decode refresh response: %w", err)
	}

	if err := SaveTokens(c.Store, Tokens{
		AccessToken:      decoded.AccessToken,
		RefreshToken:     decoded.RefreshToken,
		AccessExpiresAt:  time.Unix(decoded.AccessExpiresAt, 0),
		RefreshExpiresAt: time.Unix(decoded.RefreshExpiresAt, 0),
	}); err != nil {
		return false, err
	}
	return true, nil
}

// Download fetches the remote envelope, decrypts and applies it. A
// 404 is treated as an empty remote and does not touch local state.
func (c *Client) Download(ctx context.Context, userID string) (applied bool, err error) {
	return c.download(ctx, userID, false)
}

func (c *Client) download(ctx context.Context, userID string, retried bool) (applied bool, err error) {
	tokens, err := LoadTokens(c.Store)
	if err != nil {
		return false, err
	}
	if tokens.AccessToken == "" {
		return false, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(interception.WithSyntheticRequest(ctx), http.MethodGet, c.BaseURL+"/sync/"+userID, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("syncclient: download: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return false, nil
	case http.StatusUnauthorized:
		if retried {
			return false, ErrUnauthenticated
		}
		if ok, refreshErr := c.Refresh(ctx); refreshErr != nil || !ok {
			_ = ClearTokens(c.Store)
			return false, ErrUnauthenticated
		}
		return c.download(ctx, userID, true)
	case http.StatusOK:
		var decoded struct {
			Data ServerRecord `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return false, fmt.Errorf("syncclient: decode download response: %w", err)
		}
		if err := c.applyServerRecord(decoded.Data); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("syncclient: download: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) applyServerRecord(record ServerRecord) error {
	plaintext, err := crypto.Decrypt(record.EncryptedData, c.Passphrase)
	if err != nil {
		return fmt.Errorf("syncclient: decrypt server record: %w", err)
	}
	env, err := DecodeEnvelope(plaintext)
	if err != nil {
		return err
	}
	if err := Apply(c.Store, env); err != nil {
		return err
	}
	hash, err := ContentHash(env)
	if err == nil {
		c.lastServerHash = hash
	}
	return nil
}

// Delete removes the user's remote blob and clears the local
// lastSyncAt, retaining all other local data.
func (c *Client) Delete(ctx context.Context, userID string) error {
	return c.delete(ctx, userID, false)
}

func (c *Client) delete(ctx context.Context, userID string, retried bool) error {
	tokens, err := LoadTokens(c.Store)
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		return ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(interception.WithSyntheticRequest(ctx), http.MethodDelete, c.BaseURL+"/sync/"+userID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("syncclient: delete: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return c.Store.Delete(configstore.KeySyncLastSync)
	case http.StatusUnauthorized:
		if retried {
			return ErrUnauthenticated
		}
		if ok, refreshErr := c.Refresh(ctx); refreshErr != nil || !ok {
			_ = ClearTokens(c.Store)
			return ErrUnauthenticated
		}
		return c.delete(ctx, userID, true)
	default:
		return fmt.Errorf("syncclient: delete: unexpected status %d", resp.StatusCode)
	}
}

// nowMillis is split out so tests can stub determinism without
// depending on wall-clock time.
func nowMillis(t time.Time) int64 {
	return t.UnixMilli()
}
