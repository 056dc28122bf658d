package syncservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

type ctxKey int

const ctxKeySubject ctxKey = iota

// Handler serves the sync service's HTTP surface: authn and opaque
// blob CRUD.
type Handler struct {
	store *Store
	auth  *Authenticator
	log   zerolog.Logger
	now   func() time.Time
}

// NewHandler creates a Handler over store using auth for token
// issuance and validation.
func NewHandler(store *Store, auth *Authenticator, log zerolog.Logger) *Handler {
	return &Handler{store: store, auth: auth, log: log.With().Str("component", "syncservice-handler").Logger(), now: time.Now}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, newErrorResponse(code, message))
}

// HandleHealth reports liveness; used by orchestration probes, not
// rate limited or authenticated.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
}

// HandleRegister creates a new account, rejecting one that already
// exists. The caller supplies a SHA-256 hex digest of the password;
// the service never sees the plaintext.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	existing, err := h.store.GetUser(req.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("lookup user for registration")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, ErrCodeConflict, "user already exists")
		return
	}

	user := User{UserID: req.UserID, PasswordHash: req.PasswordHash, CreatedAt: h.now()}
	if err := h.store.PutUser(user); err != nil {
		h.log.Error().Err(err).Msg("persist new user")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func validateRegisterRequest(req registerRequest) error {
	var errs *multierror.Error
	if !ValidUserID(req.UserID) {
		errs = multierror.Append(errs, errInvalidUserID)
	}
	if !sha256HexPattern.MatchString(req.PasswordHash) {
		errs = multierror.Append(errs, errInvalidPasswordHash)
	}
	return errs.ErrorOrNil()
}

var sha256HexPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

var (
	errInvalidUserID       = strError("invalid userId")
	errInvalidPasswordHash = strError("passwordHash must be a SHA-256 hex digest")
)

type strError string

func (e strError) Error() string { return string(e) }

type loginRequest struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
}

// HandleLogin compares the supplied password hash against the stored
// one and, on success, issues a fresh token pair.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	user, err := h.store.GetUser(req.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("lookup user for login")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}
	if err := h.auth.VerifyPassword(user.PasswordHash, req.PasswordHash); err != nil {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.auth.IssueTokenPair(user.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token pair")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse(pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh validates a refresh token and issues a new token
// pair.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	userID, err := h.auth.ParseToken(req.RefreshToken, tokenTypeRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid refresh token")
		return
	}

	pair, err := h.auth.IssueTokenPair(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token pair on refresh")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse(pair))
}

func tokenPairResponse(pair TokenPair) map[string]interface{} {
	return map[string]interface{}{
		"accessToken":      pair.AccessToken,
		"refreshToken":     pair.RefreshToken,
		"accessExpiresAt":  pair.AccessExpiresAt,
		"refreshExpiresAt": pair.RefreshExpiresAt,
	}
}

// RequireAccessToken validates the Authorization header's bearer
// token and attaches its subject to the request context.
func (h *Handler) RequireAccessToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
			return
		}

		sub, err := h.auth.ParseToken(strings.TrimPrefix(header, prefix), tokenTypeAccess)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySubject, sub)
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) authorizeUser(r *http.Request, bodyUserID string) bool {
	sub, _ := r.Context().Value(ctxKeySubject).(string)
	pathUserID := chi.URLParam(r, "userId")
	if pathUserID != "" && sub != pathUserID {
		return false
	}
	if bodyUserID != "" && sub != bodyUserID {
		return false
	}
	return true
}

type uploadRequest struct {
	UserID        string `json:"userId"`
	DeviceID      string `json:"deviceId"`
	EncryptedData string `json:"encryptedData"`
	Timestamp     int64  `json:"timestamp"`
	Version       int    `json:"version"`
	Force         bool   `json:"force"`
}

const maxClockSkewAhead = 5 * time.Minute

// HandleUpload implements the upload algorithm: validate, compare
// against any existing record's timestamp (409 unless forced),
// persist, and echo back the timestamp actually stored.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "failed to read body")
		return
	}
	if len(body) > maxPayloadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "body exceeds size limit")
		return
	}

	var req uploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON")
		return
	}
	if err := validateUploadRequest(req, h.now()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if !h.authorizeUser(r, req.UserID) {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "token does not authorize this user")
		return
	}

	existing, err := h.store.GetBlob(req.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("load existing blob")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	if existing != nil && existing.Timestamp > req.Timestamp && !req.Force {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success":    false,
			"error":      ErrCodeConflict,
			"serverData": blobAsServerData(*existing),
		})
		return
	}

	storedTimestamp := req.Timestamp
	if req.Force {
		storedTimestamp = h.now().UnixMilli()
	}

	record := BlobRecord{
		UserID:        req.UserID,
		DeviceID:      req.DeviceID,
		EncryptedData: req.EncryptedData,
		Timestamp:     storedTimestamp,
		Version:       req.Version,
	}
	if err := h.store.PutBlob(record); err != nil {
		h.log.Error().Err(err).Msg("persist blob")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "timestamp": storedTimestamp})
}

func blobAsServerData(b BlobRecord) map[string]interface{} {
	return map[string]interface{}{
		"encryptedData": b.EncryptedData,
		"deviceId":      b.DeviceID,
		"timestamp":     b.Timestamp,
		"version":       b.Version,
	}
}

func validateUploadRequest(req uploadRequest, now time.Time) error {
	var errs *multierror.Error
	if !ValidUserID(req.UserID) {
		errs = multierror.Append(errs, errInvalidUserID)
	}
	if req.DeviceID == "" {
		errs = multierror.Append(errs, strError("deviceId is required"))
	}
	if req.EncryptedData == "" {
		errs = multierror.Append(errs, strError("encryptedData is required"))
	}
	if req.Timestamp <= 0 {
		errs = multierror.Append(errs, strError("timestamp must be a positive number"))
	}
	if time.UnixMilli(req.Timestamp).After(now.Add(maxClockSkewAhead)) {
		errs = multierror.Append(errs, strError("timestamp is too far in the future"))
	}
	if req.Version < 1 {
		errs = multierror.Append(errs, strError("version must be at least 1"))
	}
	return errs.ErrorOrNil()
}

// HandleDownload returns the stored blob for :userId, or 404 if none
// exists.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(r, "") {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "token does not authorize this user")
		return
	}

	blob, err := h.store.GetBlob(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("load blob")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	if blob == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no record for user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": blobAsServerData(*blob)})
}

// HandleDelete removes the stored blob for :userId. Deleting an
// absent blob still returns 200.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(r, "") {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "token does not authorize this user")
		return
	}

	if err := h.store.DeleteBlob(userID); err != nil {
		h.log.Error().Err(err).Msg("delete blob")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
	if err := dec.Decode(v); err != nil {
		return strError("malformed JSON body")
	}
	return nil
}

// sha256Hex is exposed for callers (CLI, tests) that need to produce
// the same digest the client sends; the service itself only ever
// compares digests, never plaintext.
func sha256Hex(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
