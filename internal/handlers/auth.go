// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/store"
)

// totpIssuer labels the account in authenticator apps.
const totpIssuer = "Storefront"

// Auth groups the account and session handlers of the admin API.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
	stores    *store.StoreStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore, stores *store.StoreStore) *Auth {
	return &Auth{sessions: sessions, userStore: userStore, stores: stores}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	StoreName   string `json:"store_name"`
}

// authResponse is returned by signup, login and me.
type authResponse struct {
	User        *models.User  `json:"user"`
	Store       *models.Store `json:"store,omitempty"`
	Requires2FA bool          `json:"requires_2fa"`
	Warning     string        `json:"warning,omitempty"`
}

// Signup registers an admin together with their first store and logs
// them in. If the store cannot be created the account still exists and
// the response carries a warning.
func (a *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}
	for _, msg := range []string{validateEmail(in.Email), validatePassword(in.Password), validateStoreName(in.StoreName)} {
		if msg != "" {
			apperr.WriteError(w, apperr.Validation(msg))
			return
		}
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(in.Email)
	}
	user, err := a.userStore.Create(in.Email, in.Password, displayName, models.RoleAdmin)
	if errors.Is(err, store.ErrEmailTaken) {
		apperr.WriteError(w, apperr.Validation("An account with this email already exists."))
		return
	}
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not create the account.", err))
		return
	}

	resp := authResponse{User: user}
	st, err := a.stores.Create(r.Context(), user.ID, strings.TrimSpace(in.StoreName))
	if err != nil {
		slog.Error("signup store create failed", "user_id", user.ID, "error", err)
		resp.Warning = "Your account was created, but the store could not be. Create it from the dashboard."
	} else {
		resp.Store = st
	}

	if _, err := a.sessions.Create(r.Context(), w, sessionFor(user)); err != nil {
		slog.Error("session create failed", "error", err)
		apperr.WriteFailure(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slog.Info("admin signed up", "user_id", user.ID)
	apperr.WriteJSON(w, http.StatusCreated, resp)
}

// sessionFor builds the session of a freshly authenticated user. Users
// without an enrolled second factor are complete immediately.
func sessionFor(user *models.User) *session.Data {
	return &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		TwoFADone:   !user.TOTPEnabled,
	}
}

// Login checks credentials and starts a session. Users with 2FA enrolled
// must call TwoFAVerify before the admin API accepts the session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}

	user, err := a.userStore.FindByEmail(in.Email)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("An unexpected error occurred.", err))
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, in.Password) {
		apperr.WriteFailure(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	data := sessionFor(user)
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		apperr.WriteFailure(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	apperr.WriteJSON(w, http.StatusOK, authResponse{User: user, Requires2FA: !data.TwoFADone})
}

// Me returns the logged-in user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not load the account.", err))
		return
	}
	if user == nil {
		apperr.WriteFailure(w, http.StatusUnauthorized, "You must be logged in.")
		return
	}
	apperr.WriteJSON(w, http.StatusOK, authResponse{User: user, Requires2FA: !sess.TwoFADone})
}

// twoFASetupResponse carries what an authenticator app needs.
type twoFASetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"` // base64 PNG
}

// TwoFASetup generates a new TOTP secret for the caller and returns it
// with a QR code. The secret becomes active after the first successful
// TwoFAVerify. Users who already enrolled must verify first.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not load the account.", err))
		return
	}
	if user == nil {
		apperr.WriteFailure(w, http.StatusUnauthorized, "You must be logged in.")
		return
	}
	if user.TOTPEnabled && !sess.TwoFADone {
		apperr.WriteFailure(w, http.StatusForbidden, "Two-factor authentication is required.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not generate a secret.", err))
		return
	}
	if err := a.userStore.SetTOTPSecret(user.ID, key.Secret()); err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not save the secret.", err))
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not generate the QR code.", err))
		return
	}

	apperr.WriteJSON(w, http.StatusOK, twoFASetupResponse{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify checks a TOTP code, enables 2FA on first success and marks
// the session as complete.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var in struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		apperr.WriteError(w, err)
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		writeServiceError(w, r, apperr.Upstream("Could not load the account.", err))
		return
	}
	if user == nil {
		apperr.WriteFailure(w, http.StatusUnauthorized, "You must be logged in.")
		return
	}
	if user.TOTPSecret == nil {
		apperr.WriteError(w, apperr.Validation("Set up two-factor authentication first."))
		return
	}
	if !totp.Validate(strings.TrimSpace(in.Code), *user.TOTPSecret) {
		apperr.WriteError(w, apperr.Validation("Invalid code. Please try again."))
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			writeServiceError(w, r, apperr.Upstream("Could not enable two-factor authentication.", err))
			return
		}
		user.TOTPEnabled = true
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		apperr.WriteFailure(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	apperr.WriteJSON(w, http.StatusOK, authResponse{User: user})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	apperr.WriteJSON(w, http.StatusOK, nil)
}
