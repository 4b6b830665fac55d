package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/homequest/internal/flow"
	"github.com/hitoshi/homequest/internal/identity"
	"github.com/hitoshi/homequest/internal/middleware"
	"github.com/hitoshi/homequest/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignIn(ctx context.Context, kind model.ProviderKind, cred identity.Credential) (*model.LoginResult, error)
	CheckLaunchState(ctx context.Context, sessionID string) *model.LaunchResult
	SignOut(ctx context.Context, sessionID string) error
	DeleteAccount(ctx context.Context, sessionID string) error
}

// NonceIssuer はAppleサインイン用のnonce発行インターフェース。
type NonceIssuer interface {
	Issue() (string, error)
}

// AuthHandler はサインインフロー関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	nonces    NonceIssuer
	validator *requestValidator
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, nonces NonceIssuer) *AuthHandler {
	return &AuthHandler{
		service:   service,
		nonces:    nonces,
		validator: newRequestValidator(),
	}
}

// signInRequest はサインインAPIのリクエストボディ。
type signInRequest struct {
	Provider          string `json:"provider" validate:"required,oneof=google apple"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	IdentityToken     string `json:"identity_token,omitempty"`
	Nonce             string `json:"nonce,omitempty"`
	ClientStatus      string `json:"client_status,omitempty" validate:"omitempty,oneof=cancelled no-surface"`
}

// SignIn はプロバイダーサインインを実行し、フロー判断を返す。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, model.NewValidationFailedError("リクエストボディを解析できません"))
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeAPIError(w, model.NewValidationFailedError(err.Error()))
		return
	}

	cred := identity.Credential{
		AuthorizationCode: req.AuthorizationCode,
		IdentityToken:     req.IdentityToken,
		Nonce:             req.Nonce,
		ClientStatus:      req.ClientStatus,
	}

	result, err := h.service.SignIn(r.Context(), model.ProviderKind(req.Provider), cred)
	if err != nil {
		slog.Warn("sign-in failed",
			slog.String("provider", req.Provider),
			slog.String("error", err.Error()),
		)
		writeFlowResult(w, flow.DecideError(err))
		return
	}

	writeFlowResult(w, flow.DecideLogin(result))
}

// AppleNonce はAppleサインイン用のnonceトークンを発行する。
// GET /auth/apple/nonce
func (h *AuthHandler) AppleNonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := h.nonces.Issue()
	if err != nil {
		slog.Error("failed to issue nonce", slog.String("error", err.Error()))
		writeAPIError(w, model.NewProcessingFailedError("nonceを発行できません"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"nonce": nonce})
}

// LaunchState はアプリ起動時の認証状態チェック結果を返す。
// どのような失敗でも未認証扱いとし、エラーステータスは返さない。
// GET /auth/launch-state
func (h *AuthHandler) LaunchState(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.BearerToken(r)
	result := h.service.CheckLaunchState(r.Context(), sessionID)
	writeFlowResult(w, flow.DecideLaunch(result))
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.BearerToken(r)
	if sessionID == "" {
		writeAPIError(w, model.NewAuthenticationFailedError("セッションがありません"))
		return
	}

	if err := h.service.SignOut(r.Context(), sessionID); err != nil {
		slog.Error("failed to sign out", slog.String("error", err.Error()))
		writeAPIError(w, flow.MapError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount はアカウントと関連レコードを削除する。
// DELETE /auth/account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.BearerToken(r)
	if sessionID == "" {
		writeAPIError(w, model.NewAuthenticationFailedError("セッションがありません"))
		return
	}

	if err := h.service.DeleteAccount(r.Context(), sessionID); err != nil {
		slog.Error("failed to delete account", slog.String("error", err.Error()))
		writeAPIError(w, flow.MapError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
