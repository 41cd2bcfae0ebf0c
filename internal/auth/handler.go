package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"authgate/pkg/cookie"
	"authgate/pkg/logger"
	"authgate/pkg/token"
)

const (
	// sessionCookieName identifies the browser across one login round-trip.
	// Its value is an opaque identifier, signed so it cannot be forged to
	// hijack another caller's pending state.
	sessionCookieName = "oauth_sid"

	// sessionCookieMaxAge matches the pending-login state TTL.
	sessionCookieMaxAge = 600
)

// Handler exposes the authentication HTTP surface.
type Handler struct {
	svc          *Service
	cookies      *cookie.Manager
	frontends    Frontends
	isProduction bool
	log          *slog.Logger
}

// NewHandler wires the HTTP layer around the callback orchestrator.
func NewHandler(svc *Service, cookies *cookie.Manager, frontends Frontends, isProduction bool, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.NewNope()
	}
	return &Handler{
		svc:          svc,
		cookies:      cookies,
		frontends:    frontends,
		isProduction: isProduction,
		log:          log,
	}
}

// Routes mounts the authentication endpoints. Mount under /auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/google", func(r chi.Router) {
		r.Get("/login", h.login)
		r.Get("/login/redirect", h.loginRedirect)
		r.Get("/callback", h.callback)
		r.Get("/callback/redirect", h.callbackRedirect)
	})
	r.Get("/verify", h.verify)
	r.Get("/health", h.health)
	return r
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	AuthURL string `json:"auth_url,omitempty"`
}

type userPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture,omitempty"`
	GoogleID string `json:"google_id,omitempty"`
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type callbackResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	User        *userPayload  `json:"user,omitempty"`
	Token       *tokenPayload `json:"token,omitempty"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

type verifyResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *userPayload `json:"user,omitempty"`
}

// login starts the OAuth flow and returns the authorization URL as JSON.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sessionID := h.ensureSession(w, r)

	authURL, err := h.svc.BeginLogin(r.Context(), sessionID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to begin login", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, loginResponse{
			Success: false,
			Message: "Google login failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Google OAuth URL generated successfully",
		AuthURL: authURL,
	})
}

// loginRedirect starts the OAuth flow and redirects the browser straight to
// the provider's consent page.
func (h *Handler) loginRedirect(w http.ResponseWriter, r *http.Request) {
	sessionID := h.ensureSession(w, r)

	authURL, err := h.svc.BeginLogin(r.Context(), sessionID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to begin login", slog.String("error", err.Error()))
		h.redirectError(w, r, "oauth_failed")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// callback completes the OAuth flow and returns the result as JSON.
// Failures are classified results, not HTTP errors.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	result, err := h.completeFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusOK, callbackResponse{
			Success: false,
			Message: publicMessage(err),
		})
		return
	}

	h.cookies.Delete(w, sessionCookieName)

	frontend := h.frontends.FromRequest(r)
	writeJSON(w, http.StatusOK, callbackResponse{
		Success: true,
		Message: "Google OAuth authentication successful",
		User: &userPayload{
			Email:    result.User.Email,
			Name:     result.User.Name,
			Picture:  result.User.Picture,
			GoogleID: result.User.ID,
		},
		Token: &tokenPayload{
			AccessToken: result.SessionToken,
			TokenType:   "Bearer",
			ExpiresIn:   cookie.SessionTokenMaxAge,
		},
		RedirectURL: frontend + "/dashboard",
	})
}

// callbackRedirect is the endpoint the provider redirects to. On success it
// sets the session token cookie per the environment policy and sends the
// browser to the frontend dashboard; on failure it redirects to the frontend
// login page with a short error code. Provider detail stays in the logs.
func (h *Handler) callbackRedirect(w http.ResponseWriter, r *http.Request) {
	result, err := h.completeFromRequest(r)
	if err != nil {
		h.redirectError(w, r, ErrorCode(err))
		return
	}

	frontend := h.frontends.FromRequest(r)
	cookie.Apply(w, cookie.Policy(h.isProduction, frontend), result.SessionToken)
	h.cookies.Delete(w, sessionCookieName)

	http.Redirect(w, r, frontend+"/dashboard?auth=success", http.StatusFound)
}

// verify validates the session token cookie and returns the embedded user.
// The public payload does not distinguish expired from invalid; that split
// lives only in the logs.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	raw, err := h.cookies.Get(r, cookie.SessionTokenName)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, verifyResponse{
			Success: false,
			Message: "No token provided",
		})
		return
	}

	claims, err := h.svc.VerifySession(raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			h.log.WarnContext(r.Context(), "session token expired")
		} else {
			h.log.WarnContext(r.Context(), "session token invalid", slog.String("error", err.Error()))
		}
		writeJSON(w, http.StatusUnauthorized, verifyResponse{
			Success: false,
			Message: "Invalid or expired token",
		})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		User: &userPayload{
			Email:    claims.Email,
			Name:     claims.Name,
			Picture:  claims.Picture,
			GoogleID: claims.GoogleID,
		},
	})
}

// health reports the auth service status and its endpoints.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "auth",
		"endpoints": map[string]string{
			"google_login":    "/auth/google/login",
			"google_callback": "/auth/google/callback",
			"verify_token":    "/auth/verify",
		},
	})
}

// completeFromRequest runs the callback orchestration for both callback
// variants. Detailed failure context is logged here, once.
func (h *Handler) completeFromRequest(r *http.Request) (*Result, error) {
	// Absent or unverifiable session cookie means no stored state can
	// match; the orchestrator rejects it as a state mismatch.
	sessionID, _ := h.cookies.GetSigned(r, sessionCookieName)

	q := r.URL.Query()
	result, err := h.svc.CompleteCallback(r.Context(), sessionID, Callback{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "oauth callback rejected",
			slog.String("code", ErrorCode(err)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return result, nil
}

// redirectError sends the browser to the frontend login page with an error code.
func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	frontend := h.frontends.FromRequest(r)
	http.Redirect(w, r, fmt.Sprintf("%s/login?error=%s", frontend, url.QueryEscape(code)), http.StatusFound)
}

// ensureSession returns the caller's browser session identifier, creating
// and setting it when absent or unverifiable.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, err := h.cookies.GetSigned(r, sessionCookieName); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	_ = h.cookies.SetSigned(w, sessionCookieName, id, sessionCookieMaxAge)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
