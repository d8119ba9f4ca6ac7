package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// SessionManager is the slice of auth.Sessions the handlers use.
type SessionManager interface {
	Create(w http.ResponseWriter, p user.Payload) error
	Session(r *http.Request) (user.Payload, bool)
	Destroy(w http.ResponseWriter)
}

type LoginObserver interface {
	ObserveLogin(result string)
}

const (
	msgInvalidJSON        = "Invalid JSON body"
	msgMissingFields      = "Missing required fields: email and password"
	msgInvalidCredentials = "Invalid email or password"
	msgInternal           = "Internal server error"
	msgNotAuthenticated   = "Not authenticated"
)

type AuthHandler struct {
	users      UserReader
	isNotFound func(error) bool
	sessions   SessionManager
	delay      time.Duration
	decoyHash  string
	observer   LoginObserver
	log        *slog.Logger
}

type AuthHandlerConfig struct {
	// LoginDelay is applied to every login request before any work is done.
	LoginDelay time.Duration
	// IsNotFound reports whether a UserReader error means "no such email".
	IsNotFound func(error) bool
	Observer   LoginObserver
	Log        *slog.Logger
}

func NewAuthHandler(users UserReader, sessions SessionManager, cfg AuthHandlerConfig) (*AuthHandler, error) {
	decoy, err := security.DecoyHash()
	if err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		users:      users,
		isNotFound: cfg.IsNotFound,
		sessions:   sessions,
		delay:      cfg.LoginDelay,
		decoyHash:  decoy,
		observer:   cfg.Observer,
		log:        log,
	}, nil
}

// LoginRequest uses pointers so that a missing field and a wrong JSON type
// are both rejected, while an empty string is still a (failing) credential.
type LoginRequest struct {
	Email    *string `json:"email" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login.
//
// The fixed delay narrows, but does not remove, the timing gap between
// unknown emails and wrong passwords: bcrypt cost still varies.
func (h *AuthHandler) Login(ctx *gin.Context) {
	if !h.wait(ctx.Request.Context()) {
		ctx.Abort()
		return
	}

	req, err := bindLogin(ctx)
	if err != nil {
		h.observe("bad_request")
		RespondAuthError(ctx, http.StatusBadRequest, loginBindMessage(err))
		return
	}

	// short timeout for the lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, *req.Email)
	if err != nil {
		if h.isNotFound == nil || !h.isNotFound(err) {
			h.log.ErrorContext(ctx.Request.Context(), "user lookup failed", "err", err)
			h.observe("error")
			RespondAuthError(ctx, http.StatusInternalServerError, msgInternal)
			return
		}

		// burn a comparison so unknown emails cost roughly what wrong passwords do
		_ = security.CheckPassword(h.decoyHash, *req.Password)
		h.observe("invalid_credentials")
		RespondAuthError(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, *req.Password); err != nil {
		h.observe("invalid_credentials")
		RespondAuthError(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	payload := foundUser.Payload()

	if err := h.sessions.Create(ctx.Writer, payload); err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create session failed", "err", err)
		h.observe("error")
		RespondAuthError(ctx, http.StatusInternalServerError, msgInternal)
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "login succeeded", "user_id", payload.ID, "role", payload.Role)
	h.observe("success")

	ctx.JSON(http.StatusOK, payload)
}

// Logout handles POST /api/auth/logout. It only clears the caller's cookie;
// tokens already issued elsewhere stay valid until they expire.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.sessions.Destroy(ctx.Writer)
	ctx.Status(http.StatusOK)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(ctx *gin.Context) {
	payload, ok := h.sessions.Session(ctx.Request)
	if !ok {
		RespondAuthError(ctx, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, payload)
}

// wait blocks for the configured delay; it returns false if the client went away.
func (h *AuthHandler) wait(ctx context.Context) bool {
	if h.delay <= 0 {
		return true
	}

	t := time.NewTimer(h.delay)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *AuthHandler) observe(result string) {
	if h.observer != nil {
		h.observer.ObserveLogin(result)
	}
}

var errNotJSON = errors.New("body is not a single JSON value")

// bindLogin reads the whole body before decoding, so a valid object followed
// by garbage is rejected instead of silently truncated.
func bindLogin(ctx *gin.Context) (LoginRequest, error) {
	var req LoginRequest

	raw, err := ctx.GetRawData()
	if err != nil {
		return req, err
	}
	if !json.Valid(raw) {
		return req, errNotJSON
	}

	if err := binding.JSON.BindBody(raw, &req); err != nil {
		return req, err
	}
	return req, nil
}

func loginBindMessage(err error) string {
	var (
		validationErrs validator.ValidationErrors
		typeError      *json.UnmarshalTypeError
	)

	// the body parsed but the fields are absent or not strings
	if errors.As(err, &validationErrs) || errors.As(err, &typeError) {
		return msgMissingFields
	}

	// empty body, syntax errors, trailing data, oversized bodies
	return msgInvalidJSON
}
