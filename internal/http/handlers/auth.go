package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielokoye/staffhub/internal/auth"
	"github.com/danielokoye/staffhub/internal/config"
	"github.com/danielokoye/staffhub/internal/domain/user"
	"github.com/danielokoye/staffhub/internal/http/middlewares"
	"github.com/danielokoye/staffhub/internal/repo/postgres"
	"github.com/danielokoye/staffhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) error
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type RefreshTokenStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, row postgres.RefreshTokenRow) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (postgres.RefreshTokenRow, error)
	Revoke(ctx context.Context, tx pgx.Tx, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, tx pgx.Tx, userID string) error
	DeleteExpired(ctx context.Context) error
}

type AuthHandler struct {
	users        UserStore
	jwt          *auth.Manager
	refreshStore RefreshTokenStore
	revoked      auth.RevocationList
}

func NewAuthHandler(users UserStore, jwtManager *auth.Manager, refreshStore RefreshTokenStore, revoked auth.RevocationList) *AuthHandler {
	return &AuthHandler{
		users:        users,
		jwt:          jwtManager,
		refreshStore: refreshStore,
		revoked:      revoked,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	err := security.ValidatePassword(req.Password, req.Username, req.Email)

	if err != nil {
		var policyErr *security.PolicyError

		if errors.As(err, &policyErr) {
			RespondBadRequest(ctx, gin.H{"password": policyErr.Reasons}, "Registration failed due to validation errors.")
			return
		}

		RespondInternal(ctx, "An error occurred during registration.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "An error occurred during registration.")
		return
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = h.users.Create(cctx, u)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrEmailTaken):
			RespondBadRequest(ctx, gin.H{"email": "This email is already taken."}, "Registration failed due to validation errors.")
		case errors.Is(err, postgres.ErrUsernameTaken):
			RespondBadRequest(ctx, gin.H{"username": "This username is already taken."}, "Registration failed due to validation errors.")
		default:
			RespondInternal(ctx, "An error occurred during registration.")
		}
		return
	}

	pair, err := h.issueTokenPair(cctx, u)

	if err != nil {
		RespondInternal(ctx, "An error occurred during registration.")
		return
	}

	RespondCreated(ctx, pair, "User registered successfully.")
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// On unknown username and on wrong password the response must be
	// byte-for-byte the same: do not leak which one happened.
	const loginFailed = "Login failed due to invalid username or password."

	foundUser, err := h.users.GetByUsername(cctx, req.Username)

	if err != nil {
		RespondUnauthorized(ctx, loginFailed)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil || !foundUser.IsActive {
		RespondUnauthorized(ctx, loginFailed)
		return
	}

	pair, err := h.issueTokenPair(cctx, foundUser)

	if err != nil {
		RespondInternal(ctx, "An error occurred during login.")
		return
	}

	RespondOK(ctx, pair, "Login successful.")
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)

	if err != nil {
		RespondUnauthorized(ctx, "Invalid refresh token.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// Fast path: a rotated jti sits in the revocation list until the
	// token would have expired anyway.
	isRevoked, err := h.revoked.IsRevoked(cctx, claims.JTI)

	if err == nil && isRevoked {
		RespondUnauthorized(ctx, "Invalid refresh token.")
		return
	}

	// rotation with a tx with row lock

	tx, err := h.refreshStore.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session.")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	row, err := h.refreshStore.GetForUpdate(cctx, tx, claims.JTI)

	if err != nil {
		RespondUnauthorized(ctx, "Invalid refresh token.")
		return
	}

	if row.RevokedAt != nil {
		RespondUnauthorized(ctx, "Invalid refresh token.")
		return
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		RespondUnauthorized(ctx, "Refresh token expired.")
		return
	}

	// verify hash matches the presented token (prevents token substitution)

	if row.TokenHash != h.jwt.HashRefreshToken(req.RefreshToken) {
		RespondUnauthorized(ctx, "Invalid refresh token.")
		return
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(row.UserID, claims.Username, claims.IsAdmin)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session.")
		return
	}

	// revoke old, insert new

	err = h.refreshStore.Revoke(cctx, tx, row.ID, &newJTI)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session.")
		return
	}

	newRow := postgres.RefreshTokenRow{
		ID:        newJTI,
		UserID:    row.UserID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Create(cctx, tx, newRow)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session.")
		return
	}

	err = tx.Commit(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session.")
		return
	}

	// The exchanged jti only needs tracking until its own expiry.
	_ = h.revoked.Revoke(cctx, claims.JTI, time.Until(row.ExpiresAt))

	// opportunistic cleanup of long-expired rows
	_ = h.refreshStore.DeleteExpired(cctx)

	accessToken, err := h.jwt.GenerateAccessToken(row.UserID, claims.Username, claims.IsAdmin)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token.")
		return
	}

	RespondOK(ctx, TokenPair{AccessToken: accessToken, RefreshToken: newRaw}, "Session refreshed.")
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)

	if err != nil {
		// Nothing to revoke; logout is idempotent.
		ctx.Status(http.StatusNoContent)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)

	if err != nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	_ = h.refreshStore.Revoke(cctx, tx, claims.JTI, nil)
	_ = tx.Commit(cctx)

	if claims.ExpiresAt != nil {
		_ = h.revoked.Revoke(cctx, claims.JTI, time.Until(claims.ExpiresAt.Time))
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Authentication required.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "An error occurred while changing the password.")
		return
	}

	err = security.CheckPassword(u.PasswordHash, req.OldPassword)

	if err != nil {
		RespondBadRequest(ctx, gin.H{"oldPassword": "Incorrect old password."}, "Password change failed.")
		return
	}

	// The new password is checked against the caller's own attributes.
	err = security.ValidatePassword(req.NewPassword, u.Username, u.Email, u.FirstName, u.LastName)

	if err != nil {
		var policyErr *security.PolicyError

		if errors.As(err, &policyErr) {
			RespondBadRequest(ctx, gin.H{"newPassword": policyErr.Reasons}, "Password change failed due to validation errors.")
			return
		}

		RespondInternal(ctx, "An error occurred while changing the password.")
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "An error occurred while changing the password.")
		return
	}

	err = h.users.UpdatePassword(cctx, u.ID, hash)

	if err != nil {
		RespondInternal(ctx, "An error occurred while changing the password.")
		return
	}

	// Changing the password ends every other session: outstanding
	// refresh tokens for this user are dead from here on. The hash is
	// already updated, so a failure here must not report success with
	// the old sessions still alive.
	err = h.revokeAllSessions(cctx, u.ID)

	if err != nil {
		slog.Default().ErrorContext(cctx, "auth.change_password.revoke_sessions",
			"error", err,
			"user_id", u.ID,
		)
		RespondInternal(ctx, "Password was updated but existing sessions could not be ended.")
		return
	}

	RespondOK(ctx, nil, "Password updated successfully.")
}

func (h *AuthHandler) revokeAllSessions(ctx context.Context, userID string) error {
	tx, err := h.refreshStore.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = h.refreshStore.RevokeAllForUser(ctx, tx, userID)

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Authentication required.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "No profile found for the authenticated user.")
			return
		}

		RespondInternal(ctx, "An error occurred while fetching the profile.")
		return
	}

	RespondOK(ctx, u.Profile(), "Profile fetched successfully.")
}

// issueTokenPair mints an access/refresh pair and persists the refresh
// token row (hash only) in its own transaction.
func (h *AuthHandler) issueTokenPair(ctx context.Context, u user.User) (TokenPair, error) {
	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Username, u.IsAdmin)

	if err != nil {
		return TokenPair{}, err
	}

	rawRefresh, jti, expiresAt, err := h.jwt.GenerateRefreshToken(u.ID, u.Username, u.IsAdmin)

	if err != nil {
		return TokenPair{}, err
	}

	tx, err := h.refreshStore.BeginTx(ctx)

	if err != nil {
		return TokenPair{}, err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(rawRefresh),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Create(ctx, tx, row)

	if err != nil {
		return TokenPair{}, err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: rawRefresh}, nil
}
