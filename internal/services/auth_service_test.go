package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// fakeRefreshTokenRepo is an in-memory refresh token repository.
type fakeRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := r.tokens[token]; ok && !rt.Revoked {
		return rt, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	if rt, ok := r.tokens[token]; ok {
		rt.Revoked = true
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	for _, rt := range r.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeRefreshTokenRepo, *capturingAuditRepo) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	assert.NoError(t, err)

	users := newFakeUserRepo(
		&models.User{ID: 1, Email: "arta@test.local", EncryptedPassword: string(hashed), Role: models.RoleStaff, Status: models.StatusActive},
		&models.User{ID: 2, Email: "suspended@test.local", EncryptedPassword: string(hashed), Role: models.RoleEmployee, Status: models.StatusSuspended},
	)
	tokens := newFakeRefreshTokenRepo()
	audit, auditRepo := newTestAudit()
	return NewAuthService(users, tokens, audit, testConfig()), tokens, auditRepo
}

func TestAuthService_LoginSuccessIsAudited(t *testing.T) {
	svc, _, auditRepo := newAuthFixture(t)

	result, err := svc.Login(context.Background(), "arta@test.local", "correct horse", "10.0.0.5")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "arta@test.local", result.User.Email)

	assert.Equal(t, []string{models.ActionLogin}, auditRepo.actions())
	assert.Equal(t, "10.0.0.5", auditRepo.logs[0].IPAddress)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _, auditRepo := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "arta@test.local", "wrong", "10.0.0.5")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@test.local", "correct horse", "10.0.0.5")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Failed attempts are not audited as logins.
	assert.Empty(t, auditRepo.logs)
}

func TestAuthService_LoginRejectsSuspendedAccount(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "suspended@test.local", "correct horse", "10.0.0.5")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "arta@test.local", "correct horse", "10.0.0.5")
	assert.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, result.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, result.RefreshToken, refreshed.RefreshToken)

	// The old token is single-use.
	_, err = svc.RefreshToken(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, tokens.tokens[result.RefreshToken].Revoked)
}

func TestAuthService_RefreshRejectsExpiredToken(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	ctx := context.Background()

	expired := time.Now().Add(-time.Hour)
	tokens.tokens["old"] = &models.RefreshToken{UserID: 1, Token: "old", ExpiresAt: &expired}

	_, err := svc.RefreshToken(ctx, "old")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LogoutRevokesAndAudits(t *testing.T) {
	svc, tokens, auditRepo := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "arta@test.local", "correct horse", "10.0.0.5")
	assert.NoError(t, err)

	userID := uint(1)
	actor := Actor{UserID: &userID, Role: models.RoleStaff, IP: "10.0.0.5"}
	err = svc.Logout(ctx, actor, result.RefreshToken)
	assert.NoError(t, err)
	assert.True(t, tokens.tokens[result.RefreshToken].Revoked)
	assert.Equal(t, []string{models.ActionLogin, models.ActionLogout}, auditRepo.actions())
}

func TestAuthService_ChangePasswordRevokesSessions(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "arta@test.local", "correct horse", "10.0.0.5")
	assert.NoError(t, err)

	userID := uint(1)
	actor := Actor{UserID: &userID, Role: models.RoleStaff}
	err = svc.ChangePassword(ctx, actor, "correct horse", "new password 123")
	assert.NoError(t, err)
	assert.True(t, tokens.tokens[result.RefreshToken].Revoked)

	// Old password no longer works, the new one does.
	_, err = svc.Login(ctx, "arta@test.local", "correct horse", "10.0.0.5")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "arta@test.local", "new password 123", "10.0.0.5")
	assert.NoError(t, err)
}
