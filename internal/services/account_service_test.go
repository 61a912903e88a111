package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/pkg/utils"
)

func (f *fixture) signUp(t *testing.T, email, password string) {
	t.Helper()
	_, err := f.accounts.CreateAccount(context.Background(), request_models.SignUpRequest{
		DisplayName: "Amina Client", Email: email, Password: password,
	})
	require.NoError(t, err)
}

func TestAccountService_PasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "amina@example.com", "secret123")

	require.NoError(t, f.accounts.ForgotPassword(ctx, " Amina@Example.com "))
	token := f.mail.resetToken("amina@example.com")
	require.NotEmpty(t, token)

	err := f.accounts.VerifyOtpToken(ctx, request_models.RequestVerifyOtpToken{Email: "amina@example.com", Token: token})
	require.NoError(t, err)
	err = f.accounts.VerifyOtpToken(ctx, request_models.RequestVerifyOtpToken{Email: "other@example.com", Token: token})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)

	err = f.accounts.ResetPassword(ctx, request_models.ForgotPasswordRequest{
		Email: "amina@example.com", NewPassword: "brand-new-pass", Token: token,
	})
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, request_models.LoginRequest{Email: "amina@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	login, err := f.accounts.Login(ctx, request_models.LoginRequest{Email: "amina@example.com", Password: "brand-new-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	// single use
	err = f.accounts.ResetPassword(ctx, request_models.ForgotPasswordRequest{
		Email: "amina@example.com", NewPassword: "another-pass", Token: token,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)
}

func TestAccountService_ForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.accounts.ForgotPassword(context.Background(), "nobody@example.com")

	assert.NoError(t, err)
	assert.Empty(t, f.mail.recipients())
}

func TestAccountService_ResetTokenRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "amina@example.com", "secret123")

	err := f.accounts.ResetPassword(ctx, request_models.ForgotPasswordRequest{
		Email: "amina@example.com", NewPassword: "brand-new-pass", Token: "made-up",
	})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)

	require.NoError(t, f.accounts.ForgotPassword(ctx, "amina@example.com"))
	token := f.mail.resetToken("amina@example.com")

	err = f.accounts.ResetPassword(ctx, request_models.ForgotPasswordRequest{
		Email: "amina@example.com", NewPassword: "short", Token: token,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	// a mismatched email burns the token
	err = f.accounts.ResetPassword(ctx, request_models.ForgotPasswordRequest{
		Email: "mallory@example.com", NewPassword: "brand-new-pass", Token: token,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)
	err = f.accounts.VerifyOtpToken(ctx, request_models.RequestVerifyOtpToken{Email: "amina@example.com", Token: token})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)

	require.NoError(t, f.accounts.ForgotPassword(ctx, "amina@example.com"))
	token = f.mail.resetToken("amina@example.com")
	f.clock.Advance(ResetTokenTTL + time.Second)
	err = f.accounts.ResetPassword(ctx, request_models.ForgotPasswordRequest{
		Email: "amina@example.com", NewPassword: "brand-new-pass", Token: token,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)
}

func TestAccountService_ListAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client(t)
	f.client(t)
	f.admin(t)
	f.professional(t, 30, map[string]float64{"painting": 10})

	page, err := f.accounts.ListAccounts(ctx, request_models.ListAccountsQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Items, 4)

	page, err = f.accounts.ListAccounts(ctx, request_models.ListAccountsQuery{Role: "client", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, string(db_models.RoleClient), page.Items[0].Role)

	_, err = f.accounts.ListAccounts(ctx, request_models.ListAccountsQuery{Page: 1, PageSize: 0})
	assert.ErrorIs(t, err, utils.ErrInvalidPageSize)
}
