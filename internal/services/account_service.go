package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/repositories"
	mem "khaja/pkg/memcache"
	"khaja/pkg/utils"
)

// ResetTokenTTL is how long a password reset link stays usable.
const ResetTokenTTL = 15 * time.Minute

type AccountServiceInterface interface {
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountResponse, error)
	Me(ctx context.Context, actor request_models.Actor) (*response_models.AccountResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOtpToken(ctx context.Context, request request_models.RequestVerifyOtpToken) error
	ResetPassword(ctx context.Context, request request_models.ForgotPasswordRequest) error
	ListAccounts(ctx context.Context, query request_models.ListAccountsQuery) (*response_models.AccountPage, error)
}

type AccountService struct {
	db          *gorm.DB
	accountRepo repositories.AccountRepository
	proRepo     repositories.ProfessionalRepository
	subRepo     repositories.SubscriptionRepository
	resetTokens mem.ResetTokenStore
	mail        IMailService
	jwt         *utils.JWTManager
	log         *zap.Logger
}

func NewAccountService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	proRepo repositories.ProfessionalRepository,
	subRepo repositories.SubscriptionRepository,
	resetTokens mem.ResetTokenStore,
	mail IMailService,
	jwt *utils.JWTManager,
	log *zap.Logger,
) AccountServiceInterface {
	return &AccountService{
		db:          db,
		accountRepo: accountRepo,
		proRepo:     proRepo,
		subRepo:     subRepo,
		resetTokens: resetTokens,
		mail:        mail,
		jwt:         jwt,
		log:         log.Named("account"),
	}
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	startTime := time.Now()

	account, err := a.accountRepo.FindByEmail(ctx, normalizeEmail(request.Email))
	if err != nil {
		return nil, dbErr(err)
	}
	// unknown email and wrong password look the same to the caller
	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := a.jwt.CreateToken(account.ID, string(account.Role))
	if err != nil {
		return nil, err
	}

	a.log.Debug("login", zap.String("account_id", account.ID.String()), zap.Duration("took", time.Since(startTime)))

	return &response_models.AccountLoginResponse{
		Token:     token,
		ExpiresIn: int64(a.jwt.TTL().Seconds()),
		Role:      string(account.Role),
	}, nil
}

// CreateAccount registers a client or a professional. Professionals get an empty,
// unverified rate card in the same transaction.
func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountResponse, error) {
	email := normalizeEmail(request.Email)

	existingAccount, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, dbErr(err)
	}
	if existingAccount != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	role := db_models.RoleClient
	if request.Role == string(db_models.RoleProfessional) {
		role = db_models.RoleProfessional
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, err
	}

	newAccount := &db_models.Account{
		Name:         request.DisplayName,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	var professional *db_models.Professional
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := a.accountRepo.WithTx(tx).Insert(ctx, newAccount); err != nil {
			return err
		}
		if role != db_models.RoleProfessional {
			return nil
		}
		professional = &db_models.Professional{
			AccountID:          newAccount.ID,
			DisplayName:        request.DisplayName,
			City:               request.City,
			VerificationStatus: db_models.VerificationNone,
		}
		return a.proRepo.WithTx(tx).Create(ctx, professional)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, utils.ErrEmailAlreadyExists
		}
		return nil, dbErr(err)
	}

	a.log.Info("account created", zap.String("account_id", newAccount.ID.String()), zap.String("role", string(role)))

	resp := &response_models.AccountResponse{
		ID:    newAccount.ID,
		Name:  newAccount.Name,
		Email: newAccount.Email,
		Role:  string(newAccount.Role),
	}
	if professional != nil {
		resp.ProfessionalID = &professional.ID
	}
	return resp, nil
}

func (a *AccountService) Me(ctx context.Context, actor request_models.Actor) (*response_models.AccountResponse, error) {
	account, err := a.accountRepo.FindById(ctx, actor.ID)
	if err != nil {
		return nil, dbErr(err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	resp := &response_models.AccountResponse{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
		Role:  string(account.Role),
	}

	switch account.Role {
	case db_models.RoleClient:
		sub, err := a.subRepo.FindActiveByClient(ctx, account.ID)
		if err != nil {
			return nil, dbErr(err)
		}
		if sub != nil {
			resp.ActiveSubscription = &sub.ID
		}
	case db_models.RoleProfessional:
		pro, err := a.proRepo.FindByAccountID(ctx, account.ID)
		if err != nil {
			return nil, dbErr(err)
		}
		if pro != nil {
			resp.ProfessionalID = &pro.ID
		}
	}
	return resp, nil
}

// ForgotPassword mails a single-use reset link. An unknown email is not an error so the
// endpoint cannot be used to discover accounts.
func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return dbErr(err)
	}
	if account == nil {
		a.log.Debug("reset requested for unknown email")
		return nil
	}

	token := uuid.NewString()
	if err := a.resetTokens.Set(ctx, token, account.Email, ResetTokenTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := a.mail.SendMailToResetPassword(ctx, account.Email, token); err != nil {
		a.log.Warn("reset mail failed", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil
	}

	a.log.Info("reset link sent", zap.String("account_id", account.ID.String()))
	return nil
}

// VerifyOtpToken checks a reset token without using it up.
func (a *AccountService) VerifyOtpToken(ctx context.Context, request request_models.RequestVerifyOtpToken) error {
	email, ok, err := a.resetTokens.Peek(ctx, request.Token)
	if err != nil {
		return fmt.Errorf("read reset token: %w", err)
	}
	if !ok || email != normalizeEmail(request.Email) {
		return utils.ErrInvalidResetToken
	}
	return nil
}

// ResetPassword spends the token even when the email does not match it.
func (a *AccountService) ResetPassword(ctx context.Context, request request_models.ForgotPasswordRequest) error {
	if len(request.NewPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", utils.ErrInvalidInput)
	}

	email, err := a.resetTokens.Consume(ctx, request.Token)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if email == "" || email != normalizeEmail(request.Email) {
		return utils.ErrInvalidResetToken
	}

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return dbErr(err)
	}
	if account == nil {
		return utils.ErrInvalidResetToken
	}

	hashedPassword, err := utils.HashPassword(request.NewPassword)
	if err != nil {
		return err
	}
	if err := a.accountRepo.UpdatePassword(ctx, account.ID, hashedPassword); err != nil {
		return dbErr(err)
	}

	a.log.Info("password reset", zap.String("account_id", account.ID.String()))
	return nil
}

func (a *AccountService) ListAccounts(ctx context.Context, query request_models.ListAccountsQuery) (*response_models.AccountPage, error) {
	if query.Page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if query.PageSize < 1 || query.PageSize > 100 {
		return nil, utils.ErrInvalidPageSize
	}

	accounts, total, err := a.accountRepo.List(ctx, repositories.AccountFilter{
		Role:     db_models.Role(query.Role),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, dbErr(err)
	}

	page := &response_models.AccountPage{
		Items:    make([]response_models.AccountResponse, 0, len(accounts)),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for _, acc := range accounts {
		page.Items = append(page.Items, response_models.AccountResponse{
			ID:    acc.ID,
			Name:  acc.Name,
			Email: acc.Email,
			Role:  string(acc.Role),
		})
	}
	return page, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
